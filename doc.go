// go-rfid
// Copyright (c) 2025 The go-rfid Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-rfid.
//
// go-rfid is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-rfid is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-rfid; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

/*
Package rfid drives a UART RFID/NFC reader module (the DFRobot-style
"01 08 A1 20" command set) and stores small payloads on MIFARE Classic 1K
cards.

The module answers three commands: UID query, read one block and write one
block. Every frame ends with a checksum that is the inverted XOR of the bytes
before it, and every reply has a fixed size, so a round trip is: write the
frame, wait a settle delay (50 ms at 9600 baud), then take the reply only if
exactly the expected number of bytes arrived.

Payloads are written across blocks 4, 5, 6, 8, 9 and 10 (block 7 is the
sector trailer) followed by two zero bytes. Reading stops at the first
00 00 pair.

Basic Usage:

	import (
	    "github.com/cspanjian/go-rfid"
	    "github.com/cspanjian/go-rfid/transport/uart"
	)

	transport := uart.New(uart.DefaultConfig())
	session, err := rfid.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	if err := session.Initialize(rfid.LinkConfig{Port: "/dev/ttyS0"}); err != nil {
	    log.Fatal(err)
	}
	defer session.Close()

	uid, err := session.QueryUID(ctx)
	if errors.Is(err, rfid.ErrNoResponse) {
	    // no card in the field
	}

	if err := session.WriteText(ctx, "hello"); err != nil {
	    log.Fatal(err)
	}
	text, err := session.ReadText(ctx)

Polling:

The polling package runs detection in a loop and calls a handler once per
detection, never starting a new detection while the handler runs:

	loop := polling.NewLoop(session, nil)
	loop.SetHandler(func(ctx context.Context) error {
	    uid, err := session.QueryUID(ctx)
	    ...
	})
	go loop.Run(ctx)

Error Handling:

Operations return errors that can be inspected with errors.Is:

	ErrNoResponse        no card, or the reply had the wrong length
	ErrChecksumMismatch  bad reply checksum (only with WithChecksumValidation)
	ErrWriteRejected     the module refused a block write
	ErrPayloadTruncated  the payload was cut to the block budget
	ErrVerifyMismatch    a block read back differently (WithWriteVerification)
	ErrNotConnected      the link is closed

Thread Safety:

A Session serialises its round trips and may be shared between a polling
handler and other goroutines. Transports guard their own state, but a frame
and its reply only stay paired when the link is driven through one Session.
*/
package rfid
