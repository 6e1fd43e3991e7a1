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

package rfid

import "fmt"

// DefaultBaudRate is the only rate the reader module speaks
const DefaultBaudRate = 9600

// LinkConfig describes the serial link to the reader module.
type LinkConfig struct {
	// Port is the serial device, e.g. /dev/ttyS0 or COM3
	Port string
	// TXPin and RXPin name the host pins wired to the module's TX and RX.
	// They are only checked to exist and logged; nothing is muxed, so Port
	// must already be routed to them. They are optional.
	TXPin string
	RXPin string
	// BaudRate defaults to DefaultBaudRate when zero
	BaudRate int
}

// WithDefaults returns a copy of c with zero fields filled in
func (c LinkConfig) WithDefaults() LinkConfig {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	return c
}

// Validate checks that the configuration can be used to open a link
func (c LinkConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: empty port", ErrInvalidParameter)
	}
	if c.BaudRate < 0 {
		return fmt.Errorf("%w: baud rate %d", ErrInvalidParameter, c.BaudRate)
	}
	if (c.TXPin == "") != (c.RXPin == "") {
		return fmt.Errorf("%w: TX and RX pins must be given together", ErrInvalidParameter)
	}
	if c.TXPin != "" && c.TXPin == c.RXPin {
		return fmt.Errorf("%w: TX and RX share pin %s", ErrInvalidParameter, c.TXPin)
	}
	return nil
}

// Transport is the serial channel to the reader module. It owns the link
// configuration and the connected state. Implementations need not be safe
// for concurrent use; Session serialises access.
type Transport interface {
	// Configure applies cfg and opens the link
	Configure(cfg LinkConfig) error

	// Disconnect closes the link. The configuration is kept for Reconnect.
	Disconnect() error

	// Reconnect reopens the link with the last configuration
	Reconnect() error

	// IsConnected returns true while the link is open
	IsConnected() bool

	// WriteFrame discards any unread input and writes frm
	WriteFrame(frm []byte) error

	// Buffered reports how many received bytes are waiting to be read
	Buffered() int

	// Read consumes up to len(p) buffered bytes
	Read(p []byte) (int, error)

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)
