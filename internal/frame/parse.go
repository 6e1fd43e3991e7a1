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

package frame

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Parse errors
var (
	ErrUnexpectedLength = errors.New("unexpected response length")
	ErrBadChecksum      = errors.New("response checksum mismatch")
	ErrRejected         = errors.New("write rejected by module")
)

// ParseOptions controls how strictly responses are checked
type ParseOptions struct {
	// VerifyChecksum rejects responses whose trailing checksum is wrong.
	// The module itself never checks, so this is off unless asked for.
	VerifyChecksum bool
}

func (o ParseOptions) check(resp []byte, want int) error {
	if len(resp) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrUnexpectedLength, len(resp), want)
	}
	if o.VerifyChecksum && !ValidChecksum(resp) {
		return fmt.Errorf("%w: got %02X, want %02X",
			ErrBadChecksum, resp[len(resp)-1], Checksum(resp[:len(resp)-1]))
	}
	return nil
}

// ParseUID extracts the 4-byte UID from a 12-byte UID response.
func ParseUID(resp []byte, opts ParseOptions) ([UIDSize]byte, error) {
	var uid [UIDSize]byte
	if err := opts.check(resp, UIDResponseLength); err != nil {
		return uid, err
	}
	copy(uid[:], resp[UIDOffset:UIDOffset+UIDSize])
	return uid, nil
}

// ParseWriteAck checks an 8-byte write acknowledgement. A zero status byte
// means the block was written.
func ParseWriteAck(resp []byte, opts ParseOptions) error {
	if err := opts.check(resp, AckResponseLength); err != nil {
		return err
	}
	if status := resp[StatusOffset]; status != 0x00 {
		return fmt.Errorf("%w: status %02X", ErrRejected, status)
	}
	return nil
}

// ParseBlock extracts the 16 data bytes of a 22-byte block read response.
// Terminator scanning is left to the caller.
func ParseBlock(resp []byte, opts ParseOptions) ([BlockSize]byte, error) {
	var data [BlockSize]byte
	if err := opts.check(resp, BlockResponseLength); err != nil {
		return data, err
	}
	copy(data[:], resp[BlockDataOffset:BlockDataOffset+BlockSize])
	return data, nil
}

// Hex renders b as uppercase hex without separators
func Hex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
