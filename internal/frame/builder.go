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

import "errors"

// ErrBlockTooLarge is returned when block data exceeds BlockSize.
var ErrBlockTooLarge = errors.New("block data exceeds 16 bytes")

// newRequest allocates a request of the given total length with the common
// header filled in. The checksum slot is left for FillChecksum.
func newRequest(length int, cmd, block byte) []byte {
	frm := make([]byte, length)
	frm[0] = CommandClass
	frm[lengthOffset] = byte(length)
	frm[commandOffset] = cmd
	frm[3] = Address
	frm[blockOffset] = block
	frm[countOffset] = BlockCount
	return frm
}

// BuildUIDQuery builds the 8-byte UID query: 01 08 A1 20 00 01 00 chk.
func BuildUIDQuery() []byte {
	frm := newRequest(QueryUIDLength, CmdQueryUID, 0x00)
	FillChecksum(frm)
	return frm
}

// BuildReadBlock builds the 8-byte read command for a single block.
func BuildReadBlock(block byte) []byte {
	frm := newRequest(ReadBlockLength, CmdReadBlock, block)
	FillChecksum(frm)
	return frm
}

// BuildWriteBlock builds the 23-byte write command for a single block.
// Data shorter than BlockSize is zero-padded.
func BuildWriteBlock(block byte, data []byte) ([]byte, error) {
	if len(data) > BlockSize {
		return nil, ErrBlockTooLarge
	}
	frm := newRequest(WriteBlockLength, CmdWriteBlock, block)
	copy(frm[payloadOffset:payloadOffset+BlockSize], data)
	FillChecksum(frm)
	return frm, nil
}
