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

// Package frame provides frame construction, parsing and protocol constants
// for the reader module's serial command set.
package frame

// Frame header bytes shared by every request and response
const (
	CommandClass = 0x01 // First byte of every frame
	Address      = 0x20 // Module address byte
	BlockCount   = 0x01 // Blocks per read/write command
)

// Command codes
const (
	CmdQueryUID   = 0xA1
	CmdReadBlock  = 0xA3
	CmdWriteBlock = 0xA4
)

// Request frame lengths (the length byte of a frame equals its total size)
const (
	QueryUIDLength   = 8
	ReadBlockLength  = 8
	WriteBlockLength = 23
)

// Response frame lengths
const (
	UIDResponseLength   = 12
	AckResponseLength   = 8
	BlockResponseLength = 22
)

// Offsets into response frames
const (
	StatusOffset    = 4
	UIDOffset       = 7
	BlockDataOffset = 5
)

// Tag geometry
const (
	BlockSize = 16
	UIDSize   = 4
)

// Offsets into request frames
const (
	lengthOffset  = 1
	commandOffset = 2
	blockOffset   = 4
	countOffset   = 5
	payloadOffset = 6
)
