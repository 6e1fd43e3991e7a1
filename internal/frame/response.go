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

// Response builders mirror what the module sends back. They are used by the
// simulated card and by tests.

// BuildUIDResponse builds a 12-byte UID response carrying uid.
func BuildUIDResponse(uid [UIDSize]byte) []byte {
	resp := make([]byte, UIDResponseLength)
	resp[0] = CommandClass
	resp[lengthOffset] = UIDResponseLength
	resp[commandOffset] = CmdQueryUID
	resp[3] = Address
	resp[StatusOffset] = 0x00
	resp[5] = BlockCount
	resp[6] = UIDSize
	copy(resp[UIDOffset:], uid[:])
	FillChecksum(resp)
	return resp
}

// BuildAckResponse builds an 8-byte write acknowledgement with the given status.
func BuildAckResponse(status byte) []byte {
	resp := make([]byte, AckResponseLength)
	resp[0] = CommandClass
	resp[lengthOffset] = AckResponseLength
	resp[commandOffset] = CmdWriteBlock
	resp[3] = Address
	resp[StatusOffset] = status
	FillChecksum(resp)
	return resp
}

// BuildBlockResponse builds a 22-byte block read response carrying data.
func BuildBlockResponse(data [BlockSize]byte) []byte {
	resp := make([]byte, BlockResponseLength)
	resp[0] = CommandClass
	resp[lengthOffset] = BlockResponseLength
	resp[commandOffset] = CmdReadBlock
	resp[3] = Address
	copy(resp[BlockDataOffset:], data[:])
	FillChecksum(resp)
	return resp
}

// Command returns the command code of a request frame, or 0 if frm is too short.
func Command(frm []byte) byte {
	if len(frm) <= commandOffset {
		return 0
	}
	return frm[commandOffset]
}

// TargetBlock returns the block number addressed by a request frame.
func TargetBlock(frm []byte) byte {
	if len(frm) <= blockOffset {
		return 0
	}
	return frm[blockOffset]
}

// WritePayload returns the 16 data bytes of a write request, or nil if frm is
// not a well-sized write request.
func WritePayload(frm []byte) []byte {
	if len(frm) != WriteBlockLength {
		return nil
	}
	return frm[payloadOffset : payloadOffset+BlockSize]
}
