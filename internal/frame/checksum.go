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

// Checksum returns the bitwise NOT of the XOR of every byte in data.
// Callers pass the bytes preceding the checksum slot.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return ^sum
}

// FillChecksum writes the checksum of frm[:len(frm)-1] into the last byte of frm.
func FillChecksum(frm []byte) {
	if len(frm) == 0 {
		return
	}
	last := len(frm) - 1
	frm[last] = Checksum(frm[:last])
}

// ValidChecksum reports whether the last byte of frm is the checksum of the
// bytes before it.
func ValidChecksum(frm []byte) bool {
	if len(frm) == 0 {
		return false
	}
	last := len(frm) - 1
	return frm[last] == Checksum(frm[:last])
}
