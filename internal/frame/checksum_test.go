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

import "testing"

func TestChecksum(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{
			name: "empty data",
			data: []byte{},
			want: 0xFF,
		},
		{
			name: "single byte",
			data: []byte{0x42},
			want: 0xBD,
		},
		{
			name: "self cancelling",
			data: []byte{0x5A, 0x5A},
			want: 0xFF,
		},
		{
			name: "uid query header",
			data: []byte{0x01, 0x08, 0xA1, 0x20, 0x00, 0x01, 0x00},
			want: 0x76, // the module's documented constant (-138 as a byte)
		},
		{
			name: "read block 4 header",
			data: []byte{0x01, 0x08, 0xA3, 0x20, 0x04, 0x01, 0x00},
			want: 0x70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Checksum(tt.data); got != tt.want {
				t.Errorf("Checksum() = %02X, want %02X", got, tt.want)
			}
		})
	}
}

func TestFillChecksum(t *testing.T) {
	t.Parallel()

	frm := []byte{0x01, 0x08, 0xA1, 0x20, 0x00, 0x01, 0x00, 0x00}
	FillChecksum(frm)
	if frm[7] != 0x76 {
		t.Errorf("FillChecksum() wrote %02X, want 76", frm[7])
	}
	if !ValidChecksum(frm) {
		t.Error("ValidChecksum() = false after FillChecksum")
	}

	// Empty frames are left alone
	FillChecksum(nil)
	if ValidChecksum(nil) {
		t.Error("ValidChecksum(nil) = true, want false")
	}
}

// TestChecksumProperty verifies that XOR-ing a whole filled frame yields 0xFF,
// i.e. the trailing byte is always the inverted fold of the rest.
func TestChecksumProperty(t *testing.T) {
	t.Parallel()
	for i := 0; i < 256; i++ {
		frm := []byte{0x01, byte(i), byte(255 - i), 0x00}
		FillChecksum(frm)
		var fold byte
		for _, b := range frm {
			fold ^= b
		}
		if fold != 0xFF {
			t.Errorf("frame % X folds to %02X, want FF", frm, fold)
		}
	}
}
