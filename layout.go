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

import (
	"fmt"
	"slices"

	"github.com/cspanjian/go-rfid/internal/frame"
)

// BlockSize is the size of one tag memory block
const BlockSize = frame.BlockSize

// TerminatorSize is the length of the 00 00 end-of-data marker
const TerminatorSize = 2

// OverflowPolicy decides what happens to payloads that exceed the budget
type OverflowPolicy int

const (
	// OverflowTruncate writes as much as fits and then reports
	// ErrPayloadTruncated. This matches what the reader firmware examples do.
	OverflowTruncate OverflowPolicy = iota
	// OverflowReject refuses oversized payloads before writing anything.
	OverflowReject
)

// Layout maps the payload stream onto tag blocks.
type Layout struct {
	// Reserved block indices are never used for payload (sector trailers)
	Reserved []byte
	// Budget is the number of usable blocks
	Budget int
	// Overflow selects the oversized payload policy
	Overflow OverflowPolicy
	// Base is the first block of the payload
	Base byte
}

// DefaultLayout uses blocks 4, 5, 6, 8, 9 and 10 of a MIFARE Classic 1K,
// skipping the sector 1 trailer at block 7.
func DefaultLayout() Layout {
	return Layout{
		Base:     0x04,
		Reserved: []byte{0x07},
		Budget:   6,
	}
}

// CompactLayout uses only sector 1 (blocks 4, 5 and 6).
func CompactLayout() Layout {
	return Layout{
		Base:     0x04,
		Reserved: []byte{0x07},
		Budget:   3,
	}
}

// Validate checks the layout fits in a MIFARE Classic 1K
func (l Layout) Validate() error {
	if l.Budget <= 0 {
		return fmt.Errorf("%w: block budget %d", ErrInvalidParameter, l.Budget)
	}
	blocks := l.Blocks()
	if len(blocks) < l.Budget {
		return fmt.Errorf("%w: layout needs %d blocks from %d", ErrInvalidParameter, l.Budget, l.Base)
	}
	if last := blocks[len(blocks)-1]; last >= 64 {
		return fmt.Errorf("%w: block %d outside MIFARE Classic 1K", ErrInvalidParameter, last)
	}
	if l.Base == 0 {
		return fmt.Errorf("%w: block 0 holds the manufacturer data", ErrInvalidParameter)
	}
	return nil
}

// Blocks returns the usable block indices in ascending order.
func (l Layout) Blocks() []byte {
	blocks := make([]byte, 0, l.Budget)
	for idx := int(l.Base); len(blocks) < l.Budget && idx <= 0xFF; idx++ {
		if l.IsReserved(byte(idx)) {
			continue
		}
		blocks = append(blocks, byte(idx))
	}
	return blocks
}

// IsReserved reports whether block holds non-payload data
func (l Layout) IsReserved(block byte) bool {
	return slices.Contains(l.Reserved, block)
}

// Contains reports whether block is part of the payload area
func (l Layout) Contains(block byte) bool {
	return slices.Contains(l.Blocks(), block)
}

// Capacity is the total payload area in bytes, terminator included
func (l Layout) Capacity() int {
	return l.Budget * BlockSize
}

// MaxPayload is the longest payload that still fits with its terminator
func (l Layout) MaxPayload() int {
	return l.Capacity() - TerminatorSize
}
