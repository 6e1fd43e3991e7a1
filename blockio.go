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
	"bytes"
	"context"
	"fmt"
)

// BlockDevice reads and writes single 16-byte blocks
type BlockDevice interface {
	ReadBlock(ctx context.Context, block byte) ([]byte, error)
	WriteBlock(ctx context.Context, block byte, data []byte) error
}

var terminator = []byte{0x00, 0x00}

type verifiedBlocks struct {
	BlockDevice
}

// VerifiedBlocks wraps dev so that every WriteBlock is followed by a read of
// the same block. A difference fails the write with ErrVerifyMismatch.
func VerifiedBlocks(dev BlockDevice) BlockDevice {
	return verifiedBlocks{dev}
}

func (v verifiedBlocks) WriteBlock(ctx context.Context, block byte, data []byte) error {
	if err := v.BlockDevice.WriteBlock(ctx, block, data); err != nil {
		return err
	}
	got, err := v.BlockDevice.ReadBlock(ctx, block)
	if err != nil {
		return fmt.Errorf("read back failed: %w", err)
	}
	want := make([]byte, BlockSize)
	copy(want, data)
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: block %d reads % X", ErrVerifyMismatch, block, got)
	}
	return nil
}

// WriteStream stores data followed by the 00 00 terminator across the
// layout's blocks, one round trip per block. It returns the number of blocks
// written. The first failing block aborts the write; blocks already written
// stay written.
//
// With OverflowTruncate an oversized payload fills the whole budget and the
// error wraps ErrPayloadTruncated. The terminator is then missing, so a later
// ReadStream returns the full budget.
func WriteStream(ctx context.Context, dev BlockDevice, layout Layout, data []byte) (int, error) {
	if err := layout.Validate(); err != nil {
		return 0, err
	}

	stream := make([]byte, 0, len(data)+TerminatorSize)
	stream = append(stream, data...)
	stream = append(stream, terminator...)

	overflow := len(stream) > layout.Capacity()
	if overflow && layout.Overflow == OverflowReject {
		return 0, fmt.Errorf("%w: %d bytes, room for %d", ErrPayloadTooLarge, len(data), layout.MaxPayload())
	}

	written := 0
	for _, block := range layout.Blocks() {
		if len(stream) == 0 {
			break
		}
		n := min(BlockSize, len(stream))
		chunk := make([]byte, BlockSize)
		copy(chunk, stream[:n])
		stream = stream[n:]

		if err := dev.WriteBlock(ctx, block, chunk); err != nil {
			return written, fmt.Errorf("failed to write block %d: %w", block, err)
		}
		written++
		debugf("wrote block %d (%d payload bytes)", block, n)
	}

	if overflow {
		return written, fmt.Errorf("%w: %d bytes dropped", ErrPayloadTruncated, len(stream))
	}
	return written, nil
}

// ReadStream reads the layout's blocks in order and returns the bytes before
// the first 00 00 pair. The pair may straddle two blocks. Reading stops at
// the terminator, so stale data from an earlier, longer payload is never
// returned. If a block cannot be read the bytes gathered so far are
// returned; if the first block cannot be read its error is returned.
func ReadStream(ctx context.Context, dev BlockDevice, layout Layout) ([]byte, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	stream := make([]byte, 0, layout.Capacity())
	for i, block := range layout.Blocks() {
		data, err := dev.ReadBlock(ctx, block)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("failed to read block %d: %w", block, err)
			}
			debugf("read stopped at block %d: %v", block, err)
			break
		}

		// Start one byte back so a pair split across blocks is found
		from := max(len(stream)-1, 0)
		stream = append(stream, data...)
		if idx := bytes.Index(stream[from:], terminator); idx >= 0 {
			return stream[:from+idx], nil
		}
	}
	return stream, nil
}
