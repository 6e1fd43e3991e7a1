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
	"context"
	"fmt"
	"unicode/utf8"
)

// WriteBytes stores data in the card's payload area followed by the 00 00
// terminator. Data containing a 00 00 pair (or ending in 00) cannot be read
// back unchanged, since the reader stops at the first pair.
//
// On ErrPayloadTruncated the head of data is on the card; on any other error
// the blocks before the failing one are written.
func (s *Session) WriteBytes(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dev BlockDevice = lockedBlocks{s}
	if s.config.VerifyWrites {
		dev = VerifiedBlocks(dev)
	}
	blocks, err := WriteStream(ctx, dev, s.config.Layout, data)
	if err != nil {
		s.logger.Warn("payload write failed", "bytes", len(data), "blocks_written", blocks, "error", err)
		return err
	}
	s.logger.Debug("payload written", "bytes", len(data), "blocks", blocks)
	return nil
}

// ReadBytes returns the payload stored on the card, without terminator.
func (s *Session) ReadBytes(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := ReadStream(ctx, lockedBlocks{s}, s.config.Layout)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// WriteText stores text as UTF-8
func (s *Session) WriteText(ctx context.Context, text string) error {
	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: text is not valid UTF-8", ErrInvalidParameter)
	}
	return s.WriteBytes(ctx, []byte(text))
}

// ReadText reads the payload as UTF-8 text. A payload cut inside a
// multi-byte character (after truncation) comes back with the partial
// character replaced by U+FFFD.
func (s *Session) ReadText(ctx context.Context) (string, error) {
	data, err := s.ReadBytes(ctx)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return string([]rune(string(data))), nil
	}
	return string(data), nil
}
