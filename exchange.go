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
	"io"
	"time"
)

// DefaultSettleDelay is how long the module needs to answer a frame at 9600 baud
const DefaultSettleDelay = 50 * time.Millisecond

// ReadExactly waits out the settle delay and then reads exactly n bytes.
// If any other number of bytes is buffered at that point the module is
// treated as silent and ErrNoResponse is returned; partial replies are
// never handed to the caller. The wait ends early only if ctx is done.
func ReadExactly(ctx context.Context, t Transport, n int, settle time.Duration) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: read length %d", ErrInvalidParameter, n)
	}

	if settle > 0 {
		timer := time.NewTimer(settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("context cancelled while waiting for response: %w", ctx.Err())
		case <-timer.C:
		}
	}

	if got := t.Buffered(); got != n {
		return nil, fmt.Errorf("%w: %d bytes buffered, want %d", ErrNoResponse, got, n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(t, buf); err != nil {
		return nil, NewTransportError("read", "", fmt.Errorf("%w: %w", ErrTransportRead, err), ErrorTypeTransient)
	}
	return buf, nil
}

// exchange writes req and waits for a reply of exactly respLen bytes.
func exchange(ctx context.Context, t Transport, req []byte, respLen int, settle time.Duration) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled before sending frame: %w", ctx.Err())
	default:
	}

	if !t.IsConnected() {
		return nil, ErrNotConnected
	}

	if err := t.WriteFrame(req); err != nil {
		return nil, fmt.Errorf("failed to write frame: %w", err)
	}
	return ReadExactly(ctx, t, respLen, settle)
}
