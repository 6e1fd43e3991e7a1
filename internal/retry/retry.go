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

// Package retry provides the caller-side retry helpers used on top of the
// single-shot protocol operations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned when every attempt asked to be retried
var ErrExhausted = errors.New("retries exhausted")

// Operation represents a function that can be retried
// Returns: data, shouldRetry, error
// - data: the result if successful
// - shouldRetry: true if the operation should be retried
// - error: any permanent error that should stop retries
type Operation[T any] func(ctx context.Context) (T, bool, error)

// Config configures retry behavior
type Config struct {
	OnRetry    func(attempt int)
	MaxRetries int
	Delay      time.Duration
}

// WithRetry runs operation up to MaxRetries+1 times, sleeping Delay between
// attempts.
func WithRetry[T any](ctx context.Context, config Config, operation Operation[T]) (T, error) {
	var zero T

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, shouldRetry, err := operation(ctx)
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}

		if attempt >= config.MaxRetries {
			break
		}
		if config.OnRetry != nil {
			config.OnRetry(attempt + 1)
		}
		if err := sleep(ctx, config.Delay); err != nil {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w after %d attempts", ErrExhausted, config.MaxRetries+1)
}

// Until repeats operation every interval until it stops asking for a retry,
// the timeout passes or ctx is done. A zero timeout waits for ctx only.
func Until[T any](ctx context.Context, timeout, interval time.Duration, operation Operation[T]) (T, error) {
	var zero T
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	for {
		result, shouldRetry, err := operation(ctx)
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}
		if err := sleep(ctx, interval); err != nil {
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
