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
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Session
type Option func(*Session) error

// WithSettleDelay sets how long to wait for the module after each frame
func WithSettleDelay(delay time.Duration) Option {
	return func(s *Session) error {
		if delay < 0 {
			return fmt.Errorf("%w: negative settle delay", ErrInvalidParameter)
		}
		s.config.SettleDelay = delay
		return nil
	}
}

// WithLayout sets the block layout used for payloads
func WithLayout(layout Layout) Option {
	return func(s *Session) error {
		s.config.Layout = layout
		return nil
	}
}

// WithOverflowPolicy sets what happens to payloads larger than the layout.
// It takes precedence over the policy of any layout given with WithLayout or
// WithConfig, whatever the option order.
func WithOverflowPolicy(policy OverflowPolicy) Option {
	return func(s *Session) error {
		s.overflow = &policy
		return nil
	}
}

// WithChecksumValidation enables or disables response checksum checks
func WithChecksumValidation(enabled bool) Option {
	return func(s *Session) error {
		s.config.VerifyChecksum = enabled
		return nil
	}
}

// WithWriteVerification makes payload writes read each block back and
// compare it with what was sent
func WithWriteVerification(enabled bool) Option {
	return func(s *Session) error {
		s.config.VerifyWrites = enabled
		return nil
	}
}

// WithLogger sets the logger used for connection and error events
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) error {
		if logger == nil {
			return fmt.Errorf("%w: nil logger", ErrInvalidParameter)
		}
		s.logger = logger
		return nil
	}
}

// WithConfig replaces the whole session configuration
func WithConfig(config *SessionConfig) Option {
	return func(s *Session) error {
		if config == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidParameter)
		}
		clone := *config
		s.config = &clone
		return nil
	}
}
