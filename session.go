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
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cspanjian/go-rfid/internal/frame"
	"github.com/cspanjian/go-rfid/internal/retry"
)

// SessionConfig contains configuration options for a Session
type SessionConfig struct {
	// Layout maps payloads onto tag blocks
	Layout Layout
	// SettleDelay is how long to wait for the module after each frame
	SettleDelay time.Duration
	// VerifyChecksum rejects responses with a bad checksum. The module does
	// not check its own replies, so noisy links that work today may start
	// failing when this is on.
	VerifyChecksum bool
	// VerifyWrites reads every block back after writing it
	VerifyWrites bool
}

// DefaultSessionConfig returns default session configuration
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		Layout:      DefaultLayout(),
		SettleDelay: DefaultSettleDelay,
	}
}

// Session talks to one reader module and the card in its field.
//
// Round trips are serialised with a mutex, so a detection handler and another
// goroutine never interleave frames on the link. A payload read or write
// holds the link for all of its blocks.
type Session struct {
	transport Transport
	config    *SessionConfig
	logger    *slog.Logger
	mu        sync.Mutex
	overflow  *OverflowPolicy
	lastUID   [frame.UIDSize]byte
	hasUID    bool
}

// New creates a session on transport. The transport may be configured
// already or later through Initialize.
func New(transport Transport, opts ...Option) (*Session, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}
	session := &Session{
		transport: transport,
		config:    DefaultSessionConfig(),
		logger:    slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		if err := opt(session); err != nil {
			return nil, err
		}
	}
	if session.overflow != nil {
		session.config.Layout.Overflow = *session.overflow
	}

	if err := session.config.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	return session, nil
}

// Transport returns the underlying transport
func (s *Session) Transport() Transport {
	return s.transport
}

// Config returns a copy of the session configuration
func (s *Session) Config() SessionConfig {
	return *s.config
}

// Initialize configures the link (pins, baud rate) and connects.
func (s *Session) Initialize(cfg LinkConfig) error {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transport.Configure(cfg); err != nil {
		return fmt.Errorf("failed to configure transport: %w", err)
	}
	s.logger.Info("reader initialized", "port", cfg.Port, "tx", cfg.TXPin, "rx", cfg.RXPin, "baud", cfg.BaudRate)
	return nil
}

// Disconnect closes the link. Protocol calls fail with ErrNotConnected until
// Reconnect or Initialize.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transport.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect transport: %w", err)
	}
	s.logger.Info("reader disconnected")
	return nil
}

// Reconnect reopens the link with the pins and port last passed to Initialize
func (s *Session) Reconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transport.Reconnect(); err != nil {
		return fmt.Errorf("failed to reconnect transport: %w", err)
	}
	s.logger.Info("reader reconnected")
	return nil
}

// IsInitialized reports whether the link is connected
func (s *Session) IsInitialized() bool {
	return s.transport.IsConnected()
}

// Close disconnects the link
func (s *Session) Close() error {
	return s.Disconnect()
}

func (s *Session) parseOptions() frame.ParseOptions {
	return frame.ParseOptions{VerifyChecksum: s.config.VerifyChecksum}
}

// queryUID runs one UID round trip. Caller holds s.mu.
func (s *Session) queryUID(ctx context.Context) ([frame.UIDSize]byte, error) {
	req := frame.BuildUIDQuery()
	debugf("uid query: %s", frame.Hex(req))
	resp, err := exchange(ctx, s.transport, req, frame.UIDResponseLength, s.config.SettleDelay)
	if err != nil {
		return [frame.UIDSize]byte{}, err
	}
	uid, err := frame.ParseUID(resp, s.parseOptions())
	return uid, protocolError(err)
}

// QueryUID returns the UID of the card in the field as 8 uppercase hex
// characters. Without a card the result is "" and the error wraps
// ErrNoResponse.
func (s *Session) QueryUID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid, err := s.queryUID(ctx)
	if err != nil {
		return "", err
	}
	s.lastUID = uid
	s.hasUID = true
	return frame.Hex(uid[:]), nil
}

// IsCardPresent reports whether a card answers a UID query. The UID itself
// is discarded and LastUID is left alone.
func (s *Session) IsCardPresent(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.queryUID(ctx)
	if err != nil && !errors.Is(err, ErrNoResponse) && !errors.Is(err, ErrNotConnected) {
		s.logger.Debug("presence check failed", "error", err)
	}
	return err == nil
}

// LastUID returns the UID from the last successful QueryUID, or "" if there
// was none.
func (s *Session) LastUID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasUID {
		return ""
	}
	return frame.Hex(s.lastUID[:])
}

// WaitForCard repeats QueryUID every interval until a card answers, the
// timeout passes or ctx is done. The core protocol never retries on its own;
// this is the caller-side loop for tools that want to block.
func (s *Session) WaitForCard(ctx context.Context, timeout, interval time.Duration) (string, error) {
	uid, err := retry.Until(ctx, timeout, interval, func(ctx context.Context) (string, bool, error) {
		uid, err := s.QueryUID(ctx)
		switch {
		case err == nil:
			return uid, false, nil
		case IsRetryable(err):
			return "", true, nil
		default:
			return "", false, err
		}
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("no card within %s: %w", timeout, ErrNoResponse)
		}
		return "", err
	}
	return uid, nil
}

// ReadBlock reads one payload block. Only blocks of the configured layout
// are addressable.
func (s *Session) ReadBlock(ctx context.Context, block byte) ([]byte, error) {
	if !s.config.Layout.Contains(block) {
		return nil, fmt.Errorf("%w: block %d outside payload area", ErrInvalidParameter, block)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readBlock(ctx, block)
}

// WriteBlock writes one payload block, zero-padding short data.
func (s *Session) WriteBlock(ctx context.Context, block byte, data []byte) error {
	if !s.config.Layout.Contains(block) {
		return fmt.Errorf("%w: block %d outside payload area", ErrInvalidParameter, block)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeBlock(ctx, block, data)
}

func (s *Session) readBlock(ctx context.Context, block byte) ([]byte, error) {
	req := frame.BuildReadBlock(block)
	debugf("read block %d: %s", block, frame.Hex(req))
	resp, err := exchange(ctx, s.transport, req, frame.BlockResponseLength, s.config.SettleDelay)
	if err != nil {
		return nil, err
	}
	data, err := frame.ParseBlock(resp, s.parseOptions())
	if err != nil {
		return nil, protocolError(err)
	}
	return data[:], nil
}

func (s *Session) writeBlock(ctx context.Context, block byte, data []byte) error {
	req, err := frame.BuildWriteBlock(block, data)
	if err != nil {
		return err
	}
	debugf("write block %d: %s", block, frame.Hex(req))
	resp, err := exchange(ctx, s.transport, req, frame.AckResponseLength, s.config.SettleDelay)
	if err != nil {
		return err
	}
	return protocolError(frame.ParseWriteAck(resp, s.parseOptions()))
}

// lockedBlocks adapts a Session whose mutex is already held to BlockDevice
type lockedBlocks struct {
	s *Session
}

func (l lockedBlocks) ReadBlock(ctx context.Context, block byte) ([]byte, error) {
	return l.s.readBlock(ctx, block)
}

func (l lockedBlocks) WriteBlock(ctx context.Context, block byte, data []byte) error {
	return l.s.writeBlock(ctx, block, data)
}
