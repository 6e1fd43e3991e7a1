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
	"errors"
	"fmt"

	"github.com/cspanjian/go-rfid/internal/frame"
)

// Protocol errors
var (
	// ErrNoResponse means the module did not answer with exactly the expected
	// number of bytes within the settle delay. Without a card in the field
	// this is the normal outcome of a UID query.
	ErrNoResponse = errors.New("no response from module")
	// ErrChecksumMismatch is returned for responses with a bad trailing
	// checksum when checksum validation is enabled.
	ErrChecksumMismatch = errors.New("response checksum mismatch")
	// ErrWriteRejected means the module acknowledged a block write with a
	// non-zero status.
	ErrWriteRejected = errors.New("block write rejected")
	// ErrPayloadTruncated means the payload did not fit the block budget and
	// only its head was written. The terminator is missing on the card.
	ErrPayloadTruncated = errors.New("payload truncated to block budget")
	// ErrPayloadTooLarge means the payload did not fit and nothing was written.
	ErrPayloadTooLarge = errors.New("payload exceeds block budget")
	// ErrVerifyMismatch means a block read back after writing differed from
	// what was sent.
	ErrVerifyMismatch = errors.New("block verification mismatch")
	// ErrBlockTooLarge is returned for single-block writes above 16 bytes.
	ErrBlockTooLarge = frame.ErrBlockTooLarge
)

// Transport and usage errors
var (
	ErrNotConnected     = errors.New("reader not connected")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrTransportTimeout = errors.New("transport timeout")
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrDeviceNotFound   = errors.New("device not found")
)

// ErrorType classifies errors for callers deciding whether to try again
type ErrorType int

const (
	// ErrorTypePermanent errors will not go away by repeating the call
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may succeed on a later attempt, typically
	// once a card is presented properly
	ErrorTypeTransient
	// ErrorTypeTimeout errors are transport timeouts
	ErrorTypeTimeout
)

// String returns a human readable name for the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// TransportError wraps an error raised by a transport with the operation
// and port it happened on.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError; retryability follows the type.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Err:       err,
		Op:        op,
		Port:      port,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError creates a timeout TransportError
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewNotConnectedError creates a TransportError for use of a closed link
func NewNotConnectedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrNotConnected, ErrorTypePermanent)
}

// IsRetryable reports whether repeating the failed operation can succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return GetErrorType(err) != ErrorTypePermanent
}

// GetErrorType classifies err
func GetErrorType(err error) ErrorType {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}
	switch {
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrNoResponse),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrWriteRejected),
		errors.Is(err, ErrVerifyMismatch),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}

// protocolError maps frame parse failures onto the package sentinels while
// keeping the detail.
func protocolError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, frame.ErrUnexpectedLength):
		return fmt.Errorf("%w: %w", ErrNoResponse, err)
	case errors.Is(err, frame.ErrBadChecksum):
		return fmt.Errorf("%w: %w", ErrChecksumMismatch, err)
	case errors.Is(err, frame.ErrRejected):
		return fmt.Errorf("%w: %w", ErrWriteRejected, err)
	default:
		return err
	}
}
