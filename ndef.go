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

	"github.com/hsanjuan/go-ndef"
)

// ErrNoNDEF is returned when the payload does not hold an NDEF message
var ErrNoNDEF = errors.New("payload is not an NDEF message")

// WriteNDEFText stores text as a single NDEF Text record. Other NFC
// applications can read it, at the cost of a few bytes of record header.
func (s *Session) WriteNDEFText(ctx context.Context, text, language string) error {
	if language == "" {
		language = "en"
	}
	msg := ndef.NewTextMessage(text, language)
	raw, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode NDEF message: %w", err)
	}
	return s.WriteBytes(ctx, raw)
}

// ReadNDEFText reads the payload as an NDEF message and returns the text of
// its first record.
func (s *Session) ReadNDEFText(ctx context.Context) (string, error) {
	raw, err := s.ReadBytes(ctx)
	if err != nil {
		return "", err
	}
	return decodeNDEFText(raw)
}

func decodeNDEFText(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", ErrNoNDEF
	}
	msg := &ndef.Message{}
	if _, err := msg.Unmarshal(raw); err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoNDEF, err)
	}
	if len(msg.Records) == 0 {
		return "", ErrNoNDEF
	}
	payload, err := msg.Records[0].Payload()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoNDEF, err)
	}
	return payload.String(), nil
}
