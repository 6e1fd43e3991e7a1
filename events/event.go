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

// Package events publishes card detections to other processes.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypeCardDetected = "card.detected"
	TypeCardRead     = "card.read"
)

// Event describes one detection
type Event struct {
	Time   time.Time `json:"time"`
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Reader string    `json:"reader,omitempty"`
	UID    string    `json:"uid"`
	Text   string    `json:"text,omitempty"`
}

// NewEvent returns an event with a fresh ID and the current time
func NewEvent(eventType, reader, uid string) Event {
	return Event{
		ID:     uuid.New().String(),
		Type:   eventType,
		Reader: reader,
		UID:    uid,
		Time:   time.Now().UTC(),
	}
}

// Publisher delivers events somewhere
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// MultiPublisher fans an event out to several publishers. Every publisher is
// tried; their errors are joined.
type MultiPublisher []Publisher

// Publish sends ev to every publisher
func (m MultiPublisher) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher
func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
