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

package polling

// LoopState is the detection state machine of a Loop
type LoopState int32

const (
	// StateIdle means no tick is in progress
	StateIdle LoopState = iota
	// StateDetecting means a presence query is on the link
	StateDetecting
	// StateDispatching means the detection handler is running
	StateDispatching
)

// String returns the state name
func (s LoopState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetecting:
		return "detecting"
	case StateDispatching:
		return "dispatching"
	default:
		return "unknown"
	}
}

// TickResult reports what a single Tick did
type TickResult int

const (
	// TickDisconnected means the reader link is closed; nothing was sent
	TickDisconnected TickResult = iota
	// TickNoHandler means no detection handler is registered
	TickNoHandler
	// TickBusy means a handler is still running and the tick was skipped
	TickBusy
	// TickNoCard means the presence query got no card
	TickNoCard
	// TickDispatched means a card was present and the handler ran
	TickDispatched
)

// String returns the result name
func (r TickResult) String() string {
	switch r {
	case TickDisconnected:
		return "disconnected"
	case TickNoHandler:
		return "no-handler"
	case TickBusy:
		return "busy"
	case TickNoCard:
		return "no-card"
	case TickDispatched:
		return "dispatched"
	default:
		return "unknown"
	}
}
