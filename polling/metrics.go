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

import (
	"sync/atomic"
	"time"
)

// Metrics is a snapshot of Loop counters
type Metrics struct {
	PollCycles      int64         // Presence queries sent
	Detections      int64         // Queries that found a card
	Dispatches      int64         // Handler invocations
	BusySkips       int64         // Ticks skipped because a handler was running
	HandlerErrors   int64         // Handlers that returned an error or panicked
	LastPollLatency time.Duration // Duration of the last presence query
}

type counters struct {
	pollCycles      atomic.Int64
	detections      atomic.Int64
	dispatches      atomic.Int64
	busySkips       atomic.Int64
	handlerErrors   atomic.Int64
	lastPollLatency atomic.Int64 // in nanoseconds
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		PollCycles:      c.pollCycles.Load(),
		Detections:      c.detections.Load(),
		Dispatches:      c.dispatches.Load(),
		BusySkips:       c.busySkips.Load(),
		HandlerErrors:   c.handlerErrors.Load(),
		LastPollLatency: time.Duration(c.lastPollLatency.Load()),
	}
}
