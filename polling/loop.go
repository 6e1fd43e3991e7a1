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

// Package polling runs card detection in a loop and hands each detected card
// to a single handler, never running two handlers at once.
package polling

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultInterval is the pause between two ticks
const DefaultInterval = 50 * time.Millisecond

// Detector is the part of a reader session the loop needs.
// *rfid.Session implements it.
type Detector interface {
	IsInitialized() bool
	IsCardPresent(ctx context.Context) bool
}

// Handler is called once per tick that finds a card. It usually talks to the
// card through the same session; the loop does not poll while it runs.
type Handler func(ctx context.Context) error

// Config holds loop settings
type Config struct {
	// Logger receives handler failures. Defaults to discarding.
	Logger *slog.Logger
	// Interval is the pause after every tick
	Interval time.Duration
	// IdleInterval, when set, replaces Interval once no card has been seen
	// for IdleAfter. Zero keeps the fixed interval.
	IdleInterval time.Duration
	IdleAfter    time.Duration
}

// DefaultConfig returns the default loop configuration
func DefaultConfig() *Config {
	return &Config{
		Interval: DefaultInterval,
	}
}

// Loop polls a Detector and dispatches detections to the registered handler.
//
// A tick that finds the loop busy (handler still running, whether re-entered
// from inside the handler or called from another goroutine) is skipped.
type Loop struct {
	detector      Detector
	config        *Config
	logger        *slog.Logger
	handler       atomic.Pointer[Handler]
	lastDetection atomic.Int64 // unix nanos
	metrics       counters
	state         atomic.Int32
	busy          atomic.Bool
}

// NewLoop creates a loop over detector. A nil config uses DefaultConfig.
func NewLoop(detector Detector, config *Config) *Loop {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	loop := &Loop{
		detector: detector,
		config:   &cfg,
		logger:   logger,
	}
	loop.lastDetection.Store(time.Now().UnixNano())
	return loop
}

// SetHandler registers the detection handler, replacing any previous one.
// A nil handler turns every tick into a no-op.
func (l *Loop) SetHandler(handler Handler) {
	if handler == nil {
		l.handler.Store(nil)
		return
	}
	l.handler.Store(&handler)
}

// Busy reports whether a handler is running
func (l *Loop) Busy() bool {
	return l.busy.Load()
}

// State returns the current detection state
func (l *Loop) State() LoopState {
	return LoopState(l.state.Load())
}

// Metrics returns a snapshot of the loop counters
func (l *Loop) Metrics() Metrics {
	return l.metrics.snapshot()
}

// Tick runs one detection cycle: if the link is up, a handler is set and the
// loop is not busy, it queries for a card and runs the handler to completion
// when one answers.
func (l *Loop) Tick(ctx context.Context) TickResult {
	handler := l.handler.Load()
	if handler == nil {
		return TickNoHandler
	}
	if !l.detector.IsInitialized() {
		return TickDisconnected
	}
	if !l.busy.CompareAndSwap(false, true) {
		l.metrics.busySkips.Add(1)
		return TickBusy
	}
	defer func() {
		l.state.Store(int32(StateIdle))
		l.busy.Store(false)
	}()

	l.state.Store(int32(StateDetecting))
	start := time.Now()
	present := l.detector.IsCardPresent(ctx)
	l.metrics.pollCycles.Add(1)
	l.metrics.lastPollLatency.Store(time.Since(start).Nanoseconds())
	if !present {
		return TickNoCard
	}

	l.metrics.detections.Add(1)
	l.lastDetection.Store(start.UnixNano())
	l.state.Store(int32(StateDispatching))
	l.dispatch(ctx, *handler)
	return TickDispatched
}

// dispatch runs handler, recording and logging failures. Panics are recovered
// so one bad card does not stop the loop.
func (l *Loop) dispatch(ctx context.Context, handler Handler) {
	l.metrics.dispatches.Add(1)
	defer func() {
		if r := recover(); r != nil {
			l.metrics.handlerErrors.Add(1)
			l.logger.Error("detection handler panicked", "panic", fmt.Sprint(r))
		}
	}()

	if err := handler(ctx); err != nil {
		l.metrics.handlerErrors.Add(1)
		l.logger.Warn("detection handler failed", "error", err)
	}
}

// Run ticks until ctx is done, pausing between ticks. It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		l.Tick(ctx)

		timer.Reset(l.nextInterval())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// nextInterval slows polling down after IdleAfter without a card
func (l *Loop) nextInterval() time.Duration {
	if l.config.IdleInterval <= 0 {
		return l.config.Interval
	}
	idle := time.Since(time.Unix(0, l.lastDetection.Load()))
	if idle > l.config.IdleAfter {
		return l.config.IdleInterval
	}
	return l.config.Interval
}
