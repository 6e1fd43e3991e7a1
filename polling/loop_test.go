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
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeDetector struct {
	queries   atomic.Int32
	connected atomic.Bool
	present   atomic.Bool
}

func newFakeDetector(present bool) *fakeDetector {
	d := &fakeDetector{}
	d.connected.Store(true)
	d.present.Store(present)
	return d
}

func (d *fakeDetector) IsInitialized() bool {
	return d.connected.Load()
}

func (d *fakeDetector) IsCardPresent(context.Context) bool {
	d.queries.Add(1)
	return d.present.Load()
}

func TestLoop_TickNoOps(t *testing.T) {
	t.Parallel()

	t.Run("NoHandler", func(t *testing.T) {
		t.Parallel()
		det := newFakeDetector(true)
		loop := NewLoop(det, nil)
		assert.Equal(t, TickNoHandler, loop.Tick(context.Background()))
		assert.Zero(t, det.queries.Load())
	})

	t.Run("Disconnected", func(t *testing.T) {
		t.Parallel()
		det := newFakeDetector(true)
		det.connected.Store(false)
		loop := NewLoop(det, nil)
		loop.SetHandler(func(context.Context) error { return nil })
		assert.Equal(t, TickDisconnected, loop.Tick(context.Background()))
		assert.Zero(t, det.queries.Load())
	})

	t.Run("HandlerCleared", func(t *testing.T) {
		t.Parallel()
		loop := NewLoop(newFakeDetector(true), nil)
		loop.SetHandler(func(context.Context) error { return nil })
		loop.SetHandler(nil)
		assert.Equal(t, TickNoHandler, loop.Tick(context.Background()))
	})
}

func TestLoop_TickNoCard(t *testing.T) {
	t.Parallel()
	det := newFakeDetector(false)
	loop := NewLoop(det, nil)
	var calls atomic.Int32
	loop.SetHandler(func(context.Context) error {
		calls.Add(1)
		return nil
	})

	assert.Equal(t, TickNoCard, loop.Tick(context.Background()))
	assert.Zero(t, calls.Load())
	assert.Equal(t, StateIdle, loop.State())
	assert.False(t, loop.Busy())

	m := loop.Metrics()
	assert.Equal(t, int64(1), m.PollCycles)
	assert.Zero(t, m.Detections)
	assert.Zero(t, m.Dispatches)
}

func TestLoop_TickDispatches(t *testing.T) {
	t.Parallel()
	loop := NewLoop(newFakeDetector(true), nil)

	var seenState LoopState
	var seenBusy bool
	loop.SetHandler(func(context.Context) error {
		seenState = loop.State()
		seenBusy = loop.Busy()
		return nil
	})

	assert.Equal(t, TickDispatched, loop.Tick(context.Background()))
	assert.Equal(t, StateDispatching, seenState)
	assert.True(t, seenBusy)
	assert.Equal(t, StateIdle, loop.State())
	assert.False(t, loop.Busy())

	m := loop.Metrics()
	assert.Equal(t, int64(1), m.Detections)
	assert.Equal(t, int64(1), m.Dispatches)
	assert.Zero(t, m.HandlerErrors)
}

func TestLoop_ReentrantTickIsSkipped(t *testing.T) {
	t.Parallel()
	det := newFakeDetector(true)
	loop := NewLoop(det, nil)

	var inner TickResult
	var calls atomic.Int32
	loop.SetHandler(func(ctx context.Context) error {
		calls.Add(1)
		inner = loop.Tick(ctx)
		return nil
	})

	assert.Equal(t, TickDispatched, loop.Tick(context.Background()))
	assert.Equal(t, TickBusy, inner)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), det.queries.Load(), "no presence query while busy")
	assert.Equal(t, int64(1), loop.Metrics().BusySkips)

	// Once the handler has returned the next tick dispatches again
	assert.Equal(t, TickDispatched, loop.Tick(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestLoop_HandlersNeverOverlap(t *testing.T) {
	t.Parallel()
	det := newFakeDetector(true)
	loop := NewLoop(det, &Config{Interval: time.Millisecond})

	entered := make(chan struct{}, 64)
	release := make(chan struct{})
	var running, maxRunning, calls atomic.Int32
	loop.SetHandler(func(context.Context) error {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			cur := maxRunning.Load()
			if n <= cur || maxRunning.CompareAndSwap(cur, n) {
				break
			}
		}
		calls.Add(1)
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("handler was never called")
	}

	// Simulate several ticks arriving while the handler blocks
	queries := det.queries.Load()
	for range 5 {
		assert.Equal(t, TickBusy, loop.Tick(ctx))
		time.Sleep(2 * time.Millisecond)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, queries, det.queries.Load())
	assert.Equal(t, StateDispatching, loop.State())
	assert.True(t, loop.Busy())

	close(release)
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("no dispatch after handler returned")
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}

	assert.Equal(t, int32(1), maxRunning.Load())
	assert.GreaterOrEqual(t, loop.Metrics().BusySkips, int64(5))
}

func TestLoop_HandlerFailures(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	loop := NewLoop(newFakeDetector(true), &Config{Logger: logger})

	loop.SetHandler(func(context.Context) error { return errors.New("card went away") })
	assert.Equal(t, TickDispatched, loop.Tick(context.Background()))

	loop.SetHandler(func(context.Context) error { panic("boom") })
	assert.Equal(t, TickDispatched, loop.Tick(context.Background()))
	assert.False(t, loop.Busy())
	assert.Equal(t, StateIdle, loop.State())

	assert.Equal(t, int64(2), loop.Metrics().HandlerErrors)
	assert.Contains(t, logs.String(), "card went away")
	assert.Contains(t, logs.String(), "boom")

	loop.SetHandler(func(context.Context) error { return nil })
	assert.Equal(t, TickDispatched, loop.Tick(context.Background()))
	assert.Equal(t, int64(2), loop.Metrics().HandlerErrors)
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	t.Parallel()
	det := newFakeDetector(false)
	loop := NewLoop(det, &Config{Interval: time.Millisecond})
	loop.SetHandler(func(context.Context) error { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := loop.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, det.queries.Load())
}

func TestLoop_RunWhileDisconnected(t *testing.T) {
	t.Parallel()
	det := newFakeDetector(true)
	det.connected.Store(false)
	loop := NewLoop(det, &Config{Interval: time.Millisecond})
	loop.SetHandler(func(context.Context) error { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = loop.Run(ctx)
	assert.Zero(t, det.queries.Load())
	assert.Zero(t, loop.Metrics().PollCycles)
}

func TestLoop_NextInterval(t *testing.T) {
	t.Parallel()

	t.Run("Fixed", func(t *testing.T) {
		t.Parallel()
		loop := NewLoop(newFakeDetector(false), nil)
		assert.Equal(t, DefaultInterval, loop.nextInterval())
	})

	t.Run("SlowsDownWhenIdle", func(t *testing.T) {
		t.Parallel()
		loop := NewLoop(newFakeDetector(false), &Config{
			Interval:     10 * time.Millisecond,
			IdleInterval: 200 * time.Millisecond,
			IdleAfter:    time.Millisecond,
		})
		time.Sleep(5 * time.Millisecond)
		assert.Equal(t, 200*time.Millisecond, loop.nextInterval())
	})

	t.Run("FastAfterDetection", func(t *testing.T) {
		t.Parallel()
		loop := NewLoop(newFakeDetector(true), &Config{
			Interval:     10 * time.Millisecond,
			IdleInterval: 200 * time.Millisecond,
			IdleAfter:    time.Hour,
		})
		loop.SetHandler(func(context.Context) error { return nil })
		loop.Tick(context.Background())
		assert.Equal(t, 10*time.Millisecond, loop.nextInterval())
	})
}

func TestNewLoop_ZeroIntervalUsesDefault(t *testing.T) {
	t.Parallel()
	loop := NewLoop(newFakeDetector(false), &Config{})
	assert.Equal(t, DefaultInterval, loop.config.Interval)
}

func TestStateStrings(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "detecting", StateDetecting.String())
	assert.Equal(t, "dispatching", StateDispatching.String())
	assert.Equal(t, "unknown", LoopState(9).String())
	assert.Equal(t, "busy", TickBusy.String())
	assert.Equal(t, "dispatched", TickDispatched.String())
}
