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

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cspanjian/go-rfid"
	rfidtest "github.com/cspanjian/go-rfid/internal/testing"
	"github.com/cspanjian/go-rfid/polling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		want    []byte
		wantErr bool
	}{
		{name: "plain", in: "414243", want: []byte("ABC")},
		{name: "spaced", in: "41 42 43", want: []byte("ABC")},
		{name: "colons", in: "de:ad:be:ef", want: []byte{0xDE, 0xAD, 0xBE, 0xEF}},
		{name: "odd length", in: "414", wantErr: true},
		{name: "not hex", in: "zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseHex(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReportWrite(t *testing.T) {
	t.Parallel()
	require.NoError(t, reportWrite(nil))
	require.NoError(t, reportWrite(rfid.ErrPayloadTruncated))
	require.ErrorIs(t, reportWrite(rfid.ErrWriteRejected), rfid.ErrWriteRejected)
}

func TestWatcher_RetapPrintsAgain(t *testing.T) {
	t.Parallel()

	card := rfidtest.NewVirtualCard(rfidtest.TestUID)
	session, err := rfid.New(rfid.NewMockTransport(card), rfid.WithSettleDelay(0))
	require.NoError(t, err)
	require.NoError(t, session.Initialize(rfid.LinkConfig{Port: "/dev/ttyTEST"}))

	var out bytes.Buffer
	w := newWatcher(session, time.Millisecond, &out)
	ctx := context.Background()

	assert.Equal(t, polling.TickDispatched, w.tick(ctx))
	assert.Equal(t, polling.TickDispatched, w.tick(ctx))
	assert.Equal(t, 1, strings.Count(out.String(), "DEADBEEF"), "held card prints once")

	card.Remove()
	assert.Equal(t, polling.TickNoCard, w.tick(ctx))
	card.Insert()
	assert.Equal(t, polling.TickDispatched, w.tick(ctx))

	assert.Equal(t, 2, strings.Count(out.String(), "DEADBEEF"), "re-tap prints again")
}
