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

package uart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	rfid "github.com/cspanjian/go-rfid"
	"github.com/cspanjian/go-rfid/internal/frame"
	rfidtest "github.com/cspanjian/go-rfid/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio"
)

// fakePort is a serial.Port backed by a simulated card. Replies are handed
// out a few bytes per Read, as a real UART delivers them.
type fakePort struct {
	card      *rfidtest.VirtualCard
	readErr   error
	writeErr  error
	mode      serial.Mode
	pending   []byte
	written   [][]byte
	chunk     int
	resets    int
	mu        sync.Mutex
	closed    bool
	timeoutOK bool
}

func (p *fakePort) SetMode(mode *serial.Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = *mode
	return nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readErr != nil {
		return 0, p.readErr
	}
	n := min(len(b), p.chunk, len(p.pending))
	copy(b, p.pending[:n])
	p.pending = p.pending[n:]
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.written = append(p.written, append([]byte(nil), b...))
	p.pending = append(p.pending, p.card.Respond(b)...)
	return len(b), nil
}

func (*fakePort) Drain() error             { return nil }
func (*fakePort) ResetOutputBuffer() error { return nil }
func (*fakePort) SetDTR(bool) error        { return nil }
func (*fakePort) SetRTS(bool) error        { return nil }
func (*fakePort) Break(time.Duration) error {
	return nil
}

func (*fakePort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets++
	p.pending = nil
	return nil
}

func (p *fakePort) SetReadTimeout(time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeoutOK = true
	return nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type portOpener struct {
	card  *rfidtest.VirtualCard
	err   error
	ports []*fakePort
	names []string
	modes []serial.Mode
}

func (o *portOpener) open(name string, mode *serial.Mode) (serial.Port, error) {
	if o.err != nil {
		return nil, o.err
	}
	port := &fakePort{card: o.card, chunk: 5}
	o.ports = append(o.ports, port)
	o.names = append(o.names, name)
	o.modes = append(o.modes, *mode)
	return port, nil
}

func (o *portOpener) last() *fakePort {
	return o.ports[len(o.ports)-1]
}

func newTestTransport(t *testing.T) (*Transport, *portOpener) {
	t.Helper()
	opener := &portOpener{card: rfidtest.NewVirtualCard(rfidtest.TestUID)}
	transport := New(DefaultConfig())
	transport.open = opener.open
	transport.resolvePin = func(name string) (gpio.PinIO, error) {
		if name == "missing" {
			return nil, rfid.ErrDeviceNotFound
		}
		return gpio.INVALID, nil
	}
	return transport, opener
}

// TestTransportCreation verifies basic transport creation and properties
func TestTransportCreation(t *testing.T) {
	t.Parallel()
	transport := New(nil)

	assert.Equal(t, rfid.TransportUART, transport.Type())
	assert.False(t, transport.IsConnected())
	assert.Zero(t, transport.Buffered())
	assert.Equal(t, 8, transport.config.DataBits)
	assert.Equal(t, DefaultDrainTimeout, transport.config.DrainTimeout)

	_, err := transport.Read(make([]byte, 1))
	require.ErrorIs(t, err, rfid.ErrNotConnected)
	require.ErrorIs(t, transport.WriteFrame([]byte{0x01}), rfid.ErrNotConnected)
	require.ErrorIs(t, transport.Reconnect(), rfid.ErrNotConnected)
}

func TestTransport_Configure(t *testing.T) {
	t.Parallel()
	transport, opener := newTestTransport(t)

	require.NoError(t, transport.Configure(rfid.LinkConfig{Port: "/dev/ttyS0", TXPin: "GPIO14", RXPin: "GPIO15"}))
	assert.True(t, transport.IsConnected())
	assert.Equal(t, []string{"/dev/ttyS0"}, opener.names)
	assert.Equal(t, 9600, opener.modes[0].BaudRate)
	assert.Equal(t, 8, opener.modes[0].DataBits)
	assert.Equal(t, serial.NoParity, opener.modes[0].Parity)
	assert.True(t, opener.last().timeoutOK)

	// A second Configure closes the first port
	require.NoError(t, transport.Configure(rfid.LinkConfig{Port: "/dev/ttyS1", BaudRate: 19200}))
	assert.True(t, opener.ports[0].closed)
	assert.Equal(t, 19200, opener.modes[1].BaudRate)
	assert.Equal(t, "/dev/ttyS1", transport.Link().Port)
}

func TestTransport_ConfigureErrors(t *testing.T) {
	t.Parallel()

	t.Run("MissingPin", func(t *testing.T) {
		t.Parallel()
		transport, opener := newTestTransport(t)
		err := transport.Configure(rfid.LinkConfig{Port: "/dev/ttyS0", TXPin: "missing", RXPin: "GPIO15"})
		require.ErrorIs(t, err, rfid.ErrDeviceNotFound)
		assert.False(t, rfid.IsRetryable(err))
		assert.Empty(t, opener.ports)
	})

	t.Run("OpenFails", func(t *testing.T) {
		t.Parallel()
		transport, opener := newTestTransport(t)
		opener.err = errors.New("permission denied")
		err := transport.Configure(rfid.LinkConfig{Port: "/dev/ttyS0"})
		var te *rfid.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "open", te.Op)
		assert.Equal(t, rfid.ErrorTypePermanent, te.Type)
		assert.False(t, transport.IsConnected())
	})

	t.Run("InvalidLink", func(t *testing.T) {
		t.Parallel()
		transport, _ := newTestTransport(t)
		require.ErrorIs(t, transport.Configure(rfid.LinkConfig{}), rfid.ErrInvalidParameter)
	})
}

func TestTransport_RoundTrip(t *testing.T) {
	t.Parallel()
	transport, opener := newTestTransport(t)
	require.NoError(t, transport.Configure(rfid.LinkConfig{Port: "/dev/ttyS0"}))

	reply, err := exchangeUID(transport)
	require.NoError(t, err)
	assert.Len(t, reply, frame.UIDResponseLength)

	uid, err := frame.ParseUID(reply, frame.ParseOptions{VerifyChecksum: true})
	require.NoError(t, err)
	assert.Equal(t, rfidtest.TestUID, uid)
	assert.Equal(t, 1, opener.last().resets)
}

func exchangeUID(transport *Transport) ([]byte, error) {
	if err := transport.WriteFrame(frame.BuildUIDQuery()); err != nil {
		return nil, err
	}
	return rfid.ReadExactly(context.Background(), transport, frame.UIDResponseLength, 0)
}

func TestTransport_WriteDiscardsStaleInput(t *testing.T) {
	t.Parallel()
	transport, opener := newTestTransport(t)
	require.NoError(t, transport.Configure(rfid.LinkConfig{Port: "/dev/ttyS0"}))

	// Leave a reply unread
	require.NoError(t, transport.WriteFrame(frame.BuildUIDQuery()))
	require.Equal(t, frame.UIDResponseLength, transport.Buffered())

	require.NoError(t, transport.WriteFrame(frame.BuildUIDQuery()))
	assert.Equal(t, frame.UIDResponseLength, transport.Buffered())
	assert.Equal(t, 2, opener.last().resets)
}

func TestTransport_NoCard(t *testing.T) {
	t.Parallel()
	transport, opener := newTestTransport(t)
	opener.card.Remove()
	require.NoError(t, transport.Configure(rfid.LinkConfig{Port: "/dev/ttyS0"}))

	_, err := exchangeUID(transport)
	require.ErrorIs(t, err, rfid.ErrNoResponse)

	_, err = transport.Read(make([]byte, 4))
	require.ErrorIs(t, err, rfid.ErrTransportTimeout)
}

func TestTransport_DisconnectReconnect(t *testing.T) {
	t.Parallel()
	transport, opener := newTestTransport(t)
	require.NoError(t, transport.Configure(rfid.LinkConfig{Port: "/dev/ttyS0", TXPin: "GPIO14", RXPin: "GPIO15"}))

	require.NoError(t, transport.Disconnect())
	assert.False(t, transport.IsConnected())
	assert.True(t, opener.ports[0].closed)

	require.NoError(t, transport.Reconnect())
	assert.True(t, transport.IsConnected())
	assert.Len(t, opener.ports, 2)
	assert.Equal(t, "GPIO14", transport.Link().TXPin)

	_, err := exchangeUID(transport)
	require.NoError(t, err)
}

func TestTransport_DeviceLost(t *testing.T) {
	t.Parallel()
	transport, opener := newTestTransport(t)
	require.NoError(t, transport.Configure(rfid.LinkConfig{Port: "/dev/ttyUSB0"}))

	opener.last().writeErr = errors.New("write /dev/ttyUSB0: input/output error")
	err := transport.WriteFrame(frame.BuildUIDQuery())
	require.ErrorIs(t, err, rfid.ErrNotConnected)
	assert.False(t, rfid.IsRetryable(err))
	assert.False(t, transport.IsConnected())
}

func TestTransport_TransientWriteError(t *testing.T) {
	t.Parallel()
	transport, opener := newTestTransport(t)
	require.NoError(t, transport.Configure(rfid.LinkConfig{Port: "/dev/ttyUSB0"}))

	opener.last().writeErr = errors.New("resource temporarily unavailable")
	err := transport.WriteFrame(frame.BuildUIDQuery())
	require.ErrorIs(t, err, rfid.ErrTransportWrite)
	assert.True(t, rfid.IsRetryable(err))
	assert.True(t, transport.IsConnected())
}

func TestTransport_WithSession(t *testing.T) {
	t.Parallel()
	transport, opener := newTestTransport(t)
	session, err := rfid.New(transport, rfid.WithSettleDelay(0), rfid.WithChecksumValidation(true))
	require.NoError(t, err)
	require.NoError(t, session.Initialize(rfid.LinkConfig{Port: "/dev/ttyS0"}))

	uid, err := session.QueryUID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "DEADBEEF", uid)

	require.NoError(t, session.WriteText(context.Background(), "over the wire"))
	text, err := session.ReadText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "over the wire", text)
	assert.Equal(t, []byte{0x04}, opener.card.WrittenBlocks())
}

func TestIsDisconnectionError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "io error", err: errors.New("read: input/output error"), want: true},
		{name: "no such device", err: errors.New("open /dev/ttyUSB0: no such device"), want: true},
		{name: "broken pipe", err: errors.New("write: broken pipe"), want: true},
		{name: "other", err: errors.New("resource temporarily unavailable"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isDisconnectionError(tt.err))
		})
	}
}
