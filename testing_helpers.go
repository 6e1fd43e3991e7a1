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
	"sync"
)

// Responder produces the module's reply to a request frame. A nil reply
// means the module stays silent.
type Responder interface {
	Respond(req []byte) []byte
}

// ResponderFunc adapts a function to Responder
type ResponderFunc func(req []byte) []byte

// Respond calls f(req)
func (f ResponderFunc) Respond(req []byte) []byte {
	return f(req)
}

// MockTransport is an in-memory Transport for tests. Each written frame is
// passed to the responder and the reply becomes the receive buffer.
type MockTransport struct {
	responder Responder
	writeErr  error
	OnWrite   func(frm []byte)
	config    LinkConfig
	rx        []byte
	frames    [][]byte
	mu        sync.Mutex
	connected bool
}

// NewMockTransport creates a disconnected mock transport answering with responder
func NewMockTransport(responder Responder) *MockTransport {
	return &MockTransport{responder: responder}
}

// Configure stores cfg and connects
func (m *MockTransport) Configure(cfg LinkConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = cfg
	m.connected = true
	m.rx = nil
	return nil
}

// Disconnect marks the transport as closed
func (m *MockTransport) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.rx = nil
	return nil
}

// Reconnect reopens with the stored configuration
func (m *MockTransport) Reconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config.Port == "" {
		return errors.New("mock transport was never configured")
	}
	m.connected = true
	return nil
}

// IsConnected returns the connection state
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// WriteFrame records frm and queues the responder's reply
func (m *MockTransport) WriteFrame(frm []byte) error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return NewNotConnectedError("write", m.config.Port)
	}
	if m.writeErr != nil {
		err := m.writeErr
		m.mu.Unlock()
		return NewTransportError("write", m.config.Port, err, ErrorTypeTransient)
	}
	m.frames = append(m.frames, append([]byte(nil), frm...))
	responder := m.responder
	hook := m.OnWrite
	m.mu.Unlock()

	if hook != nil {
		hook(frm)
	}

	var reply []byte
	if responder != nil {
		reply = responder.Respond(frm)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rx = append(m.rx[:0], reply...)
	return nil
}

// Buffered returns the number of unread reply bytes
func (m *MockTransport) Buffered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rx)
}

// Read consumes buffered reply bytes
func (m *MockTransport) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rx) == 0 {
		return 0, ErrTransportRead
	}
	n := copy(p, m.rx)
	m.rx = m.rx[n:]
	return n, nil
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// SetResponder replaces the responder
func (m *MockTransport) SetResponder(responder Responder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = responder
}

// SetWriteError makes every following WriteFrame fail with err (nil clears)
func (m *MockTransport) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Frames returns copies of every frame written so far
func (m *MockTransport) Frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.frames))
	for i, f := range m.frames {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// Config returns the last configuration passed to Configure
func (m *MockTransport) Config() LinkConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}
