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

// Package uart provides the serial transport for the reader module
package uart

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	rfid "github.com/cspanjian/go-rfid"
	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const (
	// DefaultDrainTimeout bounds each read used to pull received bytes off
	// the port.
	DefaultDrainTimeout = 5 * time.Millisecond

	// maxBuffered caps the receive buffer; the largest reply is 22 bytes.
	maxBuffered = 256
)

// Config holds serial settings that are not part of rfid.LinkConfig
type Config struct {
	// Logger receives open/close events and port errors
	Logger *slog.Logger
	// DataBits, Parity and StopBits describe the frame format (8N1)
	Parity   serial.Parity
	StopBits serial.StopBits
	DataBits int
	// DrainTimeout is the read timeout used by Buffered
	DrainTimeout time.Duration
}

// DefaultConfig returns 8N1 with a short drain timeout
func DefaultConfig() *Config {
	return &Config{
		DataBits:     8,
		Parity:       serial.NoParity,
		StopBits:     serial.OneStopBit,
		DrainTimeout: DefaultDrainTimeout,
	}
}

// Transport implements rfid.Transport over a serial port.
//
// The serial library has no call for the number of pending bytes, so
// Buffered drains the port into an internal buffer and reports its size.
type Transport struct {
	port       serial.Port
	config     *Config
	logger     *slog.Logger
	open       func(name string, mode *serial.Mode) (serial.Port, error)
	resolvePin func(name string) (gpio.PinIO, error)
	link       rfid.LinkConfig
	rx         []byte
	txPin      gpio.PinIO
	rxPin      gpio.PinIO
	mu         sync.Mutex
}

// New creates an unconnected transport. Call Configure (usually through
// rfid.Session.Initialize) to open the port.
func New(config *Config) *Transport {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.DataBits == 0 {
		cfg.DataBits = 8
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transport{
		config:     &cfg,
		logger:     logger,
		open:       serial.Open,
		resolvePin: resolveHostPin,
	}
}

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// resolveHostPin looks a pin up in the periph registry, loading the host
// drivers on first use.
func resolveHostPin(name string) (gpio.PinIO, error) {
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("%w: pin %s", rfid.ErrDeviceNotFound, name)
	}
	return pin, nil
}

// Configure resolves the pins, opens the port and replaces any open one.
func (t *Transport) Configure(cfg rfid.LinkConfig) error {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	var txPin, rxPin gpio.PinIO
	if cfg.TXPin != "" {
		var err error
		if txPin, err = t.resolvePin(cfg.TXPin); err != nil {
			return rfid.NewTransportError("configure", cfg.Port, err, rfid.ErrorTypePermanent)
		}
		if rxPin, err = t.resolvePin(cfg.RXPin); err != nil {
			return rfid.NewTransportError("configure", cfg.Port, err, rfid.ErrorTypePermanent)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
	t.link = cfg
	t.txPin, t.rxPin = txPin, rxPin
	return t.openLocked()
}

func (t *Transport) openLocked() error {
	port, err := t.open(t.link.Port, &serial.Mode{
		BaudRate: t.link.BaudRate,
		DataBits: t.config.DataBits,
		Parity:   t.config.Parity,
		StopBits: t.config.StopBits,
	})
	if err != nil {
		return rfid.NewTransportError("open", t.link.Port, err, openErrorType(err))
	}

	if err := port.SetReadTimeout(t.config.DrainTimeout); err != nil {
		_ = port.Close()
		return rfid.NewTransportError("open", t.link.Port,
			fmt.Errorf("failed to set read timeout: %w", err), rfid.ErrorTypePermanent)
	}

	t.port = port
	t.rx = t.rx[:0]
	t.logger.Debug("serial port opened", "port", t.link.Port, "baud", t.link.BaudRate,
		"tx", pinName(t.txPin), "rx", pinName(t.rxPin))
	return nil
}

func (t *Transport) closeLocked() {
	if t.port == nil {
		return
	}
	if err := t.port.Close(); err != nil {
		t.logger.Debug("serial port close failed", "port", t.link.Port, "error", err)
	}
	t.port = nil
	t.rx = t.rx[:0]
}

// Disconnect closes the port and keeps the configuration for Reconnect
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
	return nil
}

// Reconnect reopens the port with the last configuration
func (t *Transport) Reconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.link.Port == "" {
		return fmt.Errorf("%w: transport was never configured", rfid.ErrNotConnected)
	}
	t.closeLocked()
	return t.openLocked()
}

// IsConnected returns true while the port is open
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// WriteFrame discards stale input and writes frm
func (t *Transport) WriteFrame(frm []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return rfid.NewNotConnectedError("write", t.link.Port)
	}

	t.rx = t.rx[:0]
	if err := t.port.ResetInputBuffer(); err != nil {
		return t.portFailureLocked("write", err)
	}

	n, err := t.port.Write(frm)
	if err != nil {
		return t.portFailureLocked("write", err)
	}
	if n != len(frm) {
		return rfid.NewTransportError("write", t.link.Port,
			fmt.Errorf("%w: wrote %d of %d bytes", rfid.ErrTransportWrite, n, len(frm)),
			rfid.ErrorTypeTransient)
	}
	return nil
}

// Buffered pulls everything the module has sent so far into the receive
// buffer and returns its length.
func (t *Transport) Buffered() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return 0
	}
	if err := t.drainLocked(); err != nil {
		t.logger.Debug("serial read failed", "port", t.link.Port, "error", err)
	}
	return len(t.rx)
}

// drainLocked reads until the port has nothing more within DrainTimeout
func (t *Transport) drainLocked() error {
	buf := make([]byte, 64)
	for len(t.rx) < maxBuffered {
		n, err := t.port.Read(buf)
		if n > 0 {
			t.rx = append(t.rx, buf[:n]...)
		}
		if err != nil {
			return t.portFailureLocked("read", err)
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

// Read consumes buffered bytes, draining the port first when empty
func (t *Transport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return 0, rfid.NewNotConnectedError("read", t.link.Port)
	}
	if len(t.rx) == 0 {
		if err := t.drainLocked(); err != nil {
			return 0, err
		}
		if len(t.rx) == 0 {
			return 0, rfid.NewTimeoutError("read", t.link.Port)
		}
	}
	n := copy(p, t.rx)
	t.rx = t.rx[:copy(t.rx, t.rx[n:])]
	return n, nil
}

// Type returns the transport type
func (*Transport) Type() rfid.TransportType {
	return rfid.TransportUART
}

// Link returns the last link configuration
func (t *Transport) Link() rfid.LinkConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.link
}

// portFailureLocked wraps a port error. A vanished device closes the port so
// IsConnected turns false and the poll loop idles until Reconnect.
func (t *Transport) portFailureLocked(op string, err error) error {
	if isDisconnectionError(err) {
		t.logger.Warn("serial device lost", "port", t.link.Port, "error", err)
		t.closeLocked()
		return rfid.NewTransportError(op, t.link.Port,
			fmt.Errorf("%w: %w", rfid.ErrNotConnected, err), rfid.ErrorTypePermanent)
	}
	sentinel := rfid.ErrTransportRead
	if op == "write" {
		sentinel = rfid.ErrTransportWrite
	}
	return rfid.NewTransportError(op, t.link.Port, fmt.Errorf("%w: %w", sentinel, err), rfid.ErrorTypeTransient)
}

// isDisconnectionError checks if an error indicates device disconnection
func isDisconnectionError(err error) bool {
	if err == nil {
		return false
	}

	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound, serial.PortClosed, serial.InvalidSerialPort:
			return true
		default:
			return false
		}
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "device not configured") ||
		strings.Contains(errStr, "input/output error") ||
		strings.Contains(errStr, "no such device") ||
		strings.Contains(errStr, "broken pipe")
}

// openErrorType treats a busy port as worth retrying and everything else as
// a setup problem.
func openErrorType(err error) rfid.ErrorType {
	var portErr *serial.PortError
	if errors.As(err, &portErr) && portErr.Code() == serial.PortBusy {
		return rfid.ErrorTypeTransient
	}
	return rfid.ErrorTypePermanent
}

func pinName(pin gpio.PinIO) string {
	if pin == nil {
		return ""
	}
	return pin.Name()
}
