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

// Package detection finds serial ports that may have a reader module on them.
//
// The module only answers when a card is in the field, so ports cannot be
// confirmed by probing; detection ranks candidates instead.
package detection

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Device is a candidate port
type Device struct {
	Path         string
	VIDPID       string // empty for on-board UARTs
	Product      string
	SerialNumber string
	USB          bool
	// Accessible is false when the current user cannot open the port
	Accessible bool
}

// Options controls which ports DetectAll returns
type Options struct {
	// Blocklist holds VID:PID pairs to skip
	Blocklist []string
	// IgnorePaths holds port paths to skip
	IgnorePaths []string
	// IncludeAll keeps ports that look like neither a USB bridge nor an
	// on-board UART
	IncludeAll bool
}

// DefaultOptions returns options with the default blocklist
func DefaultOptions() Options {
	return Options{
		Blocklist: DefaultBlocklist(),
	}
}

// knownBridges are USB-UART chips commonly soldered to reader breakouts
var knownBridges = []string{
	"1A86:7523", // WCH CH340
	"1A86:55D4", // WCH CH9102
	"10C4:EA60", // Silicon Labs CP210x
	"0403:6001", // FTDI FT232R
	"0403:6015", // FTDI FT231X
	"067B:2303", // Prolific PL2303
}

// onboardPrefixes match SoC UARTs where modules are wired to GPIO pins
var onboardPrefixes = []string{"ttyS", "ttyAMA", "serial", "ttyTHS", "ttymxc"}

// listPorts is replaced in tests
var listPorts = enumerator.GetDetailedPortsList

// DetectAll lists candidate ports, known USB bridges first, then other USB
// ports, then on-board UARTs.
func DetectAll(ctx context.Context, opts Options) ([]Device, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	devices := make([]Device, 0, len(ports))
	for _, port := range ports {
		if port == nil || IsPathIgnored(port.Name, opts.IgnorePaths) {
			continue
		}

		dev := Device{
			Path:         port.Name,
			USB:          port.IsUSB,
			Product:      port.Product,
			SerialNumber: port.SerialNumber,
		}
		if port.IsUSB {
			dev.VIDPID = ParseVIDPID(port.VID + ":" + port.PID)
			if IsBlocked(dev.VIDPID, opts.Blocklist) {
				continue
			}
		} else if !opts.IncludeAll && !isOnboardUART(port.Name) {
			continue
		}
		dev.Accessible = accessible(port.Name)
		devices = append(devices, dev)
	}

	slices.SortStableFunc(devices, func(a, b Device) int {
		return rank(a) - rank(b)
	})
	return devices, nil
}

func rank(d Device) int {
	switch {
	case d.USB && slices.Contains(knownBridges, d.VIDPID):
		return 0
	case d.USB:
		return 1
	case isOnboardUART(d.Path):
		return 2
	default:
		return 3
	}
}

func isOnboardUART(path string) bool {
	name := filepath.Base(path)
	for _, prefix := range onboardPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
