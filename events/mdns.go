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

package events

import (
	"fmt"

	"github.com/grandcat/zeroconf"
)

// mDNS service parameters
const (
	ServiceType = "_rfid-reader._tcp"
	Domain      = "local."
)

// Advertisement is a registered mDNS service
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise announces the websocket hub on the local network so clients can
// find it without configuration.
func Advertise(instance string, port int, path string) (*Advertisement, error) {
	server, err := zeroconf.Register(instance, ServiceType, Domain, port, txtRecords(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the announcement
func (a *Advertisement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}

func txtRecords(path string) []string {
	if path == "" {
		path = "/"
	}
	return []string{
		"version=1",
		"protocol=websocket",
		"path=" + path,
	}
}
