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

package detection

import (
	"path/filepath"
	"strings"
)

// DefaultBlocklist returns USB bridges that are never reader modules and
// should not be listed. Format: VID:PID in hexadecimal (case-insensitive).
func DefaultBlocklist() []string {
	return []string{
		"0D28:0204", // ARM mbed / DAPLink debug probes
		"1366:0105", // SEGGER J-Link CDC
		"2341:0043", // Arduino Uno
	}
}

// IsBlocked reports whether vidpid is in blocklist
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = normalizeVIDPID(vidpid)
	if vidpid == "" {
		return false
	}
	for _, blocked := range blocklist {
		if normalizeVIDPID(blocked) == vidpid {
			return true
		}
	}
	return false
}

// ParseVIDPID extracts VID:PID from descriptors such as "VID:1A86 PID:7523",
// "vendor=1a86 product=7523" or "1a86:7523". It returns "" if either half is
// missing.
func ParseVIDPID(descriptor string) string {
	descriptor = strings.ToUpper(descriptor)

	vid := hexAfter(descriptor, "VID:", "VID=", "VENDOR=")
	pid := hexAfter(descriptor, "PID:", "PID=", "PRODUCT=")
	if vid != "" && pid != "" {
		return vid + ":" + pid
	}

	if left, right, ok := strings.Cut(descriptor, ":"); ok && isHex(left) && isHex(right) {
		return left + ":" + right
	}
	return ""
}

func normalizeVIDPID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// hexAfter returns the hex digits following the first marker found
func hexAfter(s string, markers ...string) string {
	for _, marker := range markers {
		if idx := strings.Index(s, marker); idx >= 0 {
			rest := s[idx+len(marker):]
			end := 0
			for end < len(rest) && isHexDigit(rune(rest[end])) {
				end++
			}
			return rest[:end]
		}
	}
	return ""
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') || (r >= 'a' && r <= 'f')
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isHexDigit(r) {
			return false
		}
	}
	return true
}

// IsPathIgnored reports whether devicePath matches one of ignorePaths after
// cleaning. The comparison ignores case so COM ports match on Windows.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}
	device := normalizedPath(devicePath)
	for _, ignored := range ignorePaths {
		if ignored != "" && normalizedPath(ignored) == device {
			return true
		}
	}
	return false
}

func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
