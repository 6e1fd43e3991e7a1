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
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

var debugEnabled atomic.Bool

// SetDebugEnabled turns the package debug logger on or off. Debug output
// goes to slog.Default at debug level.
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

// debugf logs a formatted debug message when debugging is enabled
func debugf(format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	slog.Default().Log(context.Background(), slog.LevelDebug, fmt.Sprintf(format, args...))
}

