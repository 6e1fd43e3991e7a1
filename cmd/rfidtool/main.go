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

// Command rfidtool talks to a reader module from the shell: print the UID of
// the card in the field, read or write its payload, or watch for cards.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cspanjian/go-rfid"
	"github.com/cspanjian/go-rfid/detection"
	"github.com/cspanjian/go-rfid/polling"
	"github.com/cspanjian/go-rfid/transport/uart"
	"github.com/lmittmann/tint"
)

type config struct {
	devicePath     *string
	txPin          *string
	rxPin          *string
	baudRate       *int
	timeout        *time.Duration
	settle         *time.Duration
	pollInterval   *time.Duration
	compact        *bool
	rejectOverflow *bool
	verify         *bool
	debug          *bool
}

func parseFlags() *config {
	cfg := &config{
		devicePath: flag.String("device", "",
			"Serial device path (e.g., /dev/ttyS0 or COM3). Leave empty for auto-detection."),
		txPin:          flag.String("tx", "", "Host pin wired to the module TX (e.g. GPIO15)"),
		rxPin:          flag.String("rx", "", "Host pin wired to the module RX (e.g. GPIO14)"),
		baudRate:       flag.Int("baud", rfid.DefaultBaudRate, "Serial baud rate"),
		timeout:        flag.Duration("timeout", 10*time.Second, "How long to wait for a card"),
		settle:         flag.Duration("settle", rfid.DefaultSettleDelay, "Settle delay after each frame"),
		pollInterval:   flag.Duration("poll-interval", polling.DefaultInterval, "Polling interval for watch"),
		compact:        flag.Bool("compact", false, "Use the 3-block payload layout"),
		rejectOverflow: flag.Bool("reject-overflow", false, "Refuse payloads that do not fit instead of truncating"),
		verify:         flag.Bool("verify-checksum", false, "Reject replies with a bad checksum"),
		debug:          flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Usage = usage
	flag.Parse()
	return cfg
}

func usage() {
	out := flag.CommandLine.Output()
	_, _ = fmt.Fprintf(out, "Usage: %s [flags] <command> [args]\n\n", os.Args[0])
	_, _ = fmt.Fprintln(out, "Commands:")
	_, _ = fmt.Fprintln(out, "  ports             list candidate serial ports")
	_, _ = fmt.Fprintln(out, "  uid               print the UID of the card in the field")
	_, _ = fmt.Fprintln(out, "  read              print the stored text")
	_, _ = fmt.Fprintln(out, "  read-hex          print the stored bytes as hex")
	_, _ = fmt.Fprintln(out, "  write <text>      store text")
	_, _ = fmt.Fprintln(out, "  write-hex <hex>   store raw bytes")
	_, _ = fmt.Fprintln(out, "  ndef-read         print the text of an NDEF payload")
	_, _ = fmt.Fprintln(out, "  ndef-write <text> store text as an NDEF Text record")
	_, _ = fmt.Fprintln(out, "  watch             print every card until interrupted")
	_, _ = fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
		rfid.SetDebugEnabled(true)
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

func resolvePort(ctx context.Context, path string) (string, error) {
	if path != "" {
		return path, nil
	}
	devices, err := detection.DetectAll(ctx, detection.DefaultOptions())
	if err != nil {
		return "", err
	}
	for _, dev := range devices {
		if dev.Accessible {
			slog.Info("using detected port", "port", dev.Path, "vidpid", dev.VIDPID)
			return dev.Path, nil
		}
	}
	return "", fmt.Errorf("%w: no accessible serial port found", rfid.ErrDeviceNotFound)
}

func openSession(ctx context.Context, cfg *config) (*rfid.Session, error) {
	port, err := resolvePort(ctx, *cfg.devicePath)
	if err != nil {
		return nil, err
	}

	layout := rfid.DefaultLayout()
	if *cfg.compact {
		layout = rfid.CompactLayout()
	}
	if *cfg.rejectOverflow {
		layout.Overflow = rfid.OverflowReject
	}

	transport := uart.New(&uart.Config{Logger: slog.Default()})
	session, err := rfid.New(transport,
		rfid.WithLogger(slog.Default()),
		rfid.WithLayout(layout),
		rfid.WithSettleDelay(*cfg.settle),
		rfid.WithChecksumValidation(*cfg.verify),
	)
	if err != nil {
		return nil, err
	}

	link := rfid.LinkConfig{Port: port, TXPin: *cfg.txPin, RXPin: *cfg.rxPin, BaudRate: *cfg.baudRate}
	if err := session.Initialize(link); err != nil {
		return nil, fmt.Errorf("failed to open reader on %s: %w", port, err)
	}
	return session, nil
}

func listPorts(ctx context.Context) error {
	opts := detection.DefaultOptions()
	opts.IncludeAll = true
	devices, err := detection.DetectAll(ctx, opts)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		_, _ = fmt.Println("No serial ports found")
		return nil
	}
	for _, dev := range devices {
		access := "ok"
		if !dev.Accessible {
			access = "no access"
		}
		_, _ = fmt.Printf("%-20s %-10s %-9s %s\n", dev.Path, dev.VIDPID, access, dev.Product)
	}
	return nil
}

// withCard waits for a card and then runs op
func withCard(ctx context.Context, session *rfid.Session, timeout time.Duration, op func() error) error {
	uid, err := session.WaitForCard(ctx, timeout, 100*time.Millisecond)
	if err != nil {
		if errors.Is(err, rfid.ErrNoResponse) {
			return fmt.Errorf("no card detected within %s", timeout)
		}
		return err
	}
	slog.Debug("card present", "uid", uid)
	return op()
}

// watcher prints each card once per tap. The remembered UID is dropped as
// soon as a tick finds the field empty, so re-tapping the same card prints it
// again.
type watcher struct {
	session *rfid.Session
	loop    *polling.Loop
	out     io.Writer
	last    string
}

func newWatcher(session *rfid.Session, interval time.Duration, out io.Writer) *watcher {
	w := &watcher{session: session, out: out}
	w.loop = polling.NewLoop(session, &polling.Config{Interval: interval, Logger: slog.Default()})
	w.loop.SetHandler(w.handle)
	return w
}

func (w *watcher) handle(ctx context.Context) error {
	uid, err := w.session.QueryUID(ctx)
	if err != nil {
		return err
	}
	if uid == w.last {
		return nil
	}
	w.last = uid
	text, err := w.session.ReadText(ctx)
	if err != nil {
		slog.Warn("card read failed", "uid", uid, "error", err)
	}
	_, _ = fmt.Fprintf(w.out, "%s %s %q\n", time.Now().Format(time.TimeOnly), uid, text)
	return nil
}

func (w *watcher) tick(ctx context.Context) polling.TickResult {
	result := w.loop.Tick(ctx)
	if result == polling.TickNoCard {
		w.last = ""
	}
	return result
}

func watch(ctx context.Context, session *rfid.Session, interval time.Duration) error {
	w := newWatcher(session, interval, os.Stdout)
	_, _ = fmt.Println("Watching for cards (Ctrl+C to stop)...")

	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		w.tick(ctx)

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			m := w.loop.Metrics()
			slog.Info("watch stopped", "polls", m.PollCycles, "detections", m.Detections,
				"handler_errors", m.HandlerErrors)
			return nil
		case <-timer.C:
		}
	}
}

func runCommand(ctx context.Context, cfg *config, cmd string, args []string) error {
	if cmd == "ports" {
		return listPorts(ctx)
	}

	session, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	arg := strings.Join(args, " ")
	switch cmd {
	case "uid":
		return withCard(ctx, session, *cfg.timeout, func() error {
			_, _ = fmt.Println(session.LastUID())
			return nil
		})
	case "read":
		return withCard(ctx, session, *cfg.timeout, func() error {
			text, err := session.ReadText(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Println(text)
			return nil
		})
	case "read-hex":
		return withCard(ctx, session, *cfg.timeout, func() error {
			data, err := session.ReadBytes(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Println(strings.ToUpper(hex.EncodeToString(data)))
			return nil
		})
	case "write":
		return withCard(ctx, session, *cfg.timeout, func() error {
			return reportWrite(session.WriteText(ctx, arg))
		})
	case "write-hex":
		data, err := parseHex(arg)
		if err != nil {
			return err
		}
		return withCard(ctx, session, *cfg.timeout, func() error {
			return reportWrite(session.WriteBytes(ctx, data))
		})
	case "ndef-read":
		return withCard(ctx, session, *cfg.timeout, func() error {
			text, err := session.ReadNDEFText(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Println(text)
			return nil
		})
	case "ndef-write":
		return withCard(ctx, session, *cfg.timeout, func() error {
			return reportWrite(session.WriteNDEFText(ctx, arg, "en"))
		})
	case "watch":
		return watch(ctx, session, *cfg.pollInterval)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func reportWrite(err error) error {
	switch {
	case err == nil:
		_, _ = fmt.Println("Write successful!")
		return nil
	case errors.Is(err, rfid.ErrPayloadTruncated):
		_, _ = fmt.Println("Write successful, but the payload was truncated to fit the card")
		return nil
	default:
		return fmt.Errorf("write failed: %w", err)
	}
}

// parseHex accepts hex with optional spaces or colons between bytes
func parseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	return data, nil
}

func main() {
	cfg := parseFlags()
	setupLogging(*cfg.debug)

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runCommand(ctx, cfg, flag.Arg(0), flag.Args()[1:]); err != nil {
		slog.Error("command failed", "command", flag.Arg(0), "error", err)
		stop()
		os.Exit(1)
	}
}
