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

// Command rfidd runs the poll loop on one reader and publishes every card to
// Redis and to websocket clients.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cspanjian/go-rfid"
	"github.com/cspanjian/go-rfid/events"
	"github.com/cspanjian/go-rfid/internal/retry"
	"github.com/cspanjian/go-rfid/polling"
	"github.com/cspanjian/go-rfid/transport/uart"
	"github.com/lmittmann/tint"
)

// reconnectRetry spaces attempts to reopen a lost reader. Once the attempts
// run out, the next tick starts another round.
var reconnectRetry = retry.Config{MaxRetries: 11, Delay: 5 * time.Second}

type config struct {
	devicePath   *string
	txPin        *string
	rxPin        *string
	readerName   *string
	redisAddr    *string
	redisPrefix  *string
	httpAddr     *string
	baudRate     *int
	pollInterval *time.Duration
	settle       *time.Duration
	readText     *bool
	mdns         *bool
	debug        *bool
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func parseFlags() *config {
	cfg := &config{
		devicePath:  flag.String("device", envOr("RFID_DEVICE", "/dev/ttyS0"), "Serial device path"),
		txPin:       flag.String("tx", envOr("RFID_TX_PIN", ""), "Host pin wired to the module TX"),
		rxPin:       flag.String("rx", envOr("RFID_RX_PIN", ""), "Host pin wired to the module RX"),
		readerName:  flag.String("name", envOr("RFID_READER_NAME", "rfid"), "Reader name used in events and mDNS"),
		redisAddr:   flag.String("redis", envOr("RFID_REDIS_ADDR", ""), "Redis address (host:port); empty disables"),
		redisPrefix: flag.String("redis-key", envOr("RFID_REDIS_KEY", "rfid"), "Redis hash key and channel"),
		httpAddr:    flag.String("listen", envOr("RFID_LISTEN", ":8765"), "Websocket listen address; empty disables"),
		baudRate:    flag.Int("baud", rfid.DefaultBaudRate, "Serial baud rate"),
		pollInterval: flag.Duration("poll-interval",
			envDuration("RFID_POLL_INTERVAL", polling.DefaultInterval), "Polling interval"),
		settle:   flag.Duration("settle", envDuration("RFID_SETTLE", rfid.DefaultSettleDelay), "Settle delay"),
		readText: flag.Bool("read-text", envBool("RFID_READ_TEXT", true), "Read the stored text of each card"),
		mdns:     flag.Bool("mdns", envBool("RFID_MDNS", false), "Announce the websocket endpoint over mDNS"),
		debug:    flag.Bool("debug", envBool("RFID_DEBUG", false), "Enable debug output"),
	}
	flag.Parse()
	return cfg
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
		rfid.SetDebugEnabled(true)
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
	})))
}

// detector builds the poll handler. A card stays "current" until a tick
// finds no card, so holding a card on the reader publishes it once.
type detector struct {
	session   *rfid.Session
	publisher events.Publisher
	reader    string
	current   string
	readText  bool
}

func (d *detector) handle(ctx context.Context) error {
	uid, err := d.session.QueryUID(ctx)
	if err != nil {
		return err
	}
	if uid == d.current {
		return nil
	}
	d.current = uid

	ev := events.NewEvent(events.TypeCardDetected, d.reader, uid)
	if d.readText {
		text, err := d.session.ReadText(ctx)
		if err != nil {
			slog.Warn("card read failed", "uid", uid, "error", err)
		} else {
			ev.Type = events.TypeCardRead
			ev.Text = text
		}
	}

	slog.Info("card detected", "uid", uid, "text", ev.Text)
	return d.publisher.Publish(ctx, ev)
}

// clearWhenAbsent forgets the current card once it leaves the field
func (d *detector) clearWhenAbsent(result polling.TickResult) {
	if result == polling.TickNoCard {
		d.current = ""
	}
}

func buildPublishers(ctx context.Context, cfg *config, hub *events.Hub) (events.MultiPublisher, error) {
	var pubs events.MultiPublisher
	if hub != nil {
		pubs = append(pubs, hub)
	}
	if *cfg.redisAddr != "" {
		redisPub := events.NewRedisPublisher(*cfg.redisAddr, os.Getenv("RFID_REDIS_PASSWORD"), 0, *cfg.redisPrefix)
		if err := redisPub.Ping(ctx); err != nil {
			_ = redisPub.Close()
			return nil, err
		}
		slog.Info("publishing to redis", "addr", *cfg.redisAddr, "key", *cfg.redisPrefix)
		pubs = append(pubs, redisPub)
	}
	return pubs, nil
}

func serveHub(ctx context.Context, addr string, hub *events.Hub) (*http.Server, int, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("websocket server stopped", "error", err)
		}
	}()

	port := 0
	if tcp, ok := listener.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	slog.Info("websocket endpoint ready", "addr", listener.Addr().String(), "path", "/ws")
	return srv, port, nil
}

type reconnecter interface {
	Reconnect() error
}

// reconnect reopens the reader, retrying every failure since a USB reader
// that was unplugged reports "not found" until it comes back.
func reconnect(ctx context.Context, r reconnecter, config retry.Config) error {
	_, err := retry.WithRetry(ctx, config, func(context.Context) (struct{}, bool, error) {
		if err := r.Reconnect(); err != nil {
			slog.Debug("reader reconnect failed", "error", err)
			return struct{}{}, true, nil
		}
		return struct{}{}, false, nil
	})
	return err
}

// run ticks the loop itself so it can reconnect a lost reader between ticks
func run(ctx context.Context, session *rfid.Session, loop *polling.Loop, det *detector, interval time.Duration) {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		if !session.IsInitialized() {
			slog.Warn("reader disconnected, reconnecting")
			if err := reconnect(ctx, session, reconnectRetry); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("reader still unavailable", "error", err)
			}
		}

		det.clearWhenAbsent(loop.Tick(ctx))

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

func main() {
	if err := mainWithError(); err != nil {
		slog.Error("rfidd failed", "error", err)
		os.Exit(1)
	}
}

func mainWithError() error {
	cfg := parseFlags()
	setupLogging(*cfg.debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub *events.Hub
	if *cfg.httpAddr != "" {
		hub = events.NewHub(slog.Default())
		srv, port, err := serveHub(ctx, *cfg.httpAddr, hub)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		if *cfg.mdns {
			ad, err := events.Advertise(*cfg.readerName, port, "/ws")
			if err != nil {
				slog.Warn("mDNS announcement failed", "error", err)
			} else {
				defer ad.Shutdown()
			}
		}
	}

	pubs, err := buildPublishers(ctx, cfg, hub)
	if err != nil {
		return err
	}
	defer func() { _ = pubs.Close() }()

	session, err := rfid.New(uart.New(&uart.Config{Logger: slog.Default()}),
		rfid.WithLogger(slog.Default()),
		rfid.WithSettleDelay(*cfg.settle),
	)
	if err != nil {
		return err
	}
	link := rfid.LinkConfig{Port: *cfg.devicePath, TXPin: *cfg.txPin, RXPin: *cfg.rxPin, BaudRate: *cfg.baudRate}
	if err := session.Initialize(link); err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	det := &detector{session: session, publisher: pubs, reader: *cfg.readerName, readText: *cfg.readText}
	loop := polling.NewLoop(session, &polling.Config{Interval: *cfg.pollInterval, Logger: slog.Default()})
	loop.SetHandler(det.handle)

	slog.Info("rfidd started", "device", *cfg.devicePath, "reader", *cfg.readerName)
	run(ctx, session, loop, det, *cfg.pollInterval)

	m := loop.Metrics()
	slog.Info("rfidd stopped", "polls", m.PollCycles, "dispatches", m.Dispatches, "handler_errors", m.HandlerErrors)
	return nil
}
