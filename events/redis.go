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
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher stores the latest event in a hash and announces it on a
// channel, so consumers can either subscribe or read the current card.
type RedisPublisher struct {
	client  redis.Cmdable
	closer  func() error
	key     string
	channel string
}

// NewRedisPublisher connects to addr. The hash key and the channel are both
// named prefix (e.g. "rfid" or "rfid:door").
func NewRedisPublisher(addr, password string, db int, prefix string) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisPublisher{
		client:  client,
		closer:  client.Close,
		key:     prefix,
		channel: prefix,
	}
}

// NewRedisPublisherFromClient publishes through an existing client
func NewRedisPublisherFromClient(client redis.Cmdable, prefix string) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		closer:  func() error { return nil },
		key:     prefix,
		channel: prefix,
	}
}

// Ping checks the connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

// Publish writes ev to the hash and publishes the event type on the channel
// in one transaction.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	pipe := p.client.TxPipeline()
	pipe.HSet(ctx, p.key, eventFields(ev))
	pipe.Publish(ctx, p.channel, ev.Type)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", ev.ID, err)
	}
	return nil
}

// Close closes the client if the publisher created it
func (p *RedisPublisher) Close() error {
	return p.closer()
}

func eventFields(ev Event) map[string]any {
	return map[string]any{
		"id":     ev.ID,
		"type":   ev.Type,
		"reader": ev.Reader,
		"uid":    ev.UID,
		"text":   ev.Text,
		"time":   ev.Time.Format(time.RFC3339Nano),
	}
}
