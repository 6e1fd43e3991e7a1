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

// Package testing provides a simulated reader module and MIFARE Classic 1K
// card for exercising the protocol without hardware.
package testing

import (
	"sync"

	"github.com/cspanjian/go-rfid/internal/frame"
)

const mifare1KBlocks = 64

// VirtualCard simulates the reader module with a MIFARE Classic 1K card in
// its field. Respond answers request frames the way the module does.
type VirtualCard struct {
	rejected     map[byte]byte
	silentReads  map[byte]bool
	Memory       [mifare1KBlocks][frame.BlockSize]byte
	writtenOrder []byte
	requests     int
	mu           sync.Mutex
	UID          [frame.UIDSize]byte
	Present      bool
}

// NewVirtualCard creates a present card with the given UID. Sector trailers
// carry the factory default keys and access bits.
func NewVirtualCard(uid [frame.UIDSize]byte) *VirtualCard {
	card := &VirtualCard{
		UID:         uid,
		Present:     true,
		rejected:    make(map[byte]byte),
		silentReads: make(map[byte]bool),
	}
	copy(card.Memory[0][:], uid[:])
	for sector := 0; sector < mifare1KBlocks/4; sector++ {
		card.Memory[sector*4+3] = [frame.BlockSize]byte{
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // Key A
			0xFF, 0x07, 0x80, 0x69, // Access bits
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // Key B
		}
	}
	return card
}

// Respond returns the module's reply to req, or nil when the module would
// stay silent (no card, unknown command, malformed frame).
func (v *VirtualCard) Respond(req []byte) []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.requests++

	if !v.Present || len(req) < frame.QueryUIDLength || !frame.ValidChecksum(req) {
		return nil
	}

	block := frame.TargetBlock(req)
	switch frame.Command(req) {
	case frame.CmdQueryUID:
		return frame.BuildUIDResponse(v.UID)
	case frame.CmdReadBlock:
		if int(block) >= mifare1KBlocks || v.silentReads[block] {
			return nil
		}
		return frame.BuildBlockResponse(v.Memory[block])
	case frame.CmdWriteBlock:
		payload := frame.WritePayload(req)
		if payload == nil || int(block) >= mifare1KBlocks {
			return nil
		}
		if status, ok := v.rejected[block]; ok {
			return frame.BuildAckResponse(status)
		}
		if isSectorTrailer(block) || block == 0 {
			return frame.BuildAckResponse(0x01)
		}
		copy(v.Memory[block][:], payload)
		v.writtenOrder = append(v.writtenOrder, block)
		return frame.BuildAckResponse(0x00)
	}
	return nil
}

// Remove takes the card out of the field
func (v *VirtualCard) Remove() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Present = false
}

// Insert puts the card back into the field
func (v *VirtualCard) Insert() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Present = true
}

// RejectWrites makes writes to block answer with a non-zero status.
func (v *VirtualCard) RejectWrites(block, status byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rejected[block] = status
}

// SilenceReads makes reads of block go unanswered.
func (v *VirtualCard) SilenceReads(block byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.silentReads[block] = true
}

// SetBlock overwrites block contents directly, bypassing the module.
func (v *VirtualCard) SetBlock(block byte, data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Memory[block] = [frame.BlockSize]byte{}
	copy(v.Memory[block][:], data)
}

// Block returns a copy of block contents.
func (v *VirtualCard) Block(block byte) []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]byte, frame.BlockSize)
	copy(out, v.Memory[block][:])
	return out
}

// WrittenBlocks returns the blocks written so far, in write order.
func (v *VirtualCard) WrittenBlocks() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]byte(nil), v.writtenOrder...)
}

// ResetWrites clears the write log.
func (v *VirtualCard) ResetWrites() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writtenOrder = nil
}

// Requests returns how many frames the card has seen.
func (v *VirtualCard) Requests() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.requests
}

func isSectorTrailer(block byte) bool {
	return (block+1)%4 == 0
}

// Common UIDs for testing
var (
	// TestUID is the UID used by most tests
	TestUID = [frame.UIDSize]byte{0xDE, 0xAD, 0xBE, 0xEF}

	// TestAltUID is a second card for change detection tests
	TestAltUID = [frame.UIDSize]byte{0x12, 0x34, 0x56, 0x78}
)
