// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import "sync/atomic"

// DefaultQueueSize bounds each direction's queue when none is configured
const DefaultQueueSize = 64

// Handler owns the two bounded packet queues between the robot's control
// loop and the base station link. Neither side ever blocks: a full queue
// drops the packet and an empty one returns nothing.
type Handler struct {
	consumed chan Packet // to be sent to the base station
	produced chan Packet // received from the base station

	dropped atomic.Uint64
}

// NewHandler creates a handler whose queues each hold queueSize packets
func NewHandler(queueSize int) *Handler {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Handler{
		consumed: make(chan Packet, queueSize),
		produced: make(chan Packet, queueSize),
	}
}

// PutCommand queues a packet for the base station.
// Returns false if the queue was full and the packet was dropped.
func (h *Handler) PutCommand(p Packet) bool {
	select {
	case h.consumed <- p:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}

// FetchCommand returns the oldest packet received from the base station, if any
func (h *Handler) FetchCommand() (Packet, bool) {
	select {
	case p := <-h.produced:
		return p, true
	default:
		return Packet{}, false
	}
}

// Dropped returns how many packets were discarded because a queue was full
func (h *Handler) Dropped() uint64 {
	return h.dropped.Load()
}

// deliver queues a received packet for FetchCommand
func (h *Handler) deliver(p Packet) bool {
	select {
	case h.produced <- p:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}
