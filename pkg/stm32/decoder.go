// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

// Decoder splits an inbound byte stream into fixed-size response frames.
// Bytes that do not yet complete a frame are kept for the next Feed.
type Decoder struct {
	pending []byte
}

// NewDecoder creates a decoder with an empty buffer
func NewDecoder() *Decoder {
	return &Decoder{pending: make([]byte, 0, ResponseSize*4)}
}

// Feed appends data and calls fn for each complete frame, in arrival order.
// The frame slice is only valid for the duration of the call.
func (d *Decoder) Feed(data []byte, fn func(frame []byte)) {
	d.pending = append(d.pending, data...)

	consumed := 0
	for len(d.pending)-consumed >= ResponseSize {
		fn(d.pending[consumed : consumed+ResponseSize])
		consumed += ResponseSize
	}
	d.pending = append(d.pending[:0], d.pending[consumed:]...)
}

// Buffered returns the number of bytes waiting for the rest of a frame
func (d *Decoder) Buffered() int {
	return len(d.pending)
}

// Reset drops any partial frame
func (d *Decoder) Reset() {
	d.pending = d.pending[:0]
}
