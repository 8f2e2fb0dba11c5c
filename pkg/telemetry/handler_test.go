// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"testing"

	"github.com/design3/easel/pkg/stm32"
	"github.com/rs/zerolog"
)

func TestHandler_PutCommandDropsWhenFull(t *testing.T) {
	h := NewHandler(2)

	for i := 0; i < 2; i++ {
		if !h.PutCommand(NewLogPacket("line")) {
			t.Fatalf("put %d should succeed", i)
		}
	}
	if h.PutCommand(NewLogPacket("overflow")) {
		t.Error("put on a full queue should report a drop")
	}
	if h.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", h.Dropped())
	}
}

func TestHandler_FetchCommand(t *testing.T) {
	h := NewHandler(0)

	if _, ok := h.FetchCommand(); ok {
		t.Fatal("fetch on an empty queue should return false")
	}

	h.deliver(Packet{Type: PacketStartCycle})
	h.deliver(Packet{Type: PacketStopCycle})

	for _, want := range []PacketType{PacketStartCycle, PacketStopCycle} {
		p, ok := h.FetchCommand()
		if !ok || p.Type != want {
			t.Errorf("FetchCommand = %s (%t), want %s", p.Type, ok, want)
		}
	}
}

type fakeSource struct {
	strength *uint16
	antenna  *stm32.AntennaInformation
}

func (f fakeSource) SignalStrength() (uint16, bool) {
	if f.strength == nil {
		return 0, false
	}
	return *f.strength, true
}

func (f fakeSource) AntennaInformation() (stm32.AntennaInformation, bool) {
	if f.antenna == nil {
		return stm32.AntennaInformation{}, false
	}
	return *f.antenna, true
}

func TestForwarder(t *testing.T) {
	strength := uint16(512)
	source := fakeSource{
		strength: &strength,
		antenna:  &stm32.AntennaInformation{PaintingNumber: 0x20, Zoom: 2},
	}
	h := NewHandler(4)
	f := NewForwarder(source, h, zerolog.Nop())

	var observer stm32.Observer = f
	observer.Notify(stm32.EventSignalStrength)
	observer.Notify(stm32.EventSignalData)
	observer.Notify(stm32.Event(0x42))

	p := <-h.consumed
	if v, _ := p.Uint(KeyStrength); p.Type != PacketSignalStrength || v != 512 {
		t.Errorf("first packet = %+v, want signal strength 512", p)
	}
	p = <-h.consumed
	if v, _ := p.Uint(KeyPainting); p.Type != PacketAntenna || v != 0x20 {
		t.Errorf("second packet = %+v, want antenna painting 0x20", p)
	}
	if len(h.consumed) != 0 {
		t.Errorf("unknown events should not be forwarded, %d queued", len(h.consumed))
	}
}

func TestForwarder_NoState(t *testing.T) {
	h := NewHandler(4)
	f := NewForwarder(fakeSource{}, h, zerolog.Nop())

	f.Notify(stm32.EventSignalStrength)
	f.Notify(stm32.EventSignalData)
	if len(h.consumed) != 0 {
		t.Errorf("nothing should be queued without driver state, got %d", len(h.consumed))
	}
}

func TestLogWriter(t *testing.T) {
	h := NewHandler(4)
	log := zerolog.New(NewLogWriter(h))

	log.Info().Msg("antenna found")

	p, ok := <-h.consumed
	if !ok || p.Type != PacketLog {
		t.Fatalf("packet = %+v, want LOG", p)
	}
	line, _ := p.Text(KeyMessage)
	if line != `{"level":"info","message":"antenna found"}` {
		t.Errorf("line = %s", line)
	}
}
