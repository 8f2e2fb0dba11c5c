// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakePort is an in-memory Port whose reads time out like a serial device
type fakePort struct {
	rx       chan []byte
	leftover []byte
	timeout  time.Duration

	mu       sync.Mutex
	written  []byte
	writeErr error
	closed   bool
}

func newFakePort() *fakePort {
	return &fakePort{
		rx:      make(chan []byte, 64),
		timeout: 20 * time.Millisecond,
	}
}

func (f *fakePort) Read(p []byte) (int, error) {
	if len(f.leftover) > 0 {
		n := copy(p, f.leftover)
		f.leftover = f.leftover[n:]
		return n, nil
	}
	select {
	case chunk := <-f.rx:
		n := copy(p, chunk)
		f.leftover = append(f.leftover[:0], chunk[n:]...)
		return n, nil
	case <-time.After(f.timeout):
		return 0, nil
	}
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePort) feed(data []byte) {
	f.rx <- data
}

func (f *fakePort) Written() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]byte, len(f.written))
	copy(out, f.written)
	return out
}

func (f *fakePort) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func testLogger(t *testing.T) *zerolog.Logger {
	l := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	return &l
}

// eventually polls cond until it holds or the deadline passes
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPlatformCandidates(t *testing.T) {
	ports, err := platformCandidates("windows")
	if err != nil {
		t.Fatalf("windows candidates: %v", err)
	}
	if len(ports) != 256 || ports[0] != "COM1" || ports[255] != "COM256" {
		t.Errorf("windows candidates = %d ports [%s..%s], want COM1..COM256", len(ports), ports[0], ports[len(ports)-1])
	}

	if _, err := platformCandidates("plan9"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}

func TestDetectSerialPorts(t *testing.T) {
	opener := func(name string, baudRate int, readTimeout time.Duration) (Port, error) {
		if name == "/dev/ttyACM0" {
			return newFakePort(), nil
		}
		return nil, errors.New("no such device")
	}

	found := DetectSerialPorts([]string{"/dev/ttyS0", "/dev/ttyACM0", "/dev/ttyUSB9"}, opener, DefaultBaudRate, zerolog.Nop())
	if len(found) != 1 || found[0] != "/dev/ttyACM0" {
		t.Errorf("DetectSerialPorts = %v, want [/dev/ttyACM0]", found)
	}
}
