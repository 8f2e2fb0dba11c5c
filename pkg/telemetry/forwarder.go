// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"strings"

	"github.com/design3/easel/pkg/stm32"
	"github.com/rs/zerolog"
)

// Source exposes the driver state the forwarder reports.
// *stm32.Driver implements it.
type Source interface {
	SignalStrength() (uint16, bool)
	AntennaInformation() (stm32.AntennaInformation, bool)
}

// Forwarder is a driver observer that queues each decoded event for the base station
type Forwarder struct {
	source  Source
	handler *Handler
	log     zerolog.Logger
}

// NewForwarder creates an observer publishing source's events through handler
func NewForwarder(source Source, handler *Handler, log zerolog.Logger) *Forwarder {
	return &Forwarder{source: source, handler: handler, log: log}
}

// Notify runs on the driver's receive goroutine and never blocks
func (f *Forwarder) Notify(event stm32.Event) {
	var p Packet
	switch event {
	case stm32.EventSignalStrength:
		strength, ok := f.source.SignalStrength()
		if !ok {
			return
		}
		p = NewSignalStrengthPacket(strength)
	case stm32.EventSignalData:
		info, ok := f.source.AntennaInformation()
		if !ok {
			return
		}
		p = NewAntennaPacket(info)
	default:
		return
	}

	if !f.handler.PutCommand(p) {
		f.log.Debug().Stringer("event", event).Msg("telemetry queue full, event dropped")
	}
}

// LogWriter forwards log lines to the base station. Use it as an extra
// zerolog output; lines are dropped when the queue is full.
type LogWriter struct {
	handler *Handler
}

// NewLogWriter creates a writer queueing each line as a LOG packet
func NewLogWriter(handler *Handler) *LogWriter {
	return &LogWriter{handler: handler}
}

func (w *LogWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	if line != "" {
		w.handler.PutCommand(NewLogPacket(line))
	}
	return len(p), nil
}
