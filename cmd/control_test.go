// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/design3/easel/pkg/stm32"
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestControlModel(b *fakeBoard) *controlModel {
	return initialControlModel(b, "Serial: test", newEventSink(16))
}

func lastLog(m *controlModel) logEntry {
	if len(m.eventLog) == 0 {
		return logEntry{}
	}
	return m.eventLog[len(m.eventLog)-1]
}

func TestControl_Hotkeys(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want string
	}{
		{"stop", runeKey("x"), "stop"},
		{"manchester", runeKey("m"), "manchester"},
		{"green", runeKey("g"), "green 1000"},
		{"red", runeKey("l"), "red on"},
		{"sampling", runeKey("s"), "sampling on"},
		{"reset", tea.KeyMsg{Type: tea.KeyCtrlR}, "reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBoard{}
			m := newTestControlModel(b)

			m.Update(tt.key)

			if len(b.calls) != 1 || b.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", b.calls, tt.want)
			}
			if entry := lastLog(m); entry.isError || !strings.HasPrefix(entry.message, "Sent ") {
				t.Errorf("last log entry = %+v, want a Sent entry", entry)
			}
		})
	}
}

func TestControl_Toggles(t *testing.T) {
	b := &fakeBoard{}
	m := newTestControlModel(b)

	m.Update(runeKey("l"))
	m.Update(runeKey("l"))
	m.Update(runeKey("s"))

	want := []string{"red on", "red off", "sampling on"}
	if strings.Join(b.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", b.calls, want)
	}
	if m.redLED {
		t.Error("red LED should be off after two toggles")
	}
	if !m.sampling {
		t.Error("sampling should be on")
	}
}

func TestControl_FailedCommandKeepsState(t *testing.T) {
	b := &fakeBoard{err: errors.New("write failed")}
	m := newTestControlModel(b)

	m.Update(runeKey("l"))

	if m.redLED {
		t.Error("red LED toggled although the command failed")
	}
	if entry := lastLog(m); !entry.isError || !strings.Contains(entry.message, "write failed") {
		t.Errorf("last log entry = %+v, want the failure", entry)
	}
}

func TestControl_Translate(t *testing.T) {
	b := &fakeBoard{}
	m := newTestControlModel(b)

	m.inputs[focusDX].SetValue("120")
	m.inputs[focusDY].SetValue("-40")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(b.calls) != 1 || b.calls[0] != "translate 120 -40" {
		t.Errorf("calls = %v, want [translate 120 -40]", b.calls)
	}
}

func TestControl_TranslateEmptyUsesPlaceholder(t *testing.T) {
	b := &fakeBoard{}
	m := newTestControlModel(b)

	m.inputs[focusDX].SetValue("15")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(b.calls) != 1 || b.calls[0] != "translate 15 0" {
		t.Errorf("calls = %v, want [translate 15 0]", b.calls)
	}
}

func TestControl_Rotate(t *testing.T) {
	b := &fakeBoard{}
	m := newTestControlModel(b)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focusedField != focusTheta {
		t.Fatalf("focus = %d, want theta", m.focusedField)
	}

	m.inputs[focusTheta].SetValue("-90")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(b.calls) != 1 || b.calls[0] != "rotate -1.571" {
		t.Errorf("calls = %v, want [rotate -1.571]", b.calls)
	}
}

func TestControl_InvalidInput(t *testing.T) {
	b := &fakeBoard{}
	m := newTestControlModel(b)

	m.inputs[focusDX].SetValue("1.5")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(b.calls) != 0 {
		t.Errorf("calls = %v, want none", b.calls)
	}
	if entry := lastLog(m); !entry.isError || !strings.Contains(entry.message, "Invalid dx") {
		t.Errorf("last log entry = %+v, want an invalid dx error", entry)
	}
}

func TestControl_FocusWraps(t *testing.T) {
	m := newTestControlModel(&fakeBoard{})

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.focusedField != focusTheta {
		t.Errorf("focus after shift+tab = %d, want theta", m.focusedField)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focusedField != focusDX {
		t.Errorf("focus after tab = %d, want dx", m.focusedField)
	}
}

func TestControl_TypingOnlyAcceptsNumbers(t *testing.T) {
	b := &fakeBoard{}
	m := newTestControlModel(b)

	m.Update(runeKey("1"))
	m.Update(runeKey("2"))
	m.Update(runeKey("x"))
	m.Update(runeKey("z"))

	if got := m.inputs[focusDX].Value(); got != "12" {
		t.Errorf("dx input = %q, want 12", got)
	}
	if len(b.calls) != 1 || b.calls[0] != "stop" {
		t.Errorf("calls = %v, want [stop]", b.calls)
	}
}

func TestControl_Refresh(t *testing.T) {
	strength := uint16(812)
	info := stm32.DecodeAntennaInformation(0x76)
	b := &fakeBoard{ready: true, strength: &strength, antenna: &info}
	m := newTestControlModel(b)

	m.sink.Notify(stm32.EventSignalStrength)
	m.sink.Notify(stm32.EventSignalStrength)
	m.sink.Notify(stm32.EventSignalData)
	m.sink.Write([]byte("WRN invalid checksum component=control\n"))

	_, cmd := m.Update(controlTickMsg{})
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}

	if !m.ready || !m.hasStrength || m.strength != 812 || !m.hasAntenna {
		t.Errorf("state not refreshed: ready=%v strength=%d/%v antenna=%v", m.ready, m.strength, m.hasStrength, m.hasAntenna)
	}
	if m.strengthCount != 2 {
		t.Errorf("strengthCount = %d, want 2", m.strengthCount)
	}

	var sawWarning, sawAntenna, sawReady bool
	for _, entry := range m.eventLog {
		switch {
		case strings.HasPrefix(entry.message, "WRN"):
			sawWarning = entry.isError
		case strings.HasPrefix(entry.message, "Antenna:"):
			sawAntenna = true
		case entry.message == "Board ready":
			sawReady = true
		}
	}
	if !sawWarning || !sawAntenna || !sawReady {
		t.Errorf("event log missing entries (warning=%v antenna=%v ready=%v): %+v", sawWarning, sawAntenna, sawReady, m.eventLog)
	}

	// Readiness is only announced once
	before := len(m.eventLog)
	m.Update(controlTickMsg{})
	if len(m.eventLog) != before {
		t.Errorf("second tick added %d entries", len(m.eventLog)-before)
	}
}

func TestControl_EventLogBounded(t *testing.T) {
	m := newTestControlModel(&fakeBoard{})
	for i := 0; i < maxLogEntries+25; i++ {
		m.addLogEntry("entry", false)
	}
	if len(m.eventLog) != maxLogEntries {
		t.Errorf("event log holds %d entries, want %d", len(m.eventLog), maxLogEntries)
	}
}

func TestControl_QuitAndView(t *testing.T) {
	m := newTestControlModel(&fakeBoard{})

	if view := m.View(); !strings.Contains(view, "EASEL CONTROL") {
		t.Errorf("view missing title:\n%s", view)
	}

	_, cmd := m.Update(runeKey("q"))
	if cmd == nil || !m.quitting {
		t.Error("q should quit")
	}
	if view := m.View(); view != "Shutting down...\n" {
		t.Errorf("view after quit = %q", view)
	}
}

func TestEventSink_DropsWhenFull(t *testing.T) {
	s := newEventSink(1)
	s.Notify(stm32.EventSignalStrength)
	s.Notify(stm32.EventSignalData)
	s.Write([]byte("first\n"))
	s.Write([]byte("second\n"))
	s.Write([]byte("\n"))

	events, lines := s.drain()
	if len(events) != 1 || events[0] != stm32.EventSignalStrength {
		t.Errorf("events = %v, want [SIGNAL_STRENGTH]", events)
	}
	if len(lines) != 1 || lines[0] != "first" {
		t.Errorf("lines = %q, want [first]", lines)
	}

	if events, lines := s.drain(); len(events) != 0 || len(lines) != 0 {
		t.Errorf("second drain returned %v, %q", events, lines)
	}
}

func TestIsErrorLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"ERR command write failed", true},
		{"WRN read error", true},
		{"INF serial link opened", false},
		{"DBG command sent", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isErrorLine(tt.line); got != tt.want {
			t.Errorf("isErrorLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
