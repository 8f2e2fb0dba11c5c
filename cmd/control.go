// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/design3/easel/internal/config"
	"github.com/design3/easel/internal/logging"
	"github.com/design3/easel/pkg/stm32"
	"github.com/spf13/cobra"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for driving the robot",
	Long: `Drive the robot from an interactive terminal UI.

Features:
  - Board readiness, signal strength and antenna information
  - Translation (dx, dy in mm) and rotation (degrees) inputs
  - Hotkeys for stop, LEDs, sampling, Manchester decoding and reset
  - Link statistics
  - Event log, including the driver's own log lines

Tab switches between inputs and Enter sends the focused move.`,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

func runControl(cmd *cobra.Command, args []string) error {
	sink := newEventSink(256)

	// Log lines go to the event log instead of the terminal
	logCfg := config.LogConfig{Level: appConfig.Log.Level, NoColor: true}
	log := logging.New(logCfg, sink, cmd.Name())

	driver, connInfo, err := OpenDriver(&log)
	if err != nil {
		return err
	}
	defer driver.Close()

	driver.RegisterObserver(sink)

	m := initialControlModel(driver, connInfo, sink)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// eventSink buffers driver events and log lines until the next TUI tick.
// Both queues drop when full so the driver's receive loop never blocks.
type eventSink struct {
	events chan stm32.Event
	lines  chan string
}

func newEventSink(size int) *eventSink {
	return &eventSink{
		events: make(chan stm32.Event, size),
		lines:  make(chan string, size),
	}
}

// Notify implements stm32.Observer
func (s *eventSink) Notify(event stm32.Event) {
	select {
	case s.events <- event:
	default:
	}
}

func (s *eventSink) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	if line != "" {
		select {
		case s.lines <- line:
		default:
		}
	}
	return len(p), nil
}

// drain returns everything queued since the last call
func (s *eventSink) drain() (events []stm32.Event, lines []string) {
	for {
		select {
		case e := <-s.events:
			events = append(events, e)
		case l := <-s.lines:
			lines = append(lines, l)
		default:
			return events, lines
		}
	}
}
