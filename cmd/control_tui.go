// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/design3/easel/pkg/decision"
	"github.com/design3/easel/pkg/stm32"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	controlTickInterval = 100 * time.Millisecond
	greenFlashMs        = 1000
	maxLogEntries       = 100
)

// Focus states
const (
	focusDX = iota
	focusDY
	focusTheta
	focusCount
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// controlBoard is the driver surface the TUI uses. *stm32.Driver implements it.
type controlBoard interface {
	decision.Controller
	decision.AntennaSource
	Reset() error
	Ready() bool
	Stats() stm32.Statistics
}

type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	board    controlBoard
	connInfo string
	sink     *eventSink

	// Move inputs, indexed by focus state
	inputs       [focusCount]textinput.Model
	focusedField int

	// Board state, refreshed every tick
	ready         bool
	strength      uint16
	hasStrength   bool
	antenna       stm32.AntennaInformation
	hasAntenna    bool
	stats         stm32.Statistics
	strengthCount int

	// Toggles as last commanded
	redLED   bool
	sampling bool

	eventLog []logEntry

	width    int
	height   int
	quitting bool
}

type controlTickMsg time.Time

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(board controlBoard, connInfo string, sink *eventSink) *controlModel {
	m := &controlModel{
		board:    board,
		connInfo: connInfo,
		sink:     sink,
		eventLog: make([]logEntry, 0, maxLogEntries),
		width:    80,
		height:   24,
	}

	placeholders := [focusCount]string{"0", "0", "90"}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 8
		ti.Width = 8
		m.inputs[i] = ti
	}
	m.inputs[focusDX].Focus()

	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m *controlModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, controlTickCmd())
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(controlTickInterval, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m *controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case controlTickMsg:
		m.refresh()
		return m, controlTickCmd()
	}

	var cmd tea.Cmd
	m.inputs[m.focusedField], cmd = m.inputs[m.focusedField].Update(msg)
	return m, cmd
}

func (m *controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		m.cycleFocus(1)
		return m, nil

	case "shift+tab":
		m.cycleFocus(-1)
		return m, nil

	case "enter":
		m.submit()
		return m, nil

	case "x":
		m.send("STOP", m.board.Stop)
		return m, nil

	case "l":
		enabled := !m.redLED
		if m.send("Red LED "+onOff(enabled), func() error { return m.board.SetRedLED(enabled) }) {
			m.redLED = enabled
		}
		return m, nil

	case "g":
		m.send(fmt.Sprintf("Green LED %d ms", greenFlashMs), func() error { return m.board.FlashGreenLED(greenFlashMs) })
		return m, nil

	case "s":
		enabled := !m.sampling
		if m.send("Sampling "+onOff(enabled), func() error { return m.board.SetSampling(enabled) }) {
			m.sampling = enabled
		}
		return m, nil

	case "m":
		m.send("DECODE_MANCHESTER", m.board.DecodeManchester)
		return m, nil

	case "ctrl+r":
		if m.send("RESET", m.board.Reset) {
			m.ready = false
		}
		return m, nil
	}

	// Inputs only take numbers
	if !isNumericEdit(msg) {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focusedField], cmd = m.inputs[m.focusedField].Update(msg)
	return m, cmd
}

func isNumericEdit(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete, tea.KeyLeft, tea.KeyRight, tea.KeyHome, tea.KeyEnd:
		return true
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if !strings.ContainsRune("0123456789-+.", r) {
				return false
			}
		}
		return len(msg.Runes) > 0
	default:
		return false
	}
}

func (m *controlModel) cycleFocus(delta int) {
	m.inputs[m.focusedField].Blur()
	m.focusedField = (m.focusedField + delta + focusCount) % focusCount
	m.inputs[m.focusedField].Focus()
}

// submit sends the move the focused input belongs to
func (m *controlModel) submit() {
	if m.focusedField == focusTheta {
		degrees, err := parseInput(m.inputs[focusTheta], strconv.ParseFloat)
		if err != nil {
			m.addLogEntry(fmt.Sprintf("Invalid rotation: %v", err), true)
			return
		}
		theta := degrees * math.Pi / 180
		m.send(fmt.Sprintf("ROTATE %.1f° (%.3f rad)", degrees, theta), func() error { return m.board.Rotate(theta) })
		return
	}

	atoi := func(s string, _ int) (float64, error) {
		v, err := strconv.Atoi(s)
		return float64(v), err
	}
	dx, err := parseInput(m.inputs[focusDX], atoi)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Invalid dx: %v", err), true)
		return
	}
	dy, err := parseInput(m.inputs[focusDY], atoi)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Invalid dy: %v", err), true)
		return
	}
	m.send(fmt.Sprintf("TRANSLATE dx=%d dy=%d mm", int(dx), int(dy)), func() error {
		return m.board.Translate(int(dx), int(dy))
	})
}

// parseInput reads an input's value, using the placeholder when it is empty
func parseInput(ti textinput.Model, parse func(string, int) (float64, error)) (float64, error) {
	value := strings.TrimSpace(ti.Value())
	if value == "" {
		value = ti.Placeholder
	}
	return parse(value, 64)
}

// send runs a board command and logs the outcome
func (m *controlModel) send(label string, fn func() error) bool {
	if err := fn(); err != nil {
		m.addLogEntry(fmt.Sprintf("%s failed: %v", label, err), true)
		return false
	}
	m.addLogEntry("Sent "+label, false)
	return true
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

// refresh drains queued events and log lines and reloads board state
func (m *controlModel) refresh() {
	events, lines := m.sink.drain()

	for _, line := range lines {
		m.addLogEntry(line, isErrorLine(line))
	}

	for _, event := range events {
		switch event {
		case stm32.EventSignalStrength:
			m.strengthCount++
		case stm32.EventSignalData:
			if info, ok := m.board.AntennaInformation(); ok {
				m.addLogEntry("Antenna: "+info.String(), false)
			}
		}
	}

	ready := m.board.Ready()
	if ready && !m.ready {
		m.addLogEntry("Board ready", false)
	}
	m.ready = ready
	m.strength, m.hasStrength = m.board.SignalStrength()
	m.antenna, m.hasAntenna = m.board.AntennaInformation()
	m.stats = m.board.Stats()
}

// isErrorLine matches console lines logged at warn level or above
func isErrorLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "WRN", "ERR", "FTL", "PNC":
		return true
	}
	return false
}

func (m *controlModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-maxLogEntries:]
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("12"))
)

func (m *controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("EASEL CONTROL"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=field Enter=send", m.connInfo)))
	s.WriteString("\n\n")

	status := boxStyle.Width(36).Render(m.renderStatus())
	moves := boxStyle.Width(m.width - 36 - 6).Render(m.renderMoves())
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, status, " ", moves))
	s.WriteString("\n")

	s.WriteString(m.renderStatisticsBar())
	s.WriteString("\n")

	s.WriteString(m.renderEventLog())
	return s.String()
}

func (m *controlModel) renderStatus() string {
	var s strings.Builder

	s.WriteString(labelStyle.Render("BOARD"))
	s.WriteString("\n")

	readyText := warningStyle.Render("waiting")
	if m.ready {
		readyText = valueStyle.Render("ready")
	}
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("State:   "), readyText)

	strength := headerStyle.Render("-")
	if m.hasStrength {
		strength = valueStyle.Render(fmt.Sprintf("%d", m.strength))
	}
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("Strength:"), strength)

	antenna := headerStyle.Render("-")
	if m.hasAntenna {
		antenna = valueStyle.Render(fmt.Sprintf("painting 0x%02X zoom %d orientation %d°",
			m.antenna.PaintingNumber, m.antenna.Zoom, m.antenna.Orientation))
	}
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("Antenna: "), antenna)

	fmt.Fprintf(&s, "%s %s  %s %s",
		labelStyle.Render("Red LED:"), valueStyle.Render(onOff(m.redLED)),
		labelStyle.Render("Sampling:"), valueStyle.Render(onOff(m.sampling)))

	return s.String()
}

func (m *controlModel) renderMoves() string {
	var s strings.Builder

	s.WriteString(labelStyle.Render("MOVE"))
	s.WriteString("\n")

	labels := [focusCount]string{"dx (mm)", "dy (mm)", "θ (deg)"}
	for i, label := range labels {
		style := labelStyle
		if i == m.focusedField {
			style = focusedLabelStyle
		}
		fmt.Fprintf(&s, "%s %s\n", style.Render(fmt.Sprintf("%-8s", label)), m.inputs[i].View())
	}

	s.WriteString("\n")
	s.WriteString(headerStyle.Render("x=stop l=red LED g=green LED s=sampling m=manchester ctrl+r=reset"))
	return s.String()
}

func (m *controlModel) renderStatisticsBar() string {
	stats := m.stats

	var validPercent, errorPercent float64
	if stats.TotalFrames > 0 {
		validPercent = float64(stats.ValidFrames) * 100.0 / float64(stats.TotalFrames)
		errorPercent = float64(stats.Errors()) * 100.0 / float64(stats.TotalFrames)
	}

	errors := valueStyle.Render("0.0%")
	if errorPercent > 0 {
		errors = errorStyle.Render(fmt.Sprintf("%.1f%%", errorPercent))
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		labelStyle.Render("Frames:"), valueStyle.Render(fmt.Sprintf("%d", stats.TotalFrames)),
		labelStyle.Render("Valid:"), valueStyle.Render(fmt.Sprintf("%.1f%%", validPercent)),
		labelStyle.Render("Errors:"), errors,
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.1f f/s", stats.FrameRate)),
		labelStyle.Render("Sent:"), valueStyle.Render(fmt.Sprintf("%d", stats.CommandsSent)),
	)

	return boxStyle.Width(m.width - 4).Render(content)
}

func (m *controlModel) renderEventLog() string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := m.height - 16
	if logHeight < 3 {
		logHeight = 3
	}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	}
	for _, entry := range m.eventLog[startIdx:] {
		icon := "i"
		style := warningStyle
		if entry.isError {
			icon = "x"
			style = errorStyle
		}
		fmt.Fprintf(&s, "%s %s %s\n",
			headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
			style.Render(icon),
			entry.message)
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}
