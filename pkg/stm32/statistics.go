// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks frame statistics and error rates on the serial link
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames     uint64
	ValidFrames     uint64
	ChecksumErrors  uint64
	DecodeErrors    uint64
	InvalidOpcodes  uint64
	ReadyFrames     uint64
	StrengthFrames  uint64
	DataFrames      uint64
	CommandsSent    uint64
	CommandFailures uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update updates statistics based on a received frame and its decode error
func (s *Statistics) Update(resp *Response, decodeErr error) {
	s.TotalFrames++
	s.LastUpdateTime = time.Now()

	if decodeErr != nil {
		var de *DecodeError
		if errors.As(decodeErr, &de) && de.Kind == DecodeChecksum {
			s.ChecksumErrors++
		} else {
			s.DecodeErrors++
		}
		return
	}

	switch resp.Opcode {
	case OpSTMReady:
		s.ReadyFrames++
	case OpSignalStrength:
		s.StrengthFrames++
	case OpSignalData:
		s.DataFrames++
	default:
		s.InvalidOpcodes++
		return
	}
	s.ValidFrames++
}

// RecordCommand counts an outbound command and whether its write failed
func (s *Statistics) RecordCommand(err error) {
	if err != nil {
		s.CommandFailures++
		return
	}
	s.CommandsSent++
}

// Errors returns the total count of rejected frames
func (s *Statistics) Errors() uint64 {
	return s.ChecksumErrors + s.DecodeErrors + s.InvalidOpcodes
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, checksumPercent, decodePercent, opcodePercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		checksumPercent = float64(s.ChecksumErrors) * 100.0 / float64(s.TotalFrames)
		decodePercent = float64(s.DecodeErrors) * 100.0 / float64(s.TotalFrames)
		opcodePercent = float64(s.InvalidOpcodes) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)
	result += fmt.Sprintf("  STM_READY:        %5d\n", s.ReadyFrames)
	result += fmt.Sprintf("  SIGNAL_STRENGTH:  %5d\n", s.StrengthFrames)
	result += fmt.Sprintf("  SIGNAL_DATA:      %5d\n", s.DataFrames)

	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d (%.1f%%)\n", s.ChecksumErrors, checksumPercent)
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d (%.1f%%)\n", s.DecodeErrors, decodePercent)
	}
	if s.InvalidOpcodes > 0 {
		result += fmt.Sprintf("Invalid Opcodes: %8d (%.1f%%)\n", s.InvalidOpcodes, opcodePercent)
	}

	result += fmt.Sprintf("Commands Sent:   %8d\n", s.CommandsSent)
	if s.CommandFailures > 0 {
		result += fmt.Sprintf("Command Failures:%8d\n", s.CommandFailures)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
