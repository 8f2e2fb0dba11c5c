// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import (
	"fmt"
	"math"
)

// FormatOpcode returns the human-readable name for an opcode
func FormatOpcode(op Opcode) string {
	switch op {
	// Commands
	case OpTranslate:
		return "TRANSLATE"
	case OpRotate:
		return "ROTATE"
	case OpFlashGreenLED:
		return "FLASH_GREEN_LED"
	case OpEnableRedLED:
		return "ENABLE_RED_LED"
	case OpEnableADC:
		return "ENABLE_ADC"
	case OpDecodeManchester:
		return "DECODE_MANCHESTER"
	case OpStop:
		return "STOP"
	case OpReset:
		return "RESET"

	// Responses
	case OpSTMReady:
		return "STM_READY"
	case OpSignalStrength:
		return "SIGNAL_STRENGTH"
	case OpSignalData:
		return "SIGNAL_DATA"

	default:
		return "UNKNOWN"
	}
}

func (op Opcode) String() string {
	return FormatOpcode(op)
}

// FormatResponse formats a response frame into a human-readable string
func FormatResponse(r Response) string {
	timestamp := r.Timestamp.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%04X) param=0x%04X\n", timestamp, FormatOpcode(r.Opcode), uint16(r.Opcode), r.Param)

	switch r.Opcode {
	case OpSignalStrength:
		result += fmt.Sprintf("  Signal strength: %d\n", r.Param)
	case OpSignalData:
		info := DecodeAntennaInformation(r.Param)
		result += fmt.Sprintf("  Painting: 0x%02X, Zoom: %d, Orientation: %d°\n",
			info.PaintingNumber, info.Zoom, info.Orientation)
	}

	return result
}

// FormatCommand formats a command frame into a human-readable string
func FormatCommand(c Command) string {
	result := fmt.Sprintf("%s (0x%04X) p1=0x%04X p2=0x%04X sum=0x%04X\n",
		FormatOpcode(c.Opcode), uint16(c.Opcode), c.Param1, c.Param2, c.Checksum)

	switch c.Opcode {
	case OpTranslate:
		result += fmt.Sprintf("  dx=%d mm, dy=%d mm\n",
			int(c.Param1)-translationOffset, int(c.Param2)-translationOffset)
	case OpRotate:
		theta := float64(c.Param1)/rotationScale - 2*math.Pi
		result += fmt.Sprintf("  theta=%.2f rad\n", theta)
	case OpFlashGreenLED:
		result += fmt.Sprintf("  duration=%d ms\n", c.Param1)
	case OpEnableRedLED, OpEnableADC:
		result += fmt.Sprintf("  enabled=%t\n", c.Param1 == Enabled)
	}

	return result
}
