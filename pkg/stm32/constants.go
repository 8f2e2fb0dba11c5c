// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package stm32 implements the host side of the STM32 motion board protocol.
//
// The robot talks to the board over a serial link with fixed-width frames of
// little-endian 16-bit fields. Commands (host → board) carry an opcode, two
// parameters and a checksum. Responses (board → host) carry an opcode, one
// parameter and a checksum. In both directions the checksum makes the sum of
// all fields wrap to zero modulo 65536.
//
// The package provides frame encoding/decoding, antenna telemetry decoding,
// an observer registry and the Driver, which owns the serial port and runs the
// background receive loop.
package stm32

import "time"

// Opcode identifies a command or response frame
type Opcode uint16

// Command opcodes (Host → STM32)
const (
	OpTranslate        Opcode = 0x0000
	OpRotate           Opcode = 0x0001
	OpFlashGreenLED    Opcode = 0x0002
	OpEnableRedLED     Opcode = 0x0003
	OpEnableADC        Opcode = 0x0004
	OpDecodeManchester Opcode = 0x0005
	OpStop             Opcode = 0x0006
	OpReset            Opcode = 0x0007
)

// Response opcodes (STM32 → Host)
const (
	OpSTMReady       Opcode = 0x0008
	OpSignalStrength Opcode = 0x0009
	OpSignalData     Opcode = 0x000A
)

// Frame sizes in bytes
const (
	CommandSize  = 8 // opcode, param1, param2, checksum
	ResponseSize = 6 // opcode, param, checksum
)

// Parameter values
const (
	EmptyParam = 0x0000
	Enabled    = 0xFFFF
	Disabled   = 0x0000
)

// Antenna telemetry bit masks
const (
	MaskFigure      = 0x70
	MaskOrientation = 0x0C
	MaskZoom        = 0x02
)

// Serial link defaults
const (
	DefaultBaudRate    = 19200
	DefaultReadTimeout = time.Second
)

// Translation limits (16-bit signed, millimetres)
const (
	MinTranslation = -32768
	MaxTranslation = 32767
)

// Green LED flash limits (16-bit unsigned, milliseconds)
const (
	MinFlashDuration = 0
	MaxFlashDuration = 65535
)

// translationOffset remaps signed distances onto the unsigned wire fields
const translationOffset = 32768

// rotationScale is the fixed-point scale applied to shifted angles
const rotationScale = 100
