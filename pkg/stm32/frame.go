// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import "time"

// Command represents an outbound command frame
type Command struct {
	Opcode   Opcode
	Param1   uint16
	Param2   uint16
	Checksum uint16
}

// NewCommand creates a command frame with its checksum filled in
func NewCommand(opcode Opcode, param1, param2 uint16) Command {
	return Command{
		Opcode:   opcode,
		Param1:   param1,
		Param2:   param2,
		Checksum: Checksum(uint16(opcode), param1, param2),
	}
}

// Valid returns true if the fields sum to zero modulo 65536
func (c Command) Valid() bool {
	return FieldSum(uint16(c.Opcode), c.Param1, c.Param2, c.Checksum) == 0
}

// Response represents a validated inbound response frame
type Response struct {
	Opcode    Opcode
	Param     uint16
	Timestamp time.Time
}

// Checksum returns the value that makes the sum of fields and checksum wrap to zero
func Checksum(fields ...uint16) uint16 {
	return -FieldSum(fields...)
}

// FieldSum returns the sum of fields modulo 65536
func FieldSum(fields ...uint16) uint16 {
	var sum uint16
	for _, f := range fields {
		sum += f
	}
	return sum
}
