// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import (
	"encoding/binary"
	"time"
)

// EncodeCommand creates a complete wire-formatted command frame.
// Fields are written little-endian in order: opcode, param1, param2, checksum.
func EncodeCommand(opcode Opcode, param1, param2 uint16) []byte {
	return NewCommand(opcode, param1, param2).Bytes()
}

// Bytes encodes the command as it is written on the wire
func (c Command) Bytes() []byte {
	data := make([]byte, CommandSize)
	binary.LittleEndian.PutUint16(data[0:2], uint16(c.Opcode))
	binary.LittleEndian.PutUint16(data[2:4], c.Param1)
	binary.LittleEndian.PutUint16(data[4:6], c.Param2)
	binary.LittleEndian.PutUint16(data[6:8], c.Checksum)
	return data
}

// DecodeCommand parses an outbound command frame.
// Used for sniffing and by simulated boards; the checksum is validated.
func DecodeCommand(data []byte) (Command, error) {
	if len(data) != CommandSize {
		return Command{}, &DecodeError{Kind: DecodeSize, Expected: CommandSize, Length: len(data)}
	}

	c := Command{
		Opcode:   Opcode(binary.LittleEndian.Uint16(data[0:2])),
		Param1:   binary.LittleEndian.Uint16(data[2:4]),
		Param2:   binary.LittleEndian.Uint16(data[4:6]),
		Checksum: binary.LittleEndian.Uint16(data[6:8]),
	}
	if sum := FieldSum(uint16(c.Opcode), c.Param1, c.Param2, c.Checksum); sum != 0 {
		return Command{}, &DecodeError{Kind: DecodeChecksum, Sum: sum}
	}
	return c, nil
}

// EncodeResponse creates a wire-formatted response frame as the board sends it
func EncodeResponse(opcode Opcode, param uint16) []byte {
	data := make([]byte, ResponseSize)
	binary.LittleEndian.PutUint16(data[0:2], uint16(opcode))
	binary.LittleEndian.PutUint16(data[2:4], param)
	binary.LittleEndian.PutUint16(data[4:6], Checksum(uint16(opcode), param))
	return data
}

// DecodeResponse parses and validates an inbound response frame.
// Requires exactly ResponseSize bytes. Returns a *DecodeError on a size or
// checksum failure.
func DecodeResponse(data []byte) (Response, error) {
	if len(data) != ResponseSize {
		return Response{}, &DecodeError{Kind: DecodeSize, Expected: ResponseSize, Length: len(data)}
	}

	opcode := binary.LittleEndian.Uint16(data[0:2])
	param := binary.LittleEndian.Uint16(data[2:4])
	check := binary.LittleEndian.Uint16(data[4:6])

	if sum := FieldSum(opcode, param, check); sum != 0 {
		return Response{}, &DecodeError{Kind: DecodeChecksum, Sum: sum}
	}

	return Response{
		Opcode:    Opcode(opcode),
		Param:     param,
		Timestamp: time.Now(),
	}, nil
}
