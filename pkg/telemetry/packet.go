// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package telemetry carries packets between the robot and the base station.
// Each websocket message holds one CBOR packet: [packet_type, payload_map].
package telemetry

import (
	"fmt"

	"github.com/design3/easel/pkg/stm32"
	"github.com/fxamacker/cbor/v2"
)

// PacketType identifies a telemetry packet
type PacketType uint8

// Base station to robot
const (
	PacketStartCycle PacketType = 0x01
	PacketStopCycle  PacketType = 0x02
	PacketFindRobot  PacketType = 0x03
)

// Robot to base station
const (
	PacketSignalStrength PacketType = 0x10
	PacketAntenna        PacketType = 0x11
	PacketStep           PacketType = 0x12
	PacketLog            PacketType = 0x13
)

// Payload map keys
const (
	KeyStrength    = 0
	KeyPainting    = 1
	KeyZoom        = 2
	KeyOrientation = 3
	KeyStep        = 4
	KeyMessage     = 5
)

func (t PacketType) String() string {
	switch t {
	case PacketStartCycle:
		return "START_CYCLE"
	case PacketStopCycle:
		return "STOP_CYCLE"
	case PacketFindRobot:
		return "FIND_ROBOT"
	case PacketSignalStrength:
		return "SIGNAL_STRENGTH"
	case PacketAntenna:
		return "ANTENNA"
	case PacketStep:
		return "STEP"
	case PacketLog:
		return "LOG"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", uint8(t))
	}
}

// Packet is one telemetry message. Payload is nil for packets without fields.
type Packet struct {
	Type    PacketType
	Payload map[int]interface{}
}

// NewSignalStrengthPacket reports the latest antenna signal strength
func NewSignalStrengthPacket(strength uint16) Packet {
	return Packet{Type: PacketSignalStrength, Payload: map[int]interface{}{
		KeyStrength: uint64(strength),
	}}
}

// NewAntennaPacket reports decoded antenna information
func NewAntennaPacket(info stm32.AntennaInformation) Packet {
	return Packet{Type: PacketAntenna, Payload: map[int]interface{}{
		KeyPainting:    uint64(info.PaintingNumber),
		KeyZoom:        uint64(info.Zoom),
		KeyOrientation: uint64(info.Orientation),
	}}
}

// NewStepPacket reports the step the robot is executing
func NewStepPacket(step string) Packet {
	return Packet{Type: PacketStep, Payload: map[int]interface{}{KeyStep: step}}
}

// NewLogPacket carries a log line to the base station
func NewLogPacket(message string) Packet {
	return Packet{Type: PacketLog, Payload: map[int]interface{}{KeyMessage: message}}
}

// Encode serializes the packet as [type, payload]
func (p Packet) Encode() ([]byte, error) {
	var payload interface{}
	if len(p.Payload) > 0 {
		payload = p.Payload
	}
	data, err := cbor.Marshal([]interface{}{uint64(p.Type), payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s packet: %w", p.Type, err)
	}
	return data, nil
}

// DecodePacket parses a CBOR packet: [packet_type, payload_map or nil]
func DecodePacket(data []byte) (Packet, error) {
	if len(data) == 0 {
		return Packet{}, fmt.Errorf("empty CBOR payload")
	}

	var msg []interface{}
	if err := cbor.Unmarshal(data, &msg); err != nil {
		return Packet{}, fmt.Errorf("failed to decode CBOR: %w", err)
	}
	if len(msg) != 2 {
		return Packet{}, fmt.Errorf("expected 2-element array, got %d elements", len(msg))
	}

	var p Packet
	switch v := msg[0].(type) {
	case uint64:
		if v > 255 {
			return Packet{}, fmt.Errorf("packet type out of range: %d", v)
		}
		p.Type = PacketType(v)
	default:
		return Packet{}, fmt.Errorf("expected uint for packet type, got %T", msg[0])
	}

	if msg[1] == nil {
		return p, nil
	}

	m, ok := msg[1].(map[interface{}]interface{})
	if !ok {
		return Packet{}, fmt.Errorf("expected map or nil for payload, got %T", msg[1])
	}
	p.Payload = make(map[int]interface{}, len(m))
	for key, val := range m {
		switch k := key.(type) {
		case uint64:
			p.Payload[int(k)] = val
		case int64:
			p.Payload[int(k)] = val
		default:
			return Packet{}, fmt.Errorf("expected integer map key, got %T", key)
		}
	}
	return p, nil
}

// Uint extracts an unsigned integer field
func (p Packet) Uint(key int) (uint64, bool) {
	v, ok := p.Payload[key]
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case uint64:
		return val, true
	case int64:
		if val < 0 {
			return 0, false
		}
		return uint64(val), true
	default:
		return 0, false
	}
}

// Text extracts a text field
func (p Packet) Text(key int) (string, bool) {
	v, ok := p.Payload[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
