// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeCommand(t *testing.T) {
	tests := []struct {
		name   string
		opcode Opcode
		p1, p2 uint16
		want   []byte
	}{
		{
			name:   "stop",
			opcode: OpStop,
			p1:     EmptyParam,
			p2:     EmptyParam,
			want:   []byte{0x06, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFA, 0xFF},
		},
		{
			name:   "translate origin",
			opcode: OpTranslate,
			p1:     32768,
			p2:     32768,
			want:   []byte{0x00, 0x00, 0x00, 0x80, 0x00, 0x80, 0x00, 0x00},
		},
		{
			name:   "flash green",
			opcode: OpFlashGreenLED,
			p1:     0x0100,
			p2:     EmptyParam,
			want:   []byte{0x02, 0x00, 0x00, 0x01, 0x00, 0x00, 0xFE, 0xFE},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeCommand(tt.opcode, tt.p1, tt.p2)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeCommand = % X, want % X", got, tt.want)
			}
			if len(got) != CommandSize {
				t.Errorf("frame length = %d, want %d", len(got), CommandSize)
			}
		})
	}
}

func TestCommandRoundTrip(t *testing.T) {
	original := NewCommand(OpRotate, 1256, EmptyParam)
	if !original.Valid() {
		t.Fatal("NewCommand should produce a valid frame")
	}

	decoded, err := DecodeCommand(original.Bytes())
	if err != nil {
		t.Fatalf("DecodeCommand failed: %v", err)
	}
	if decoded != original {
		t.Errorf("decoded = %+v, want %+v", decoded, original)
	}
}

func TestDecodeResponse(t *testing.T) {
	// SIGNAL_STRENGTH 0x1234: 9 + 0x1234 = 0x123D, checksum 0xEDC3
	data := []byte{0x09, 0x00, 0x34, 0x12, 0xC3, 0xED}

	resp, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if resp.Opcode != OpSignalStrength {
		t.Errorf("Opcode = %s, want SIGNAL_STRENGTH", resp.Opcode)
	}
	if resp.Param != 0x1234 {
		t.Errorf("Param = 0x%04X, want 0x1234", resp.Param)
	}
	if resp.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	if !bytes.Equal(EncodeResponse(OpSignalStrength, 0x1234), data) {
		t.Error("EncodeResponse should produce the same bytes")
	}
}

func TestDecodeResponse_Size(t *testing.T) {
	for _, n := range []int{0, 1, 5, 7, 8, 12} {
		_, err := DecodeResponse(make([]byte, n))

		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("len %d: error = %v, want *DecodeError", n, err)
		}
		if de.Kind != DecodeSize || de.Length != n || de.Expected != ResponseSize {
			t.Errorf("len %d: got %+v", n, de)
		}
		if !errors.Is(err, ErrDecode) {
			t.Errorf("len %d: error should match ErrDecode", n)
		}
	}
}

func TestDecodeResponse_SingleBitFlip(t *testing.T) {
	frames := [][]byte{
		EncodeResponse(OpSTMReady, 0),
		EncodeResponse(OpSignalStrength, 0xFFFF),
		EncodeResponse(OpSignalData, 0x76),
	}

	for _, frame := range frames {
		for bit := 0; bit < ResponseSize*8; bit++ {
			corrupt := append([]byte(nil), frame...)
			corrupt[bit/8] ^= 1 << (bit % 8)

			_, err := DecodeResponse(corrupt)
			var de *DecodeError
			if !errors.As(err, &de) || de.Kind != DecodeChecksum {
				t.Fatalf("frame % X with bit %d flipped: error = %v, want checksum error", frame, bit, err)
			}
			if de.Sum == 0 {
				t.Errorf("reported sum should be non-zero for bit %d", bit)
			}
		}
	}
}

func TestDecodeCommand_BadChecksum(t *testing.T) {
	frame := EncodeCommand(OpReset, EmptyParam, EmptyParam)
	frame[6]++

	if _, err := DecodeCommand(frame); !errors.Is(err, ErrDecode) {
		t.Errorf("DecodeCommand error = %v, want ErrDecode", err)
	}
	if _, err := DecodeCommand(frame[:6]); !errors.Is(err, ErrDecode) {
		t.Errorf("short frame error = %v, want ErrDecode", err)
	}
}

func TestChecksum(t *testing.T) {
	tests := []struct {
		fields []uint16
		want   uint16
	}{
		{[]uint16{0, 0}, 0},
		{[]uint16{8, 0}, 0xFFF8},
		{[]uint16{0xFFFF, 1}, 0},
		{[]uint16{6, 0xFFFF, 0xFFFF}, 0xFFFC},
	}

	for _, tt := range tests {
		got := Checksum(tt.fields...)
		if got != tt.want {
			t.Errorf("Checksum(%v) = 0x%04X, want 0x%04X", tt.fields, got, tt.want)
		}
		if FieldSum(append(tt.fields, got)...) != 0 {
			t.Errorf("fields %v plus checksum should sum to zero", tt.fields)
		}
	}
}
