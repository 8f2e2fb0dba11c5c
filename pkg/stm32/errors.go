// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import (
	"errors"
	"fmt"
)

var (
	ErrNoDeviceFound    = errors.New("stm32: no serial device found")
	ErrInvalidParameter = errors.New("stm32: invalid parameter")
	ErrIO               = errors.New("stm32: i/o failure")
	ErrDecode           = errors.New("stm32: frame decode failed")
	ErrDriverClosed     = errors.New("stm32: driver closed")
)

// ParameterError reports an outbound parameter outside its contractual range.
// It matches ErrInvalidParameter with errors.Is.
type ParameterError struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("stm32: %s=%v out of range [%v, %v]", e.Name, e.Value, e.Min, e.Max)
}

func (e *ParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// DecodeErrorKind distinguishes malformed frames from checksum failures
type DecodeErrorKind int

const (
	DecodeSize DecodeErrorKind = iota
	DecodeChecksum
)

func (k DecodeErrorKind) String() string {
	switch k {
	case DecodeSize:
		return "size"
	case DecodeChecksum:
		return "checksum"
	default:
		return "unknown"
	}
}

// DecodeError reports an inbound frame that was rejected.
// It matches ErrDecode with errors.Is.
type DecodeError struct {
	Kind DecodeErrorKind

	// Expected and Length are the frame size and received byte count (DecodeSize)
	Expected int
	Length   int
	// Sum is the computed field sum modulo 65536 (DecodeChecksum)
	Sum uint16
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case DecodeSize:
		return fmt.Sprintf("stm32: invalid frame size: expected %d bytes, got %d", e.Expected, e.Length)
	case DecodeChecksum:
		return fmt.Sprintf("stm32: invalid checksum: expected = 0, calculated = %d", e.Sum)
	default:
		return "stm32: invalid frame"
	}
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// ioError wraps a transport failure so it matches both ErrIO and the cause
func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
