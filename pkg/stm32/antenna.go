// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import "fmt"

// AntennaInformation is the beacon telemetry decoded from a SIGNAL_DATA frame
type AntennaInformation struct {
	PaintingNumber int
	Zoom           int
	Orientation    int // degrees, [0, 360)
}

func (a AntennaInformation) String() string {
	return fmt.Sprintf("painting=0x%02X zoom=%d orientation=%d°", a.PaintingNumber, a.Zoom, a.Orientation)
}

// DecodeAntennaInformation extracts antenna telemetry from a SIGNAL_DATA parameter.
// Every 16-bit input produces a result; no validation beyond the masks.
func DecodeAntennaInformation(param uint16) AntennaInformation {
	p := int(param)

	// The board firmware masks against MaskZoom+2 and adds the offset on top.
	// Kept as observed until the intended mask is confirmed on hardware.
	zoom := p&(MaskZoom+2) + 2

	return AntennaInformation{
		PaintingNumber: p & MaskFigure,
		Zoom:           zoom,
		Orientation:    floorMod(360-(p&MaskOrientation)*90, 360),
	}
}

// floorMod returns a mod m with the sign of m
func floorMod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
