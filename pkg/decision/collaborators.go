// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package decision

import (
	"context"
	"errors"

	"github.com/design3/easel/pkg/stm32"
)

var (
	ErrNoAntennaInformation = errors.New("decision: no antenna information decoded yet")
	ErrNoSignal             = errors.New("decision: no antenna signal measured")
	ErrNoFigure             = errors.New("decision: no figure captured")
	ErrCaptureExhausted     = errors.New("decision: capture repositioning offsets exhausted")
)

// Point is a position or displacement on the table, in millimetres
type Point struct {
	X, Y int
}

// Add returns the component-wise sum of p and q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Zone names an area of the table the pathfinder can plan towards
type Zone int

const (
	ZoneAntenna Zone = iota
	ZonePaintings
	ZoneDrawing
	ZoneExit
)

func (z Zone) String() string {
	switch z {
	case ZoneAntenna:
		return "antenna"
	case ZonePaintings:
		return "paintings"
	case ZoneDrawing:
		return "drawing"
	case ZoneExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Figure is a painting outline captured by the onboard camera
type Figure struct {
	Painting int
	Vertices []Point
}

// Controller is the low-level motion and signalling API of the board.
// *stm32.Driver implements it.
type Controller interface {
	Translate(dx, dy int) error
	Rotate(theta float64) error
	Stop() error
	SetRedLED(enabled bool) error
	FlashGreenLED(ms int) error
	SetSampling(enabled bool) error
	DecodeManchester() error
}

// AntennaSource exposes the latest telemetry decoded from the antenna.
// *stm32.Driver implements it.
type AntennaSource interface {
	SignalStrength() (uint16, bool)
	AntennaInformation() (stm32.AntennaInformation, bool)
}

// Pathfinder plans routes on the game map and tracks the robot's pose.
// Headings are radians.
type Pathfinder interface {
	BuildMap(ctx context.Context) error
	PlanTo(target Point) error
	PlanToZone(zone Zone) error
	PlanPath(waypoints []Point) error
	// NextMove pops the next relative displacement of the current plan
	NextMove() (Point, bool)
	Position() Point

	Heading() float64
	TargetHeading() float64
	SetTargetHeading(theta float64)
	FacePainting(painting int) error

	MarkAntenna(position Point)
	Antenna() (Point, bool)
}

// OnboardVision captures painting figures and locates drawn vertices
type OnboardVision interface {
	CaptureFigure(ctx context.Context, painting, zoom int) (Figure, error)
	Figure() (Figure, bool)
	LocateFirstVertex(ctx context.Context) (Point, error)
}

// ServoWheelsManager performs closed-loop moves using the wheel encoders
type ServoWheelsManager interface {
	ServoTranslate(ctx context.Context, controller Controller, move Point) error
	ServoRotate(ctx context.Context, controller Controller, theta float64) error
}

// CaptureRepositioningManager yields the offsets tried when a capture fails
type CaptureRepositioningManager interface {
	NextOffset() (Point, bool)
	Reset()
}
