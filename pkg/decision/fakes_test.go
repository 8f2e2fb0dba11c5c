// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package decision

import (
	"context"
	"fmt"

	"github.com/design3/easel/pkg/stm32"
	"github.com/rs/zerolog"
)

// fakeController records every call as a short string
type fakeController struct {
	calls []string
	err   error
}

func (f *fakeController) record(format string, args ...interface{}) error {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.err
}

func (f *fakeController) Translate(dx, dy int) error     { return f.record("translate %d %d", dx, dy) }
func (f *fakeController) Rotate(theta float64) error     { return f.record("rotate %.3f", theta) }
func (f *fakeController) Stop() error                    { return f.record("stop") }
func (f *fakeController) SetRedLED(enabled bool) error   { return f.record("red %t", enabled) }
func (f *fakeController) FlashGreenLED(ms int) error     { return f.record("green %d", ms) }
func (f *fakeController) SetSampling(enabled bool) error { return f.record("sampling %t", enabled) }
func (f *fakeController) DecodeManchester() error        { return f.record("manchester") }

type fakeAntenna struct {
	strength    *uint16
	information *stm32.AntennaInformation
}

func (f *fakeAntenna) SignalStrength() (uint16, bool) {
	if f.strength == nil {
		return 0, false
	}
	return *f.strength, true
}

func (f *fakeAntenna) AntennaInformation() (stm32.AntennaInformation, bool) {
	if f.information == nil {
		return stm32.AntennaInformation{}, false
	}
	return *f.information, true
}

func (f *fakeAntenna) setStrength(v uint16) { f.strength = &v }

// fakePathfinder moves instantly: NextMove pops the planned waypoints and
// updates the position
type fakePathfinder struct {
	position      Point
	heading       float64
	targetHeading float64
	plan          []Point
	zones         []Zone
	facing        []int
	antenna       *Point
	mapBuilt      bool
}

func (f *fakePathfinder) BuildMap(ctx context.Context) error {
	f.mapBuilt = true
	return nil
}

func (f *fakePathfinder) PlanTo(target Point) error {
	f.plan = []Point{target}
	return nil
}

func (f *fakePathfinder) PlanToZone(zone Zone) error {
	f.zones = append(f.zones, zone)
	return nil
}

func (f *fakePathfinder) PlanPath(waypoints []Point) error {
	f.plan = append([]Point(nil), waypoints...)
	return nil
}

func (f *fakePathfinder) NextMove() (Point, bool) {
	if len(f.plan) == 0 {
		return Point{}, false
	}
	next := f.plan[0]
	f.plan = f.plan[1:]
	move := Point{X: next.X - f.position.X, Y: next.Y - f.position.Y}
	f.position = next
	return move, true
}

func (f *fakePathfinder) Position() Point                { return f.position }
func (f *fakePathfinder) Heading() float64               { return f.heading }
func (f *fakePathfinder) TargetHeading() float64         { return f.targetHeading }
func (f *fakePathfinder) SetTargetHeading(theta float64) { f.targetHeading = theta }

func (f *fakePathfinder) FacePainting(painting int) error {
	f.facing = append(f.facing, painting)
	return nil
}

func (f *fakePathfinder) MarkAntenna(position Point) { f.antenna = &position }

func (f *fakePathfinder) Antenna() (Point, bool) {
	if f.antenna == nil {
		return Point{}, false
	}
	return *f.antenna, true
}

type fakeVision struct {
	figure      *Figure
	captureErr  error
	captures    int
	firstVertex Point
}

func (f *fakeVision) CaptureFigure(ctx context.Context, painting, zoom int) (Figure, error) {
	f.captures++
	if f.captureErr != nil {
		return Figure{}, f.captureErr
	}
	fig := Figure{Painting: painting, Vertices: []Point{{0, 0}, {10, 0}, {0, 10}}}
	f.figure = &fig
	return fig, nil
}

func (f *fakeVision) Figure() (Figure, bool) {
	if f.figure == nil {
		return Figure{}, false
	}
	return *f.figure, true
}

func (f *fakeVision) LocateFirstVertex(ctx context.Context) (Point, error) {
	return f.firstVertex, nil
}

type fakeServo struct {
	translations []Point
	rotations    []float64
}

func (f *fakeServo) ServoTranslate(ctx context.Context, controller Controller, move Point) error {
	f.translations = append(f.translations, move)
	return nil
}

func (f *fakeServo) ServoRotate(ctx context.Context, controller Controller, theta float64) error {
	f.rotations = append(f.rotations, theta)
	return nil
}

type fakeRepositioning struct {
	offsets []Point
	next    int
	resets  int
}

func (f *fakeRepositioning) NextOffset() (Point, bool) {
	if f.next >= len(f.offsets) {
		return Point{}, false
	}
	o := f.offsets[f.next]
	f.next++
	return o, true
}

func (f *fakeRepositioning) Reset() {
	f.next = 0
	f.resets++
}

// recordingStrategy wraps Strategies and records factory calls
type recordingStrategy struct {
	*Strategies
	rotationCalls    []factoryCall
	translationCalls []factoryCall
}

type factoryCall struct {
	step       Step
	controller Controller
	pathfinder Pathfinder
	servo      ServoWheelsManager
}

func (r *recordingStrategy) RotationCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger, servo ServoWheelsManager) Command {
	r.rotationCalls = append(r.rotationCalls, factoryCall{step, controller, pathfinder, servo})
	return r.Strategies.RotationCommand(step, controller, pathfinder, log, servo)
}

func (r *recordingStrategy) TranslationCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger, servo ServoWheelsManager) Command {
	r.translationCalls = append(r.translationCalls, factoryCall{step, controller, pathfinder, servo})
	return r.Strategies.TranslationCommand(step, controller, pathfinder, log, servo)
}

type fixture struct {
	controller    *fakeController
	pathfinder    *fakePathfinder
	antenna       *fakeAntenna
	vision        *fakeVision
	servo         *fakeServo
	repositioning *fakeRepositioning
	strategy      *recordingStrategy
	dispatcher    *Dispatcher
}

func newFixture() *fixture {
	f := &fixture{
		controller:    &fakeController{},
		pathfinder:    &fakePathfinder{},
		antenna:       &fakeAntenna{},
		vision:        &fakeVision{},
		servo:         &fakeServo{},
		repositioning: &fakeRepositioning{offsets: []Point{{X: 30}, {X: -30}}},
		strategy:      &recordingStrategy{Strategies: NewStrategies()},
	}
	f.dispatcher = NewDispatcher(Collaborators{
		Strategy:      f.strategy,
		Controller:    f.controller,
		Pathfinder:    f.pathfinder,
		Vision:        f.vision,
		Antenna:       f.antenna,
		Servo:         f.servo,
		Repositioning: f.repositioning,
	})
	return f
}
