// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package decision

import (
	"context"
	"fmt"
	"math"

	"github.com/design3/easel/pkg/stm32"
	"github.com/rs/zerolog"
)

// Table geometry used by the preparation steps, in millimetres
const (
	searchSweepStep   = 50
	searchSweepSteps  = 12
	antennaMarkLength = 20

	// acquiredFlashMs is how long the green LED shows a decoded antenna
	acquiredFlashMs = 1000
)

// antennaOffset is where the robot waits after marking, relative to the mark
var antennaOffset = Point{X: 0, Y: -100}

// Command is the executable action for one step.
// Commands held by a Dispatcher live as long as it does and may keep state
// between executions of the same step.
type Command interface {
	Step() Step
	Execute(ctx context.Context) error
}

type base struct {
	step       Step
	controller Controller
	pathfinder Pathfinder
	log        zerolog.Logger
}

func newBase(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger) base {
	return base{
		step:       step,
		controller: controller,
		pathfinder: pathfinder,
		log:        log.With().Stringer("step", step).Logger(),
	}
}

// Step returns the step the command was built for
func (b *base) Step() Step {
	return b.step
}

func requireAntenna(antenna AntennaSource) (stm32.AntennaInformation, error) {
	info, ok := antenna.AntennaInformation()
	if !ok {
		return stm32.AntennaInformation{}, ErrNoAntennaInformation
	}
	return info, nil
}

func degreesToRadians(deg int) float64 {
	return float64(deg) * math.Pi / 180
}

//////////////////////////////////////////////////////////////
// Cycle start and end
//////////////////////////////////////////////////////////////

// BuildGameMapCommand builds the table map before a cycle starts
type BuildGameMapCommand struct {
	base
}

func NewBuildGameMapCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger) *BuildGameMapCommand {
	return &BuildGameMapCommand{base: newBase(step, controller, pathfinder, log)}
}

func (c *BuildGameMapCommand) Execute(ctx context.Context) error {
	if err := c.pathfinder.BuildMap(ctx); err != nil {
		return fmt.Errorf("failed to build game map: %w", err)
	}
	if err := c.controller.SetRedLED(false); err != nil {
		return fmt.Errorf("failed to clear red LED: %w", err)
	}
	c.log.Info().Msg("game map built")
	return nil
}

// FinishCycleCommand stops the robot and lights the red LED
type FinishCycleCommand struct {
	base
}

func NewFinishCycleCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger) *FinishCycleCommand {
	return &FinishCycleCommand{base: newBase(step, controller, pathfinder, log)}
}

func (c *FinishCycleCommand) Execute(ctx context.Context) error {
	if err := c.controller.Stop(); err != nil {
		return fmt.Errorf("failed to stop: %w", err)
	}
	if err := c.controller.SetRedLED(true); err != nil {
		return fmt.Errorf("failed to light red LED: %w", err)
	}
	c.log.Info().Msg("cycle finished")
	return nil
}

//////////////////////////////////////////////////////////////
// Antenna
//////////////////////////////////////////////////////////////

type PrepareTravelToAntennaAreaCommand struct {
	base
}

func NewPrepareTravelToAntennaAreaCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger) *PrepareTravelToAntennaAreaCommand {
	return &PrepareTravelToAntennaAreaCommand{base: newBase(step, controller, pathfinder, log)}
}

func (c *PrepareTravelToAntennaAreaCommand) Execute(ctx context.Context) error {
	if err := c.pathfinder.PlanToZone(ZoneAntenna); err != nil {
		return fmt.Errorf("failed to plan to %s zone: %w", ZoneAntenna, err)
	}
	return nil
}

// PrepareSearchForAntennaPositionCommand starts sampling and plans the search sweep
type PrepareSearchForAntennaPositionCommand struct {
	base
}

func NewPrepareSearchForAntennaPositionCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger) *PrepareSearchForAntennaPositionCommand {
	return &PrepareSearchForAntennaPositionCommand{base: newBase(step, controller, pathfinder, log)}
}

func (c *PrepareSearchForAntennaPositionCommand) Execute(ctx context.Context) error {
	if err := c.controller.SetSampling(true); err != nil {
		return fmt.Errorf("failed to start sampling: %w", err)
	}

	start := c.pathfinder.Position()
	sweep := make([]Point, 0, searchSweepSteps)
	for i := 1; i <= searchSweepSteps; i++ {
		sweep = append(sweep, start.Add(Point{X: i * searchSweepStep}))
	}
	if err := c.pathfinder.PlanPath(sweep); err != nil {
		return fmt.Errorf("failed to plan search sweep: %w", err)
	}
	return nil
}

// SearchForAntennaPositionCommand advances the sweep one move per execution and
// remembers the position with the strongest signal. The best reading persists
// across executions.
type SearchForAntennaPositionCommand struct {
	base
	strategy MovementStrategy
	antenna  AntennaSource
	servo    ServoWheelsManager
	moveLog  zerolog.Logger

	samples      int
	found        bool
	bestStrength uint16
	best         Point
}

func NewSearchForAntennaPositionCommand(strategy MovementStrategy, step Step, controller Controller, pathfinder Pathfinder,
	log zerolog.Logger, antenna AntennaSource, servo ServoWheelsManager) *SearchForAntennaPositionCommand {
	return &SearchForAntennaPositionCommand{
		base:     newBase(step, controller, pathfinder, log),
		strategy: strategy,
		antenna:  antenna,
		servo:    servo,
		moveLog:  log,
	}
}

func (c *SearchForAntennaPositionCommand) Execute(ctx context.Context) error {
	if strength, ok := c.antenna.SignalStrength(); ok {
		c.samples++
		if !c.found || strength > c.bestStrength {
			c.found = true
			c.bestStrength = strength
			c.best = c.pathfinder.Position()
			c.pathfinder.MarkAntenna(c.best)
			c.log.Debug().Uint16("strength", strength).Int("x", c.best.X).Int("y", c.best.Y).Msg("stronger signal")
		}
	}

	move := c.strategy.TranslationCommand(c.step, c.controller, c.pathfinder, c.moveLog, c.servo)
	return move.Execute(ctx)
}

// Best returns the strongest reading so far and where it was measured
func (c *SearchForAntennaPositionCommand) Best() (Point, uint16, bool) {
	return c.best, c.bestStrength, c.found
}

// Samples returns the number of signal readings taken
func (c *SearchForAntennaPositionCommand) Samples() int {
	return c.samples
}

// PrepareMovingToAntennaPositionCommand stops sampling and plans back to the best reading
type PrepareMovingToAntennaPositionCommand struct {
	base
	antenna AntennaSource
}

func NewPrepareMovingToAntennaPositionCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger,
	antenna AntennaSource) *PrepareMovingToAntennaPositionCommand {
	return &PrepareMovingToAntennaPositionCommand{base: newBase(step, controller, pathfinder, log), antenna: antenna}
}

func (c *PrepareMovingToAntennaPositionCommand) Execute(ctx context.Context) error {
	if _, ok := c.antenna.SignalStrength(); !ok {
		return ErrNoSignal
	}
	position, ok := c.pathfinder.Antenna()
	if !ok {
		return ErrNoSignal
	}
	if err := c.controller.SetSampling(false); err != nil {
		return fmt.Errorf("failed to stop sampling: %w", err)
	}
	if err := c.pathfinder.PlanTo(position); err != nil {
		return fmt.Errorf("failed to plan to antenna: %w", err)
	}
	return nil
}

// PrepareMarkingAntennaCommand plans the short stroke marking the antenna position
type PrepareMarkingAntennaCommand struct {
	base
	antenna AntennaSource
}

func NewPrepareMarkingAntennaCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger,
	antenna AntennaSource) *PrepareMarkingAntennaCommand {
	return &PrepareMarkingAntennaCommand{base: newBase(step, controller, pathfinder, log), antenna: antenna}
}

func (c *PrepareMarkingAntennaCommand) Execute(ctx context.Context) error {
	position := c.pathfinder.Position()
	if strength, ok := c.antenna.SignalStrength(); ok {
		c.log.Info().Uint16("strength", strength).Int("x", position.X).Int("y", position.Y).Msg("marking antenna")
	}
	if err := c.pathfinder.PlanTo(position.Add(Point{Y: antennaMarkLength})); err != nil {
		return fmt.Errorf("failed to plan antenna mark: %w", err)
	}
	return nil
}

type PrepareMovingOfAntennaOffsetCommand struct {
	base
}

func NewPrepareMovingOfAntennaOffsetCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger) *PrepareMovingOfAntennaOffsetCommand {
	return &PrepareMovingOfAntennaOffsetCommand{base: newBase(step, controller, pathfinder, log)}
}

func (c *PrepareMovingOfAntennaOffsetCommand) Execute(ctx context.Context) error {
	if err := c.pathfinder.PlanTo(c.pathfinder.Position().Add(antennaOffset)); err != nil {
		return fmt.Errorf("failed to plan antenna offset: %w", err)
	}
	return nil
}

// AcquireInformationFromAntennaCommand asks the board to decode the antenna's
// Manchester signal until antenna information arrives, then flashes the green LED.
type AcquireInformationFromAntennaCommand struct {
	base
	antenna AntennaSource

	attempts int
}

func NewAcquireInformationFromAntennaCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger,
	antenna AntennaSource) *AcquireInformationFromAntennaCommand {
	return &AcquireInformationFromAntennaCommand{base: newBase(step, controller, pathfinder, log), antenna: antenna}
}

func (c *AcquireInformationFromAntennaCommand) Execute(ctx context.Context) error {
	if info, ok := c.antenna.AntennaInformation(); ok {
		c.log.Info().Stringer("antenna", info).Int("attempts", c.attempts).Msg("antenna information acquired")
		if err := c.controller.FlashGreenLED(acquiredFlashMs); err != nil {
			return fmt.Errorf("failed to flash green LED: %w", err)
		}
		return nil
	}

	c.attempts++
	if err := c.controller.DecodeManchester(); err != nil {
		return fmt.Errorf("failed to start manchester decoding: %w", err)
	}
	return nil
}

// Attempts returns how many decode requests were sent
func (c *AcquireInformationFromAntennaCommand) Attempts() int {
	return c.attempts
}

//////////////////////////////////////////////////////////////
// Paintings
//////////////////////////////////////////////////////////////

// TravelToPaintingsAreaCommand plans towards the paintings once the antenna is decoded
type TravelToPaintingsAreaCommand struct {
	base
	antenna AntennaSource
}

func NewTravelToPaintingsAreaCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger,
	antenna AntennaSource) *TravelToPaintingsAreaCommand {
	return &TravelToPaintingsAreaCommand{base: newBase(step, controller, pathfinder, log), antenna: antenna}
}

func (c *TravelToPaintingsAreaCommand) Execute(ctx context.Context) error {
	info, err := requireAntenna(c.antenna)
	if err != nil {
		return err
	}
	if err := c.pathfinder.PlanToZone(ZonePaintings); err != nil {
		return fmt.Errorf("failed to plan to %s zone: %w", ZonePaintings, err)
	}
	c.log.Info().Int("painting", info.PaintingNumber).Msg("heading to paintings")
	return nil
}

type FaceRelevantFigureForCaptureCommand struct {
	base
	antenna AntennaSource
}

func NewFaceRelevantFigureForCaptureCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger,
	antenna AntennaSource) *FaceRelevantFigureForCaptureCommand {
	return &FaceRelevantFigureForCaptureCommand{base: newBase(step, controller, pathfinder, log), antenna: antenna}
}

func (c *FaceRelevantFigureForCaptureCommand) Execute(ctx context.Context) error {
	info, err := requireAntenna(c.antenna)
	if err != nil {
		return err
	}
	if err := c.pathfinder.FacePainting(info.PaintingNumber); err != nil {
		return fmt.Errorf("failed to face painting 0x%02X: %w", info.PaintingNumber, err)
	}
	return nil
}

// CaptureFigureCommand captures the painting named by the antenna.
// The attempt count persists across executions.
type CaptureFigureCommand struct {
	base
	antenna AntennaSource
	vision  OnboardVision

	attempts int
}

func NewCaptureFigureCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger,
	antenna AntennaSource, vision OnboardVision) *CaptureFigureCommand {
	return &CaptureFigureCommand{base: newBase(step, controller, pathfinder, log), antenna: antenna, vision: vision}
}

func (c *CaptureFigureCommand) Execute(ctx context.Context) error {
	info, err := requireAntenna(c.antenna)
	if err != nil {
		return err
	}

	c.attempts++
	figure, err := c.vision.CaptureFigure(ctx, info.PaintingNumber, info.Zoom)
	if err != nil {
		c.log.Warn().Err(err).Int("attempt", c.attempts).Msg("capture failed")
		return fmt.Errorf("capture attempt %d: %w", c.attempts, err)
	}

	c.log.Info().Int("painting", figure.Painting).Int("vertices", len(figure.Vertices)).Int("attempt", c.attempts).Msg("figure captured")
	return nil
}

// Attempts returns the number of captures tried
func (c *CaptureFigureCommand) Attempts() int {
	return c.attempts
}

// RepositionForCaptureRetryCommand moves the robot to the next capture offset.
// Once offsets run out the manager is reset and ErrCaptureExhausted is returned.
type RepositionForCaptureRetryCommand struct {
	base
	repositioning CaptureRepositioningManager

	retries int
}

func NewRepositionForCaptureRetryCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger,
	repositioning CaptureRepositioningManager) *RepositionForCaptureRetryCommand {
	return &RepositionForCaptureRetryCommand{base: newBase(step, controller, pathfinder, log), repositioning: repositioning}
}

func (c *RepositionForCaptureRetryCommand) Execute(ctx context.Context) error {
	offset, ok := c.repositioning.NextOffset()
	if !ok {
		c.log.Warn().Int("retries", c.retries).Msg("no capture offsets left")
		c.repositioning.Reset()
		c.retries = 0
		return ErrCaptureExhausted
	}

	c.retries++
	if err := c.pathfinder.PlanTo(c.pathfinder.Position().Add(offset)); err != nil {
		return fmt.Errorf("failed to plan capture retry: %w", err)
	}
	return nil
}

// Retries returns the retries made since the offsets were last reset
func (c *RepositionForCaptureRetryCommand) Retries() int {
	return c.retries
}

//////////////////////////////////////////////////////////////
// Drawing
//////////////////////////////////////////////////////////////

type PrepareTravelToDrawingAreaCommand struct {
	base
	vision  OnboardVision
	antenna AntennaSource
}

func NewPrepareTravelToDrawingAreaCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger,
	vision OnboardVision, antenna AntennaSource) *PrepareTravelToDrawingAreaCommand {
	return &PrepareTravelToDrawingAreaCommand{base: newBase(step, controller, pathfinder, log), vision: vision, antenna: antenna}
}

func (c *PrepareTravelToDrawingAreaCommand) Execute(ctx context.Context) error {
	if _, ok := c.vision.Figure(); !ok {
		return ErrNoFigure
	}
	if _, err := requireAntenna(c.antenna); err != nil {
		return err
	}
	if err := c.pathfinder.PlanToZone(ZoneDrawing); err != nil {
		return fmt.Errorf("failed to plan to %s zone: %w", ZoneDrawing, err)
	}
	return nil
}

// PrepareAlignWithCaptureCommand sets the target heading to the antenna's orientation
type PrepareAlignWithCaptureCommand struct {
	base
	antenna AntennaSource
}

func NewPrepareAlignWithCaptureCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger,
	antenna AntennaSource) *PrepareAlignWithCaptureCommand {
	return &PrepareAlignWithCaptureCommand{base: newBase(step, controller, pathfinder, log), antenna: antenna}
}

func (c *PrepareAlignWithCaptureCommand) Execute(ctx context.Context) error {
	info, err := requireAntenna(c.antenna)
	if err != nil {
		return err
	}
	c.pathfinder.SetTargetHeading(degreesToRadians(info.Orientation))
	return nil
}

// PrepareToDrawCommand plans the drawing path: the captured figure scaled by
// the zoom, rotated by the orientation and anchored at the robot's position.
type PrepareToDrawCommand struct {
	base
	vision  OnboardVision
	antenna AntennaSource
}

func NewPrepareToDrawCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger,
	vision OnboardVision, antenna AntennaSource) *PrepareToDrawCommand {
	return &PrepareToDrawCommand{base: newBase(step, controller, pathfinder, log), vision: vision, antenna: antenna}
}

func (c *PrepareToDrawCommand) Execute(ctx context.Context) error {
	figure, ok := c.vision.Figure()
	if !ok || len(figure.Vertices) == 0 {
		return ErrNoFigure
	}
	info, err := requireAntenna(c.antenna)
	if err != nil {
		return err
	}

	path := drawingPath(figure.Vertices, info.Zoom, info.Orientation, c.pathfinder.Position())
	if err := c.pathfinder.PlanPath(path); err != nil {
		return fmt.Errorf("failed to plan drawing: %w", err)
	}
	c.log.Info().Int("waypoints", len(path)).Int("zoom", info.Zoom).Msg("drawing planned")
	return nil
}

// drawingPath transforms figure vertices into a closed path of absolute waypoints
func drawingPath(vertices []Point, zoom, orientationDeg int, origin Point) []Point {
	sin, cos := math.Sincos(degreesToRadians(orientationDeg))
	path := make([]Point, 0, len(vertices)+1)
	for _, v := range vertices {
		x := float64(v.X * zoom)
		y := float64(v.Y * zoom)
		path = append(path, origin.Add(Point{
			X: int(math.Round(x*cos - y*sin)),
			Y: int(math.Round(x*sin + y*cos)),
		}))
	}
	return append(path, path[0])
}

type PrepareRealignWithFirstVertexDrawnCommand struct {
	base
	vision  OnboardVision
	antenna AntennaSource
}

func NewPrepareRealignWithFirstVertexDrawnCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger,
	vision OnboardVision, antenna AntennaSource) *PrepareRealignWithFirstVertexDrawnCommand {
	return &PrepareRealignWithFirstVertexDrawnCommand{base: newBase(step, controller, pathfinder, log), vision: vision, antenna: antenna}
}

func (c *PrepareRealignWithFirstVertexDrawnCommand) Execute(ctx context.Context) error {
	info, err := requireAntenna(c.antenna)
	if err != nil {
		return err
	}
	vertex, err := c.vision.LocateFirstVertex(ctx)
	if err != nil {
		return fmt.Errorf("failed to locate first vertex: %w", err)
	}
	if err := c.pathfinder.PlanTo(vertex); err != nil {
		return fmt.Errorf("failed to plan to first vertex: %w", err)
	}
	c.pathfinder.SetTargetHeading(degreesToRadians(info.Orientation))
	return nil
}

type PrepareExitOfDrawingAreaCommand struct {
	base
}

func NewPrepareExitOfDrawingAreaCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger) *PrepareExitOfDrawingAreaCommand {
	return &PrepareExitOfDrawingAreaCommand{base: newBase(step, controller, pathfinder, log)}
}

func (c *PrepareExitOfDrawingAreaCommand) Execute(ctx context.Context) error {
	if err := c.pathfinder.PlanToZone(ZoneExit); err != nil {
		return fmt.Errorf("failed to plan to %s zone: %w", ZoneExit, err)
	}
	return nil
}
