// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package decision

import (
	"github.com/rs/zerolog"
)

// Steps whose commands are built by the movement strategy's rotation factory
var stepsUsingRotation = map[Step]bool{
	StepRotateBackAfterCapture:  true,
	StepRotateToFacePainting:    true,
	StepRotateToStandardHeading: true,
}

// Steps whose translations use trust material servoing
var translationServoSteps = map[Step]bool{
	StepDrawing:                true,
	StepMarkingAntennaPosition: true,
	StepTravelToDrawingZone:    true,
	StepTravelToPaintingsArea:  true,
	StepSearchForAntenna:       true,
	StepExitingDrawingZone:     true,
}

// Steps whose rotations use trust material servoing
var rotationServoSteps = map[Step]bool{
	StepRotateToFacePainting:   true,
	StepRotateBackAfterCapture: true,
}

// Collaborators are the shared services the dispatcher hands to commands
type Collaborators struct {
	Strategy      MovementStrategy
	Controller    Controller
	Pathfinder    Pathfinder
	Vision        OnboardVision
	Antenna       AntennaSource
	Servo         ServoWheelsManager
	Repositioning CaptureRepositioningManager

	// Logger defaults to a disabled logger
	Logger *zerolog.Logger
}

// Dispatcher maps the current step to the command that executes it.
// Table commands are built once in NewDispatcher and returned on every
// Resolve for their step.
type Dispatcher struct {
	strategy   MovementStrategy
	controller Controller
	pathfinder Pathfinder
	servo      ServoWheelsManager
	log        zerolog.Logger

	commands map[Step]Command
}

// NewDispatcher builds the step table. A nil Strategy is replaced by NewStrategies().
func NewDispatcher(c Collaborators) *Dispatcher {
	if c.Strategy == nil {
		c.Strategy = NewStrategies()
	}
	log := zerolog.Nop()
	if c.Logger != nil {
		log = *c.Logger
	}

	d := &Dispatcher{
		strategy:   c.Strategy,
		controller: c.Controller,
		pathfinder: c.Pathfinder,
		servo:      c.Servo,
		log:        log,
	}

	ctl, pf := c.Controller, c.Pathfinder
	d.commands = map[Step]Command{
		StepStandby:                    NewBuildGameMapCommand(StepStandby, ctl, pf, log),
		StepPrepareTravelToAntennaZone: NewPrepareTravelToAntennaAreaCommand(StepPrepareTravelToAntennaZone, ctl, pf, log),
		StepTerminateSequence:          NewFinishCycleCommand(StepTerminateSequence, ctl, pf, log),
		StepComputePaintingsArea:       NewTravelToPaintingsAreaCommand(StepComputePaintingsArea, ctl, pf, log, c.Antenna),
		StepPrepareSearchForAntenna:    NewPrepareSearchForAntennaPositionCommand(StepPrepareSearchForAntenna, ctl, pf, log),
		StepSearchForAntenna: NewSearchForAntennaPositionCommand(c.Strategy, StepSearchForAntenna, ctl, pf, log,
			c.Antenna, c.Servo),
		StepPrepareMovingToAntennaPosition: NewPrepareMovingToAntennaPositionCommand(StepPrepareMovingToAntennaPosition, ctl, pf, log,
			c.Antenna),
		StepPrepareMarkingAntennaPosition: NewPrepareMarkingAntennaCommand(StepPrepareMarkingAntennaPosition, ctl, pf, log,
			c.Antenna),
		StepAcquireInformationFromAntenna: NewAcquireInformationFromAntennaCommand(StepAcquireInformationFromAntenna, ctl, pf, log,
			c.Antenna),
		StepPrepareTravelToDrawingZone: NewPrepareTravelToDrawingAreaCommand(StepPrepareTravelToDrawingZone, ctl, pf, log,
			c.Vision, c.Antenna),
		StepPrepareToDraw:            NewPrepareToDrawCommand(StepPrepareToDraw, ctl, pf, log, c.Vision, c.Antenna),
		StepPrepareExitOfDrawingZone: NewPrepareExitOfDrawingAreaCommand(StepPrepareExitOfDrawingZone, ctl, pf, log),
		StepPrepareCaptureOfPainting: NewFaceRelevantFigureForCaptureCommand(StepPrepareCaptureOfPainting, ctl, pf, log,
			c.Antenna),
		StepCaptureCorrectPainting: NewCaptureFigureCommand(StepCaptureCorrectPainting, ctl, pf, log, c.Antenna, c.Vision),
		StepRepositionForCaptureRetry: NewRepositionForCaptureRetryCommand(StepRepositionForCaptureRetry, ctl, pf, log,
			c.Repositioning),
		StepPrepareMovingToOffset:   NewPrepareMovingOfAntennaOffsetCommand(StepPrepareMovingToOffset, ctl, pf, log),
		StepPrepareAlignWithCapture: NewPrepareAlignWithCaptureCommand(StepPrepareAlignWithCapture, ctl, pf, log, c.Antenna),
		StepPrepareRealignWithFirstVertexDrawn: NewPrepareRealignWithFirstVertexDrawnCommand(StepPrepareRealignWithFirstVertexDrawn,
			ctl, pf, log, c.Vision, c.Antenna),
	}

	return d
}

// Resolve returns the command for step after setting the strategy's
// translation and rotation modes for it. Every step resolves: steps outside
// the table fall back to the strategy's rotation or translation factory.
func (d *Dispatcher) Resolve(step Step) Command {
	if translationServoSteps[step] {
		d.strategy.SetTranslationMode(TrustMaterialServoing)
	} else {
		d.strategy.SetTranslationMode(BasicWheelServoing)
	}

	if rotationServoSteps[step] {
		d.strategy.SetRotationMode(TrustMaterialServoing)
	} else {
		d.strategy.SetRotationMode(BasicWheelServoing)
	}

	if cmd, ok := d.commands[step]; ok {
		return cmd
	}
	if stepsUsingRotation[step] {
		return d.strategy.RotationCommand(step, d.controller, d.pathfinder, d.log, d.servo)
	}
	return d.strategy.TranslationCommand(step, d.controller, d.pathfinder, d.log, d.servo)
}

// Resolution describes how a step is dispatched
type Resolution int

const (
	ResolvedByTable Resolution = iota
	ResolvedByRotation
	ResolvedByTranslation
)

func (r Resolution) String() string {
	switch r {
	case ResolvedByTable:
		return "table"
	case ResolvedByRotation:
		return "rotation"
	case ResolvedByTranslation:
		return "translation"
	default:
		return "unknown"
	}
}

// Route reports which path Resolve takes for step without changing any mode
func (d *Dispatcher) Route(step Step) Resolution {
	if _, ok := d.commands[step]; ok {
		return ResolvedByTable
	}
	if stepsUsingRotation[step] {
		return ResolvedByRotation
	}
	return ResolvedByTranslation
}

// Strategy returns the movement strategy whose modes Resolve sets
func (d *Dispatcher) Strategy() MovementStrategy {
	return d.strategy
}
