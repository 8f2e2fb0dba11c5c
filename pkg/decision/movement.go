// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package decision

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"
)

// ServoingMode selects how a motion command is carried out
type ServoingMode int

const (
	// BasicWheelServoing sends the move to the board and trusts its wheel control
	BasicWheelServoing ServoingMode = iota
	// TrustMaterialServoing runs the move through the closed-loop servo manager
	TrustMaterialServoing
)

func (m ServoingMode) String() string {
	switch m {
	case BasicWheelServoing:
		return "basic-wheel-servoing"
	case TrustMaterialServoing:
		return "trust-material-servoing"
	default:
		return "unknown"
	}
}

// MovementStrategy carries the servoing modes for the current step and builds
// the generic rotation and translation commands.
type MovementStrategy interface {
	TranslationMode() ServoingMode
	SetTranslationMode(mode ServoingMode)
	RotationMode() ServoingMode
	SetRotationMode(mode ServoingMode)

	RotationCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger, servo ServoWheelsManager) Command
	TranslationCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger, servo ServoWheelsManager) Command
}

// Strategies is the default MovementStrategy.
// Commands it builds read the modes when they execute, not when they are built.
type Strategies struct {
	mu          sync.RWMutex
	translation ServoingMode
	rotation    ServoingMode
}

// NewStrategies returns a strategy with both modes set to basic wheel servoing
func NewStrategies() *Strategies {
	return &Strategies{}
}

func (s *Strategies) TranslationMode() ServoingMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.translation
}

func (s *Strategies) SetTranslationMode(mode ServoingMode) {
	s.mu.Lock()
	s.translation = mode
	s.mu.Unlock()
}

func (s *Strategies) RotationMode() ServoingMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rotation
}

func (s *Strategies) SetRotationMode(mode ServoingMode) {
	s.mu.Lock()
	s.rotation = mode
	s.mu.Unlock()
}

// RotationCommand builds a command turning the robot towards the pathfinder's target heading
func (s *Strategies) RotationCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger, servo ServoWheelsManager) Command {
	return &RotateCommand{
		base:     newBase(step, controller, pathfinder, log),
		strategy: s,
		servo:    servo,
	}
}

// TranslationCommand builds a command applying the next move of the current plan
func (s *Strategies) TranslationCommand(step Step, controller Controller, pathfinder Pathfinder, log zerolog.Logger, servo ServoWheelsManager) Command {
	return &TranslateCommand{
		base:     newBase(step, controller, pathfinder, log),
		strategy: s,
		servo:    servo,
	}
}

// RotateCommand turns the robot by the shortest angle to its target heading.
// ROTATE_TO_STANDARD_HEADING always targets heading zero.
type RotateCommand struct {
	base
	strategy MovementStrategy
	servo    ServoWheelsManager
}

func (c *RotateCommand) Execute(ctx context.Context) error {
	target := c.pathfinder.TargetHeading()
	if c.step == StepRotateToStandardHeading {
		target = 0
	}
	theta := normalizeAngle(target - c.pathfinder.Heading())

	mode := c.strategy.RotationMode()
	var err error
	if mode == TrustMaterialServoing && c.servo != nil {
		err = c.servo.ServoRotate(ctx, c.controller, theta)
	} else {
		err = c.controller.Rotate(theta)
	}
	if err != nil {
		return fmt.Errorf("failed to rotate during %s: %w", c.step, err)
	}

	c.log.Debug().Float64("theta", theta).Stringer("mode", mode).Msg("rotation issued")
	return nil
}

// TranslateCommand applies one move of the pathfinder's current plan.
// An exhausted plan is not an error.
type TranslateCommand struct {
	base
	strategy MovementStrategy
	servo    ServoWheelsManager
}

func (c *TranslateCommand) Execute(ctx context.Context) error {
	move, ok := c.pathfinder.NextMove()
	if !ok {
		c.log.Debug().Msg("no move planned")
		return nil
	}

	mode := c.strategy.TranslationMode()
	var err error
	if mode == TrustMaterialServoing && c.servo != nil {
		err = c.servo.ServoTranslate(ctx, c.controller, move)
	} else {
		err = c.controller.Translate(move.X, move.Y)
	}
	if err != nil {
		return fmt.Errorf("failed to translate during %s: %w", c.step, err)
	}

	c.log.Debug().Int("dx", move.X).Int("dy", move.Y).Stringer("mode", mode).Msg("translation issued")
	return nil
}

// normalizeAngle maps theta to [-π, π]
func normalizeAngle(theta float64) float64 {
	return math.Remainder(theta, 2*math.Pi)
}
