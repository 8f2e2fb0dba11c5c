// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package decision

import (
	"testing"
)

func TestStepNames(t *testing.T) {
	for _, s := range Steps() {
		parsed, err := ParseStep(s.String())
		if err != nil {
			t.Fatalf("ParseStep(%q) failed: %v", s.String(), err)
		}
		if parsed != s {
			t.Errorf("ParseStep(%q) = %v, want %v", s.String(), parsed, s)
		}
	}

	if s, err := ParseStep(" drawing "); err != nil || s != StepDrawing {
		t.Errorf("ParseStep should ignore case and spaces, got %v, %v", s, err)
	}
	if _, err := ParseStep("STANBY"); err == nil {
		t.Error("expected error for unknown step")
	}
	if got := Step(99).String(); got != "STEP(99)" {
		t.Errorf("Step(99).String() = %q", got)
	}
}

func TestResolve_TableSingletons(t *testing.T) {
	f := newFixture()

	tableSteps := 0
	for _, s := range Steps() {
		if f.dispatcher.Route(s) != ResolvedByTable {
			continue
		}
		tableSteps++

		first := f.dispatcher.Resolve(s)
		second := f.dispatcher.Resolve(s)
		if first != second {
			t.Errorf("%s: Resolve returned different instances", s)
		}
		if first.Step() != s {
			t.Errorf("%s: command bound to %s", s, first.Step())
		}
	}

	if tableSteps != 18 {
		t.Errorf("table holds %d steps, want 18", tableSteps)
	}
	if n := len(f.strategy.rotationCalls) + len(f.strategy.translationCalls); n != 0 {
		t.Errorf("table steps should not call the strategy factories, got %d calls", n)
	}
}

func TestResolve_Modes(t *testing.T) {
	f := newFixture()

	for _, s := range Steps() {
		f.dispatcher.Resolve(s)

		wantTranslation := BasicWheelServoing
		if translationServoSteps[s] {
			wantTranslation = TrustMaterialServoing
		}
		wantRotation := BasicWheelServoing
		if rotationServoSteps[s] {
			wantRotation = TrustMaterialServoing
		}

		if got := f.strategy.TranslationMode(); got != wantTranslation {
			t.Errorf("%s: translation mode = %s, want %s", s, got, wantTranslation)
		}
		if got := f.strategy.RotationMode(); got != wantRotation {
			t.Errorf("%s: rotation mode = %s, want %s", s, got, wantRotation)
		}
	}
}

func TestResolve_ModeMembership(t *testing.T) {
	trustTranslation := []Step{
		StepDrawing, StepMarkingAntennaPosition, StepTravelToDrawingZone,
		StepTravelToPaintingsArea, StepSearchForAntenna, StepExitingDrawingZone,
	}
	trustRotation := []Step{StepRotateToFacePainting, StepRotateBackAfterCapture}

	f := newFixture()
	for _, s := range trustTranslation {
		f.dispatcher.Resolve(s)
		if f.strategy.TranslationMode() != TrustMaterialServoing {
			t.Errorf("%s should use trust material servoing for translation", s)
		}
	}
	for _, s := range trustRotation {
		f.dispatcher.Resolve(s)
		if f.strategy.RotationMode() != TrustMaterialServoing {
			t.Errorf("%s should use trust material servoing for rotation", s)
		}
	}

	f.dispatcher.Resolve(StepRotateToStandardHeading)
	if f.strategy.RotationMode() != BasicWheelServoing || f.strategy.TranslationMode() != BasicWheelServoing {
		t.Error("ROTATE_TO_STANDARD_HEADING should reset both modes to basic wheel servoing")
	}
}

func TestResolve_Delegation(t *testing.T) {
	tests := []struct {
		step        Step
		wantRoute   Resolution
		rotation    bool
		translation bool
	}{
		{StepRotateToFacePainting, ResolvedByRotation, true, false},
		{StepRotateBackAfterCapture, ResolvedByRotation, true, false},
		{StepRotateToStandardHeading, ResolvedByRotation, true, false},
		{StepTravelToAntennaZone, ResolvedByTranslation, false, true},
		{StepDrawing, ResolvedByTranslation, false, true},
		{StepExitingDrawingZone, ResolvedByTranslation, false, true},
		{StepAligningWithCapture, ResolvedByTranslation, false, true},
		{Step(99), ResolvedByTranslation, false, true},
		{StepStandby, ResolvedByTable, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.step.String(), func(t *testing.T) {
			f := newFixture()

			if route := f.dispatcher.Route(tt.step); route != tt.wantRoute {
				t.Errorf("Route = %s, want %s", route, tt.wantRoute)
			}

			cmd := f.dispatcher.Resolve(tt.step)
			if cmd == nil {
				t.Fatal("Resolve returned nil")
			}
			if cmd.Step() != tt.step {
				t.Errorf("command bound to %s, want %s", cmd.Step(), tt.step)
			}

			if got := len(f.strategy.rotationCalls) == 1; got != tt.rotation {
				t.Errorf("rotation factory called = %t, want %t", got, tt.rotation)
			}
			if got := len(f.strategy.translationCalls) == 1; got != tt.translation {
				t.Errorf("translation factory called = %t, want %t", got, tt.translation)
			}

			calls := append(f.strategy.rotationCalls, f.strategy.translationCalls...)
			for _, c := range calls {
				if c.step != tt.step || c.controller != f.controller || c.pathfinder != f.pathfinder || c.servo != f.servo {
					t.Errorf("factory received %+v, want shared collaborators", c)
				}
			}
		})
	}
}

func TestResolve_FreshDelegatedCommands(t *testing.T) {
	f := newFixture()

	first := f.dispatcher.Resolve(StepDrawing)
	second := f.dispatcher.Resolve(StepDrawing)
	if first == second {
		t.Error("delegated steps should get a fresh command per resolve")
	}
}

func TestNewDispatcher_DefaultStrategy(t *testing.T) {
	d := NewDispatcher(Collaborators{})
	if d.Strategy() == nil {
		t.Fatal("dispatcher should create a default strategy")
	}
	for _, s := range Steps() {
		if d.Resolve(s) == nil {
			t.Errorf("%s resolved to nil", s)
		}
	}
}
