// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package decision resolves the robot's current behavioral step into an
// executable command and selects the servoing mode used by motion commands.
package decision

import (
	"fmt"
	"strings"
)

// Step identifies one phase of the robot's behavior during a cycle
type Step int

// Steps, in the order a normal cycle visits them
const (
	StepStandby Step = iota
	StepPrepareTravelToAntennaZone
	StepTravelToAntennaZone
	StepPrepareSearchForAntenna
	StepSearchForAntenna
	StepPrepareMovingToAntennaPosition
	StepMovingToAntennaPosition
	StepPrepareMarkingAntennaPosition
	StepMarkingAntennaPosition
	StepPrepareMovingToOffset
	StepMovingToOffset
	StepAcquireInformationFromAntenna
	StepComputePaintingsArea
	StepTravelToPaintingsArea
	StepPrepareCaptureOfPainting
	StepRotateToFacePainting
	StepCaptureCorrectPainting
	StepRepositionForCaptureRetry
	StepRotateBackAfterCapture
	StepPrepareTravelToDrawingZone
	StepTravelToDrawingZone
	StepPrepareAlignWithCapture
	StepAligningWithCapture
	StepPrepareToDraw
	StepDrawing
	StepPrepareRealignWithFirstVertexDrawn
	StepRealigningWithFirstVertexDrawn
	StepPrepareExitOfDrawingZone
	StepExitingDrawingZone
	StepRotateToStandardHeading
	StepTerminateSequence

	stepCount
)

var stepNames = [stepCount]string{
	StepStandby:                            "STANDBY",
	StepPrepareTravelToAntennaZone:         "PREPARE_TRAVEL_TO_ANTENNA_ZONE",
	StepTravelToAntennaZone:                "TRAVEL_TO_ANTENNA_ZONE",
	StepPrepareSearchForAntenna:            "PREPARE_SEARCH_FOR_ANTENNA",
	StepSearchForAntenna:                   "SEARCH_FOR_ANTENNA",
	StepPrepareMovingToAntennaPosition:     "PREPARE_MOVING_TO_ANTENNA_POSITION",
	StepMovingToAntennaPosition:            "MOVING_TO_ANTENNA_POSITION",
	StepPrepareMarkingAntennaPosition:      "PREPARE_MARKING_ANTENNA_POSITION",
	StepMarkingAntennaPosition:             "MARKING_ANTENNA_POSITION",
	StepPrepareMovingToOffset:              "PREPARE_MOVING_TO_OFFSET",
	StepMovingToOffset:                     "MOVING_TO_OFFSET",
	StepAcquireInformationFromAntenna:      "ACQUIRE_INFORMATION_FROM_ANTENNA",
	StepComputePaintingsArea:               "COMPUTE_PAINTINGS_AREA",
	StepTravelToPaintingsArea:              "TRAVEL_TO_PAINTINGS_AREA",
	StepPrepareCaptureOfPainting:           "PREPARE_CAPTURE_OF_PAINTING",
	StepRotateToFacePainting:               "ROTATE_TO_FACE_PAINTING",
	StepCaptureCorrectPainting:             "CAPTURE_CORRECT_PAINTING",
	StepRepositionForCaptureRetry:          "REPOSITION_FOR_CAPTURE_RETRY",
	StepRotateBackAfterCapture:             "ROTATE_BACK_AFTER_CAPTURE",
	StepPrepareTravelToDrawingZone:         "PREPARE_TRAVEL_TO_DRAWING_ZONE",
	StepTravelToDrawingZone:                "TRAVEL_TO_DRAWING_ZONE",
	StepPrepareAlignWithCapture:            "PREPARE_ALIGN_WITH_CAPTURE",
	StepAligningWithCapture:                "ALIGNING_WITH_CAPTURE",
	StepPrepareToDraw:                      "PREPARE_TO_DRAW",
	StepDrawing:                            "DRAWING",
	StepPrepareRealignWithFirstVertexDrawn: "PREPARE_REALIGN_WITH_FIRST_VERTEX_DRAWN",
	StepRealigningWithFirstVertexDrawn:     "REALIGNING_WITH_FIRST_VERTEX_DRAWN",
	StepPrepareExitOfDrawingZone:           "PREPARE_EXIT_OF_DRAWING_ZONE",
	StepExitingDrawingZone:                 "EXITING_DRAWING_ZONE",
	StepRotateToStandardHeading:            "ROTATE_TO_STANDARD_HEADING",
	StepTerminateSequence:                  "TERMINATE_SEQUENCE",
}

func (s Step) String() string {
	if s < 0 || s >= stepCount {
		return fmt.Sprintf("STEP(%d)", int(s))
	}
	return stepNames[s]
}

// Steps returns every defined step in cycle order
func Steps() []Step {
	steps := make([]Step, 0, stepCount)
	for s := Step(0); s < stepCount; s++ {
		steps = append(steps, s)
	}
	return steps
}

// ParseStep looks up a step by its upper snake case name, case-insensitively
func ParseStep(name string) (Step, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for s := Step(0); s < stepCount; s++ {
		if stepNames[s] == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown step: %q", name)
}
