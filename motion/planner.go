// Package motion turns the rover's three distance readings into drive
// commands: a fixed-priority reactive planner and the clock-driven loop
// that runs it.
package motion

import "github.com/roamer-robotics/roamer/drive"

// The compiled-in decision thresholds (centimeters) and speed magnitudes
// (duty cycle fractions). These are deliberately not configuration.
const (
	FrontStopDistanceCM       = 35.0
	SideDifferenceThresholdCM = 5.0
	SideNearDistanceCM        = 15.0

	CruiseSpeed      = 1.0
	RetreatSpeed     = 0.9
	TurnFullSpeed    = 1.0
	TurnPartialSpeed = 0.7
)

// A Planner is the reactive decision table. It carries no state: identical
// readings always produce identical commands.
type Planner struct{}

// Decide maps the three current readings, in centimeters, to one drive
// command. Priority order: an obstacle directly ahead forces a retreat and
// overrides all lateral logic; then a significant left/right asymmetry
// turns toward the more open side, sharply when the blocked side is close;
// otherwise cruise straight.
//
// Comparisons are strict, so a side difference exactly at the threshold
// does not turn. An unknown reading (-1) flows through the same rules,
// which makes an unknown front read as near and retreat: the conservative
// behavior for a sensor that has not completed a measurement.
func (Planner) Decide(front, left, right float64) drive.Command {
	if front < FrontStopDistanceCM {
		return drive.Command{Heading: drive.Backward, LeftDuty: RetreatSpeed, RightDuty: RetreatSpeed}
	}

	switch {
	case left-right > SideDifferenceThresholdCM:
		// right side more obstructed; turn left toward the open side
		if right < SideNearDistanceCM {
			return drive.Command{Heading: drive.Left, LeftDuty: TurnFullSpeed, RightDuty: TurnFullSpeed}
		}
		return drive.Command{Heading: drive.Left, LeftDuty: TurnPartialSpeed, RightDuty: TurnFullSpeed}

	case right-left > SideDifferenceThresholdCM:
		if left < SideNearDistanceCM {
			return drive.Command{Heading: drive.Right, LeftDuty: TurnFullSpeed, RightDuty: TurnFullSpeed}
		}
		return drive.Command{Heading: drive.Right, LeftDuty: TurnFullSpeed, RightDuty: TurnPartialSpeed}
	}

	return drive.Command{Heading: drive.Forward, LeftDuty: CruiseSpeed, RightDuty: CruiseSpeed}
}
