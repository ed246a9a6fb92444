// Package drive models drive commands for a differential-drive base and
// renders them onto per-wheel pairs of directional PWM channels.
package drive

import (
	"math"

	"github.com/pkg/errors"
)

// A Heading selects which way the drivetrain is pushing. Left and Right are
// pivot turns: the inner wheel runs reversed.
type Heading int

// The supported headings. Brake is the all-zero command.
const (
	Brake Heading = iota
	Forward
	Backward
	Left
	Right
)

func (h Heading) String() string {
	switch h {
	case Brake:
		return "brake"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// ErrInvalidCommand indicates a command with an out-of-range duty cycle or
// an unknown heading. This is a programming error: commands are never
// silently clamped.
var ErrInvalidCommand = errors.New("invalid drive command")

// A Command is one drivetrain demand: a heading plus a duty cycle per
// wheel, each a fraction in [0, 1] of the PWM period.
type Command struct {
	Heading   Heading
	LeftDuty  float64
	RightDuty float64
}

// Validate rejects malformed commands before they reach any pin.
func (c Command) Validate() error {
	if c.Heading < Brake || c.Heading > Right {
		return errors.Wrapf(ErrInvalidCommand, "unknown heading %d", c.Heading)
	}
	if !validDuty(c.LeftDuty) {
		return errors.Wrapf(ErrInvalidCommand, "left duty cycle %v out of [0,1]", c.LeftDuty)
	}
	if !validDuty(c.RightDuty) {
		return errors.Wrapf(ErrInvalidCommand, "right duty cycle %v out of [0,1]", c.RightDuty)
	}
	return nil
}

func validDuty(d float64) bool {
	return !math.IsNaN(d) && d >= 0 && d <= 1
}
