package drive

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// A Train is the two-wheel drivetrain: it validates commands and maps them
// to signed per-wheel powers.
type Train struct {
	left, right *Motor
	logger      golog.Logger
}

// NewTrain pairs the two motors.
func NewTrain(left, right *Motor, logger golog.Logger) *Train {
	return &Train{left: left, right: right, logger: logger}
}

// Apply renders one command. Invalid commands are rejected before any pin
// is touched.
func (t *Train) Apply(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	var leftPower, rightPower float64
	switch cmd.Heading {
	case Brake:
		return t.Stop(ctx)
	case Forward:
		leftPower, rightPower = cmd.LeftDuty, cmd.RightDuty
	case Backward:
		leftPower, rightPower = -cmd.LeftDuty, -cmd.RightDuty
	case Left:
		// pivot: left wheel reverses, right pushes forward
		leftPower, rightPower = -cmd.LeftDuty, cmd.RightDuty
	case Right:
		leftPower, rightPower = cmd.LeftDuty, -cmd.RightDuty
	default:
		return errors.Wrapf(ErrInvalidCommand, "unknown heading %d", cmd.Heading)
	}

	return multierr.Combine(
		t.left.SetPower(ctx, leftPower),
		t.right.SetPower(ctx, rightPower),
	)
}

// Stop brakes both wheels, combining errors.
func (t *Train) Stop(ctx context.Context) error {
	return multierr.Combine(
		t.left.Stop(ctx),
		t.right.Stop(ctx),
	)
}
