package drive

import (
	"context"
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/roamer-robotics/roamer/board"
)

// PWMFrequencyHz is the shared fixed PWM period of every drive channel,
// 50kHz (a 20us period).
const PWMFrequencyHz = 50_000

// A Motor is one wheel driven through a pair of directional channels, one
// per rotation direction. At most one channel of the pair ever carries a
// nonzero duty cycle: the idle channel is always zeroed before the active
// one is powered.
type Motor struct {
	name     string
	forward  board.GPIOPin
	backward board.GPIOPin
	logger   golog.Logger
}

// NewMotor returns a motor on the given channel pair.
func NewMotor(name string, forward, backward board.GPIOPin, logger golog.Logger) *Motor {
	return &Motor{name: name, forward: forward, backward: backward, logger: logger}
}

// SetPower drives the wheel at the given signed power in [-1, 1]; the sign
// selects the channel. Zero (or nearly zero) stops the wheel.
func (m *Motor) SetPower(ctx context.Context, powerPct float64) error {
	if math.IsNaN(powerPct) || powerPct < -1 || powerPct > 1 {
		return errors.Errorf("motor %q power %v out of [-1,1]", m.name, powerPct)
	}
	if math.Abs(powerPct) <= 0.001 {
		return m.Stop(ctx)
	}

	active, idle := m.forward, m.backward
	if powerPct < 0 {
		active, idle = m.backward, m.forward
	}
	// Zero the idle channel first so both channels never carry power at
	// the same instant.
	return multierr.Combine(
		idle.SetPWM(ctx, 0),
		active.SetPWMFreq(ctx, PWMFrequencyHz),
		active.SetPWM(ctx, math.Abs(powerPct)),
	)
}

// Stop zeroes both channels.
func (m *Motor) Stop(ctx context.Context) error {
	return multierr.Combine(
		m.forward.SetPWM(ctx, 0),
		m.backward.SetPWM(ctx, 0),
	)
}
