package sonar

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.uber.org/multierr"
)

// StartStagger is the delay between starting consecutive sensors, offsetting
// their trigger phases so one unit is less likely to hear another's ping.
// Best effort only; there is no runtime cross-talk detection.
const StartStagger = 66 * time.Millisecond

// An Array is the rover's three rangefinders.
type Array struct {
	front, left, right *Sensor
	clock              clock.Clock
	logger             golog.Logger
}

// An ArrayOption configures an Array.
type ArrayOption func(*Array)

// WithArrayClock substitutes the clock used for the start stagger.
func WithArrayClock(c clock.Clock) ArrayOption {
	return func(a *Array) { a.clock = c }
}

// WithArrayLogger sets the array's logger.
func WithArrayLogger(logger golog.Logger) ArrayOption {
	return func(a *Array) { a.logger = logger }
}

// NewArray groups the three sensors.
func NewArray(front, left, right *Sensor, opts ...ArrayOption) *Array {
	a := &Array{
		front:  front,
		left:   left,
		right:  right,
		clock:  clock.New(),
		logger: golog.Global(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start brings the sensors up serially, front first, sleeping StartStagger
// between consecutive starts.
func (a *Array) Start(ctx context.Context) error {
	for i, s := range []*Sensor{a.front, a.left, a.right} {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-a.clock.After(StartStagger):
			}
		}
		if err := s.Start(ctx); err != nil {
			return err
		}
		a.logger.Debugw("sonar started", "sonar", s.Name())
	}
	return nil
}

// Distances returns the latest front, left, and right readings in
// centimeters; any of them may be DistanceUnknown.
func (a *Array) Distances() (front, left, right float64) {
	return a.front.Distance(), a.left.Distance(), a.right.Distance()
}

// Close stops all three sensors, combining errors.
func (a *Array) Close(ctx context.Context) error {
	return multierr.Combine(
		a.front.Stop(ctx),
		a.left.Stop(ctx),
		a.right.Stop(ctx),
	)
}
