// Package sonar implements time-of-flight ranging with HC-SR04 style
// ultrasonic units: periodic trigger pulses, echo edge capture, and
// conversion of echo pulse widths to centimeters.
package sonar

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/roamer-robotics/roamer/board"
)

const (
	// TriggerPeriod is how often a measurement is kicked off.
	TriggerPeriod = 20 * time.Millisecond

	// TriggerPulseWidth is how long the trigger line is held high to start
	// a measurement; the HC-SR04 wants at least 10us.
	TriggerPulseWidth = 10 * time.Microsecond

	// PulseMicrosPerCentimeter converts an echo pulse width to a round-trip
	// distance in centimeters.
	PulseMicrosPerCentimeter = 58.0

	// DistanceUnknown is returned by Distance before any completed
	// measurement and after readings go stale.
	DistanceUnknown = -1.0

	// A reading is declared unknown after this many consecutive trigger
	// cycles with no completed echo, bounding how long a vanished obstacle
	// can keep reporting its last distance.
	staleAfterMisses = 2
)

// unknownPulse is the atomic sentinel for "no completed measurement".
const unknownPulse = int64(-1)

// A Sensor owns one ultrasonic unit: its trigger pin, its echo interrupt,
// and a single worker goroutine that owns all capture state. The latest
// echo pulse width is published as one atomically updated scalar so a
// foreground reader never observes a torn measurement.
type Sensor struct {
	name    string
	trigger board.GPIOPin
	echo    board.DigitalInterrupt
	clock   clock.Clock
	logger  golog.Logger

	pulseMicros atomic.Int64
	echoCh      chan board.Tick

	mu         sync.Mutex
	started    bool
	pulseTimer *clock.Timer
	cancelCtx  context.Context
	cancelFunc func()

	activeBackgroundWorkers sync.WaitGroup
}

// An Option configures a Sensor.
type Option func(*Sensor)

// WithClock substitutes the clock used for triggering and pulse timing;
// tests pass a mock.
func WithClock(c clock.Clock) Option {
	return func(s *Sensor) { s.clock = c }
}

// WithLogger sets the sensor's logger.
func WithLogger(logger golog.Logger) Option {
	return func(s *Sensor) { s.logger = logger }
}

// New returns a sensor bound to the given trigger pin and echo interrupt.
// It does not start measuring until Start is called.
func New(name string, trigger board.GPIOPin, echo board.DigitalInterrupt, opts ...Option) *Sensor {
	s := &Sensor{
		name:    name,
		trigger: trigger,
		echo:    echo,
		clock:   clock.New(),
		logger:  golog.Global(),
		echoCh:  make(chan board.Tick, 8),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pulseMicros.Store(unknownPulse)
	return s
}

// Name returns the name the sensor was created with.
func (s *Sensor) Name() string {
	return s.name
}

// Started reports whether the trigger schedule is running.
func (s *Sensor) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Start forces the trigger line low, subscribes to echo edges, and begins
// the periodic trigger schedule. Starting an already started sensor errors.
func (s *Sensor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.Errorf("sonar %q already started", s.name)
	}
	if err := s.trigger.Set(ctx, false); err != nil {
		return errors.Wrapf(err, "sonar %q cannot set trigger pin low", s.name)
	}

	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	s.cancelCtx = cancelCtx
	s.cancelFunc = cancelFunc

	s.echo.AddCallback(s.echoCh)
	// The ticker is created here, not in the worker, so the schedule exists
	// by the time Start returns.
	ticker := s.clock.Ticker(TriggerPeriod)
	s.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() { s.captureLoop(ticker) }, s.activeBackgroundWorkers.Done)

	s.started = true
	return nil
}

// Stop cancels the trigger schedule. The trigger line is guaranteed low on
// return, even when Stop lands between a pulse raise and its clear.
func (s *Sensor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancelFunc()
	s.mu.Unlock()

	s.activeBackgroundWorkers.Wait()
	s.echo.RemoveCallback(s.echoCh)

	s.mu.Lock()
	if s.pulseTimer != nil {
		s.pulseTimer.Stop()
		s.pulseTimer = nil
	}
	s.mu.Unlock()

	// The pulse-clear timer may have been canceled above; force the line
	// low regardless so it can never stick high.
	return s.trigger.Set(ctx, false)
}

// Distance returns the latest measurement in centimeters, or
// DistanceUnknown before the first completed echo and after readings go
// stale.
func (s *Sensor) Distance() float64 {
	pulse := s.pulseMicros.Load()
	if pulse < 0 {
		return DistanceUnknown
	}
	return float64(pulse) / PulseMicrosPerCentimeter
}

// captureLoop is the single goroutine owning all capture state: it fires
// the periodic trigger and consumes echo edges. Nothing here blocks beyond
// channel receives, so edge timestamps stay honest.
func (s *Sensor) captureLoop(ticker *clock.Ticker) {
	defer ticker.Stop()

	var (
		captureRunning bool
		riseNanos      uint64
		cyclePending   bool
		missedCycles   int
	)

	for {
		select {
		case <-s.cancelCtx.Done():
			return

		case <-ticker.C:
			if cyclePending {
				// The previous trigger never completed an echo: either the
				// obstacle is out of range or the falling edge was lost.
				// Abandon any half-open capture so a stale rise timestamp
				// cannot corrupt this cycle's measurement.
				captureRunning = false
				missedCycles++
				if missedCycles >= staleAfterMisses {
					s.pulseMicros.Store(unknownPulse)
				}
			}
			cyclePending = true
			s.firePulse()

		case tick := <-s.echoCh:
			if tick.High {
				captureRunning = true
				riseNanos = tick.TimestampNanosec
				continue
			}
			if !captureRunning {
				// Spurious falling edge with no capture running; expected
				// occasional hardware noise, not an error.
				s.logger.Debugw("discarding spurious falling edge", "sonar", s.name)
				continue
			}
			captureRunning = false
			if tick.TimestampNanosec < riseNanos {
				s.logger.Debugw("discarding echo with reversed timestamps", "sonar", s.name)
				continue
			}
			s.pulseMicros.Store(int64((tick.TimestampNanosec - riseNanos) / 1000))
			cyclePending = false
			missedCycles = 0
		}
	}
}

// firePulse raises the trigger line and arms a one-shot timer to drop it
// after TriggerPulseWidth, so the capture loop never blocks on the pulse.
func (s *Sensor) firePulse() {
	if err := s.trigger.Set(s.cancelCtx, true); err != nil {
		s.logger.Errorw("cannot raise trigger pin", "sonar", s.name, "error", err)
		return
	}
	timer := s.clock.AfterFunc(TriggerPulseWidth, func() {
		if err := s.trigger.Set(s.cancelCtx, false); err != nil {
			s.logger.Errorw("cannot clear trigger pin", "sonar", s.name, "error", err)
		}
	})
	s.mu.Lock()
	s.pulseTimer = timer
	s.mu.Unlock()
}
