package motion

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/roamer-robotics/roamer/drive"
	"github.com/roamer-robotics/roamer/telemetry"
)

// LoopPeriod is the default control cycle, matching the sensor trigger
// cadence.
const LoopPeriod = 20 * time.Millisecond

// A DistanceSource provides the three latest readings in centimeters.
type DistanceSource interface {
	Distances() (front, left, right float64)
}

// An Actuator consumes drive commands.
type Actuator interface {
	Apply(ctx context.Context, cmd drive.Command) error
	Stop(ctx context.Context) error
}

// A Recorder observes each cycle's snapshot. It must never block.
type Recorder interface {
	Record(s telemetry.Snapshot)
}

// A Loop polls the distance source once per tick, plans, and dispatches
// exactly one command. A dispatch failure is a programming error: the loop
// brakes and terminates. Cancellation also brakes before exiting.
type Loop struct {
	source   DistanceSource
	planner  Planner
	actuator Actuator
	recorder Recorder
	period   time.Duration
	clock    clock.Clock
	logger   golog.Logger

	mu         sync.Mutex
	started    bool
	cancelFunc func()
	loopErr    error
	done       chan struct{}

	activeBackgroundWorkers sync.WaitGroup
}

// A LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithClock substitutes the tick clock; tests pass a mock.
func WithClock(c clock.Clock) LoopOption {
	return func(l *Loop) { l.clock = c }
}

// WithPeriod overrides the cycle period.
func WithPeriod(period time.Duration) LoopOption {
	return func(l *Loop) { l.period = period }
}

// WithRecorder attaches a snapshot recorder; nil is fully supported.
func WithRecorder(r Recorder) LoopOption {
	return func(l *Loop) { l.recorder = r }
}

// NewLoop wires a source to an actuator through the planner.
func NewLoop(source DistanceSource, actuator Actuator, logger golog.Logger, opts ...LoopOption) *Loop {
	l := &Loop{
		source:   source,
		actuator: actuator,
		period:   LoopPeriod,
		clock:    clock.New(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start begins ticking. Starting an already started loop errors.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return errors.New("control loop already started")
	}

	cancelCtx, cancelFunc := context.WithCancel(ctx)
	l.cancelFunc = cancelFunc
	l.started = true
	l.done = make(chan struct{})

	ticker := l.clock.Ticker(l.period)
	l.activeBackgroundWorkers.Add(1)
	done := l.done
	utils.ManagedGo(func() {
		defer close(done)
		l.run(cancelCtx, ticker)
	}, l.activeBackgroundWorkers.Done)
	return nil
}

// Done returns a channel closed when the loop's worker has exited, whether
// from cancellation or a terminal error. It must be called after Start.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

func (l *Loop) run(ctx context.Context, ticker *clock.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// brake on the way out
			utils.UncheckedError(l.actuator.Stop(ctx))
			return
		case <-ticker.C:
			if err := l.cycle(ctx); err != nil {
				l.logger.Errorw("control cycle failed, braking", "error", err)
				utils.UncheckedError(l.actuator.Stop(ctx))
				l.mu.Lock()
				l.loopErr = err
				l.mu.Unlock()
				return
			}
		}
	}
}

// cycle runs one control iteration: read, decide, dispatch, record. The
// command is dispatched even when identical to the last one; the actuator
// is refreshed every cycle.
func (l *Loop) cycle(ctx context.Context) error {
	front, left, right := l.source.Distances()
	cmd := l.planner.Decide(front, left, right)
	if err := l.actuator.Apply(ctx, cmd); err != nil {
		return err
	}
	if l.recorder != nil {
		l.recorder.Record(telemetry.Snapshot{
			CapturedAt: l.clock.Now(),
			FrontCM:    front,
			LeftCM:     left,
			RightCM:    right,
			Heading:    cmd.Heading,
			LeftDuty:   cmd.LeftDuty,
			RightDuty:  cmd.RightDuty,
		})
	}
	return nil
}

// Err returns the error that terminated the loop, if any.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loopErr
}

// Close stops the loop and waits for the worker, returning the loop's
// terminal error if it failed.
func (l *Loop) Close() error {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return nil
	}
	l.started = false
	l.cancelFunc()
	l.mu.Unlock()

	l.activeBackgroundWorkers.Wait()
	return l.Err()
}
