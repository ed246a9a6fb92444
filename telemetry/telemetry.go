// Package telemetry reports periodic rover status: the three distances and
// the command they produced. Reporting is strictly best effort; it drops
// data rather than ever slowing the control loop.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.uber.org/multierr"

	"github.com/roamer-robotics/roamer/drive"
)

// DefaultReportEvery is how often the reporter emits at most one snapshot.
const DefaultReportEvery = time.Second

// A Snapshot is one control cycle's status.
type Snapshot struct {
	CapturedAt time.Time     `json:"captured_at"`
	FrontCM    float64       `json:"front_cm"`
	LeftCM     float64       `json:"left_cm"`
	RightCM    float64       `json:"right_cm"`
	Heading    drive.Heading `json:"-"`
	HeadingStr string        `json:"heading"`
	LeftDuty   float64       `json:"left_duty"`
	RightDuty  float64       `json:"right_duty"`
}

// A Sink receives the throttled snapshots.
type Sink interface {
	Publish(s Snapshot) error
	Close() error
}

// A Reporter accepts snapshots without blocking and fans the latest one out
// to its sinks at a throttled pace.
type Reporter struct {
	every  time.Duration
	sinks  []Sink
	clock  clock.Clock
	logger golog.Logger

	snapCh chan Snapshot

	mu         sync.Mutex
	started    bool
	cancelFunc func()

	activeBackgroundWorkers sync.WaitGroup
}

// A ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithReportEvery overrides the throttle period.
func WithReportEvery(every time.Duration) ReporterOption {
	return func(r *Reporter) { r.every = every }
}

// WithClock substitutes the throttle clock; tests pass a mock.
func WithClock(c clock.Clock) ReporterOption {
	return func(r *Reporter) { r.clock = c }
}

// NewReporter returns a reporter feeding the given sinks.
func NewReporter(logger golog.Logger, sinks []Sink, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		every:  DefaultReportEvery,
		sinks:  sinks,
		clock:  clock.New(),
		logger: logger,
		snapCh: make(chan Snapshot, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record hands a snapshot to the reporter. It never blocks: when the
// reporter is saturated the snapshot is dropped.
func (r *Reporter) Record(s Snapshot) {
	select {
	case r.snapCh <- s:
	default:
	}
}

// Start spawns the publishing worker.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	r.cancelFunc = cancelFunc
	r.started = true

	r.activeBackgroundWorkers.Add(1)
	go func() {
		defer r.activeBackgroundWorkers.Done()
		var lastPublish time.Time
		for {
			select {
			case <-cancelCtx.Done():
				return
			case s := <-r.snapCh:
				now := r.clock.Now()
				if !lastPublish.IsZero() && now.Sub(lastPublish) < r.every {
					continue
				}
				lastPublish = now
				r.publish(s)
			}
		}
	}()
}

func (r *Reporter) publish(s Snapshot) {
	s.HeadingStr = s.Heading.String()
	for _, sink := range r.sinks {
		if err := sink.Publish(s); err != nil {
			// telemetry failures never propagate anywhere near control
			r.logger.Debugw("telemetry publish failed", "error", err)
		}
	}
}

// Close stops the worker and closes the sinks.
func (r *Reporter) Close() error {
	r.mu.Lock()
	if r.started {
		r.cancelFunc()
		r.started = false
	}
	r.mu.Unlock()
	r.activeBackgroundWorkers.Wait()

	var err error
	for _, sink := range r.sinks {
		err = multierr.Combine(err, sink.Close())
	}
	return err
}
