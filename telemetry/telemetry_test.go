package telemetry

import (
	"sync"
	"testing"
	"time"

	clk "github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/roamer-robotics/roamer/drive"
)

type spySink struct {
	mu        sync.Mutex
	published []Snapshot
	pubErr    error
	closed    bool
}

func (s *spySink) Publish(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pubErr != nil {
		return s.pubErr
	}
	s.published = append(s.published, snap)
	return nil
}

func (s *spySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *spySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

func TestReporterPublishesAndThrottles(t *testing.T) {
	mock := clk.NewMock()
	sink := &spySink{}
	r := NewReporter(golog.NewTestLogger(t), []Sink{sink}, WithClock(mock))
	r.Start()

	snap := Snapshot{FrontCM: 100, LeftCM: 20, RightCM: 18, Heading: drive.Forward, LeftDuty: 1, RightDuty: 1}
	r.Record(snap)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, sink.count(), test.ShouldEqual, 1)
	})

	sink.mu.Lock()
	test.That(t, sink.published[0].HeadingStr, test.ShouldEqual, "forward")
	sink.mu.Unlock()

	// without the clock moving, further snapshots are swallowed by the
	// throttle
	r.Record(snap)
	r.Record(snap)
	time.Sleep(50 * time.Millisecond)
	test.That(t, sink.count(), test.ShouldEqual, 1)

	// once the throttle period elapses the next snapshot goes out
	mock.Add(DefaultReportEvery)
	r.Record(snap)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, sink.count(), test.ShouldEqual, 2)
	})

	test.That(t, r.Close(), test.ShouldBeNil)
	test.That(t, sink.closed, test.ShouldBeTrue)
}

func TestReporterNeverBlocks(t *testing.T) {
	// a reporter that is never started still accepts records
	r := NewReporter(golog.NewTestLogger(t), []Sink{&spySink{}})
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			r.Record(Snapshot{FrontCM: float64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked")
	}
	test.That(t, r.Close(), test.ShouldBeNil)
}

func TestReporterSinkFailureIsSwallowed(t *testing.T) {
	mock := clk.NewMock()
	failing := &spySink{pubErr: errors.New("broker gone")}
	healthy := &spySink{}
	r := NewReporter(golog.NewTestLogger(t), []Sink{failing, healthy}, WithClock(mock))
	r.Start()

	r.Record(Snapshot{Heading: drive.Brake})
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, healthy.count(), test.ShouldEqual, 1)
	})
	test.That(t, r.Close(), test.ShouldBeNil)
}
