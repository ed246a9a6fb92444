package sonar

import (
	"context"
	"testing"
	"time"

	clk "github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/roamer-robotics/roamer/board/fakeboard"
)

func TestArrayStaggeredStart(t *testing.T) {
	logger := golog.NewTestLogger(t)
	b := fakeboard.NewBoard(logger)
	mock := clk.NewMock()

	newTestSensor := func(name string) *Sensor {
		return New(name,
			b.GPIOPin(name+"-trig"), b.DigitalInterrupt(name+"-echo"),
			WithClock(mock), WithLogger(logger))
	}
	front := newTestSensor("front")
	left := newTestSensor("left")
	right := newTestSensor("right")
	a := NewArray(front, left, right, WithArrayClock(mock), WithArrayLogger(logger))

	errCh := make(chan error)
	go func() {
		errCh <- a.Start(context.Background())
	}()

	// front comes up first, the others wait out their stagger
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, front.Started(), test.ShouldBeTrue)
	})
	test.That(t, left.Started(), test.ShouldBeFalse)
	test.That(t, right.Started(), test.ShouldBeFalse)

	t0 := mock.Now()
	testutils.WaitForAssertionWithSleep(t, 10*time.Millisecond, 200, func(tb testing.TB) {
		tb.Helper()
		mock.Add(StartStagger / 4)
		test.That(tb, left.Started(), test.ShouldBeTrue)
	})
	test.That(t, mock.Now().Sub(t0), test.ShouldBeGreaterThanOrEqualTo, StartStagger)
	test.That(t, right.Started(), test.ShouldBeFalse)

	t1 := mock.Now()
	testutils.WaitForAssertionWithSleep(t, 10*time.Millisecond, 200, func(tb testing.TB) {
		tb.Helper()
		mock.Add(StartStagger / 4)
		test.That(tb, right.Started(), test.ShouldBeTrue)
	})
	test.That(t, mock.Now().Sub(t1), test.ShouldBeGreaterThanOrEqualTo, StartStagger)

	test.That(t, <-errCh, test.ShouldBeNil)
	test.That(t, a.Close(context.Background()), test.ShouldBeNil)
	test.That(t, front.Started(), test.ShouldBeFalse)
	test.That(t, left.Started(), test.ShouldBeFalse)
	test.That(t, right.Started(), test.ShouldBeFalse)
}

func TestArrayDistances(t *testing.T) {
	logger := golog.NewTestLogger(t)
	b := fakeboard.NewBoard(logger)
	mock := clk.NewMock()

	newTestSensor := func(name string) *Sensor {
		return New(name,
			b.GPIOPin(name+"-trig"), b.DigitalInterrupt(name+"-echo"),
			WithClock(mock), WithLogger(logger))
	}
	front := newTestSensor("front")
	left := newTestSensor("left")
	right := newTestSensor("right")
	a := NewArray(front, left, right, WithArrayClock(mock), WithArrayLogger(logger))

	f, l, r := a.Distances()
	test.That(t, f, test.ShouldEqual, DistanceUnknown)
	test.That(t, l, test.ShouldEqual, DistanceUnknown)
	test.That(t, r, test.ShouldEqual, DistanceUnknown)
}

func TestArrayStartCanceled(t *testing.T) {
	logger := golog.NewTestLogger(t)
	b := fakeboard.NewBoard(logger)
	mock := clk.NewMock()

	newTestSensor := func(name string) *Sensor {
		return New(name,
			b.GPIOPin(name+"-trig"), b.DigitalInterrupt(name+"-echo"),
			WithClock(mock), WithLogger(logger))
	}
	a := NewArray(newTestSensor("front"), newTestSensor("left"), newTestSensor("right"),
		WithArrayClock(mock), WithArrayLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() {
		errCh <- a.Start(ctx)
	}()
	cancel()
	test.That(t, <-errCh, test.ShouldBeError, context.Canceled)
	test.That(t, a.Close(context.Background()), test.ShouldBeNil)
}
