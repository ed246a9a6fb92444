package rover

import (
	"context"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/roamer-robotics/roamer/board/fakeboard"
	"github.com/roamer-robotics/roamer/config"
	"github.com/roamer-robotics/roamer/drive"
	"github.com/roamer-robotics/roamer/motion"
	"github.com/roamer-robotics/roamer/sonar"
)

func fakeConfig() *config.Config {
	return &config.Config{
		Board: config.BoardConfig{Model: config.BoardModelFake},
		Sonars: config.SonarsConfig{
			Front: config.SonarConfig{TriggerPin: "1", EchoInterrupt: "2"},
			Left:  config.SonarConfig{TriggerPin: "3", EchoInterrupt: "4"},
			Right: config.SonarConfig{TriggerPin: "5", EchoInterrupt: "6"},
		},
		Drive: config.DriveConfig{
			Left:      config.WheelConfig{ForwardPin: "7", BackwardPin: "8"},
			Right:     config.WheelConfig{ForwardPin: "9", BackwardPin: "10"},
			EnablePin: "11",
		},
	}
}

func TestRoverAssembly(t *testing.T) {
	logger := golog.NewTestLogger(t)
	ctx := context.Background()

	r, err := New(ctx, fakeConfig(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.board, test.ShouldNotBeNil)
	test.That(t, r.array, test.ShouldNotBeNil)
	test.That(t, r.train, test.ShouldNotBeNil)
	test.That(t, r.enablePin, test.ShouldNotBeNil)

	test.That(t, r.Close(ctx), test.ShouldBeNil)
	// idempotent
	test.That(t, r.Close(ctx), test.ShouldBeNil)
}

func TestRoverRejectsUnknownBoard(t *testing.T) {
	cfg := fakeConfig()
	cfg.Board.Model = "etch-a-sketch"
	_, err := New(context.Background(), cfg, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRoverRunAndCancel(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := fakeConfig()
	cfg.Drive.EnablePin = "" // also exercise the no-enable-line path

	r, err := New(context.Background(), cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	fb := r.board.(*fakeboard.Board)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() {
		errCh <- r.Run(ctx)
	}()

	// with no echoes every reading is unknown, so the loop retreats; wait
	// until that command reaches the left wheel's backward channel before
	// cancelling, so shutdown happens from a fully running rover
	testutils.WaitForAssertionWithSleep(t, 50*time.Millisecond, 100, func(tb testing.TB) {
		tb.Helper()
		front, _, _ := r.array.Distances()
		test.That(tb, front, test.ShouldEqual, sonar.DistanceUnknown)
		duty, err := fb.GPIOPin("8").PWM(context.Background())
		test.That(tb, err, test.ShouldBeNil)
		test.That(tb, duty, test.ShouldAlmostEqual, 0.9)
	})
	cancel()
	test.That(t, <-errCh, test.ShouldBeNil)

	// braked on the way out
	duty, err := fb.GPIOPin("8").PWM(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, duty, test.ShouldEqual, 0)
}

type failingActuator struct {
	err error
}

func (a *failingActuator) Apply(ctx context.Context, cmd drive.Command) error { return a.err }

func (a *failingActuator) Stop(ctx context.Context) error { return nil }

func TestRoverRunReportsDispatchFailureOnce(t *testing.T) {
	logger := golog.NewTestLogger(t)

	r, err := New(context.Background(), fakeConfig(), logger)
	test.That(t, err, test.ShouldBeNil)

	errBoom := errors.New("dead actuator")
	r.loop = motion.NewLoop(r.array, &failingActuator{err: errBoom}, logger)

	// the loop terminates itself on the failure and Run reports it exactly
	// once, not once from the watcher and again from Close
	err = r.Run(context.Background())
	test.That(t, err, test.ShouldBeError, errBoom)
}

func TestRoverRunCanceledDuringStartup(t *testing.T) {
	logger := golog.NewTestLogger(t)

	r, err := New(context.Background(), fakeConfig(), logger)
	test.That(t, err, test.ShouldBeNil)

	// cancel while the array is still staggering its sensor starts;
	// shutdown must be as clean as cancelling a running rover
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	test.That(t, r.Run(ctx), test.ShouldBeNil)
}
