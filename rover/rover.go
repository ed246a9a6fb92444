// Package rover assembles the robot from its configuration: board, sonar
// array, drivetrain, telemetry, and the control loop tying them together.
package rover

import (
	"context"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"golang.org/x/sync/errgroup"

	"github.com/roamer-robotics/roamer/board"
	"github.com/roamer-robotics/roamer/board/fakeboard"
	"github.com/roamer-robotics/roamer/board/linuxboard"
	"github.com/roamer-robotics/roamer/config"
	"github.com/roamer-robotics/roamer/drive"
	"github.com/roamer-robotics/roamer/motion"
	"github.com/roamer-robotics/roamer/sonar"
	"github.com/roamer-robotics/roamer/telemetry"
)

// A Rover owns every part of the robot and runs the control loop over
// them.
type Rover struct {
	board     board.Board
	array     *sonar.Array
	train     *drive.Train
	enablePin board.GPIOPin
	reporter  *telemetry.Reporter
	loop      *motion.Loop
	logger    golog.Logger

	closeOnce sync.Once
	closeErr  error
}

// New builds a rover from its description. Nothing moves until Run.
func New(ctx context.Context, cfg *config.Config, logger golog.Logger) (r *Rover, err error) {
	b, err := newBoard(ctx, &cfg.Board, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			multierr.AppendInto(&err, b.Close(ctx))
		}
	}()

	array, err := newArray(b, &cfg.Sonars, logger)
	if err != nil {
		return nil, err
	}
	train, enablePin, err := newTrain(b, &cfg.Drive, logger)
	if err != nil {
		return nil, err
	}

	reporter, err := newReporter(cfg.Telemetry, logger)
	if err != nil {
		return nil, err
	}

	loop := motion.NewLoop(array, train, logger, motion.WithRecorder(reporter))

	return &Rover{
		board:     b,
		array:     array,
		train:     train,
		enablePin: enablePin,
		reporter:  reporter,
		loop:      loop,
		logger:    logger,
	}, nil
}

func newBoard(ctx context.Context, cfg *config.BoardConfig, logger golog.Logger) (board.Board, error) {
	switch cfg.Model {
	case config.BoardModelFake:
		return fakeboard.NewBoard(logger), nil
	case config.BoardModelLinux:
		return linuxboard.NewBoard(ctx, cfg.ChipDev, logger)
	default:
		return nil, errors.Errorf("unknown board model %q", cfg.Model)
	}
}

func newSensor(b board.Board, name string, cfg *config.SonarConfig, logger golog.Logger) (*sonar.Sensor, error) {
	trigger, err := b.GPIOPinByName(cfg.TriggerPin)
	if err != nil {
		return nil, errors.Wrapf(err, "sonar %q trigger", name)
	}
	echo, err := b.DigitalInterruptByName(cfg.EchoInterrupt)
	if err != nil {
		return nil, errors.Wrapf(err, "sonar %q echo", name)
	}
	return sonar.New(name, trigger, echo, sonar.WithLogger(logger)), nil
}

func newArray(b board.Board, cfg *config.SonarsConfig, logger golog.Logger) (*sonar.Array, error) {
	front, err := newSensor(b, "front", &cfg.Front, logger)
	if err != nil {
		return nil, err
	}
	left, err := newSensor(b, "left", &cfg.Left, logger)
	if err != nil {
		return nil, err
	}
	right, err := newSensor(b, "right", &cfg.Right, logger)
	if err != nil {
		return nil, err
	}
	return sonar.NewArray(front, left, right, sonar.WithArrayLogger(logger)), nil
}

func newMotor(b board.Board, name string, cfg *config.WheelConfig, logger golog.Logger) (*drive.Motor, error) {
	forward, err := b.GPIOPinByName(cfg.ForwardPin)
	if err != nil {
		return nil, errors.Wrapf(err, "motor %q forward channel", name)
	}
	backward, err := b.GPIOPinByName(cfg.BackwardPin)
	if err != nil {
		return nil, errors.Wrapf(err, "motor %q backward channel", name)
	}
	return drive.NewMotor(name, forward, backward, logger), nil
}

func newTrain(b board.Board, cfg *config.DriveConfig, logger golog.Logger) (*drive.Train, board.GPIOPin, error) {
	left, err := newMotor(b, "left", &cfg.Left, logger)
	if err != nil {
		return nil, nil, err
	}
	right, err := newMotor(b, "right", &cfg.Right, logger)
	if err != nil {
		return nil, nil, err
	}

	var enablePin board.GPIOPin
	if cfg.EnablePin != "" {
		enablePin, err = b.GPIOPinByName(cfg.EnablePin)
		if err != nil {
			return nil, nil, errors.Wrap(err, "drive enable pin")
		}
	}
	return drive.NewTrain(left, right, logger), enablePin, nil
}

func newReporter(cfg *config.TelemetryConfig, logger golog.Logger) (*telemetry.Reporter, error) {
	sinks := []telemetry.Sink{telemetry.NewLogSink(logger)}
	if cfg != nil {
		mqttSink, err := telemetry.NewMQTTSink(cfg.Broker, cfg.Topic, logger)
		if err != nil {
			// absence of telemetry must never affect control
			logger.Warnw("mqtt telemetry unavailable, continuing log-only", "error", err)
		} else {
			sinks = append(sinks, mqttSink)
		}
	}
	return telemetry.NewReporter(logger, sinks), nil
}

// Run powers the drivetrain, starts the staggered sonar array, the
// reporter, and the control loop, and blocks until ctx ends or a
// component fails. Cancellation is a clean shutdown, whether it lands
// during the staggered startup or later. The rover always brakes on the
// way out.
func (r *Rover) Run(ctx context.Context) error {
	if r.enablePin != nil {
		if err := r.enablePin.Set(ctx, true); err != nil {
			return errors.Wrap(err, "cannot enable motor driver")
		}
	}
	if err := r.array.Start(ctx); err != nil {
		return multierr.Combine(utils.FilterOutError(err, context.Canceled), r.Close(ctx))
	}
	r.reporter.Start()
	if err := r.loop.Start(ctx); err != nil {
		return multierr.Combine(err, r.Close(ctx))
	}
	r.logger.Info("rover running")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		select {
		case <-groupCtx.Done():
			return nil
		case <-r.loop.Done():
			// the loop only exits on its own when a dispatch failed
			return r.loop.Err()
		}
	})
	err := group.Wait()
	closeErr := r.Close(ctx)
	if errors.Is(closeErr, err) {
		// Close reports the loop failure through loop.Close already
		return closeErr
	}
	return multierr.Combine(err, closeErr)
}

// Close brakes the drivetrain and releases every part; it is idempotent.
func (r *Rover) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.closeErr = multierr.Combine(
			r.loop.Close(),
			r.train.Stop(ctx),
			r.disableDrive(ctx),
			r.array.Close(ctx),
			r.reporter.Close(),
			r.board.Close(ctx),
		)
	})
	return r.closeErr
}

func (r *Rover) disableDrive(ctx context.Context) error {
	if r.enablePin == nil {
		return nil
	}
	return r.enablePin.Set(ctx, false)
}
