//go:build linux

// Package linuxboard drives real hardware through the Linux GPIO character
// device (/dev/gpiochipN, by way of mkch's gpio package) and sysfs PWM
// chips. Output pins and interrupts are opened lazily by name: a bare line
// offset ("17") is an output pin with software PWM, and "pwmchip0:2" names
// line 2 of a sysfs hardware PWM chip.
package linuxboard

import (
	"context"
	"strings"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/roamer-robotics/roamer/board"
)

// Board is a GPIO chardev backed board.
type Board struct {
	chipDev string

	mu         sync.Mutex
	pins       map[string]*gpioPin
	pwmPins    map[string]*pwmPin
	interrupts map[string]*digitalInterrupt

	cancelCtx               context.Context
	cancelFunc              func()
	activeBackgroundWorkers sync.WaitGroup
	logger                  golog.Logger
}

// NewBoard returns a board using the given GPIO chip device, e.g.
// "/dev/gpiochip0".
func NewBoard(ctx context.Context, chipDev string, logger golog.Logger) (*Board, error) {
	if chipDev == "" {
		return nil, errors.New("linuxboard: gpio chip device required")
	}
	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	return &Board{
		chipDev:    chipDev,
		pins:       map[string]*gpioPin{},
		pwmPins:    map[string]*pwmPin{},
		interrupts: map[string]*digitalInterrupt{},
		cancelCtx:  cancelCtx,
		cancelFunc: cancelFunc,
		logger:     logger,
	}, nil
}

// GPIOPinByName returns the output pin with the given name, opening it on
// first use.
func (b *Board) GPIOPinByName(name string) (board.GPIOPin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if chipName, line, ok := strings.Cut(name, ":"); ok {
		if p, ok := b.pwmPins[name]; ok {
			return p, nil
		}
		p, err := newPwmPin(chipName, line)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot open pwm pin %q", name)
		}
		b.pwmPins[name] = p
		return p, nil
	}

	if p, ok := b.pins[name]; ok {
		return p, nil
	}
	offset, err := parseLineOffset(name)
	if err != nil {
		return nil, err
	}
	p := &gpioPin{
		devicePath: b.chipDev,
		offset:     offset,
		cancelCtx:  b.cancelCtx,
		waitGroup:  &b.activeBackgroundWorkers,
		logger:     b.logger,
	}
	b.pins[name] = p
	return p, nil
}

// DigitalInterruptByName returns the interrupt with the given name, opening
// the line with edge events and starting its monitor on first use.
func (b *Board) DigitalInterruptByName(name string) (board.DigitalInterrupt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if di, ok := b.interrupts[name]; ok {
		return di.interrupt, nil
	}
	offset, err := parseLineOffset(name)
	if err != nil {
		return nil, err
	}
	di, err := b.openDigitalInterrupt(offset)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open interrupt line %q", name)
	}
	b.interrupts[name] = di
	return di.interrupt, nil
}

// Close releases every open line and stops the interrupt monitors.
func (b *Board) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cancelFunc()

	var err error
	for _, p := range b.pins {
		err = multierr.Combine(err, p.Close())
	}
	for _, p := range b.pwmPins {
		err = multierr.Combine(err, p.Close())
	}
	for _, di := range b.interrupts {
		err = multierr.Combine(err, di.Close())
	}
	b.activeBackgroundWorkers.Wait()
	return err
}
