// Package fakeboard implements an in-memory board for tests and bench-less
// development. Pins and interrupts are created on demand by name; tests
// inspect pin state directly and inject edges through the interrupts.
package fakeboard

import (
	"context"
	"sync"

	"github.com/edaniels/golog"

	"github.com/roamer-robotics/roamer/board"
)

// Board is an in-memory board.
type Board struct {
	mu       sync.Mutex
	gpioPins map[string]*GPIOPin
	digitals map[string]*board.BasicDigitalInterrupt
	logger   golog.Logger
}

// NewBoard returns a new fake board with no pins yet; they come into
// existence as they are asked for.
func NewBoard(logger golog.Logger) *Board {
	return &Board{
		gpioPins: map[string]*GPIOPin{},
		digitals: map[string]*board.BasicDigitalInterrupt{},
		logger:   logger,
	}
}

// GPIOPinByName returns the named pin, creating it if needed.
func (b *Board) GPIOPinByName(name string) (board.GPIOPin, error) {
	return b.GPIOPin(name), nil
}

// GPIOPin is like GPIOPinByName but returns the concrete fake type so tests
// can reach its state.
func (b *Board) GPIOPin(name string) *GPIOPin {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.gpioPins[name]
	if !ok {
		p = &GPIOPin{}
		b.gpioPins[name] = p
	}
	return p
}

// DigitalInterruptByName returns the named interrupt, creating it if needed.
func (b *Board) DigitalInterruptByName(name string) (board.DigitalInterrupt, error) {
	return b.DigitalInterrupt(name), nil
}

// DigitalInterrupt is like DigitalInterruptByName but returns the concrete
// type so tests can inject edges.
func (b *Board) DigitalInterrupt(name string) *board.BasicDigitalInterrupt {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.digitals[name]
	if !ok {
		d = &board.BasicDigitalInterrupt{}
		b.digitals[name] = d
	}
	return d
}

// Close does nothing; a fake board holds no hardware.
func (b *Board) Close(ctx context.Context) error {
	return nil
}

// A GPIOPin reads back the same values set on it.
type GPIOPin struct {
	mu      sync.Mutex
	high    bool
	pwm     float64
	pwmFreq uint
}

// Set sets the pin to either low or high, dropping any PWM duty.
func (gp *GPIOPin) Set(ctx context.Context, high bool) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	gp.high = high
	gp.pwm = 0
	return nil
}

// Get gets the high/low state of the pin.
func (gp *GPIOPin) Get(ctx context.Context) (bool, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.high, nil
}

// PWM gets the pin's given duty cycle.
func (gp *GPIOPin) PWM(ctx context.Context) (float64, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.pwm, nil
}

// SetPWM sets the pin to the given duty cycle.
func (gp *GPIOPin) SetPWM(ctx context.Context, dutyCyclePct float64) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	gp.pwm = dutyCyclePct
	return nil
}

// PWMFreq gets the PWM frequency of the pin.
func (gp *GPIOPin) PWMFreq(ctx context.Context) (uint, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.pwmFreq, nil
}

// SetPWMFreq sets the pin to the given PWM frequency.
func (gp *GPIOPin) SetPWMFreq(ctx context.Context, freqHz uint) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	gp.pwmFreq = freqHz
	return nil
}
