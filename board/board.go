// Package board abstracts the GPIO hardware the rover is wired to: digital
// output pins with PWM, and edge-reporting digital interrupts.
package board

import "context"

// A GPIOPin is an individual digital pin on a board. Duty cycles are
// fractions in [0, 1] of a fixed period; the backend maps them to an
// integer active width.
type GPIOPin interface {
	// Set sets the pin to either low or high.
	Set(ctx context.Context, high bool) error

	// Get gets the high/low state of the pin.
	Get(ctx context.Context) (bool, error)

	// PWM gets the pin's given duty cycle.
	PWM(ctx context.Context) (float64, error)

	// SetPWM sets the pin to the given duty cycle.
	SetPWM(ctx context.Context, dutyCyclePct float64) error

	// PWMFreq gets the PWM frequency of the pin.
	PWMFreq(ctx context.Context) (uint, error)

	// SetPWMFreq sets the pin to the given PWM frequency.
	SetPWMFreq(ctx context.Context, freqHz uint) error
}

// Tick is one edge event on a digital interrupt pin. The timestamp rides
// with the edge so that queueing delay between the hardware monitor and a
// consumer cannot corrupt time-of-flight measurements.
type Tick struct {
	High             bool
	TimestampNanosec uint64
}

// A DigitalInterrupt watches a digital input pin and reports edges to
// subscribed channels. Hardware monitors (and tests) inject edges by
// calling Tick.
type DigitalInterrupt interface {
	// Tick injects one edge. High indicates a rising edge, nanosec is the
	// time the edge was observed.
	Tick(ctx context.Context, high bool, nanosec uint64) error

	// AddCallback subscribes a channel to edge events.
	AddCallback(ch chan Tick)

	// RemoveCallback unsubscribes a channel previously added.
	RemoveCallback(ch chan Tick)

	// Value returns the number of rising edges observed since creation.
	Value() int64
}

// A Board is a collection of named pins and interrupts.
type Board interface {
	// GPIOPinByName returns the output pin with the given name.
	GPIOPinByName(name string) (GPIOPin, error)

	// DigitalInterruptByName returns the interrupt with the given name.
	DigitalInterruptByName(name string) (DigitalInterrupt, error)

	// Close shuts the board down and releases any held lines.
	Close(ctx context.Context) error
}
