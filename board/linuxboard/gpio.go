//go:build linux

package linuxboard

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/mkch/gpio"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

func parseLineOffset(name string) (uint32, error) {
	offset, err := strconv.ParseUint(name, 10, 32)
	if err != nil {
		return 0, errors.Errorf("pin name %q is not a line offset", name)
	}
	return uint32(offset), nil
}

// gpioPin is an output line with optional software PWM.
type gpioPin struct {
	// Immutable after creation.
	devicePath string
	offset     uint32

	// Mutable state; lock the mutex to touch it.
	mu              sync.Mutex
	line            *gpio.Line
	pwmRunning      bool
	pwmFreqHz       uint
	pwmDutyCyclePct float64

	cancelCtx context.Context
	waitGroup *sync.WaitGroup
	logger    golog.Logger
}

// Call only with the mutex held; opens the line on first use.
func (pin *gpioPin) openLine() error {
	if pin.line != nil {
		return nil
	}
	chip, err := gpio.OpenChip(pin.devicePath)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(chip.Close)

	line, err := chip.OpenLine(pin.offset, 0, gpio.Output, "roamer-gpio")
	if err != nil {
		return err
	}
	pin.line = line
	return nil
}

// Call only with the mutex held.
func (pin *gpioPin) setInternal(isHigh bool) error {
	var value byte
	if isHigh {
		value = 1
	}
	return pin.line.SetValue(value)
}

// Set sets the pin to either low or high, stopping any software PWM on it.
func (pin *gpioPin) Set(ctx context.Context, high bool) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	if err := pin.openLine(); err != nil {
		return err
	}
	pin.pwmRunning = false
	return pin.setInternal(high)
}

// Get gets the high/low state of the pin.
func (pin *gpioPin) Get(ctx context.Context) (bool, error) {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	if err := pin.openLine(); err != nil {
		return false, err
	}
	value, err := pin.line.Value()
	if err != nil {
		return false, err
	}
	// Any non-zero value counts as high.
	return value != 0, nil
}

// Call only with the mutex held. Spins up the software PWM loop if both
// parameters are set and one isn't running yet.
func (pin *gpioPin) startSoftwarePWM() error {
	if pin.pwmDutyCyclePct == 0 || pin.pwmFreqHz == 0 {
		pin.pwmRunning = false
		// If we used to have both parameters but no longer do, turn the
		// pin off.
		return pin.setInternal(false)
	}
	if pin.pwmRunning {
		return nil
	}
	pin.pwmRunning = true
	pin.waitGroup.Add(1)
	utils.ManagedGo(pin.softwarePwmLoop, pin.waitGroup.Done)
	return nil
}

// Toggles the pin and waits for its half of the cycle, returning whether
// the loop should continue.
func (pin *gpioPin) halfPwmCycle(shouldBeOn bool) bool {
	var dutyCycle float64
	var freqHz uint

	shouldContinue := func() bool {
		pin.mu.Lock()
		defer pin.mu.Unlock()
		if !pin.pwmRunning {
			return false
		}
		dutyCycle = pin.pwmDutyCyclePct
		freqHz = pin.pwmFreqHz
		// A failed toggle shouldn't kill the loop; log and try again on the
		// next half-cycle.
		utils.UncheckedErrorFunc(func() error { return pin.setInternal(shouldBeOn) })
		return true
	}()
	if !shouldContinue {
		return false
	}

	if !shouldBeOn {
		dutyCycle = 1 - dutyCycle
	}
	duration := time.Duration(float64(time.Second) * dutyCycle / float64(freqHz))
	return utils.SelectContextOrWait(pin.cancelCtx, duration)
}

func (pin *gpioPin) softwarePwmLoop() {
	for {
		if !pin.halfPwmCycle(true) {
			return
		}
		if !pin.halfPwmCycle(false) {
			return
		}
	}
}

// PWM gets the pin's given duty cycle.
func (pin *gpioPin) PWM(ctx context.Context) (float64, error) {
	pin.mu.Lock()
	defer pin.mu.Unlock()
	return pin.pwmDutyCyclePct, nil
}

// SetPWM sets the pin to the given duty cycle.
func (pin *gpioPin) SetPWM(ctx context.Context, dutyCyclePct float64) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	if err := pin.openLine(); err != nil {
		return err
	}
	pin.pwmDutyCyclePct = dutyCyclePct
	return pin.startSoftwarePWM()
}

// PWMFreq gets the PWM frequency of the pin.
func (pin *gpioPin) PWMFreq(ctx context.Context) (uint, error) {
	pin.mu.Lock()
	defer pin.mu.Unlock()
	return pin.pwmFreqHz, nil
}

// SetPWMFreq sets the pin to the given PWM frequency.
func (pin *gpioPin) SetPWMFreq(ctx context.Context, freqHz uint) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	if err := pin.openLine(); err != nil {
		return err
	}
	pin.pwmFreqHz = freqHz
	return pin.startSoftwarePWM()
}

func (pin *gpioPin) Close() error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	pin.pwmRunning = false
	if pin.line == nil {
		return nil
	}
	err := pin.line.Close()
	pin.line = nil
	return err
}
