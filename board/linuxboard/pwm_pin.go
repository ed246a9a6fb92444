//go:build linux

package linuxboard

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

// pwmPin adapts a sysfs PWM line to the board.GPIOPin interface. Set maps
// high/low to full/zero duty.
type pwmPin struct {
	dev *pwmDevice

	mu        sync.Mutex
	freqHz    uint
	dutyCycle float64
}

func newPwmPin(chipName, line string) (*pwmPin, error) {
	lineNum, err := strconv.Atoi(line)
	if err != nil {
		return nil, errors.Errorf("pwm line %q is not a number", line)
	}
	return &pwmPin{dev: newPwmDevice(chipName, lineNum)}, nil
}

// Call only with the mutex held. Zeroing the line never needs a
// frequency: forcing a fresh pin low must work before any PWM setup.
func (pin *pwmPin) apply() error {
	if pin.dutyCycle == 0 {
		return pin.dev.Off()
	}
	if pin.freqHz == 0 {
		return errors.New("set a pwm frequency before a duty cycle")
	}
	return pin.dev.SetPwm(pin.freqHz, pin.dutyCycle)
}

func (pin *pwmPin) Set(ctx context.Context, high bool) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()
	if high {
		pin.dutyCycle = 1
	} else {
		pin.dutyCycle = 0
	}
	return pin.apply()
}

func (pin *pwmPin) Get(ctx context.Context) (bool, error) {
	pin.mu.Lock()
	defer pin.mu.Unlock()
	return pin.dutyCycle > 0, nil
}

func (pin *pwmPin) PWM(ctx context.Context) (float64, error) {
	pin.mu.Lock()
	defer pin.mu.Unlock()
	return pin.dutyCycle, nil
}

func (pin *pwmPin) SetPWM(ctx context.Context, dutyCyclePct float64) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()
	pin.dutyCycle = dutyCyclePct
	return pin.apply()
}

func (pin *pwmPin) PWMFreq(ctx context.Context) (uint, error) {
	pin.mu.Lock()
	defer pin.mu.Unlock()
	return pin.freqHz, nil
}

func (pin *pwmPin) SetPWMFreq(ctx context.Context, freqHz uint) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()
	pin.freqHz = freqHz
	if pin.dutyCycle > 0 {
		return pin.apply()
	}
	return nil
}

func (pin *pwmPin) Close() error {
	pin.mu.Lock()
	defer pin.mu.Unlock()
	return pin.dev.Close()
}
