//go:build linux

// This file talks to sysfs PWM chips (/sys/class/pwm).
package linuxboard

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

const pwmRootPath = "/sys/class/pwm"

// pwmDevice is one line of a sysfs PWM chip.
type pwmDevice struct {
	// Immutable.
	chipPath string
	line     int
	linePath string

	mu sync.Mutex

	// Mutable; lock the mutex.
	periodNs         uint64
	activeDurationNs uint64
	isExported       bool
	isEnabled        bool
}

func newPwmDevice(chipName string, line int) *pwmDevice {
	chipPath := fmt.Sprintf("%s/%s", pwmRootPath, chipName)
	return &pwmDevice{
		chipPath: chipPath,
		line:     line,
		linePath: fmt.Sprintf("%s/pwm%d", chipPath, line),
	}
}

func writeValue(filepath string, value uint64) error {
	// If the file needs to be created, something has gone horribly wrong,
	// so the permission bits are irrelevant.
	return os.WriteFile(filepath, []byte(strconv.FormatUint(value, 10)), 0o660)
}

func (pwm *pwmDevice) chipFile(filename string) string {
	return fmt.Sprintf("%s/%s", pwm.chipPath, filename)
}

func (pwm *pwmDevice) lineFile(filename string) string {
	return fmt.Sprintf("%s/%s", pwm.linePath, filename)
}

// Call only with the mutex held.
func (pwm *pwmDevice) export() error {
	if pwm.isExported {
		return nil
	}
	if err := writeValue(pwm.chipFile("export"), uint64(pwm.line)); err != nil {
		return err
	}
	pwm.isExported = true
	return nil
}

// Call only with the mutex held.
func (pwm *pwmDevice) unexport() error {
	if !pwm.isExported {
		return nil
	}
	if err := writeValue(pwm.chipFile("unexport"), uint64(pwm.line)); err != nil {
		return err
	}
	pwm.isExported = false
	pwm.isEnabled = false
	return nil
}

// Call only with the mutex held.
func (pwm *pwmDevice) enable() error {
	if pwm.isEnabled {
		return nil
	}
	if err := writeValue(pwm.lineFile("enable"), 1); err != nil {
		return err
	}
	pwm.isEnabled = true
	return nil
}

// Call only with the mutex held.
func (pwm *pwmDevice) disable() error {
	if !pwm.isEnabled {
		return nil
	}
	if err := writeValue(pwm.lineFile("enable"), 0); err != nil {
		return err
	}
	pwm.isEnabled = false
	return nil
}

// SetPwm reconfigures the line for the given frequency and duty cycle and
// enables it.
func (pwm *pwmDevice) SetPwm(freqHz uint, dutyCycle float64) error {
	pwm.mu.Lock()
	defer pwm.mu.Unlock()

	if freqHz == 0 {
		return errors.New("pwm frequency cannot be zero")
	}
	if err := pwm.export(); err != nil {
		return err
	}
	if err := pwm.disable(); err != nil {
		return err
	}

	// Sysfs calls the active duration within a period "duty_cycle", in
	// nanoseconds. It is not how the rest of the world defines a duty
	// cycle, so we call it the active duration.
	periodNs := uint64(1e9 / float64(freqHz))
	activeDurationNs := uint64(float64(periodNs) * dutyCycle)

	// The active duration may never exceed the period, so order the writes
	// to keep that true at every step.
	if periodNs < pwm.activeDurationNs {
		if err := writeValue(pwm.lineFile("duty_cycle"), activeDurationNs); err != nil {
			return err
		}
		pwm.activeDurationNs = activeDurationNs
		if err := writeValue(pwm.lineFile("period"), periodNs); err != nil {
			return err
		}
		pwm.periodNs = periodNs
	} else {
		if err := writeValue(pwm.lineFile("period"), periodNs); err != nil {
			return err
		}
		pwm.periodNs = periodNs
		if err := writeValue(pwm.lineFile("duty_cycle"), activeDurationNs); err != nil {
			return err
		}
		pwm.activeDurationNs = activeDurationNs
	}

	return pwm.enable()
}

// Off disables the line.
func (pwm *pwmDevice) Off() error {
	pwm.mu.Lock()
	defer pwm.mu.Unlock()
	if !pwm.isExported {
		return nil
	}
	return pwm.disable()
}

func (pwm *pwmDevice) Close() error {
	pwm.mu.Lock()
	defer pwm.mu.Unlock()
	return pwm.unexport()
}
