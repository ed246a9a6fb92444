//go:build linux

package linuxboard

import (
	"context"
	"testing"

	"go.viam.com/test"
)

func TestPwmPinLineNumber(t *testing.T) {
	_, err := newPwmPin("pwmchip0", "zero")
	test.That(t, err, test.ShouldNotBeNil)

	pin, err := newPwmPin("pwmchip0", "0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pin, test.ShouldNotBeNil)
}

func TestPwmPinForceLowBeforeSetup(t *testing.T) {
	pin, err := newPwmPin("pwmchip0", "0")
	test.That(t, err, test.ShouldBeNil)
	ctx := context.Background()

	// a fresh line must be zeroable before any frequency is configured;
	// this is how a trigger pin gets forced low at startup
	test.That(t, pin.Set(ctx, false), test.ShouldBeNil)
	test.That(t, pin.SetPWM(ctx, 0), test.ShouldBeNil)

	high, err := pin.Get(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, high, test.ShouldBeFalse)

	// a nonzero duty still requires the frequency first
	test.That(t, pin.SetPWM(ctx, 0.5), test.ShouldNotBeNil)
}
