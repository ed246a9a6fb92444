package board

import (
	"context"
	"testing"

	"go.viam.com/test"
)

func TestBasicDigitalInterruptCallbacks(t *testing.T) {
	var i BasicDigitalInterrupt
	ctx := context.Background()

	ch := make(chan Tick, 4)
	i.AddCallback(ch)

	test.That(t, i.Tick(ctx, true, 1000), test.ShouldBeNil)
	test.That(t, i.Tick(ctx, false, 2000), test.ShouldBeNil)

	tick := <-ch
	test.That(t, tick.High, test.ShouldBeTrue)
	test.That(t, tick.TimestampNanosec, test.ShouldEqual, uint64(1000))
	tick = <-ch
	test.That(t, tick.High, test.ShouldBeFalse)
	test.That(t, tick.TimestampNanosec, test.ShouldEqual, uint64(2000))

	// only rising edges are counted
	test.That(t, i.Value(), test.ShouldEqual, int64(1))

	i.RemoveCallback(ch)
	test.That(t, i.Tick(ctx, true, 3000), test.ShouldBeNil)
	test.That(t, len(ch), test.ShouldEqual, 0)
	test.That(t, i.Value(), test.ShouldEqual, int64(2))
}

func TestBasicDigitalInterruptTickCanceled(t *testing.T) {
	var i BasicDigitalInterrupt

	ch := make(chan Tick) // unbuffered, nobody reading
	i.AddCallback(ch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	test.That(t, i.Tick(ctx, true, 1000), test.ShouldBeError, context.Canceled)
}
