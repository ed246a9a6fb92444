//go:build linux

package linuxboard

import (
	"github.com/mkch/gpio"
	"go.viam.com/utils"

	"github.com/roamer-robotics/roamer/board"
)

// digitalInterrupt owns one input line opened with edge events and the
// monitor goroutine converting chardev events into interrupt ticks. The
// kernel stamps each event, so the timestamps are immune to scheduling
// delay in the monitor.
type digitalInterrupt struct {
	interrupt *board.BasicDigitalInterrupt
	line      *gpio.LineWithEvent
}

// Call only with the board mutex held.
func (b *Board) openDigitalInterrupt(offset uint32) (*digitalInterrupt, error) {
	chip, err := gpio.OpenChip(b.chipDev)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(chip.Close)

	line, err := chip.OpenLineWithEvents(offset, gpio.Input, gpio.BothEdges, "roamer-interrupt")
	if err != nil {
		return nil, err
	}

	di := &digitalInterrupt{
		interrupt: &board.BasicDigitalInterrupt{},
		line:      line,
	}

	b.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		for {
			select {
			case <-b.cancelCtx.Done():
				return
			case event := <-line.Events():
				utils.UncheckedError(di.interrupt.Tick(
					b.cancelCtx, event.RisingEdge, uint64(event.Time.UnixNano())))
			}
		}
	}, b.activeBackgroundWorkers.Done)

	return di, nil
}

func (di *digitalInterrupt) Close() error {
	// The monitor goroutine only consumes the line's event channel, so it
	// is fine for it to wind down after the line is closed.
	return di.line.Close()
}
