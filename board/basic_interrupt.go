package board

import (
	"context"
	"sync"
	"sync/atomic"
)

// BasicDigitalInterrupt fans edge events out to subscribed channels and
// counts rising edges. It is safe for concurrent use; sends to a subscriber
// block until received or the tick's context ends, so a subscriber that
// wants to keep its producer moving should use a buffered channel.
type BasicDigitalInterrupt struct {
	count atomic.Int64

	mu        sync.RWMutex
	callbacks []chan Tick
}

// Tick injects one edge and delivers it to every subscriber.
func (i *BasicDigitalInterrupt) Tick(ctx context.Context, high bool, nanosec uint64) error {
	if high {
		i.count.Add(1)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, ch := range i.callbacks {
		select {
		case ch <- Tick{High: high, TimestampNanosec: nanosec}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// AddCallback subscribes a channel to edge events.
func (i *BasicDigitalInterrupt) AddCallback(ch chan Tick) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.callbacks = append(i.callbacks, ch)
}

// RemoveCallback unsubscribes a channel previously added.
func (i *BasicDigitalInterrupt) RemoveCallback(ch chan Tick) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for idx, cb := range i.callbacks {
		if cb == ch {
			i.callbacks = append(i.callbacks[:idx], i.callbacks[idx+1:]...)
			break
		}
	}
}

// Value returns the number of rising edges observed since creation.
func (i *BasicDigitalInterrupt) Value() int64 {
	return i.count.Load()
}
