//go:build !linux

// Package linuxboard drives real hardware through the Linux GPIO character
// device and sysfs PWM chips. On non-Linux platforms it only exists to let
// the rest of the tree compile.
package linuxboard

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/roamer-robotics/roamer/board"
)

// Board is implemented in the Linux version.
type Board struct{}

// NewBoard always errors off Linux.
func NewBoard(ctx context.Context, chipDev string, logger golog.Logger) (*Board, error) {
	return nil, errors.New("linuxboard is only supported on linux")
}

// GPIOPinByName is implemented in the Linux version.
func (b *Board) GPIOPinByName(name string) (board.GPIOPin, error) {
	return nil, errors.New("linuxboard is only supported on linux")
}

// DigitalInterruptByName is implemented in the Linux version.
func (b *Board) DigitalInterruptByName(name string) (board.DigitalInterrupt, error) {
	return nil, errors.New("linuxboard is only supported on linux")
}

// Close is implemented in the Linux version.
func (b *Board) Close(ctx context.Context) error {
	return nil
}
