// Package device reads Linux joystick devices (/dev/input/jsN).
package device

import (
	"errors"
	"io"
)

// ErrNotSupported is returned on platforms without joystick support.
var ErrNotSupported = errors.New("joystick not supported on this platform")

// Event is a change reported by the device.
type Event interface {
	// IsInit indicates the event reports the initial state.
	IsInit() bool
	// Index is the axis or button number.
	Index() int
}

// AxisEvent is the new position of an axis, in [-32767, 32767].
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent is the new state of a button.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device is an opened joystick.
type Device interface {
	io.Closer
	Index() int
	Name() string
	AxisCount() int
	ButtonCount() int
	// ReadEvent blocks until the next event.
	ReadEvent() (Event, error)
}
