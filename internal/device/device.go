// Package device defines the minimal capability interfaces the vehicle needs from hardware:
// digital pins, PWM channels, servo joints and line-based serial links.
package device

import (
	"errors"
	"time"
)

var (
	// ErrNotOpen is returned when a device is used after Close or before Open.
	ErrNotOpen = errors.New("device not open")
	// ErrTimeout is returned when a read does not complete in time.
	ErrTimeout = errors.New("read timeout")
)

// Device defines an abstract interface for line-based communication devices (e.g. serial).
type Device interface {
	// ReadLine reads a single line terminated by '\n', without the terminator.
	// If timeout > 0, it must return ErrTimeout after timeout even if no data available.
	ReadLine(timeout time.Duration) (string, error)

	// WriteLine writes s followed by '\n' to the device.
	WriteLine(s string) error

	// Close closes the device and releases underlying resources.
	Close() error
}

// DigitalInput is a single binary input. true means the pin reads high.
type DigitalInput interface {
	Read() (bool, error)
}

// DigitalOutput is a single binary output.
type DigitalOutput interface {
	Write(high bool) error
}

// PWMOutput is a pulse-width channel driven by duty cycle in percent.
type PWMOutput interface {
	SetDuty(percent float64) error
}

// Board hands out pins by number. Implementations return the same pin for the same number.
type Board interface {
	Input(pin int) DigitalInput
	Output(pin int) DigitalOutput
	PWMChannel(pin int) PWMOutput
	Close() error
}
