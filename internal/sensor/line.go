package sensor

import (
	"RLoader/internal/device"
	"RLoader/internal/model"
	"fmt"
)

// LineSensor reads high while over the black line.
type LineSensor struct {
	pin device.DigitalInput
}

// NewLineSensor wraps pin.
func NewLineSensor(pin device.DigitalInput) *LineSensor {
	return &LineSensor{pin: pin}
}

// OnBlack reports whether the sensor sees the line.
func (l *LineSensor) OnBlack() (bool, error) {
	return l.pin.Read()
}

// LinePair samples the left and right sensors together.
type LinePair struct {
	Left  *LineSensor
	Right *LineSensor
}

// Read samples both sensors back to back. No debouncing is applied.
func (p LinePair) Read() (model.LineReading, error) {
	left, err := p.Left.OnBlack()
	if err != nil {
		return model.LineReading{}, fmt.Errorf("left line sensor: %w", err)
	}
	right, err := p.Right.OnBlack()
	if err != nil {
		return model.LineReading{}, fmt.Errorf("right line sensor: %w", err)
	}
	return model.LineReading{Left: left, Right: right}, nil
}
