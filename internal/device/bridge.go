// Package device implements a microcontroller bridge that exposes GPIO and PWM
// over a line-based serial protocol.
package device

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Bridge talks to a serial-attached microcontroller that owns the physical pins.
//
// Protocol, one request and one reply per line:
//
//	SET <pin> <0|1>    -> OK
//	GET <pin>          -> 0 | 1
//	PWM <pin> <duty>   -> OK
type Bridge struct {
	mu      sync.Mutex
	dev     Device
	timeout time.Duration
}

// NewBridge wraps dev. timeout bounds the wait for each reply.
func NewBridge(dev Device, timeout time.Duration) *Bridge {
	return &Bridge{dev: dev, timeout: timeout}
}

// OpenSerialBridge opens the serial device and wraps it in a Bridge.
func OpenSerialBridge(path string, baud int, timeout time.Duration) (*Bridge, error) {
	dev, err := NewSerialDevice(path, baud)
	if err != nil {
		return nil, fmt.Errorf("open bridge: %w", err)
	}
	return NewBridge(dev, timeout), nil
}

func (b *Bridge) request(format string, args ...any) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dev == nil {
		return "", ErrNotOpen
	}
	req := fmt.Sprintf(format, args...)
	if err := b.dev.WriteLine(req); err != nil {
		return "", fmt.Errorf("bridge write %q: %w", req, err)
	}
	reply, err := b.dev.ReadLine(b.timeout)
	if err != nil {
		return "", fmt.Errorf("bridge reply to %q: %w", req, err)
	}
	return strings.TrimSpace(reply), nil
}

func (b *Bridge) expectOK(format string, args ...any) error {
	reply, err := b.request(format, args...)
	if err != nil {
		return err
	}
	if reply != "OK" {
		return fmt.Errorf("bridge: unexpected reply %q", reply)
	}
	return nil
}

// Set drives a pin high or low.
func (b *Bridge) Set(pin int, high bool) error {
	v := 0
	if high {
		v = 1
	}
	return b.expectOK("SET %d %d", pin, v)
}

// Get samples a pin.
func (b *Bridge) Get(pin int) (bool, error) {
	reply, err := b.request("GET %d", pin)
	if err != nil {
		return false, err
	}
	switch reply {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("bridge: unexpected reply %q", reply)
}

// PWM sets the duty cycle of a pin in percent.
func (b *Bridge) PWM(pin int, duty float64) error {
	return b.expectOK("PWM %d %s", pin, strconv.FormatFloat(duty, 'f', 2, 64))
}

// Input returns pin as a DigitalInput.
func (b *Bridge) Input(pin int) DigitalInput { return bridgePin{b: b, pin: pin} }

// Output returns pin as a DigitalOutput.
func (b *Bridge) Output(pin int) DigitalOutput { return bridgePin{b: b, pin: pin} }

// PWMChannel returns pin as a PWMOutput.
func (b *Bridge) PWMChannel(pin int) PWMOutput { return bridgePin{b: b, pin: pin} }

// Close terminates the serial connection safely.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dev == nil {
		return nil
	}
	err := b.dev.Close()
	b.dev = nil
	return err
}

type bridgePin struct {
	b   *Bridge
	pin int
}

func (p bridgePin) Read() (bool, error)           { return p.b.Get(p.pin) }
func (p bridgePin) Write(high bool) error         { return p.b.Set(p.pin, high) }
func (p bridgePin) SetDuty(percent float64) error { return p.b.PWM(p.pin, percent) }

var _ Board = (*Bridge)(nil)
