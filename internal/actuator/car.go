// Package actuator applies drive states and arm moves to the vehicle's outputs.
package actuator

import (
	"RLoader/internal/device"
	"RLoader/internal/model"
	"RLoader/internal/util"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Car drives four mutually exclusive direction outputs. At most one is ever high.
type Car struct {
	mu      sync.Mutex
	outputs [4]device.DigitalOutput // left, right, backward, forward
	current model.DriveCommand
	log     *logrus.Entry
}

const (
	outLeft = iota
	outRight
	outBackward
	outForward
	outNone = -1
)

// NewCar binds the drive pins from cfg on board.
func NewCar(board device.Board, cfg model.DriveConfig) *Car {
	return &Car{
		outputs: [4]device.DigitalOutput{
			board.Output(cfg.LeftPin),
			board.Output(cfg.RightPin),
			board.Output(cfg.BackwardPin),
			board.Output(cfg.ForwardPin),
		},
		current: model.DriveStop,
		log:     util.For("Car"),
	}
}

// ApplyDrive actuates cmd. Unknown commands are logged and ignored.
func (c *Car) ApplyDrive(cmd model.DriveCommand) error {
	switch cmd {
	case model.DriveForward:
		return c.Forward()
	case model.DriveBackward:
		return c.Backward()
	case model.DriveRotateRight:
		return c.SteerRight()
	case model.DriveRotateLeft:
		return c.SteerLeft()
	case model.DriveStop:
		return c.Brake()
	}
	c.log.Warnf("Can't decide which direction to go. Input: %q", cmd)
	return nil
}

// Forward drives forward.
func (c *Car) Forward() error { return c.set(outForward, model.DriveForward, "Drive Forward.") }

// Backward drives backward.
func (c *Car) Backward() error { return c.set(outBackward, model.DriveBackward, "Drive Backward.") }

// SteerRight rotates right.
func (c *Car) SteerRight() error { return c.set(outRight, model.DriveRotateRight, "Rotated Right.") }

// SteerLeft rotates left.
func (c *Car) SteerLeft() error { return c.set(outLeft, model.DriveRotateLeft, "Rotated Left.") }

// Brake drives every output low.
func (c *Car) Brake() error { return c.set(outNone, model.DriveStop, "Stopped.") }

// Current returns the last applied drive state.
func (c *Car) Current() model.DriveCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Close brakes, leaving every output low.
func (c *Car) Close() error {
	return c.Brake()
}

// set lowers every other output before raising high, so two outputs are never high together.
func (c *Car) set(high int, cmd model.DriveCommand, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for i, out := range c.outputs {
		if i == high {
			continue
		}
		if err := out.Write(false); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("drive %s: %w", cmd, errors.Join(errs...))
	}
	if high != outNone {
		if err := c.outputs[high].Write(true); err != nil {
			return fmt.Errorf("drive %s: %w", cmd, err)
		}
	}
	c.current = cmd
	c.log.Debug(msg)
	return nil
}
