package device

import (
	"context"
	"sync"
)

// SimPin is an in-memory pin usable as both input and output.
type SimPin struct {
	mu     sync.Mutex
	high   bool
	writes []bool
	err    error
}

// NewSimPin returns a pin with the given initial level.
func NewSimPin(high bool) *SimPin {
	return &SimPin{high: high}
}

// Read returns the current level, or the injected error.
func (p *SimPin) Read() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high, p.err
}

// Write sets the level and records it.
func (p *SimPin) Write(high bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.high = high
	p.writes = append(p.writes, high)
	return nil
}

// Set changes the level without recording a write, as external hardware would.
func (p *SimPin) Set(high bool) {
	p.mu.Lock()
	p.high = high
	p.mu.Unlock()
}

// Fail makes subsequent reads and writes return err. nil clears it.
func (p *SimPin) Fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// High reports the current level.
func (p *SimPin) High() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high
}

// Writes returns a copy of every level written so far.
func (p *SimPin) Writes() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.writes...)
}

// SimPWM records duty cycles.
type SimPWM struct {
	mu     sync.Mutex
	duties []float64
}

// SetDuty records percent.
func (p *SimPWM) SetDuty(percent float64) error {
	p.mu.Lock()
	p.duties = append(p.duties, percent)
	p.mu.Unlock()
	return nil
}

// Duties returns a copy of every duty cycle set so far.
func (p *SimPWM) Duties() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.duties...)
}

// SimBoard is a Board backed by SimPins, used without hardware and in tests.
type SimBoard struct {
	mu   sync.Mutex
	pins map[int]*SimPin
	pwms map[int]*SimPWM
}

// NewSimBoard creates an empty board. Pins start low.
func NewSimBoard() *SimBoard {
	return &SimBoard{pins: map[int]*SimPin{}, pwms: map[int]*SimPWM{}}
}

// Pin returns the SimPin for a number, creating it on first use.
func (b *SimBoard) Pin(pin int) *SimPin {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pins[pin]
	if !ok {
		p = NewSimPin(false)
		b.pins[pin] = p
	}
	return p
}

// PWM returns the SimPWM for a number, creating it on first use.
func (b *SimBoard) PWM(pin int) *SimPWM {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pwms[pin]
	if !ok {
		p = &SimPWM{}
		b.pwms[pin] = p
	}
	return p
}

func (b *SimBoard) Input(pin int) DigitalInput   { return b.Pin(pin) }
func (b *SimBoard) Output(pin int) DigitalOutput { return b.Pin(pin) }
func (b *SimBoard) PWMChannel(pin int) PWMOutput { return b.PWM(pin) }
func (b *SimBoard) Close() error                 { return nil }

var _ Board = (*SimBoard)(nil)

// JointMove is one recorded servo move.
type JointMove struct {
	ServoID int
	Angle   float64
}

// SimJoints is a JointDriver that records moves instead of driving servos.
type SimJoints struct {
	mu    sync.Mutex
	moves []JointMove
}

// MoveJoint records the move.
func (s *SimJoints) MoveJoint(_ context.Context, servoID int, angle float64) error {
	s.mu.Lock()
	s.moves = append(s.moves, JointMove{ServoID: servoID, Angle: angle})
	s.mu.Unlock()
	return nil
}

// Moves returns a copy of every recorded move.
func (s *SimJoints) Moves() []JointMove {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]JointMove(nil), s.moves...)
}

// Close is a no-op.
func (s *SimJoints) Close() error { return nil }

var _ JointDriver = (*SimJoints)(nil)
