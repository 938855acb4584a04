package core

import (
	"RLoader/internal/actuator"
	"RLoader/internal/device"
	"RLoader/internal/model"
	"RLoader/internal/sensor"
	"RLoader/internal/telemetry"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []model.StatusEvent
}

var _ telemetry.Reporter = (*recorder)(nil)

func (r *recorder) Report(ev model.StatusEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

type rig struct {
	cfg    model.Config
	board  *device.SimBoard
	joints *device.SimJoints
	rec    *recorder
	v      *Vehicle
	driver *AutoDriver
}

// newRig builds a simulated vehicle with a silent buzzer and fast timings.
func newRig(t *testing.T) *rig {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Sound.SampleTime = time.Millisecond
	cfg.Sound.DetectionValue = 3
	cfg.Line.Pacing = time.Millisecond
	cfg.Arm.GripperHold = time.Millisecond

	board := device.NewSimBoard()
	board.Pin(cfg.Sound.Pin).Set(true)
	joints := &device.SimJoints{}

	car := actuator.NewCar(board, cfg.Drive)
	arm := actuator.NewArm(cfg.Arm, joints, board)
	sound := sensor.NewSoundSensor(board.Input(cfg.Sound.Pin), cfg.Sound.ActiveLow, cfg.Sound.SampleTime, cfg.Sound.DetectionValue)
	lines := sensor.LinePair{
		Left:  sensor.NewLineSensor(board.Input(cfg.Line.LeftPin)),
		Right: sensor.NewLineSensor(board.Input(cfg.Line.RightPin)),
	}

	rec := &recorder{}
	v := NewVehicle("test", car, arm, sound, lines)
	v.Reporter = rec
	d := NewAutoDriver(v, cfg.Line.Pacing, 0)
	t.Cleanup(d.Stop)

	return &rig{cfg: cfg, board: board, joints: joints, rec: rec, v: v, driver: d}
}

func (r *rig) driveWrites() int {
	n := 0
	for _, pin := range []int{r.cfg.Drive.LeftPin, r.cfg.Drive.RightPin, r.cfg.Drive.BackwardPin, r.cfg.Drive.ForwardPin} {
		n += len(r.board.Pin(pin).Writes())
	}
	return n
}

func (r *rig) highOutputs() []int {
	var out []int
	for _, pin := range []int{r.cfg.Drive.LeftPin, r.cfg.Drive.RightPin, r.cfg.Drive.BackwardPin, r.cfg.Drive.ForwardPin} {
		if r.board.Pin(pin).High() {
			out = append(out, pin)
		}
	}
	return out
}

func (r *rig) buzz() {
	r.board.Pin(r.cfg.Sound.Pin).Set(false)
}
