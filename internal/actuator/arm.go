package actuator

import (
	"RLoader/internal/device"
	"RLoader/internal/model"
	"RLoader/internal/util"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Joint angle limits in degrees.
const (
	MinAngle = -180.0
	MaxAngle = 180.0
)

// Servo duty cycles at 50Hz: 0.5ms, 1.5ms and 2.5ms pulses.
const (
	DutyClosed = 2.5
	DutyCenter = 7.5
	DutyOpen   = 12.5
)

// ClampAngle limits a target to [MinAngle, MaxAngle].
func ClampAngle(a float64) float64 {
	if a < MinAngle {
		return MinAngle
	}
	if a > MaxAngle {
		return MaxAngle
	}
	return a
}

// Joint is a positional arm joint on the servo bus.
type Joint struct {
	ID      string
	servoID int
	driver  device.JointDriver
	angle   float64
}

// Gripper is a PWM servo pulsed to a binary target and then returned to center.
type Gripper struct {
	ID   string
	pwm  device.PWMOutput
	hold time.Duration
	last float64
}

// Pulse moves to open (target > 0) or closed, holds, then recenters.
func (g *Gripper) Pulse(ctx context.Context, target float64) error {
	duty := DutyClosed
	if target > 0 {
		duty = DutyOpen
	}
	if err := g.pwm.SetDuty(duty); err != nil {
		return fmt.Errorf("gripper %s: %w", g.ID, err)
	}
	g.last = target

	t := time.NewTimer(g.hold)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}

	if err := g.pwm.SetDuty(DutyCenter); err != nil {
		return fmt.Errorf("gripper %s recenter: %w", g.ID, err)
	}
	return nil
}

// Arm routes joint moves by joint id.
type Arm struct {
	mu      sync.Mutex
	joints  map[string]*Joint
	gripper *Gripper
	log     *logrus.Entry
}

// NewArm builds the joints listed in cfg.ServoIDs on driver and the gripper on board.
func NewArm(cfg model.ArmConfig, driver device.JointDriver, board device.Board) *Arm {
	a := &Arm{joints: map[string]*Joint{}, log: util.For("Arm")}
	for id, servoID := range cfg.ServoIDs {
		if id == cfg.GripperJoint {
			continue
		}
		a.joints[id] = &Joint{ID: id, servoID: servoID, driver: driver}
	}
	if cfg.GripperJoint != "" {
		a.gripper = &Gripper{ID: cfg.GripperJoint, pwm: board.PWMChannel(cfg.GripperPin), hold: cfg.GripperHold}
	}
	return a
}

// ApplyArmJoint moves joint jid. Unknown joints are logged and ignored.
func (a *Arm) ApplyArmJoint(ctx context.Context, jid string, target float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.gripper != nil && jid == a.gripper.ID {
		if err := a.gripper.Pulse(ctx, target); err != nil {
			return err
		}
		util.Success(a.log, "%s pulsed to %v", jid, target)
		return nil
	}

	j, ok := a.joints[jid]
	if !ok {
		a.log.Warnf("Unknown joint %q", jid)
		return nil
	}
	angle := ClampAngle(target)
	if err := j.driver.MoveJoint(ctx, j.servoID, angle); err != nil {
		return fmt.Errorf("joint %s: %w", jid, err)
	}
	j.angle = angle
	util.Success(a.log, "%s moved to angle %v", jid, angle)
	return nil
}

// Angle returns the last commanded angle of a positional joint.
func (a *Arm) Angle(jid string) (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	j, ok := a.joints[jid]
	if !ok {
		return 0, false
	}
	return j.angle, true
}

// Joints lists every joint id, gripper included, in order.
func (a *Arm) Joints() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]string, 0, len(a.joints)+1)
	for id := range a.joints {
		ids = append(ids, id)
	}
	if a.gripper != nil {
		ids = append(ids, a.gripper.ID)
	}
	sort.Strings(ids)
	return ids
}
