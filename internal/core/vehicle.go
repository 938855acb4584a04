package core

import (
	"RLoader/internal/actuator"
	"RLoader/internal/model"
	"RLoader/internal/sensor"
	"RLoader/internal/telemetry"
	"RLoader/internal/util"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Vehicle is the single shared context the connection manager and the
// autonomous driver operate on. Only the connection manager writes the mode.
type Vehicle struct {
	ID       string
	Car      *actuator.Car
	Arm      *actuator.Arm
	Sound    *sensor.SoundSensor
	Lines    sensor.LinePair
	Reporter telemetry.Reporter

	mode      atomic.Int32
	idle      atomic.Bool
	driving   atomic.Bool
	connected atomic.Bool
	log       *logrus.Entry
}

// NewVehicle assembles a vehicle in manual mode.
func NewVehicle(id string, car *actuator.Car, arm *actuator.Arm, sound *sensor.SoundSensor, lines sensor.LinePair) *Vehicle {
	v := &Vehicle{
		ID:    id,
		Car:   car,
		Arm:   arm,
		Sound: sound,
		Lines: lines,
		log:   util.For("Vehicle").WithField("vehicle", id),
	}
	v.idle.Store(true)
	return v
}

// Mode returns the current driving mode.
func (v *Vehicle) Mode() model.DrivingMode {
	return model.DrivingMode(v.mode.Load())
}

// swapMode moves from old to next atomically. It reports false if the mode
// was not old.
func (v *Vehicle) swapMode(old, next model.DrivingMode) bool {
	return v.mode.CompareAndSwap(int32(old), int32(next))
}

// State returns a snapshot of the vehicle.
func (v *Vehicle) State() model.VehicleState {
	st := model.VehicleState{
		Idle:        v.idle.Load(),
		Mode:        v.Mode().String(),
		AutoDriving: v.driving.Load(),
		Connected:   v.connected.Load(),
	}
	if v.Sound != nil {
		st.PeakAmplitude = v.Sound.Peak()
	}
	return st
}

// emit reports kind with the current state snapshot.
func (v *Vehicle) emit(kind, detail, session string) {
	if v.Reporter == nil {
		return
	}
	v.Reporter.Report(model.StatusEvent{
		VehicleID: v.ID,
		Kind:      kind,
		Detail:    detail,
		Session:   session,
		State:     v.State(),
		Timestamp: time.Now().UTC(),
	})
}

// Close brakes and releases the actuators.
func (v *Vehicle) Close() error {
	if v.Car == nil {
		return nil
	}
	if err := v.Car.Close(); err != nil {
		v.log.Errorf("Release actuators: %v", err)
		return err
	}
	v.log.Info("Actuators released.")
	return nil
}
