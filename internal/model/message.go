// Package model defines shared message structures for the control channel.
package model

import "time"

// Signal is a control-plane directive. Wire values are short fixed tokens.
type Signal string

const (
	SignalNone        Signal = ""
	SignalStartStream Signal = "SS"
	SignalCloseStream Signal = "CS"
	SignalSwitchMode  Signal = "SCM"
	SignalDisconnect  Signal = "BYE"
	SignalAck         Signal = "ACK"
)

// Known reports whether s is one of the protocol's signal tokens.
func (s Signal) Known() bool {
	switch s {
	case SignalStartStream, SignalCloseStream, SignalSwitchMode, SignalDisconnect, SignalAck:
		return true
	}
	return false
}

// DriveCommand is one of the five discrete motion directives.
type DriveCommand string

const (
	DriveNone        DriveCommand = ""
	DriveForward     DriveCommand = "df"
	DriveBackward    DriveCommand = "db"
	DriveRotateRight DriveCommand = "rr"
	DriveRotateLeft  DriveCommand = "rl"
	DriveStop        DriveCommand = "pb"
)

// ArmCommand moves a single arm joint to a target angle.
type ArmCommand struct {
	JointID string
	Angle   float64
}

// ControlMessage is a decoded control-channel payload. Fields are independent:
// a message may carry a signal, a drive command and an arm command at once.
type ControlMessage struct {
	Signal Signal
	Drive  DriveCommand
	Arm    *ArmCommand
}

// IsEmpty reports whether the message carries nothing to dispatch.
func (m ControlMessage) IsEmpty() bool {
	return m.Signal == SignalNone && m.Drive == DriveNone && m.Arm == nil
}

// DrivingMode selects which source may drive the actuators.
type DrivingMode int32

const (
	ModeManual DrivingMode = iota
	ModeAutonomous
)

func (m DrivingMode) String() string {
	if m == ModeAutonomous {
		return "autonomous"
	}
	return "manual"
}

// VehicleState is a point-in-time snapshot of the vehicle.
type VehicleState struct {
	Idle          bool   `json:"idle"`
	Mode          string `json:"mode"`
	PeakAmplitude int    `json:"peak_amplitude"`
	AutoDriving   bool   `json:"auto_driving"`
	Connected     bool   `json:"connected"`
}

// LineReading is one sample of both line sensors; true means on the black line.
type LineReading struct {
	Left  bool
	Right bool
}

// StatusEvent is published to telemetry sinks on every notable transition.
type StatusEvent struct {
	VehicleID string       `json:"vehicle_id"`
	Kind      string       `json:"kind"`
	Detail    string       `json:"detail,omitempty"`
	Session   string       `json:"session,omitempty"`
	State     VehicleState `json:"state"`
	Timestamp time.Time    `json:"timestamp"`
}

// Status event kinds.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
	EventMode         = "mode"
	EventTrigger      = "trigger"
	EventShutdown     = "shutdown"
)
