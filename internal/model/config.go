// Package model defines shared configuration structures used to initialize the robot.
// Defaults are compiled in; a YAML file may override any subset of them.
package model

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the root structure loaded from an optional YAML file.
type Config struct {
	VehicleID string          `yaml:"vehicle_id"`
	LogLevel  string          `yaml:"log_level"`
	Network   NetworkConfig   `yaml:"network"`
	Sound     SoundConfig     `yaml:"sound"`
	Line      LineConfig      `yaml:"line"`
	Drive     DriveConfig     `yaml:"drive"`
	Arm       ArmConfig       `yaml:"arm"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// NetworkConfig defines the control channel and the reserved video port.
type NetworkConfig struct {
	Host           string        `yaml:"host"`
	ControlPort    int           `yaml:"control_port"`
	VideoPort      int           `yaml:"video_port"`
	BufferSize     int           `yaml:"buffer_size"`
	AcceptTimeout  time.Duration `yaml:"accept_timeout"`
	ReceiveTimeout time.Duration `yaml:"receive_timeout"`
}

// ControlAddr returns host:port of the control channel.
func (n NetworkConfig) ControlAddr() string {
	return fmt.Sprintf("%s:%d", n.Host, n.ControlPort)
}

// SoundConfig configures the buzzer detector.
type SoundConfig struct {
	Pin            int           `yaml:"pin"`
	ActiveLow      bool          `yaml:"active_low"`
	SampleTime     time.Duration `yaml:"sample_time"`
	DetectionValue int           `yaml:"detection_value"`
	PollInterval   time.Duration `yaml:"poll_interval"`
}

// LineConfig configures the two line-following sensors.
type LineConfig struct {
	LeftPin  int           `yaml:"left_pin"`
	RightPin int           `yaml:"right_pin"`
	Pacing   time.Duration `yaml:"pacing"`
}

// DriveConfig maps the four mutually exclusive drive outputs to pins.
type DriveConfig struct {
	LeftPin     int `yaml:"left_pin"`
	RightPin    int `yaml:"right_pin"`
	BackwardPin int `yaml:"backward_pin"`
	ForwardPin  int `yaml:"forward_pin"`
}

// ArmConfig configures the arm joints. ServoIDs maps joint ids to servo bus ids;
// when ServoPort is empty joint moves are only logged.
type ArmConfig struct {
	ServoPort    string         `yaml:"servo_port"`
	ServoBaud    int            `yaml:"servo_baud"`
	ServoIDs     map[string]int `yaml:"servo_ids"`
	GripperJoint string         `yaml:"gripper_joint"`
	GripperPin   int            `yaml:"gripper_pin"`
	GripperHold  time.Duration  `yaml:"gripper_hold"`
}

// BridgeConfig selects the pin backend: a serial-attached microcontroller or simulation.
type BridgeConfig struct {
	Device   string        `yaml:"device"`
	Baud     int           `yaml:"baud"`
	Timeout  time.Duration `yaml:"timeout"`
	Simulate bool          `yaml:"simulate"`
}

// TelemetryConfig defines the status sinks. Empty values disable a sink.
type TelemetryConfig struct {
	HubAddr     string `yaml:"hub_addr"`
	MQTTBroker  string `yaml:"mqtt_broker"`
	MQTTClient  string `yaml:"mqtt_client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// DefaultConfig returns the compiled-in configuration.
func DefaultConfig() Config {
	return Config{
		VehicleID: "rloader",
		LogLevel:  "info",
		Network: NetworkConfig{
			ControlPort:    2001,
			VideoPort:      2005,
			BufferSize:     1024,
			AcceptTimeout:  20 * time.Second,
			ReceiveTimeout: 5 * time.Second,
		},
		Sound: SoundConfig{
			Pin:            16,
			ActiveLow:      true,
			SampleTime:     15 * time.Millisecond,
			DetectionValue: 100,
		},
		Line: LineConfig{
			LeftPin:  21,
			RightPin: 20,
			Pacing:   100 * time.Millisecond,
		},
		Drive: DriveConfig{
			LeftPin:     1,
			RightPin:    7,
			BackwardPin: 8,
			ForwardPin:  25,
		},
		Arm: ArmConfig{
			ServoBaud: 1_000_000,
			ServoIDs: map[string]int{
				"joint_1": 1,
				"joint_2": 2,
				"joint_3": 3,
				"joint_4": 4,
				"joint_5": 5,
			},
			GripperJoint: "joint_6",
			GripperPin:   18,
			GripperHold:  500 * time.Millisecond,
		},
		Bridge: BridgeConfig{
			Device:  "/dev/ttyACM0",
			Baud:    115200,
			Timeout: 200 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			HubAddr:     ":2010",
			MQTTClient:  "rloader-robot",
			TopicPrefix: "rloader",
		},
	}
}

// Validate rejects values the runtime cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.Network.ControlPort < 0 || c.Network.ControlPort > 65535 {
		errs = append(errs, fmt.Errorf("network.control_port %d out of range", c.Network.ControlPort))
	}
	if c.Network.BufferSize <= 0 {
		errs = append(errs, errors.New("network.buffer_size must be positive"))
	}
	if c.Sound.SampleTime <= 0 {
		errs = append(errs, errors.New("sound.sample_time must be positive"))
	}
	if c.Sound.DetectionValue <= 0 {
		errs = append(errs, errors.New("sound.detection_value must be positive"))
	}
	if c.Arm.GripperJoint != "" {
		if _, ok := c.Arm.ServoIDs[c.Arm.GripperJoint]; ok {
			errs = append(errs, fmt.Errorf("arm.gripper_joint %s is also a servo joint", c.Arm.GripperJoint))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig overlays the YAML file at path onto DefaultConfig.
// An empty path returns the defaults unchanged. A servo_ids map in the file
// replaces the default joint map as a whole.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	defaultIDs := cfg.Arm.ServoIDs
	cfg.Arm.ServoIDs = nil
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Arm.ServoIDs == nil {
		cfg.Arm.ServoIDs = defaultIDs
	}
	return cfg, nil
}
