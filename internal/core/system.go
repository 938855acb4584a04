// Package core contains the runtime of the vehicle: the shared Vehicle
// context, the autonomous driver, the control connection manager and the
// System that wires them to hardware and telemetry.
package core

import (
	"RLoader/internal/actuator"
	"RLoader/internal/device"
	"RLoader/internal/model"
	"RLoader/internal/parser"
	"RLoader/internal/sensor"
	"RLoader/internal/telemetry"
	"RLoader/internal/util"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// System manages the lifecycle of the vehicle process.
type System struct {
	cfg     model.Config
	Board   device.Board
	Joints  device.JointDriver
	Vehicle *Vehicle
	Driver  *AutoDriver
	Server  *Server
	Hub     *telemetry.Hub
	MQTT    *telemetry.MQTTPublisher
	log     *logrus.Entry

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	started   bool
	startLock sync.Mutex
}

// NewSystem builds every component from cfg. Hardware that cannot be opened
// is replaced by its simulated counterpart so the control channel stays up.
// shutdown is called when a client sends BYE.
func NewSystem(ctx context.Context, cfg model.Config, shutdown func()) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &System{cfg: cfg, log: util.For("System")}

	s.Board = s.openBoard()
	s.Joints = s.openJoints(ctx)

	car := actuator.NewCar(s.Board, cfg.Drive)
	arm := actuator.NewArm(cfg.Arm, s.Joints, s.Board)
	sound := sensor.NewSoundSensor(s.Board.Input(cfg.Sound.Pin), cfg.Sound.ActiveLow, cfg.Sound.SampleTime, cfg.Sound.DetectionValue)
	lines := sensor.LinePair{
		Left:  sensor.NewLineSensor(s.Board.Input(cfg.Line.LeftPin)),
		Right: sensor.NewLineSensor(s.Board.Input(cfg.Line.RightPin)),
	}
	s.Vehicle = NewVehicle(cfg.VehicleID, car, arm, sound, lines)
	s.Driver = NewAutoDriver(s.Vehicle, cfg.Line.Pacing, cfg.Sound.PollInterval)

	if cfg.Telemetry.HubAddr != "" {
		s.Hub = telemetry.NewHub(cfg.Telemetry.HubAddr, s.Vehicle.State)
	}
	if cfg.Telemetry.MQTTBroker != "" {
		pub, err := telemetry.DialMQTT(cfg.Telemetry, cfg.VehicleID, 5*time.Second)
		if err != nil {
			s.log.Warnf("MQTT disabled: %v", err)
		} else {
			s.MQTT = pub
		}
	}
	s.Vehicle.Reporter = telemetry.NewFanout(s.Hub, s.MQTT)

	s.Server = NewServer(cfg.Network, s.Vehicle, s.Driver, parser.NewJSONParser(), NewLogStreamer(cfg.Network.VideoPort), shutdown)
	return s, nil
}

func (s *System) openBoard() device.Board {
	if s.cfg.Bridge.Simulate {
		s.log.Info("Using simulated pins.")
		return device.NewSimBoard()
	}
	b, err := device.OpenSerialBridge(s.cfg.Bridge.Device, s.cfg.Bridge.Baud, s.cfg.Bridge.Timeout)
	if err != nil {
		s.log.Warnf("Open pin bridge %s: %v. Falling back to simulated pins.", s.cfg.Bridge.Device, err)
		return device.NewSimBoard()
	}
	util.Success(s.log, "Pin bridge ready on %s", s.cfg.Bridge.Device)
	return b
}

func (s *System) openJoints(ctx context.Context) device.JointDriver {
	if s.cfg.Arm.ServoPort == "" {
		s.log.Info("No servo port configured. Arm moves are simulated.")
		return &device.SimJoints{}
	}
	ids := make([]int, 0, len(s.cfg.Arm.ServoIDs))
	for _, id := range s.cfg.Arm.ServoIDs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	bus, err := device.OpenServoBus(ctx, s.cfg.Arm.ServoPort, s.cfg.Arm.ServoBaud, ids)
	if err != nil {
		s.log.Warnf("Open servo bus %s: %v. Arm moves are simulated.", s.cfg.Arm.ServoPort, err)
		return &device.SimJoints{}
	}
	util.Success(s.log, "Servo bus ready on %s", s.cfg.Arm.ServoPort)
	return bus
}

// StartAll starts the status hub and the control server in the background.
func (s *System) StartAll(ctx context.Context) error {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if s.started {
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)

	if s.Hub != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.Hub.Start(); err != nil {
				s.log.Errorf("Status hub: %v", err)
			}
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Server.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Errorf("Control server: %v", err)
		}
	}()

	s.started = true
	return nil
}

// StopAll stops the driver and the servers, then releases the hardware.
func (s *System) StopAll() {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if !s.started {
		return
	}
	s.cancel()
	s.Driver.Stop()
	if s.Hub != nil {
		s.Hub.Stop()
	}
	s.wg.Wait()

	s.Vehicle.emit(model.EventShutdown, "stopped", "")
	if s.MQTT != nil {
		s.MQTT.Close()
	}
	_ = s.Vehicle.Close()
	if err := s.Joints.Close(); err != nil {
		s.log.Warnf("Close servo bus: %v", err)
	}
	if err := s.Board.Close(); err != nil {
		s.log.Warnf("Close pin bridge: %v", err)
	}
	s.started = false
	s.log.Info("All components stopped.")
}
