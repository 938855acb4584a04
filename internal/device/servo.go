package device

import (
	"context"
	"fmt"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// STS servos resolve one turn into 4096 steps.
const (
	servoRawMin = 0
	servoRawMax = 4095
)

// JointDriver moves one servo, addressed by bus id, to an angle in degrees.
type JointDriver interface {
	MoveJoint(ctx context.Context, servoID int, angle float64) error
	Close() error
}

// ServoBus drives arm joints on a Feetech STS bus.
type ServoBus struct {
	bus   *feetech.Bus
	group *feetech.ServoGroup
}

// OpenServoBus opens the bus on port and enables torque on ids.
func OpenServoBus(ctx context.Context, port string, baud int, ids []int) (*ServoBus, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: baud,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	group := feetech.NewServoGroupByIDs(bus, ids...)
	if err := group.EnableAll(ctx); err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("enable torque: %w", err)
	}
	return &ServoBus{bus: bus, group: group}, nil
}

// MoveJoint writes the raw position for angle to servoID.
func (s *ServoBus) MoveJoint(ctx context.Context, servoID int, angle float64) error {
	pos := feetech.PositionMap{servoID: AngleToRaw(angle)}
	if err := s.group.SetPositions(ctx, pos); err != nil {
		return fmt.Errorf("write position: %w", err)
	}
	return nil
}

// Close disables torque and closes the bus.
func (s *ServoBus) Close() error {
	_ = s.group.DisableAll(context.Background())
	return s.bus.Close()
}

// AngleToRaw maps [-180, 180] degrees linearly onto the raw position range.
// Angles outside the range are clamped.
func AngleToRaw(angle float64) int {
	if angle < -180 {
		angle = -180
	}
	if angle > 180 {
		angle = 180
	}
	return servoRawMin + int((angle+180)/360*float64(servoRawMax-servoRawMin)+0.5)
}

var _ JointDriver = (*ServoBus)(nil)
