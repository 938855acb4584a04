// Package wcu is the operator side of the control channel.
package wcu

import (
	"RLoader/internal/model"
	"RLoader/internal/parser"
	"RLoader/internal/util"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNotConnected is returned after Close.
var ErrNotConnected = errors.New("wcu: not connected")

// Client sends control messages to a vehicle.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	parser  parser.Parser
	timeout time.Duration
	log     *logrus.Entry
}

// Dial connects to the vehicle at addr. timeout bounds the dial and every
// wait for an ACK.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	log := util.For("ConnectionService")
	log.Info("Connecting to robot...")
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	util.Success(log, "Established a connection to robot at %s", addr)
	return &Client{conn: conn, parser: parser.NewJSONParser(), timeout: timeout, log: log}, nil
}

// Send writes one message.
func (c *Client) Send(msg model.ControlMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(msg)
}

func (c *Client) send(msg model.ControlMessage) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	b, err := c.parser.Encode(msg)
	if err != nil {
		return err
	}
	if c.timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	if _, err := c.conn.Write(b); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	c.log.Debugf("Sent %s", b)
	return nil
}

// RequestSignal sends sig and reports whether the vehicle acknowledged it.
// BYE is never acknowledged, so it reports true once sent. A missing ACK
// within the timeout reports false without an error.
func (c *Client) RequestSignal(sig model.Signal) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.send(model.ControlMessage{Signal: sig}); err != nil {
		return false, err
	}
	if sig == model.SignalDisconnect {
		return true, nil
	}

	if c.timeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	buf := make([]byte, len(model.SignalAck))
	if _, err := io.ReadFull(c.conn, buf); err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			c.log.Warnf("No ACK for %s", sig)
			return false, nil
		}
		return false, fmt.Errorf("await ack: %w", err)
	}
	return parser.DecodeSignal(buf) == model.SignalAck, nil
}

// Drive sends a drive command.
func (c *Client) Drive(cmd model.DriveCommand) error {
	return c.Send(model.ControlMessage{Drive: cmd})
}

// MoveJoint sends an arm move.
func (c *Client) MoveJoint(jid string, angle float64) error {
	return c.Send(model.ControlMessage{Arm: &model.ArmCommand{JointID: jid, Angle: angle}})
}

// Close closes the connection. Later calls return ErrNotConnected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	err := c.conn.Close()
	c.conn = nil
	c.log.Info("Closed connection.")
	return err
}
