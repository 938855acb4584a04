package core

import (
	"RLoader/internal/device"
	"RLoader/internal/model"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystem_Lifecycle(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Bridge.Simulate = true
	cfg.Telemetry.HubAddr = ""
	cfg.Network.Host = "127.0.0.1"
	cfg.Network.ControlPort = 0
	cfg.Network.AcceptTimeout = 50 * time.Millisecond
	cfg.Network.ReceiveTimeout = 50 * time.Millisecond

	bye := make(chan struct{}, 1)
	sys, err := NewSystem(context.Background(), cfg, func() { bye <- struct{}{} })
	require.NoError(t, err)
	require.IsType(t, &device.SimBoard{}, sys.Board)
	require.IsType(t, &device.SimJoints{}, sys.Joints)

	require.NoError(t, sys.StartAll(context.Background()))
	require.NoError(t, sys.StartAll(context.Background()), "second start is a no-op")

	select {
	case <-sys.Server.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("control server did not bind")
	}

	conn, err := net.Dial("tcp", sys.Server.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"cmd":"db"}`))
	require.NoError(t, err)
	board := sys.Board.(*device.SimBoard)
	require.Eventually(t, func() bool {
		return board.Pin(cfg.Drive.BackwardPin).High()
	}, time.Second, time.Millisecond)

	_, err = conn.Write([]byte(`{"signal":"BYE"}`))
	require.NoError(t, err)
	select {
	case <-bye:
	case <-time.After(time.Second):
		t.Fatal("BYE did not request shutdown")
	}

	sys.StopAll()
	assert.False(t, board.Pin(cfg.Drive.BackwardPin).High(), "actuators released on stop")
	sys.StopAll()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, err = conn.Read(make([]byte, 4))
	assert.ErrorIs(t, err, io.EOF)
}

func TestSystem_MissingBridgeFallsBack(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Bridge.Device = "/dev/rloader-does-not-exist"
	cfg.Telemetry.HubAddr = ""

	sys, err := NewSystem(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &device.SimBoard{}, sys.Board)
}

func TestSystem_RejectsInvalidConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Sound.SampleTime = 0
	_, err := NewSystem(context.Background(), cfg, nil)
	assert.Error(t, err)
}
