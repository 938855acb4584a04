package core

import (
	"RLoader/internal/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideDrive(t *testing.T) {
	tests := []struct {
		left, right bool
		want        model.DriveCommand
	}{
		{false, false, model.DriveForward},
		{false, true, model.DriveRotateRight},
		{true, false, model.DriveRotateLeft},
		{true, true, model.DriveStop},
	}
	for _, tt := range tests {
		got := DecideDrive(model.LineReading{Left: tt.left, Right: tt.right})
		assert.Equal(t, tt.want, got, "left=%v right=%v", tt.left, tt.right)
		// no hysteresis: the same reading always maps to the same command
		assert.Equal(t, got, DecideDrive(model.LineReading{Left: tt.left, Right: tt.right}))
	}
}

func TestAutoDriver_StartIsIdempotent(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	require.True(t, r.driver.Start(ctx))
	assert.False(t, r.driver.Start(ctx))
	assert.True(t, r.driver.Running())
	assert.True(t, r.v.State().AutoDriving)

	r.driver.Stop()
	assert.False(t, r.driver.Running())
	assert.False(t, r.v.State().AutoDriving)

	// stopping twice is harmless, and the driver can run again
	r.driver.Stop()
	require.True(t, r.driver.Start(ctx))
}

func TestAutoDriver_SilenceKeepsListening(t *testing.T) {
	r := newRig(t)
	require.True(t, r.driver.Start(context.Background()))

	time.Sleep(20 * time.Millisecond)
	st := r.v.State()
	assert.True(t, st.Idle)
	assert.Equal(t, 0, st.PeakAmplitude)
	assert.Zero(t, r.driveWrites())
}

func TestAutoDriver_TriggerStartsLineFollowing(t *testing.T) {
	r := newRig(t)
	require.True(t, r.driver.Start(context.Background()))

	r.buzz()
	require.Eventually(t, func() bool {
		return !r.v.State().Idle && r.v.Car.Current() == model.DriveForward
	}, time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, r.v.State().PeakAmplitude, r.cfg.Sound.DetectionValue)
	assert.Contains(t, r.rec.kinds(), model.EventTrigger)

	r.board.Pin(r.cfg.Line.RightPin).Set(true)
	require.Eventually(t, func() bool {
		return r.v.Car.Current() == model.DriveRotateRight
	}, time.Second, time.Millisecond)

	r.board.Pin(r.cfg.Line.LeftPin).Set(true)
	require.Eventually(t, func() bool {
		return r.v.Car.Current() == model.DriveStop
	}, time.Second, time.Millisecond)

	r.board.Pin(r.cfg.Line.RightPin).Set(false)
	require.Eventually(t, func() bool {
		return r.v.Car.Current() == model.DriveRotateLeft
	}, time.Second, time.Millisecond)

	r.driver.Stop()
	st := r.v.State()
	assert.Equal(t, model.DriveStop, r.v.Car.Current(), "brakes on exit")
	assert.Empty(t, r.highOutputs())
	assert.Equal(t, 0, st.PeakAmplitude)
	assert.True(t, st.Idle)
}

func TestAutoDriver_LineReadErrorBrakes(t *testing.T) {
	r := newRig(t)
	require.True(t, r.driver.Start(context.Background()))
	r.buzz()
	require.Eventually(t, func() bool {
		return r.v.Car.Current() == model.DriveForward
	}, time.Second, time.Millisecond)

	r.board.Pin(r.cfg.Line.LeftPin).Fail(assert.AnError)
	require.Eventually(t, func() bool {
		return r.v.Car.Current() == model.DriveStop
	}, time.Second, time.Millisecond)
}

func TestAutoDriver_StopsWithContext(t *testing.T) {
	r := newRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, r.driver.Start(ctx))

	cancel()
	require.Eventually(t, func() bool { return !r.driver.Running() }, time.Second, time.Millisecond)
	assert.True(t, r.driver.Start(context.Background()))
}
