package actuator

import (
	"RLoader/internal/device"
	"RLoader/internal/model"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDrive = model.DriveConfig{LeftPin: 1, RightPin: 7, BackwardPin: 8, ForwardPin: 25}

func levels(b *device.SimBoard) [4]bool {
	return [4]bool{
		b.Pin(testDrive.LeftPin).High(),
		b.Pin(testDrive.RightPin).High(),
		b.Pin(testDrive.BackwardPin).High(),
		b.Pin(testDrive.ForwardPin).High(),
	}
}

func TestCar_ApplyDrive(t *testing.T) {
	tests := []struct {
		cmd  model.DriveCommand
		want [4]bool
	}{
		{model.DriveForward, [4]bool{false, false, false, true}},
		{model.DriveBackward, [4]bool{false, false, true, false}},
		{model.DriveRotateRight, [4]bool{false, true, false, false}},
		{model.DriveRotateLeft, [4]bool{true, false, false, false}},
		{model.DriveStop, [4]bool{false, false, false, false}},
	}

	for _, tt := range tests {
		t.Run(string(tt.cmd), func(t *testing.T) {
			b := device.NewSimBoard()
			car := NewCar(b, testDrive)
			require.NoError(t, car.ApplyDrive(tt.cmd))
			assert.Equal(t, tt.want, levels(b))
			assert.Equal(t, tt.cmd, car.Current())
		})
	}
}

func TestCar_NeverTwoHigh(t *testing.T) {
	b := device.NewSimBoard()
	car := NewCar(b, testDrive)

	seq := []model.DriveCommand{
		model.DriveForward, model.DriveRotateLeft, model.DriveBackward,
		model.DriveRotateRight, model.DriveForward, model.DriveStop,
	}
	for _, cmd := range seq {
		require.NoError(t, car.ApplyDrive(cmd))
		high := 0
		for _, l := range levels(b) {
			if l {
				high++
			}
		}
		assert.LessOrEqual(t, high, 1, "after %s", cmd)
	}
}

func TestCar_UnknownCommandIgnored(t *testing.T) {
	b := device.NewSimBoard()
	car := NewCar(b, testDrive)
	require.NoError(t, car.Forward())

	assert.NoError(t, car.ApplyDrive("zz"))
	assert.NoError(t, car.ApplyDrive(model.DriveNone))
	assert.Equal(t, [4]bool{false, false, false, true}, levels(b))
	assert.Equal(t, model.DriveForward, car.Current())
}

func TestCar_WriteError(t *testing.T) {
	b := device.NewSimBoard()
	car := NewCar(b, testDrive)
	boom := errors.New("bridge down")
	b.Pin(testDrive.LeftPin).Fail(boom)

	err := car.Forward()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, b.Pin(testDrive.ForwardPin).High(), "target stays low when another output could not be lowered")
	assert.Equal(t, model.DriveStop, car.Current())
}

func TestCar_Close(t *testing.T) {
	b := device.NewSimBoard()
	car := NewCar(b, testDrive)
	require.NoError(t, car.SteerLeft())
	require.NoError(t, car.Close())
	assert.Equal(t, [4]bool{}, levels(b))
}
