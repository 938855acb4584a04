package sensor

import (
	"RLoader/internal/device"
	"RLoader/internal/model"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinePair_Read(t *testing.T) {
	left, right := device.NewSimPin(false), device.NewSimPin(false)
	pair := LinePair{Left: NewLineSensor(left), Right: NewLineSensor(right)}

	for _, want := range []model.LineReading{
		{Left: false, Right: false},
		{Left: false, Right: true},
		{Left: true, Right: false},
		{Left: true, Right: true},
	} {
		left.Set(want.Left)
		right.Set(want.Right)
		got, err := pair.Read()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestLinePair_ReadError(t *testing.T) {
	left, right := device.NewSimPin(false), device.NewSimPin(false)
	right.Fail(errors.New("gone"))
	pair := LinePair{Left: NewLineSensor(left), Right: NewLineSensor(right)}

	_, err := pair.Read()
	assert.ErrorContains(t, err, "right line sensor")
}
