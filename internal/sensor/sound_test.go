package sensor

import (
	"RLoader/internal/device"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSound(t *testing.T, detection int) (*SoundSensor, *device.SimPin, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	pin := device.NewSimPin(true) // active low: high is silence
	s := NewSoundSensor(pin, true, 15*time.Millisecond, detection)
	s.SetClock(clock.now)
	return s, pin, clock
}

func TestSoundSensor_FiresOnceAtWindowClose(t *testing.T) {
	s, pin, clock := newTestSound(t, 100)
	pin.Set(false) // sound present

	fired := 0
	for i := 0; i < 149; i++ {
		clock.advance(50 * time.Microsecond)
		ok, err := s.Poll()
		require.NoError(t, err)
		if ok {
			fired++
		}
	}
	assert.Zero(t, fired, "no detection before the window closes")

	clock.advance(15 * time.Millisecond)
	ok, err := s.Poll()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 150, s.Peak())

	// the new window has barely started; it cannot fire again
	clock.advance(time.Millisecond)
	ok, _ = s.Poll()
	assert.False(t, ok)
}

func TestSoundSensor_BelowThreshold(t *testing.T) {
	s, pin, clock := newTestSound(t, 100)
	pin.Set(false)

	for i := 0; i < 40; i++ {
		ok, _ := s.Poll()
		assert.False(t, ok)
	}
	clock.advance(16 * time.Millisecond)
	ok, _ := s.Poll()
	assert.False(t, ok)
	assert.Equal(t, 41, s.Peak())
}

func TestSoundSensor_OneWindowPerPeriod(t *testing.T) {
	s, pin, clock := newTestSound(t, 1)
	pin.Set(false)

	fired := 0
	for period := 0; period < 5; period++ {
		for i := 0; i < 20; i++ {
			if ok, _ := s.Poll(); ok {
				fired++
			}
		}
		clock.advance(16 * time.Millisecond)
	}
	// the last advance is never observed by a poll
	assert.Equal(t, 4, fired)
}

func TestSoundSensor_PeakIsMaxSoFar(t *testing.T) {
	s, pin, clock := newTestSound(t, 1000)
	pin.Set(false)

	for _, n := range []int{10, 30, 5} {
		for i := 0; i < n-1; i++ {
			_, _ = s.Poll()
		}
		clock.advance(16 * time.Millisecond)
		_, _ = s.Poll()
	}
	assert.Equal(t, 30, s.Peak())

	s.Reset()
	assert.Zero(t, s.Peak())
}

func TestSoundSensor_SilenceNeverFires(t *testing.T) {
	s, _, clock := newTestSound(t, 1)
	for i := 0; i < 10; i++ {
		clock.advance(20 * time.Millisecond)
		ok, _ := s.Poll()
		assert.False(t, ok)
	}
	assert.Zero(t, s.Peak())
}

func TestSoundSensor_ReadErrorIsSilence(t *testing.T) {
	s, pin, clock := newTestSound(t, 1)
	pin.Set(false)
	pin.Fail(errors.New("bus"))

	clock.advance(20 * time.Millisecond)
	ok, err := s.Poll()
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestSoundSensor_ActiveHigh(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	pin := device.NewSimPin(true)
	s := NewSoundSensor(pin, false, 15*time.Millisecond, 2)
	s.SetClock(clock.now)

	_, _ = s.Poll()
	clock.advance(16 * time.Millisecond)
	ok, _ := s.Poll()
	assert.True(t, ok)
}
