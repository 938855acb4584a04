// Package sensor turns raw pin levels into the discrete readings the driver acts on.
package sensor

import (
	"RLoader/internal/device"
	"sync"
	"time"
)

// SoundSensor is a windowed peak detector over a digital sound module.
//
// Every poll that hears sound adds one to the current window. Once more than
// SampleTime has elapsed since the window opened, the window closes: its count
// updates the running peak and is compared against DetectionValue. The window
// then reopens empty. Only a closing poll can report a detection.
type SoundSensor struct {
	pin        device.DigitalInput
	activeLow  bool
	sampleTime time.Duration
	detection  int
	now        func() time.Time

	mu     sync.Mutex
	opened time.Time
	count  int
	peak   int
}

// NewSoundSensor creates a detector. activeLow means a low level is sound.
func NewSoundSensor(pin device.DigitalInput, activeLow bool, sampleTime time.Duration, detection int) *SoundSensor {
	s := &SoundSensor{
		pin:        pin,
		activeLow:  activeLow,
		sampleTime: sampleTime,
		detection:  detection,
		now:        time.Now,
	}
	s.opened = s.now()
	return s
}

// SetClock replaces the time source and reopens the window.
func (s *SoundSensor) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	s.Reset()
}

// Reset opens a fresh window and zeroes the peak.
func (s *SoundSensor) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = s.now()
	s.count = 0
	s.peak = 0
}

// Poll samples the pin once. It returns true only when this poll closed a
// window whose count met the detection value. A read error counts as silence
// and is returned alongside the window result.
func (s *SoundSensor) Poll() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	level, err := s.pin.Read()
	if err == nil && level != s.activeLow {
		s.count++
	}

	if now.Sub(s.opened) <= s.sampleTime {
		return false, err
	}

	if s.count > s.peak {
		s.peak = s.count
	}
	fired := s.count >= s.detection
	s.count = 0
	s.opened = now
	return fired, err
}

// Peak returns the largest window count since the last Reset.
func (s *SoundSensor) Peak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

// DetectionValue returns the trigger threshold.
func (s *SoundSensor) DetectionValue() int { return s.detection }
