// Package device implements the SerialDevice type using go.bug.st/serial,
// providing read and write operations for physical serial communication ports.
package device

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	serial "go.bug.st/serial"
)

// SerialDevice implements Device using go.bug.st/serial package.
type SerialDevice struct {
	mu   sync.Mutex
	port serial.Port
	buf  []byte
	dev  string
}

// NewSerialDevice opens a serial device with given path and baudrate.
func NewSerialDevice(dev string, baud int) (*SerialDevice, error) {
	p, err := serial.Open(dev, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial %s: %w", dev, err)
	}
	return &SerialDevice{port: p, dev: dev}, nil
}

// ReadLine reads a single line from the serial port with optional timeout.
// Bytes following the newline are kept for the next call.
func (s *SerialDevice) ReadLine(timeout time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return "", ErrNotOpen
	}

	deadline := time.Now().Add(timeout)
	chunk := make([]byte, 64)
	for {
		if i := bytes.IndexByte(s.buf, '\n'); i >= 0 {
			line := string(bytes.TrimRight(s.buf[:i], "\r"))
			s.buf = s.buf[i+1:]
			return line, nil
		}

		wait := serial.NoTimeout
		if timeout > 0 {
			wait = time.Until(deadline)
			if wait <= 0 {
				return "", ErrTimeout
			}
		}
		if err := s.port.SetReadTimeout(wait); err != nil {
			return "", fmt.Errorf("serial %s: set read timeout: %w", s.dev, err)
		}

		n, err := s.port.Read(chunk)
		if err != nil {
			return "", fmt.Errorf("serial %s: read: %w", s.dev, err)
		}
		s.buf = append(s.buf, chunk[:n]...)
	}
}

// WriteLine writes a line followed by newline.
func (s *SerialDevice) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return ErrNotOpen
	}
	_, err := s.port.Write(append([]byte(line), '\n'))
	return err
}

// Close closes the underlying serial port.
func (s *SerialDevice) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
