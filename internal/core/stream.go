package core

import (
	"RLoader/internal/util"
	"context"

	"github.com/sirupsen/logrus"
)

// Streamer is the video streaming collaborator driven by SS and CS signals.
type Streamer interface {
	StartStream(ctx context.Context) error
	StopStream(ctx context.Context) error
}

// LogStreamer reserves the video port and only logs stream requests.
type LogStreamer struct {
	Port int
	log  *logrus.Entry
}

// NewLogStreamer returns a placeholder streamer for port.
func NewLogStreamer(port int) *LogStreamer {
	return &LogStreamer{Port: port, log: util.For("Streamer")}
}

func (s *LogStreamer) StartStream(context.Context) error {
	s.log.Infof("Video stream requested on port %d (no encoder attached).", s.Port)
	return nil
}

func (s *LogStreamer) StopStream(context.Context) error {
	s.log.Infof("Video stream on port %d closed.", s.Port)
	return nil
}
