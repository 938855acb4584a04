package core

import (
	"RLoader/internal/model"
	"RLoader/internal/parser"
	"RLoader/internal/util"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
)

// Connection states.
const (
	StateListening = "listening"
	StateConnected = "connected"
	StateClosing   = "closing"
)

// Server owns the single inbound control connection. It is the only writer
// of the vehicle's driving mode.
type Server struct {
	cfg      model.NetworkConfig
	v        *Vehicle
	driver   *AutoDriver
	parser   parser.Parser
	streamer Streamer
	shutdown func()
	log      *logrus.Entry

	fsm *fsm.FSM

	mu        sync.Mutex
	addr      net.Addr
	ready     chan struct{}
	readyOnce sync.Once
}

// NewServer creates a connection manager. shutdown is called once when a
// client sends BYE.
func NewServer(cfg model.NetworkConfig, v *Vehicle, driver *AutoDriver, p parser.Parser, streamer Streamer, shutdown func()) *Server {
	s := &Server{
		cfg:      cfg,
		v:        v,
		driver:   driver,
		parser:   p,
		streamer: streamer,
		shutdown: shutdown,
		log:      util.For("Server"),
		ready:    make(chan struct{}),
	}
	s.fsm = fsm.NewFSM(
		StateListening,
		fsm.Events{
			{Name: "accept", Src: []string{StateListening}, Dst: StateConnected},
			{Name: "drop", Src: []string{StateConnected}, Dst: StateClosing},
			{Name: "reset", Src: []string{StateClosing}, Dst: StateListening},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.log.Debugf("Connection state %s -> %s (%s)", e.Src, e.Dst, e.Event)
			},
		},
	)
	return s
}

// State returns the connection state.
func (s *Server) State() string { return s.fsm.Current() }

// Addr returns the bound control address, or nil before the first bind.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Ready is closed once the control port is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Serve binds the control port and handles one connection at a time until
// ctx is done. Per-connection errors never end Serve.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := s.listen(ctx)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer ln.Close()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if s.cfg.AcceptTimeout > 0 {
			_ = ln.SetDeadline(time.Now().Add(s.cfg.AcceptTimeout))
		}
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if isTimeout(err) {
				s.log.Debug("No client yet. Still listening.")
				continue
			}
			s.log.Errorf("Accept: %v", err)
			sleepCtx(ctx, 100*time.Millisecond)
			continue
		}
		s.handle(ctx, conn)
	}
}

// listen binds the control port, retrying every accept timeout until ctx is done.
func (s *Server) listen(ctx context.Context) (*net.TCPListener, error) {
	var lc net.ListenConfig
	retry := s.cfg.AcceptTimeout
	if retry <= 0 {
		retry = time.Second
	}
	for {
		ln, err := lc.Listen(ctx, "tcp", s.cfg.ControlAddr())
		if err == nil {
			s.mu.Lock()
			s.addr = ln.Addr()
			s.mu.Unlock()
			s.readyOnce.Do(func() { close(s.ready) })
			util.Success(s.log, "Listening for control connections on %s", ln.Addr())
			return ln.(*net.TCPListener), nil
		}
		s.log.Errorf("Bind %s: %v. Retrying in %s.", s.cfg.ControlAddr(), err, retry)
		sleepCtx(ctx, retry)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	session := uuid.NewString()
	log := s.log.WithField("session", session)

	s.transition(ctx, "accept")
	s.v.connected.Store(true)
	util.Success(log, "Client connected from %s", conn.RemoteAddr())
	s.v.emit(model.EventConnected, conn.RemoteAddr().String(), session)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		_ = conn.Close()
		s.transition(ctx, "drop")
		s.v.connected.Store(false)
		s.v.emit(model.EventDisconnected, "", session)
		s.transition(ctx, "reset")
		log.Info("Back to listening.")
	}()

	size := s.cfg.BufferSize
	if size <= 0 {
		size = 1024
	}
	buf := make([]byte, size)
	for {
		if ctx.Err() != nil {
			return
		}
		if s.cfg.ReceiveTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReceiveTimeout))
		}
		n, err := conn.Read(buf)
		if n > 0 {
			for _, msg := range s.parser.DecodeBatch(buf[:n]) {
				if !s.dispatch(ctx, conn, msg, log) {
					return
				}
			}
		}
		switch {
		case err == nil && n == 0:
			log.Error("Received zero bytes. Closing connection.")
			return
		case err == nil:
		case isTimeout(err):
		case peerGone(err):
			log.Errorf("Connection lost: %v", err)
			return
		default:
			log.Errorf("Receive: %v", err)
			return
		}
	}
}

// dispatch handles one message. It returns false when the connection must close.
func (s *Server) dispatch(ctx context.Context, conn net.Conn, msg model.ControlMessage, log *logrus.Entry) bool {
	if msg.IsEmpty() {
		log.Warn("Ignoring empty or malformed message.")
		return true
	}

	switch msg.Signal {
	case model.SignalNone:
	case model.SignalStartStream, model.SignalCloseStream:
		if !s.ack(conn, log) {
			return false
		}
		var err error
		if msg.Signal == model.SignalStartStream {
			err = s.streamer.StartStream(ctx)
		} else {
			err = s.streamer.StopStream(ctx)
		}
		if err != nil {
			log.Errorf("Stream %s: %v", msg.Signal, err)
		}
	case model.SignalSwitchMode:
		if !s.ack(conn, log) {
			return false
		}
		s.SwitchMode(ctx)
	case model.SignalAck:
		log.Debug("Ignoring ACK from client.")
	case model.SignalDisconnect:
		log.Info("Client requested shutdown.")
		s.v.emit(model.EventShutdown, "client", "")
		if s.shutdown != nil {
			s.shutdown()
		}
		return false
	default:
		log.Warnf("Unknown signal %q", msg.Signal)
	}

	if msg.Drive != model.DriveNone {
		if s.v.Mode() == model.ModeManual {
			if err := s.v.Car.ApplyDrive(msg.Drive); err != nil {
				log.Errorf("Drive %s: %v", msg.Drive, err)
			}
		} else {
			log.Debugf("Ignoring manual %s in autonomous mode.", msg.Drive)
		}
	}

	if msg.Arm != nil && s.v.Arm != nil {
		if err := s.v.Arm.ApplyArmJoint(ctx, msg.Arm.JointID, msg.Arm.Angle); err != nil {
			log.Errorf("Arm %s: %v", msg.Arm.JointID, err)
		}
	}
	return true
}

func (s *Server) ack(conn net.Conn, log *logrus.Entry) bool {
	if _, err := conn.Write(parser.EncodeSignal(model.SignalAck)); err != nil {
		log.Errorf("Can't send ACK. Seems like the connection was lost: %v", err)
		return false
	}
	return true
}

// SwitchMode toggles between manual and autonomous driving. The driver is
// stopped before the mode returns to manual so manual commands never race it.
func (s *Server) SwitchMode(ctx context.Context) model.DrivingMode {
	switch s.v.Mode() {
	case model.ModeManual:
		if s.v.swapMode(model.ModeManual, model.ModeAutonomous) {
			s.driver.Start(ctx)
		}
	case model.ModeAutonomous:
		s.driver.Stop()
		s.v.swapMode(model.ModeAutonomous, model.ModeManual)
	}
	mode := s.v.Mode()
	util.Success(s.log, "Driving mode switched to %s.", mode)
	s.v.emit(model.EventMode, mode.String(), "")
	return mode
}

// transition fires a connection event. It ignores cancellation so the
// machine always returns to listening during shutdown.
func (s *Server) transition(ctx context.Context, event string) {
	if err := s.fsm.Event(context.WithoutCancel(ctx), event); err != nil {
		s.log.Debugf("Connection event %s: %v", event, err)
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func peerGone(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE)
}
