package core

import (
	"RLoader/internal/model"
	"RLoader/internal/util"
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DecideDrive maps a line reading to exactly one drive command.
//
//	left  right  action
//	off   off    forward
//	off   on     steer right
//	on    off    steer left
//	on    on     stop
func DecideDrive(r model.LineReading) model.DriveCommand {
	switch {
	case !r.Left && !r.Right:
		return model.DriveForward
	case !r.Left && r.Right:
		return model.DriveRotateRight
	case r.Left && !r.Right:
		return model.DriveRotateLeft
	default:
		return model.DriveStop
	}
}

// AutoDriver listens for the buzzer and then follows the line until stopped.
// At most one run is active at a time.
type AutoDriver struct {
	v            *Vehicle
	pacing       time.Duration
	pollInterval time.Duration
	log          *logrus.Entry

	running atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewAutoDriver creates a driver for v. pacing is the sleep between
// line-following iterations; pollInterval the sleep between buzzer polls.
func NewAutoDriver(v *Vehicle, pacing, pollInterval time.Duration) *AutoDriver {
	return &AutoDriver{
		v:            v,
		pacing:       pacing,
		pollInterval: pollInterval,
		log:          util.For("AutoDriver"),
	}
}

// Running reports whether a run is active.
func (d *AutoDriver) Running() bool { return d.running.Load() }

// Start launches a run bound to ctx. It is a no-op, returning false, when a
// run is already active.
func (d *AutoDriver) Start(ctx context.Context) bool {
	if !d.running.CompareAndSwap(false, true) {
		d.log.Warn("Autonomous driving already active.")
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.v.driving.Store(true)
	go d.run(runCtx, d.done)
	return true
}

// Stop cancels the active run and waits for it to exit, so the caller owns
// the actuators once Stop returns.
func (d *AutoDriver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
	d.cancel = nil
}

func (d *AutoDriver) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer d.running.Store(false)

	v := d.v
	v.Sound.Reset()
	v.idle.Store(true)
	d.log.Info("Autonomous driving started. Listening for buzzer.")

	following := false
	peak := 0
	defer func() {
		if following {
			if err := v.Car.Brake(); err != nil {
				d.log.Errorf("Brake on exit: %v", err)
			}
		}
		v.Sound.Reset()
		v.idle.Store(true)
		v.driving.Store(false)
		d.log.Info("Autonomous driving stopped.")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !following {
			fired, err := v.Sound.Poll()
			if err != nil {
				d.log.Debugf("Sound read: %v", err)
			}
			if p := v.Sound.Peak(); p > peak {
				peak = p
				d.log.Infof("Peak amplitude %d/%d", peak, v.Sound.DetectionValue())
			}
			if fired {
				following = true
				v.idle.Store(false)
				util.Success(d.log, "Buzzer detected. Following the line.")
				v.emit(model.EventTrigger, "line-following", "")
				continue
			}
			if d.pollInterval > 0 {
				sleepCtx(ctx, d.pollInterval)
			} else {
				runtime.Gosched()
			}
			continue
		}

		cmd := model.DriveStop
		reading, err := v.Lines.Read()
		if err != nil {
			d.log.Warnf("Line read: %v", err)
		} else {
			cmd = DecideDrive(reading)
		}
		if err := v.Car.ApplyDrive(cmd); err != nil {
			d.log.Errorf("Apply %s: %v", cmd, err)
		}
		sleepCtx(ctx, d.pacing)
	}
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
