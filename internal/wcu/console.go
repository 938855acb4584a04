package wcu

import (
	"RLoader/internal/model"
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var keyDrive = map[string]model.DriveCommand{
	"w": model.DriveForward,
	"s": model.DriveBackward,
	"a": model.DriveRotateLeft,
	"d": model.DriveRotateRight,
	"x": model.DriveStop,
}

var keySignal = map[string]model.Signal{
	"scm": model.SignalSwitchMode,
	"ss":  model.SignalStartStream,
	"cs":  model.SignalCloseStream,
	"bye": model.SignalDisconnect,
}

// ParseLine turns one console line into a control message. Accepted forms:
// a drive key (w s a d x), a signal (scm ss cs bye) or "arm <jid> <angle>".
func ParseLine(line string) (model.ControlMessage, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return model.ControlMessage{}, nil
	}
	if cmd, ok := keyDrive[fields[0]]; ok && len(fields) == 1 {
		return model.ControlMessage{Drive: cmd}, nil
	}
	if sig, ok := keySignal[fields[0]]; ok && len(fields) == 1 {
		return model.ControlMessage{Signal: sig}, nil
	}
	if fields[0] == "arm" {
		if len(fields) != 3 {
			return model.ControlMessage{}, fmt.Errorf("usage: arm <jid> <angle>")
		}
		ag, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return model.ControlMessage{}, fmt.Errorf("bad angle %q: %w", fields[2], err)
		}
		return model.ControlMessage{Arm: &model.ArmCommand{JointID: fields[1], Angle: ag}}, nil
	}
	return model.ControlMessage{}, fmt.Errorf("unknown command %q", line)
}

// Run reads commands from in until EOF or bye, sending each to the vehicle
// and reporting results to out.
func (c *Client) Run(in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		msg, err := ParseLine(sc.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if msg.IsEmpty() {
			continue
		}

		if msg.Signal != model.SignalNone {
			acked, err := c.RequestSignal(msg.Signal)
			if err != nil {
				return err
			}
			if msg.Signal == model.SignalDisconnect {
				fmt.Fprintln(out, "bye")
				return nil
			}
			if acked {
				fmt.Fprintf(out, "%s: ACK\n", msg.Signal)
			} else {
				fmt.Fprintf(out, "%s: no ACK\n", msg.Signal)
			}
			continue
		}

		if err := c.Send(msg); err != nil {
			return err
		}
	}
	return sc.Err()
}
