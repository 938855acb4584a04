// Package parser implements the JSONParser which encodes and decodes
// control messages in JSON format.
package parser

import (
	"RLoader/internal/model"
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// wireMessage mirrors the flat JSON envelope. Presence drives meaning, so the
// arm fields are pointers. The legacy "arm" marker is accepted and ignored.
type wireMessage struct {
	Signal  string   `json:"signal,omitempty"`
	Cmd     string   `json:"cmd,omitempty"`
	JointID *string  `json:"jid,omitempty"`
	Angle   *float64 `json:"ag,omitempty"`
}

func (w wireMessage) toModel() model.ControlMessage {
	m := model.ControlMessage{
		Signal: model.Signal(w.Signal),
		Drive:  model.DriveCommand(w.Cmd),
	}
	if w.JointID != nil && w.Angle != nil {
		m.Arm = &model.ArmCommand{JointID: *w.JointID, Angle: *w.Angle}
	}
	return m
}

// JSONParser implements Parser interface using JSON serialization.
type JSONParser struct{}

// NewJSONParser creates a new JSON parser.
func NewJSONParser() *JSONParser { return &JSONParser{} }

// Decode parses a single JSON object. Malformed input yields an empty message.
func (p *JSONParser) Decode(data []byte) model.ControlMessage {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return model.ControlMessage{}
	}
	return w.toModel()
}

// DecodeBatch splits a read that carries several concatenated objects.
// Decoding stops at the first malformed object, which contributes one empty message.
func (p *JSONParser) DecodeBatch(data []byte) []model.ControlMessage {
	dec := json.NewDecoder(bytes.NewReader(data))
	var out []model.ControlMessage
	for {
		var w wireMessage
		err := dec.Decode(&w)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			out = append(out, model.ControlMessage{})
			break
		}
		out = append(out, w.toModel())
	}
	if len(out) == 0 {
		out = append(out, model.ControlMessage{})
	}
	return out
}

// Encode serializes a control message into its flat JSON envelope.
func (p *JSONParser) Encode(m model.ControlMessage) ([]byte, error) {
	w := wireMessage{Signal: string(m.Signal), Cmd: string(m.Drive)}
	if m.Arm != nil {
		jid, ag := m.Arm.JointID, m.Arm.Angle
		w.JointID, w.Angle = &jid, &ag
	}
	return json.Marshal(w)
}
