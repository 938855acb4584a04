// Package parser converts control-channel payloads to structured types and vice-versa.
//
// Control wire format (console -> vehicle), one flat JSON object per message:
//
//	{"signal":"SCM"}
//	{"cmd":"df"}
//	{"jid":"joint_2","ag":45}
//
// Reply wire format (vehicle -> console): the bare signal token, e.g. ACK.
package parser

import "RLoader/internal/model"

// Parser decodes inbound control payloads and encodes outbound ones.
// Decode never fails: anything it cannot understand becomes an empty message.
type Parser interface {
	Decode(data []byte) model.ControlMessage
	DecodeBatch(data []byte) []model.ControlMessage
	Encode(m model.ControlMessage) ([]byte, error)
}

// EncodeSignal returns the raw reply payload for a signal token, or nil for
// anything that is not a protocol token.
func EncodeSignal(s model.Signal) []byte {
	switch s {
	case model.SignalAck:
		return []byte("ACK")
	case model.SignalStartStream:
		return []byte("SS")
	case model.SignalCloseStream:
		return []byte("CS")
	case model.SignalSwitchMode:
		return []byte("SCM")
	case model.SignalDisconnect:
		return []byte("BYE")
	}
	return nil
}

// DecodeSignal interprets a raw reply payload.
func DecodeSignal(data []byte) model.Signal {
	return model.Signal(data)
}
