package telemetry

import "RLoader/internal/model"

// Reporter receives status events. Report must not block.
type Reporter interface {
	Report(ev model.StatusEvent)
}

// Fanout forwards every event to each sink in order.
type Fanout []Reporter

// NewFanout drops nil sinks.
func NewFanout(sinks ...Reporter) Fanout {
	var f Fanout
	for _, s := range sinks {
		if s == nil || isNilSink(s) {
			continue
		}
		f = append(f, s)
	}
	return f
}

func (f Fanout) Report(ev model.StatusEvent) {
	for _, s := range f {
		s.Report(ev)
	}
}

// isNilSink catches typed nil pointers wrapped in the interface.
func isNilSink(s Reporter) bool {
	switch v := s.(type) {
	case *Hub:
		return v == nil
	case *MQTTPublisher:
		return v == nil
	}
	return false
}
