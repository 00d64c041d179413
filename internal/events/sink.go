package events

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink receives events. Emit may be called from several goroutines at once.
type Sink interface {
	Emit(event *Event)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(event *Event)

// Emit calls f(event)
func (f SinkFunc) Emit(event *Event) {
	f(event)
}

// NopSink discards every event
type NopSink struct{}

// Emit does nothing
func (NopSink) Emit(*Event) {}

// LogSink writes events to a zap logger, one line per event
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs through logger
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Emit logs the event at a level matching its severity
func (s *LogSink) Emit(event *Event) {
	if event == nil {
		return
	}
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("run_id", event.RunID),
		zap.String("type", string(event.Type)),
		zap.Any("data", event.Data),
	}
	s.logger.Log(levelFor(event.Severity), event.Message, fields...)
}

func levelFor(severity EventSeverity) zapcore.Level {
	switch severity {
	case SeverityWarning:
		return zapcore.WarnLevel
	case SeverityError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Multi fans every event out to all sinks, in order
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) Emit(event *Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(event)
		}
	}
}

// Recorder keeps every event it receives. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []*Event
}

// Emit records the event
func (r *Recorder) Emit(event *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events in arrival order
func (r *Recorder) Events() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of the given type
func (r *Recorder) OfType(t EventType) []*Event {
	var out []*Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
