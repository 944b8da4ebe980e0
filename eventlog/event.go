package eventlog

import (
	"context"
	"time"

	"github.com/garagehub/dispatch/log"
)

// Severity of a recorded event
type Severity string

const (
	SeverityDebug Severity = "debug"
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Event is a single entry in the event log
type Event struct {
	Kind      string    `json:"kind"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"requestId,omitempty"`
}

// Log implementation of log.Loggable
func (e Event) Log(fields log.Fields) {
	fields.Add("event_kind", e.Kind)
	fields.Add("event_severity", string(e.Severity))
	fields.Add("event_message", e.Message)
	fields.Add("event_timestamp", e.Timestamp.UTC().Format(time.RFC3339Nano))
}

// Recorder records events. Recording is best effort, callers that
// must not fail because of the event log should wrap the recorder
// with Safe
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// RecorderFunc allows functions to implement Recorder
type RecorderFunc func(ctx context.Context, event Event) error

// Record is the implementation of Recorder for RecorderFunc
func (f RecorderFunc) Record(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Discard is a Recorder that drops every event
var Discard Recorder = RecorderFunc(func(context.Context, Event) error {
	return nil
})

// NewEvent creates an event timestamped now
func NewEvent(ctx context.Context, kind string, severity Severity, message string) Event {
	return Event{
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now(),
		RequestID: log.GetRequestID(ctx),
	}
}
