package eventlog

import (
	"context"

	"github.com/garagehub/dispatch/log"
)

// LogRecorder records events to a logger
type LogRecorder struct {
	logger log.Logger
}

// NewLogRecorder creates a new LogRecorder
func NewLogRecorder(logger log.Logger) *LogRecorder {
	if logger == nil {
		panic("logger must be set")
	}

	return &LogRecorder{logger: logger.ForClass("eventlog", "LogRecorder")}
}

// Record is the implementation of Recorder for LogRecorder
func (r *LogRecorder) Record(ctx context.Context, event Event) error {
	fields := log.MapFields{"call_type": "EventRecorded"}

	switch event.Severity {
	case SeverityError:
		r.logger.Error(ctx, event.Message, fields, event)
	case SeverityWarn:
		r.logger.Warn(ctx, event.Message, fields, event)
	case SeverityInfo:
		r.logger.Info(ctx, event.Message, fields, event)
	default:
		r.logger.Debug(ctx, event.Message, fields, event)
	}

	return nil
}
