package eventlog

import (
	"context"
	"fmt"

	"github.com/garagehub/dispatch/log"
)

type safe struct {
	recorder Recorder
	logger   log.Logger
}

// Safe wraps a recorder so that recording never fails. Errors and
// panics from the wrapped recorder are logged and discarded
func Safe(recorder Recorder, logger log.Logger) Recorder {
	if recorder == nil {
		panic("recorder must be set")
	}

	if logger == nil {
		panic("logger must be set")
	}

	if s, ok := recorder.(safe); ok {
		return s
	}

	return safe{recorder: recorder, logger: logger.ForClass("eventlog", "Safe")}
}

// Record is the implementation of Recorder for safe. It always
// returns nil
func (s safe) Record(ctx context.Context, event Event) error {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn(ctx, "event recorder panicked", log.MapFields{
				"call_type": "EventRecordFailure",
				"err":       fmt.Sprintf("%v", r),
			}, event)
		}
	}()

	if err := s.recorder.Record(ctx, event); err != nil {
		s.logger.Warn(ctx, "failed to record event", log.MapFields{
			"call_type": "EventRecordFailure",
			"err":       err.Error(),
		}, event)
	}

	return nil
}
