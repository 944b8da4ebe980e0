package client

import (
	"fmt"

	"github.com/garagehub/dispatch/log"
)

// ErrNewHttpRequest is returned when the http request for a callback
// cannot be built, for instance because of an invalid url
type ErrNewHttpRequest struct {
	Cause error
}

func (e ErrNewHttpRequest) Error() string {
	return fmt.Sprintf("[callback] failed to create http request: %s", e.Cause.Error())
}

// Unwrap returns the cause of the failure
func (e ErrNewHttpRequest) Unwrap() error {
	return e.Cause
}

// ErrDeliverHttpRequest is returned when a callback cannot be delivered.
// StatusCode is 0 if no response was received
type ErrDeliverHttpRequest struct {
	StatusCode int
	Cause      error
}

func (e ErrDeliverHttpRequest) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[callback] http request failed with status %d", e.StatusCode)
	}

	return fmt.Sprintf("[callback] failed to deliver http request: %s", e.Cause.Error())
}

// Unwrap returns the cause of the failure
func (e ErrDeliverHttpRequest) Unwrap() error {
	return e.Cause
}

// Log implementation of log.Loggable
func (e ErrDeliverHttpRequest) Log(fields log.Fields) {
	fields.Add("err", e.Error())
	if e.StatusCode > 0 {
		fields.Add("statusCode", e.StatusCode)
	}
}
