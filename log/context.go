package log

import (
	"context"

	"github.com/google/uuid"
)

type ContextKey string

const (
	ContextKeyRequestID ContextKey = "logContextKeyRequestID"
)

// PutRequestID stores the request id in the context so that every
// log line emitted while handling the request carries it
func PutRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// NewRequestID generates a random request id
func NewRequestID() string {
	return uuid.New().String()
}

// GetRequestID returns the request id stored in the context or an
// empty string if there is none
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	requestID, ok := ctx.Value(ContextKeyRequestID).(string)
	if !ok {
		return ""
	}

	return requestID
}
