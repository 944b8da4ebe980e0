package identity

import (
	"context"
	"io"
)

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}

// NewStore creates the store for the configured backend. The returned
// closer releases the resources held by the store
func NewStore(ctx context.Context, config *Config) (Store, io.Closer, error) {
	switch config.Backend {
	case BackendPostgres:
		store, db, err := OpenPostgres(ctx, config.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, db, nil
	default:
		return NewMemStore(), nopCloser{}, nil
	}
}
