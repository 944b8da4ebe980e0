package identity

import (
	"context"

	"github.com/garagehub/dispatch/metrics"
)

// InstrumentedStore is a Store that counts and times the operations
// of the Store it wraps
type InstrumentedStore struct {
	store   Store
	metrics *metrics.OperationMetrics
}

// Instrument wraps store so that its operations are recorded in m
func Instrument(store Store, m *metrics.OperationMetrics) *InstrumentedStore {
	if store == nil {
		panic("store must be set")
	}

	if m == nil {
		panic("metrics must be set")
	}

	return &InstrumentedStore{store: store, metrics: m}
}

func (s *InstrumentedStore) observe(operation string, fn func() error) {
	timer := s.metrics.OperationTimer(operation)
	err := fn()
	timer.ObserveDuration()
	s.metrics.ObserveOperation(operation, err)
}

// Find is the implementation of Store for InstrumentedStore
func (s *InstrumentedStore) Find(ctx context.Context, kind Kind, id int64) (identity *Identity, err error) {
	s.observe("find", func() error {
		identity, err = s.store.Find(ctx, kind, id)
		return err
	})
	return identity, err
}

// FindByPrincipalName is the implementation of Store for InstrumentedStore
func (s *InstrumentedStore) FindByPrincipalName(ctx context.Context, kind Kind, name string) (identity *Identity, err error) {
	s.observe("find_by_principal_name", func() error {
		identity, err = s.store.FindByPrincipalName(ctx, kind, name)
		return err
	})
	return identity, err
}

// Create is the implementation of Store for InstrumentedStore
func (s *InstrumentedStore) Create(ctx context.Context, props CreateProps) (identity *Identity, err error) {
	s.observe("create", func() error {
		identity, err = s.store.Create(ctx, props)
		return err
	})
	return identity, err
}

// UpdatePassword is the implementation of Store for InstrumentedStore
func (s *InstrumentedStore) UpdatePassword(ctx context.Context, kind Kind, id int64, passwordHash []byte) error {
	var err error
	s.observe("update_password", func() error {
		err = s.store.UpdatePassword(ctx, kind, id, passwordHash)
		return err
	})
	return err
}
