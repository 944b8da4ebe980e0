package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/garagehub/dispatch/errors"
)

type principalName struct {
	kind Kind
	name string
}

// MemStore is an in memory Store
type MemStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*Identity
	byName map[principalName]int64
}

// NewMemStore creates a new empty MemStore
func NewMemStore() *MemStore {
	return &MemStore{
		nextID: 1,
		byID:   make(map[int64]*Identity),
		byName: make(map[principalName]int64),
	}
}

func clone(identity *Identity) *Identity {
	c := *identity
	c.PasswordHash = append([]byte(nil), identity.PasswordHash...)
	c.Authorisations = append([]string(nil), identity.Authorisations...)
	return &c
}

// Find is the implementation of Store for MemStore
func (s *MemStore) Find(ctx context.Context, kind Kind, id int64) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byID[id]
	if !ok || identity.Kind != kind {
		return nil, nil
	}

	return clone(identity), nil
}

// FindByPrincipalName is the implementation of Store for MemStore
func (s *MemStore) FindByPrincipalName(ctx context.Context, kind Kind, name string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[principalName{kind: kind, name: name}]
	if !ok {
		return nil, nil
	}

	return clone(s.byID[id]), nil
}

// Create is the implementation of Store for MemStore
func (s *MemStore) Create(ctx context.Context, props CreateProps) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := principalName{kind: props.Kind, name: props.Name}
	if _, ok := s.byName[key]; ok {
		return nil, errors.NewWithReason(errors.ErrConflict,
			fmt.Sprintf("%s %s already exists", props.Kind, props.Name))
	}

	identity := &Identity{
		ID:             s.nextID,
		Kind:           props.Kind,
		Name:           props.Name,
		PasswordHash:   append([]byte(nil), props.PasswordHash...),
		Authorisations: append([]string(nil), props.Authorisations...),
	}

	s.nextID++
	s.byID[identity.ID] = identity
	s.byName[key] = identity.ID
	return clone(identity), nil
}

// UpdatePassword is the implementation of Store for MemStore
func (s *MemStore) UpdatePassword(ctx context.Context, kind Kind, id int64, passwordHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byID[id]
	if !ok || identity.Kind != kind {
		return errors.NewWithReason(errors.ErrNotFound, fmt.Sprintf("%s %d does not exist", kind, id))
	}

	identity.PasswordHash = append([]byte(nil), passwordHash...)
	return nil
}

// Remove deletes an identity. It is a no-op if there is no such identity
func (s *MemStore) Remove(ctx context.Context, kind Kind, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byID[id]
	if !ok || identity.Kind != kind {
		return
	}

	delete(s.byName, principalName{kind: identity.Kind, name: identity.Name})
	delete(s.byID, id)
}
