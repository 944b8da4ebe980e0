package identity

import (
	"context"
	"fmt"

	"github.com/garagehub/dispatch/log"
)

// Kind discriminates the user variant that owns an identity
type Kind string

const (
	KindGarage     Kind = "garage"
	KindConsultant Kind = "consultant"
)

// ParseKind parses the user type of an identity
func ParseKind(s string) (Kind, error) {
	switch kind := Kind(s); kind {
	case KindGarage, KindConsultant:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown user type %q", s)
	}
}

// Identity is a principal that can authenticate against the service
type Identity struct {
	ID             int64
	Kind           Kind
	Name           string
	PasswordHash   []byte
	Authorisations []string
}

// Log implementation of log.Loggable. The password hash is never logged
func (i *Identity) Log(fields log.Fields) {
	fields.Add("identity_id", i.ID)
	fields.Add("identity_kind", string(i.Kind))
	fields.Add("identity_name", i.Name)
}

// CreateProps are the properties of a new identity
type CreateProps struct {
	Kind           Kind
	Name           string
	PasswordHash   []byte
	Authorisations []string
}

// Store holds the identities. Find and FindByPrincipalName return a nil
// identity and a nil error when there is no such identity. Any other
// failure is returned as an error
type Store interface {
	// Find finds an identity by kind and id
	Find(ctx context.Context, kind Kind, id int64) (*Identity, error)

	// FindByPrincipalName finds an identity by kind and name
	FindByPrincipalName(ctx context.Context, kind Kind, name string) (*Identity, error)

	// Create creates a new identity. The pair of kind and name must be
	// unique, otherwise the creation fails with errors.ErrConflict
	Create(ctx context.Context, props CreateProps) (*Identity, error)

	// UpdatePassword replaces the password hash of an identity. It fails
	// with errors.ErrNotFound if there is no such identity
	UpdatePassword(ctx context.Context, kind Kind, id int64, passwordHash []byte) error
}
