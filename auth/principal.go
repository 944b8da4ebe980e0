package auth

import (
	"sort"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/identity"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
)

// Set is a set of authorisation purposes
type Set map[string]struct{}

// NewSet creates a set out of the values
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}

	return s
}

// Has returns true if v is in the set
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Intersects returns true if any of the values is in the set
func (s Set) Intersects(values ...string) bool {
	for _, v := range values {
		if s.Has(v) {
			return true
		}
	}

	return false
}

// Slice returns the values of the set sorted
func (s Set) Slice() []string {
	values := make([]string, 0, len(s))
	for v := range s {
		values = append(values, v)
	}

	sort.Strings(values)
	return values
}

// Principal is the caller of a request as resolved by the Auth stage
type Principal struct {
	// Identity is nil for anonymous callers and for tokens that are
	// not bound to an identity
	Identity *identity.Identity

	// Authorisations are the purposes the caller's token grants
	Authorisations Set

	// Claims is nil if no token was presented
	Claims *Claims
}

// Anonymous is the principal of requests without a token
func Anonymous() *Principal {
	return &Principal{Authorisations: NewSet()}
}

// Log implementation of log.Loggable
func (p *Principal) Log(fields log.Fields) {
	fields.Add("principal_state", StateOf(p).String())
	if p.Identity != nil {
		p.Identity.Log(fields)
	}
}

// State of a principal. States are ordered by precedence
type State int

const (
	// StateAnonymous callers have neither a resolved identity nor
	// any authorisation
	StateAnonymous State = iota

	// StateAuthenticated callers have a resolved identity but no
	// authorisations
	StateAuthenticated

	// StateAuthorised callers have a token that grants at least one
	// authorisation purpose
	StateAuthorised
)

func (s State) String() string {
	switch s {
	case StateAuthorised:
		return "authorised"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// StateOf returns the state of the principal. A principal with
// authorisations is authorised whether or not it has an identity
func StateOf(p *Principal) State {
	switch {
	case p == nil:
		return StateAnonymous
	case len(p.Authorisations) > 0:
		return StateAuthorised
	case p.Identity != nil:
		return StateAuthenticated
	default:
		return StateAnonymous
	}
}

// PrincipalOf returns the principal the Auth stage placed first in
// the pipeline values
func PrincipalOf(in pipeline.Values) (*Principal, error) {
	p, ok := in.At(0).(*Principal)
	if !ok || p == nil {
		return nil, errors.NewWithReason(errors.ErrInternalError,
			"principal not found in pipeline values, the auth stage must run first")
	}

	return p, nil
}

// StateKey is a pipeline.KeySelector that selects by the state of the
// principal
func StateKey(req *request.Request, in pipeline.Values) interface{} {
	p, _ := PrincipalOf(in)
	return StateOf(p)
}
