package auth

import (
	"fmt"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/identity"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
)

// Auth returns the stage that resolves the principal of the request
// from its Authorization header. The principal is placed first in the
// stage output, followed by the stage input. Requests without an
// Authorization header are anonymous, which is not a failure
func (a *Authenticator) Auth() pipeline.Stage {
	return pipeline.StageFunc(func(req *request.Request, in pipeline.Values) (pipeline.Values, error) {
		scheme, value, ok := req.Authorization()
		p, err := a.Authenticate(req.Context(), scheme, value, ok)
		if err != nil {
			return nil, err
		}

		return append(pipeline.Values{p}, in...), nil
	})
}

// Expectation resolves the identity a request is expected to be
// made by. An empty kind matches any kind
type Expectation func(req *request.Request) (identity.Kind, int64, error)

// ExpectID expects the identity with the id, of any kind
func ExpectID(id int64) Expectation {
	return func(*request.Request) (identity.Kind, int64, error) {
		return "", id, nil
	}
}

// ExpectIdentity expects the identity with the kind and id
func ExpectIdentity(kind identity.Kind, id int64) Expectation {
	return func(*request.Request) (identity.Kind, int64, error) {
		return kind, id, nil
	}
}

// ExpectEndpointParam expects the identity whose id is the integer
// endpoint param name
func ExpectEndpointParam(kind identity.Kind, name string) Expectation {
	return func(req *request.Request) (identity.Kind, int64, error) {
		id, ok := req.EndpointInt(name)
		if !ok {
			return "", 0, errors.NewWithReason(errors.ErrInternalError,
				fmt.Sprintf("endpoint param %s is not an integer capture of %s", name, req.EndpointScheme()))
		}

		return kind, id, nil
	}
}

// RequireAuthentication returns a stage that fails with
// ErrAuthenticationRequired if the principal has no identity, and
// with ErrWrongPrincipal if the identity does not match the
// expectations. The values are passed through unchanged
func RequireAuthentication(expectations ...Expectation) pipeline.Stage {
	return pipeline.StageFunc(func(req *request.Request, in pipeline.Values) (pipeline.Values, error) {
		p, err := PrincipalOf(in)
		if err != nil {
			return nil, err
		}

		if p.Identity == nil {
			return nil, errors.NewWithReason(errors.ErrAuthenticationRequired, "no identity resolved for request")
		}

		for _, expect := range expectations {
			kind, id, err := expect(req)
			if err != nil {
				return nil, err
			}

			if p.Identity.ID != id || (len(kind) > 0 && p.Identity.Kind != kind) {
				return nil, errors.NewWithReason(errors.ErrWrongPrincipal,
					fmt.Sprintf("authenticated as %s %d", p.Identity.Kind, p.Identity.ID))
			}
		}

		return in, nil
	})
}

// RequireAuthorisation returns a stage that fails with
// ErrAuthorizationDenied unless the principal has at least one of the
// purposes. The values are passed through unchanged
func RequireAuthorisation(purposes ...string) pipeline.Stage {
	if len(purposes) == 0 {
		panic("at least one purpose must be required")
	}

	required := append([]string(nil), purposes...)

	return pipeline.StageFunc(func(req *request.Request, in pipeline.Values) (pipeline.Values, error) {
		p, err := PrincipalOf(in)
		if err != nil {
			return nil, err
		}

		if len(p.Authorisations) == 0 {
			return nil, errors.NewWithReason(errors.ErrAuthorizationDenied, "no authorisations granted")
		}

		if !p.Authorisations.Intersects(required...) {
			return nil, errors.NewWithReason(errors.ErrAuthorizationDenied,
				fmt.Sprintf("requires one of %v, granted %v", required, p.Authorisations.Slice()))
		}

		return in, nil
	})
}
