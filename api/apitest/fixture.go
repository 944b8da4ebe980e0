package apitest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/garagehub/dispatch/auth"
	"github.com/garagehub/dispatch/identity"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/negotiate"
	"github.com/garagehub/dispatch/request"
	"github.com/garagehub/dispatch/rpc"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	Secret = "apitest-secret"
	Issuer = "apitest"
)

// Fixture holds a router backed by an in memory identity store for
// testing API resources end to end
type Fixture struct {
	Logger        log.Logger
	Store         *identity.MemStore
	Authenticator *auth.Authenticator
	Router        *rpc.Router
}

// NewFixture creates a fixture with an empty store and a router without
// resources
func NewFixture() *Fixture {
	logger := log.NewDiscard()
	store := identity.NewMemStore()

	return &Fixture{
		Logger: logger,
		Store:  store,
		Authenticator: auth.NewAuthenticator(auth.Props{
			Secret: []byte(Secret),
			Issuer: Issuer,
			Store:  store,
			Logger: logger,
		}),
		Router: rpc.NewRouter(rpc.RouterProps{
			Logger:        logger,
			ErrorResource: rpc.NewErrorResource(rpc.ErrorResourceProps{Logger: logger, Development: true}),
		}),
	}
}

// CreateIdentity creates an identity whose password is hashed at the
// lowest bcrypt cost
func (f *Fixture) CreateIdentity(
	t *testing.T,
	kind identity.Kind,
	name, password string,
	authorisations ...string,
) *identity.Identity {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.Nil(t, err)

	id, err := f.Store.Create(context.Background(), identity.CreateProps{
		Kind:           kind,
		Name:           name,
		PasswordHash:   hash,
		Authorisations: authorisations,
	})
	require.Nil(t, err)
	return id
}

// Token issues a standard token for the identity
func (f *Fixture) Token(t *testing.T, id *identity.Identity) string {
	token, err := f.Authenticator.StandardAuthToken(context.Background(), id)
	require.Nil(t, err)
	return token
}

// Call describes a request made against the fixture router
type Call struct {
	Method   request.Method
	Endpoint string
	Token    string
	Accept   string
	Params   map[string]string
	Form     map[string]string

	// Body is sent as application/json when set
	Body string
}

// Dispatch builds the request for the call and dispatches it
func (f *Fixture) Dispatch(call Call) *negotiate.Response {
	headers := make(map[string]string)
	if len(call.Token) > 0 {
		headers[request.HeaderAuthorization] = auth.SchemeBearer + " " + call.Token
	}
	if len(call.Accept) > 0 {
		headers[request.HeaderAccept] = call.Accept
	}

	var body []byte
	if len(call.Body) > 0 {
		headers[request.HeaderContentType] = negotiate.ContentTypeJSON
		body = []byte(call.Body)
	}

	params := request.NewParams()
	for k, v := range call.Params {
		params.Set(k, v)
	}

	return f.Router.Dispatch(request.New(request.Props{
		Method:        call.Method,
		Endpoint:      call.Endpoint,
		Params:        params,
		PrivateParams: call.Form,
		Headers:       headers,
		Body:          body,
	}))
}

// ErrorCode decodes the error code of a JSON error response
func ErrorCode(t *testing.T, res *negotiate.Response) int {
	var body rpc.ErrorBody
	require.Nil(t, json.Unmarshal(res.Body, &body))
	return body.ErrorCode
}
