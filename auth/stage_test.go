package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/identity"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBearerRequest(endpoint, token string) *request.Request {
	headers := map[string]string{}
	if len(token) > 0 {
		headers[request.HeaderAuthorization] = "Bearer " + token
	}

	return request.New(request.Props{
		Method:   request.MethodGet,
		Endpoint: endpoint,
		Headers:  headers,
	})
}

func assertCode(t *testing.T, err error, code errors.ErrorCode) {
	e, ok := errors.Lookup(err)
	require.True(t, ok, "expected a handled failure, got %v", err)
	assert.Equal(t, code, e.ErrorCode)
}

func TestAuthStagePrependsPrincipal(t *testing.T) {
	f := newAuthFixture()
	id := f.createConsultant(t, "alice", "general")
	token, err := f.auth.StandardAuthToken(context.Background(), id)
	require.Nil(t, err)

	out, err := f.auth.Auth().Run(newBearerRequest("/api/session", token), pipeline.Values{"body"})
	require.Nil(t, err)
	require.Len(t, out, 2)

	p, err := PrincipalOf(out)
	require.Nil(t, err)
	assert.Equal(t, id, p.Identity)
	assert.Equal(t, "body", out.At(1))
}

func TestAuthStageAnonymous(t *testing.T) {
	f := newAuthFixture()

	out, err := f.auth.Auth().Run(newBearerRequest("/api/session", ""), nil)
	require.Nil(t, err)

	p, err := PrincipalOf(out)
	require.Nil(t, err)
	assert.Equal(t, StateAnonymous, StateOf(p))
}

func TestAuthStageInvalidToken(t *testing.T) {
	f := newAuthFixture()

	_, err := f.auth.Auth().Run(newBearerRequest("/api/session", "garbage"), nil)
	assertCode(t, err, errors.ErrAuthenticationInvalid)
}

func TestPrincipalOfMissing(t *testing.T) {
	_, err := PrincipalOf(pipeline.Values{"body"})
	assertCode(t, err, errors.ErrInternalError)
}

func TestRequireAuthenticationByID(t *testing.T) {
	f := newAuthFixture()
	other := f.createConsultant(t, "bob", "general")
	for i := 0; i < 40; i++ {
		f.createConsultant(t, fmt.Sprintf("filler%d", i))
	}
	owner := f.createConsultant(t, "alice", "general")
	require.Equal(t, int64(42), owner.ID)

	stage := pipeline.Pipe(f.auth.Auth(), RequireAuthentication(ExpectID(42)))

	_, err := stage.Run(newBearerRequest("/api/garages/42", ""), nil)
	assertCode(t, err, errors.ErrAuthenticationRequired)
	assert.Equal(t, 401, errors.Classify(err).Status())

	token, err := f.auth.StandardAuthToken(context.Background(), other)
	require.Nil(t, err)
	_, err = stage.Run(newBearerRequest("/api/garages/42", token), nil)
	assertCode(t, err, errors.ErrWrongPrincipal)
	assert.Equal(t, 403, errors.Classify(err).Status())

	token, err = f.auth.StandardAuthToken(context.Background(), owner)
	require.Nil(t, err)
	out, err := stage.Run(newBearerRequest("/api/garages/42", token), pipeline.Values{"body"})
	require.Nil(t, err)
	assert.Equal(t, "body", out.At(1))
}

func TestRequireAuthenticationShortTokenHasNoIdentity(t *testing.T) {
	f := newAuthFixture()
	token, err := f.auth.ShortAuthToken(context.Background(), identity.KindGarage, "bob", "password_reset")
	require.Nil(t, err)

	stage := pipeline.Pipe(f.auth.Auth(), RequireAuthentication())
	_, err = stage.Run(newBearerRequest("/api/password", token), nil)
	assertCode(t, err, errors.ErrAuthenticationRequired)
}

func TestRequireAuthenticationByKind(t *testing.T) {
	f := newAuthFixture()
	consultant := f.createConsultant(t, "alice", "general")
	token, err := f.auth.StandardAuthToken(context.Background(), consultant)
	require.Nil(t, err)

	stage := pipeline.Pipe(f.auth.Auth(), RequireAuthentication(ExpectIdentity(identity.KindGarage, consultant.ID)))
	_, err = stage.Run(newBearerRequest("/api/garages/1", token), nil)
	assertCode(t, err, errors.ErrWrongPrincipal)
}

func TestRequireAuthenticationEndpointParam(t *testing.T) {
	f := newAuthFixture()
	owner := f.createConsultant(t, "alice", "general")
	token, err := f.auth.StandardAuthToken(context.Background(), owner)
	require.Nil(t, err)

	stage := pipeline.Pipe(f.auth.Auth(),
		RequireAuthentication(ExpectEndpointParam(identity.KindConsultant, "id")))

	req := newBearerRequest("/api/consultants/1", token)
	require.True(t, req.SetEndpointScheme("/api/consultants/:id<int>"))
	_, err = stage.Run(req, nil)
	assert.Nil(t, err)

	req = newBearerRequest("/api/consultants/2", token)
	require.True(t, req.SetEndpointScheme("/api/consultants/:id<int>"))
	_, err = stage.Run(req, nil)
	assertCode(t, err, errors.ErrWrongPrincipal)
}

func TestRequireAuthenticationEndpointParamNotCaptured(t *testing.T) {
	f := newAuthFixture()
	owner := f.createConsultant(t, "alice", "general")
	token, err := f.auth.StandardAuthToken(context.Background(), owner)
	require.Nil(t, err)

	stage := pipeline.Pipe(f.auth.Auth(),
		RequireAuthentication(ExpectEndpointParam(identity.KindConsultant, "id")))

	req := newBearerRequest("/api/consultants/alice", token)
	require.True(t, req.SetEndpointScheme("/api/consultants/:id"))
	_, err = stage.Run(req, nil)
	assertCode(t, err, errors.ErrInternalError)
}

func TestRequireAuthorisationPanicsWithoutPurposes(t *testing.T) {
	assert.Panics(t, func() {
		RequireAuthorisation()
	})
}

func TestRequireAuthorisationSuccessive(t *testing.T) {
	f := newAuthFixture()
	id := f.createConsultant(t, "alice", "general")
	token, err := f.auth.StandardAuthToken(context.Background(), id)
	require.Nil(t, err)

	stage := pipeline.Pipe(
		f.auth.Auth(),
		RequireAuthorisation("general"),
		pipeline.StageFunc(func(req *request.Request, in pipeline.Values) (pipeline.Values, error) {
			return in.Append("after general"), nil
		}),
		RequireAuthorisation("consultant"),
	)

	_, err = stage.Run(newBearerRequest("/api/garages", token), nil)
	e, ok := errors.Lookup(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrAuthorizationDenied, e.ErrorCode)
	assert.Equal(t, 403, e.Status())
	assert.Contains(t, e.Reason, "consultant")
}

func TestRequireAuthorisationAnyOf(t *testing.T) {
	f := newAuthFixture()
	id := f.createConsultant(t, "alice", "general")
	token, err := f.auth.StandardAuthToken(context.Background(), id)
	require.Nil(t, err)

	stage := pipeline.Pipe(f.auth.Auth(), RequireAuthorisation("consultant", "general"))
	_, err = stage.Run(newBearerRequest("/api/garages", token), nil)
	assert.Nil(t, err)
}

func TestRequireAuthorisationAnonymous(t *testing.T) {
	f := newAuthFixture()

	stage := pipeline.Pipe(f.auth.Auth(), RequireAuthorisation("general"))
	_, err := stage.Run(newBearerRequest("/api/garages", ""), nil)
	assertCode(t, err, errors.ErrAuthorizationDenied)
}

func TestStateKeyDispatch(t *testing.T) {
	f := newAuthFixture()
	id := f.createConsultant(t, "alice")
	token, err := f.auth.StandardAuthToken(context.Background(), id)
	require.Nil(t, err)

	stage := pipeline.Pipe(f.auth.Auth(), pipeline.Dispatch(pipeline.Table{
		StateAnonymous:     pipeline.Map(func(*request.Request, pipeline.Values) (interface{}, error) { return "anonymous", nil }),
		StateAuthenticated: pipeline.Map(func(*request.Request, pipeline.Values) (interface{}, error) { return "authenticated", nil }),
		StateAuthorised:    pipeline.Map(func(*request.Request, pipeline.Values) (interface{}, error) { return "authorised", nil }),
	}, StateKey))

	out, err := stage.Run(newBearerRequest("/api/password", token), nil)
	require.Nil(t, err)
	assert.Equal(t, pipeline.Values{"authenticated"}, out)

	out, err = stage.Run(newBearerRequest("/api/password", ""), nil)
	require.Nil(t, err)
	assert.Equal(t, pipeline.Values{"anonymous"}, out)
}
