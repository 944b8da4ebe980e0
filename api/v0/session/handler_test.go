package session

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/garagehub/dispatch/api/apitest"
	"github.com/garagehub/dispatch/identity"
	"github.com/garagehub/dispatch/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture() *apitest.Fixture {
	f := apitest.NewFixture()
	BindHandler(Services{
		Logger:        f.Logger,
		Store:         f.Store,
		Authenticator: f.Authenticator,
	}, f.Router)

	return f
}

func signIn(f *apitest.Fixture, usertype, username, password string) (int, CreateSessionResponse, []byte) {
	res := f.Dispatch(apitest.Call{
		Method:   request.MethodPost,
		Endpoint: "/api/session",
		Form: map[string]string{
			"usertype": usertype,
			"username": username,
			"password": password,
		},
	})

	var body CreateSessionResponse
	_ = json.Unmarshal(res.Body, &body)
	return res.Status, body, res.Body
}

func TestCreateSession(t *testing.T) {
	f := newFixture()
	alice := f.CreateIdentity(t, identity.KindGarage, "alice", "s3cret", "general")

	status, body, _ := signIn(f, "garage", "alice", "s3cret")

	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Bearer", body.TokenType)

	claims, err := f.Authenticator.Verify(body.Token)
	require.Nil(t, err)
	require.NotNil(t, claims.ID)
	assert.Equal(t, alice.ID, *claims.ID)
	assert.Equal(t, "garage", claims.UserType)
	assert.Equal(t, []string{"general"}, claims.Authorisations)
}

func TestCreateSessionWrongPassword(t *testing.T) {
	f := newFixture()
	f.CreateIdentity(t, identity.KindGarage, "alice", "s3cret")

	status, _, raw := signIn(f, "garage", "alice", "guess")

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(raw), `"errorCode":3003`)
}

func TestCreateSessionUnknownUser(t *testing.T) {
	f := newFixture()
	f.CreateIdentity(t, identity.KindGarage, "alice", "s3cret")

	status, _, raw := signIn(f, "consultant", "alice", "s3cret")

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(raw), `"errorCode":3003`)
}

func TestCreateSessionMissingPassword(t *testing.T) {
	f := newFixture()

	res := f.Dispatch(apitest.Call{
		Method:   request.MethodPost,
		Endpoint: "/api/session",
		Form:     map[string]string{"usertype": "garage", "username": "alice"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, 2002, apitest.ErrorCode(t, res))
}

func TestCreateSessionCredentialsInQueryAreIgnored(t *testing.T) {
	f := newFixture()
	f.CreateIdentity(t, identity.KindGarage, "alice", "s3cret")

	res := f.Dispatch(apitest.Call{
		Method:   request.MethodPost,
		Endpoint: "/api/session",
		Params: map[string]string{
			"usertype": "garage",
			"username": "alice",
			"password": "s3cret",
		},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, 2002, apitest.ErrorCode(t, res))
}

func TestCreateSessionUnknownUserType(t *testing.T) {
	f := newFixture()

	status, _, raw := signIn(f, "admin", "alice", "s3cret")

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(raw), `"errorCode":2001`)
}

func TestGetSession(t *testing.T) {
	f := newFixture()
	alice := f.CreateIdentity(t, identity.KindConsultant, "alice", "s3cret", "general", "consultant")

	res := f.Dispatch(apitest.Call{
		Method:   request.MethodGet,
		Endpoint: "/api/session",
		Token:    f.Token(t, alice),
	})

	assert.Equal(t, http.StatusOK, res.Status)

	var body GetSessionResponse
	require.Nil(t, json.Unmarshal(res.Body, &body))
	assert.Equal(t, GetSessionResponse{
		ID:             alice.ID,
		UserType:       "consultant",
		Username:       "alice",
		Authorisations: []string{"consultant", "general"},
	}, body)
}

func TestGetSessionText(t *testing.T) {
	f := newFixture()
	alice := f.CreateIdentity(t, identity.KindGarage, "alice", "s3cret", "general")

	res := f.Dispatch(apitest.Call{
		Method:   request.MethodGet,
		Endpoint: "/api/session",
		Token:    f.Token(t, alice),
		Accept:   "text/plain",
	})

	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "garage alice (1) authorised for [general]\n", string(res.Body))
}

func TestGetSessionAnonymous(t *testing.T) {
	f := newFixture()

	res := f.Dispatch(apitest.Call{Method: request.MethodGet, Endpoint: "/api/session"})

	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, 3001, apitest.ErrorCode(t, res))
}

func TestGetSessionInvalidToken(t *testing.T) {
	f := newFixture()

	res := f.Dispatch(apitest.Call{
		Method:   request.MethodGet,
		Endpoint: "/api/session",
		Token:    "not.a.token",
	})

	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, 3002, apitest.ErrorCode(t, res))
}
