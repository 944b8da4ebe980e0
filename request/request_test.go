package request

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("post")
	assert.Nil(t, err)
	assert.Equal(t, MethodPost, m)

	_, err = ParseMethod("TRACE")
	assert.Equal(t, "unsupported method TRACE", err.Error())
}

func TestParamsLastOccurrenceWins(t *testing.T) {
	params := NewParams()
	params.Set("page", "1")
	params.Set("sort", "name")
	params.Set("page", "2")

	v, ok := params.Get("page")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Equal(t, []string{"page", "sort"}, params.Keys())
	assert.Equal(t, 2, params.Len())
}

func TestRequestDefaults(t *testing.T) {
	req := New(Props{Method: MethodGet, Endpoint: "/api/version/"})

	assert.Equal(t, "/api/version", req.Endpoint())
	assert.Equal(t, http.StatusOK, req.Status())
	assert.NotNil(t, req.Context())
	assert.False(t, req.Matched())
	assert.Equal(t, 0, req.Params().Len())
}

func TestRequestPrivateParamsAreSeparate(t *testing.T) {
	params := NewParams()
	params.Set("username", "query")
	req := New(Props{
		Method:        MethodPost,
		Endpoint:      "/api/session",
		Params:        params,
		PrivateParams: map[string]string{"password": "secret"},
	})

	_, ok := req.Param("password")
	assert.False(t, ok)

	v, ok := req.PrivateParam("password")
	assert.True(t, ok)
	assert.Equal(t, "secret", v)
}

func TestRequestSetStatus(t *testing.T) {
	req := New(Props{Method: MethodPost, Endpoint: "/api/garages"})
	req.SetStatus(http.StatusCreated)
	assert.Equal(t, http.StatusCreated, req.Status())
}

func TestRequestHeaderIsCaseSensitive(t *testing.T) {
	req := New(Props{
		Method:   MethodGet,
		Endpoint: "/",
		Headers:  map[string]string{"X-Custom": "1"},
	})

	_, ok := req.Header("x-custom")
	assert.False(t, ok)

	v, ok := req.Header("X-Custom")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestRequestAuthorization(t *testing.T) {
	req := New(Props{
		Method:   MethodGet,
		Endpoint: "/",
		Headers:  map[string]string{"Authorization": "Bearer  abc.def.ghi "},
	})

	scheme, value, ok := req.Authorization()
	assert.True(t, ok)
	assert.Equal(t, "Bearer", scheme)
	assert.Equal(t, "abc.def.ghi", value)
}

func TestRequestAuthorizationSchemeOnly(t *testing.T) {
	req := New(Props{
		Method:   MethodGet,
		Endpoint: "/",
		Headers:  map[string]string{"authorization": "Bearer"},
	})

	scheme, value, ok := req.Authorization()
	assert.True(t, ok)
	assert.Equal(t, "Bearer", scheme)
	assert.Equal(t, "", value)
}

func TestRequestAuthorizationAbsent(t *testing.T) {
	req := New(Props{Method: MethodGet, Endpoint: "/"})

	_, _, ok := req.Authorization()
	assert.False(t, ok)
}
