package rpc

import (
	"bytes"
	"testing"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonDecoderDecode(t *testing.T) {
	buffer := bytes.NewBufferString("{\"hamburger\":\"rare\",\"potato\":\"fried\"}\n")
	m := make(map[string]string)

	err := JsonDecoder{}.Decode(buffer, &m)

	assert.Nil(t, err)
	assert.Equal(t, map[string]string{
		"potato":    "fried",
		"hamburger": "rare",
	}, m)
}

func TestJsonDecoderDecodeUnknownField(t *testing.T) {
	type entity struct {
		Name string `json:"name"`
	}

	err := JsonDecoder{}.Decode(bytes.NewBufferString(`{"name":"north","size":3}`), &entity{})
	assert.Error(t, err)
}

type garageBody struct {
	Name string `json:"name"`
}

func garageFactory() interface{} {
	return &garageBody{}
}

func newBodyRequest(contentType string, body string) *request.Request {
	return request.New(request.Props{
		Method:   request.MethodPost,
		Endpoint: "/api/garages",
		Headers:  map[string]string{request.HeaderContentType: contentType},
		Body:     []byte(body),
	})
}

func TestDecodeJsonAppendsBody(t *testing.T) {
	req := newBodyRequest("application/json; charset=utf-8", `{"name":"north"}`)

	out, err := DecodeJson(garageFactory).Run(req, pipeline.Values{"principal"})

	require.Nil(t, err)
	assert.Equal(t, pipeline.Values{"principal", &garageBody{Name: "north"}}, out)
}

func TestDecodeJsonEmptyBody(t *testing.T) {
	_, err := DecodeJson(garageFactory).Run(newBodyRequest("application/json", ""), nil)

	e, ok := errors.Lookup(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrMissingParam, e.ErrorCode)
}

func TestDecodeJsonWrongContentType(t *testing.T) {
	_, err := DecodeJson(garageFactory).Run(newBodyRequest("text/plain", `{"name":"north"}`), nil)

	e, ok := errors.Lookup(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrMalformedInput, e.ErrorCode)
}

func TestDecodeJsonMalformed(t *testing.T) {
	_, err := DecodeJson(garageFactory).Run(newBodyRequest("application/json", `{"name":`), nil)

	e, ok := errors.Lookup(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrMalformedInput, e.ErrorCode)
	assert.Equal(t, 422, e.Status())
}
