package negotiate

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ugorji/go/codec"
)

func TestBuilderReadsStatusAfterProducing(t *testing.T) {
	builder := NewBuilder(JsonEncoder{}, func(req *request.Request, in pipeline.Values) (interface{}, error) {
		req.SetStatus(http.StatusCreated)
		return in.At(0), nil
	})

	res, err := builder.Build(newRequest(""), pipeline.Values{garage{ID: 7, Name: "Acme"}})

	require.Nil(t, err)
	assert.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, ContentTypeJSON, res.ContentType())
	assert.Equal(t, "{\"id\":7,\"name\":\"Acme\"}\n", string(res.Body))
}

func TestBuilderNilModelIsNoContent(t *testing.T) {
	builder := NewBuilder(JsonEncoder{}, First)

	res, err := builder.Build(newRequest(""), nil)

	require.Nil(t, err)
	assert.Equal(t, http.StatusNoContent, res.Status)
	assert.Empty(t, res.Body)
	assert.Equal(t, "", res.ContentType())
}

func TestBuilderNilModelKeepsExplicitStatus(t *testing.T) {
	builder := NewBuilder(JsonEncoder{}, First)
	req := newRequest("")
	req.SetStatus(http.StatusAccepted)

	res, err := builder.Build(req, nil)

	require.Nil(t, err)
	assert.Equal(t, http.StatusAccepted, res.Status)
}

func TestBuilderProduceError(t *testing.T) {
	failure := errors.New(errors.ErrNotFound, nil)
	builder := NewBuilder(JsonEncoder{}, func(req *request.Request, in pipeline.Values) (interface{}, error) {
		return nil, failure
	})

	_, err := builder.Build(newRequest(""), nil)

	assert.Equal(t, failure, err)
}

func TestBuilderEncodeError(t *testing.T) {
	builder := NewBuilder(JsonEncoder{}, First)
	_, err := builder.Build(newRequest(""), pipeline.Values{make(chan int)})

	e, ok := errors.Lookup(err)
	assert.True(t, ok)
	assert.Equal(t, errors.ErrEncodeResponse, e.ErrorCode)
}

func TestTextEncoder(t *testing.T) {
	builder := NewBuilder(TextEncoder{}, First)

	res, err := builder.Build(newRequest(""), pipeline.Values{garage{Name: "Acme"}})

	require.Nil(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", res.ContentType())
	assert.Equal(t, "Acme\n", string(res.Body))
}

func TestMsgpackEncoder(t *testing.T) {
	var buffer bytes.Buffer
	err := MsgpackEncoder{}.Encode(&buffer, garage{ID: 3, Name: "Acme"})
	require.Nil(t, err)

	var g garage
	handle := codec.MsgpackHandle{WriteExt: true}
	err = codec.NewDecoder(&buffer, &handle).Decode(&g)

	assert.Nil(t, err)
	assert.Equal(t, garage{ID: 3, Name: "Acme"}, g)
}

func TestCborEncoder(t *testing.T) {
	var buffer bytes.Buffer
	err := CborEncoder{}.Encode(&buffer, garage{ID: 3, Name: "Acme"})
	require.Nil(t, err)

	var g garage
	err = codec.NewDecoder(&buffer, &codec.CborHandle{}).Decode(&g)

	assert.Nil(t, err)
	assert.Equal(t, garage{ID: 3, Name: "Acme"}, g)
}
