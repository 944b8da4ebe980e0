package negotiate

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
)

const HeaderContentType = "Content-Type"

// Response is the outcome of handling a request, ready to be written
// by the hosting layer
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// ContentType returns the Content-Type header of the response
func (r *Response) ContentType() string {
	return r.Headers[HeaderContentType]
}

// Builder builds the representation of a response for one content type
type Builder interface {
	// ContentType is the media type of the representations built
	ContentType() string

	// Build builds the response out of the pipeline values
	Build(req *request.Request, in pipeline.Values) (*Response, error)
}

// Producer produces the model a Builder encodes
type Producer func(req *request.Request, in pipeline.Values) (interface{}, error)

// First is a Producer that returns the first pipeline value
func First(req *request.Request, in pipeline.Values) (interface{}, error) {
	return in.At(0), nil
}

type builder struct {
	encoder Encoder
	produce Producer
}

// NewBuilder creates a Builder that encodes the model returned by
// produce. The status is taken from the request once the model has
// been produced. A nil model with status 200 results in a 204
func NewBuilder(encoder Encoder, produce Producer) Builder {
	if encoder == nil {
		panic("encoder must be set")
	}

	if produce == nil {
		panic("produce must be set")
	}

	return builder{encoder: encoder, produce: produce}
}

// ContentType is the implementation of Builder for builder
func (b builder) ContentType() string {
	return b.encoder.ContentType()
}

// Build is the implementation of Builder for builder
func (b builder) Build(req *request.Request, in pipeline.Values) (*Response, error) {
	model, err := b.produce(req, in)
	if err != nil {
		return nil, err
	}

	status := req.Status()
	if model == nil {
		if status == http.StatusOK {
			status = http.StatusNoContent
		}

		return &Response{Status: status, Headers: make(map[string]string)}, nil
	}

	var buffer bytes.Buffer
	if err := b.encoder.Encode(&buffer, model); err != nil {
		return nil, errors.New(errors.ErrEncodeResponse, err)
	}

	return &Response{
		Status:  status,
		Headers: map[string]string{HeaderContentType: headerValue(b.encoder.ContentType())},
		Body:    buffer.Bytes(),
	}, nil
}

func headerValue(contentType string) string {
	if strings.HasPrefix(contentType, "text/") {
		return contentType + "; charset=utf-8"
	}

	return contentType
}
