package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/negotiate"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
	pkgerrors "github.com/pkg/errors"
)

// Decoder for payloads
type Decoder interface {
	// Decode decodes the provided payload with its format from the
	// provided reader. In case of failure it is possible a partial
	// read has occurred
	Decode(r io.Reader, v interface{}) error
}

// JsonDecoder is a payload decoder that deserializes JSON
type JsonDecoder struct{}

// Decode is the implementation of Decoder for JsonDecoder
func (e JsonDecoder) Decode(reader io.Reader, v interface{}) error {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	return pkgerrors.Wrap(decoder.Decode(v), "failed to decode json")
}

// EntityFactory creates the value a request body is decoded into
type EntityFactory func() interface{}

// DecodeJson returns a stage that decodes the JSON body of the request
// into a value created by factory and appends it to the stage input
func DecodeJson(factory EntityFactory) pipeline.Stage {
	if factory == nil {
		panic("factory must be set")
	}

	return pipeline.StageFunc(func(req *request.Request, in pipeline.Values) (pipeline.Values, error) {
		body := req.Body()
		if len(body) == 0 {
			return nil, errors.NewWithReason(errors.ErrMissingParam, "request body is empty")
		}

		contentType, _ := req.Header(request.HeaderContentType)
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != negotiate.ContentTypeJSON {
			return nil, errors.NewWithReason(errors.ErrMalformedInput,
				fmt.Sprintf("expected content type %s, got %q", negotiate.ContentTypeJSON, contentType))
		}

		v := factory()
		if err := (JsonDecoder{}).Decode(bytes.NewReader(body), v); err != nil {
			return nil, errors.NewWithReason(errors.ErrMalformedInput, err.Error())
		}

		return in.Append(v), nil
	})
}
