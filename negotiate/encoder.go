package negotiate

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/ugorji/go/codec"
)

const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgpack = "application/msgpack"
	ContentTypeCBOR    = "application/cbor"
	ContentTypeText    = "text/plain"
	ContentTypeHTML    = "text/html"
)

// Encoder for payloads
type Encoder interface {
	// ContentType is the media type of the encoded payloads
	ContentType() string

	// Encode encodes the provided payload with its format to the
	// provided writer. In case of failure it is possible a partial
	// write of the serialization to the writer
	Encode(writer io.Writer, v interface{}) error
}

// JsonEncoder is a payload encoder that serializes to JSON
type JsonEncoder struct{}

// ContentType is the implementation of Encoder for JsonEncoder
func (e JsonEncoder) ContentType() string {
	return ContentTypeJSON
}

// Encode is the implementation of Encoder for JsonEncoder
func (e JsonEncoder) Encode(writer io.Writer, v interface{}) error {
	return json.NewEncoder(writer).Encode(v)
}

// MsgpackEncoder is a payload encoder that serializes to msgpack
type MsgpackEncoder struct{}

// ContentType is the implementation of Encoder for MsgpackEncoder
func (e MsgpackEncoder) ContentType() string {
	return ContentTypeMsgpack
}

// Encode is the implementation of Encoder for MsgpackEncoder
func (e MsgpackEncoder) Encode(writer io.Writer, v interface{}) error {
	handle := codec.MsgpackHandle{WriteExt: true}
	return codec.NewEncoder(writer, &handle).Encode(v)
}

// CborEncoder is a payload encoder that serializes to CBOR
type CborEncoder struct{}

// ContentType is the implementation of Encoder for CborEncoder
func (e CborEncoder) ContentType() string {
	return ContentTypeCBOR
}

// Encode is the implementation of Encoder for CborEncoder
func (e CborEncoder) Encode(writer io.Writer, v interface{}) error {
	return codec.NewEncoder(writer, &codec.CborHandle{}).Encode(v)
}

// TextEncoder writes the default format of the payload as plain text
type TextEncoder struct{}

// ContentType is the implementation of Encoder for TextEncoder
func (e TextEncoder) ContentType() string {
	return ContentTypeText
}

// Encode is the implementation of Encoder for TextEncoder
func (e TextEncoder) Encode(writer io.Writer, v interface{}) error {
	_, err := fmt.Fprintln(writer, v)
	return err
}

// HtmlEncoder renders the payload with a template
type HtmlEncoder struct {
	Template *template.Template
}

// ContentType is the implementation of Encoder for HtmlEncoder
func (e HtmlEncoder) ContentType() string {
	return ContentTypeHTML
}

// Encode is the implementation of Encoder for HtmlEncoder
func (e HtmlEncoder) Encode(writer io.Writer, v interface{}) error {
	return e.Template.Execute(writer, v)
}
