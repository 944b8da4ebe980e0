package api

import (
	"fmt"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/negotiate"
	"github.com/garagehub/dispatch/request"
)

const (
	ParamUserType = "usertype"
	ParamUsername = "username"
	ParamPassword = "password"
)

// NewSelector creates the selector shared by the API resources. Models
// are represented as JSON by default, and as msgpack, CBOR or plain text
// on request
func NewSelector(produce negotiate.Producer) *negotiate.Selector {
	return negotiate.NewSelector(negotiate.SelectorProps{
		Builders: []negotiate.Builder{
			negotiate.NewBuilder(negotiate.JsonEncoder{}, produce),
			negotiate.NewBuilder(negotiate.MsgpackEncoder{}, produce),
			negotiate.NewBuilder(negotiate.CborEncoder{}, produce),
			negotiate.NewBuilder(negotiate.TextEncoder{}, produce),
		},
		Default: negotiate.ContentTypeJSON,
	})
}

// PrivateParams returns the values of the body encoded form fields. It
// fails with ErrMissingParam naming the first field that is absent or
// empty
func PrivateParams(req *request.Request, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	for _, name := range names {
		v, ok := req.PrivateParam(name)
		if !ok || len(v) == 0 {
			return nil, errors.NewWithReason(errors.ErrMissingParam,
				fmt.Sprintf("form field %s is required", name))
		}

		values[name] = v
	}

	return values, nil
}
