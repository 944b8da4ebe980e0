package request

import (
	"fmt"
	"strings"
)

// Method is one of the HTTP verbs a resource can be bound to
type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodOptions Method = "OPTIONS"
)

// Methods lists every supported method
var Methods = []Method{
	MethodGet,
	MethodHead,
	MethodPost,
	MethodPut,
	MethodPatch,
	MethodDelete,
	MethodOptions,
}

// ParseMethod parses a method name case insensitively
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(s))
	for _, method := range Methods {
		if method == m {
			return m, nil
		}
	}

	return "", fmt.Errorf("unsupported method %s", s)
}
