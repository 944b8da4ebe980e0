package errors

import (
	"fmt"
	"net/http"

	"github.com/garagehub/dispatch/log"
	pkgerrors "github.com/pkg/errors"
)

type Err interface {
	Error() string
	log.Loggable
}

var (
	ErrInternalError = ErrorCode{
		category: InternalError,
		code:     1000,
		desc:     "Internal Error. Please check the status of the service.",
	}

	ErrInvalidPipelineOutput = ErrorCode{
		category: InternalError,
		code:     1001,
		desc:     "Internal Error. Please check the status of the service.",
	}

	ErrIdentityStore = ErrorCode{
		category: InternalError,
		code:     1002,
		desc:     "Internal Error. Please check the status of the service.",
	}

	ErrIssueToken = ErrorCode{
		category: InternalError,
		code:     1003,
		desc:     "Internal Error. Please check the status of the service.",
	}

	ErrEncodeResponse = ErrorCode{
		category: InternalError,
		code:     1004,
		desc:     "Internal Error. Please check the status of the service.",
	}

	ErrMalformedInput = ErrorCode{
		category: InputError,
		code:     2001,
		desc:     "Malformed input. Please check the request data.",
	}

	ErrMissingParam = ErrorCode{
		category: InputError,
		code:     2002,
		desc:     "A required parameter is missing from the request.",
	}

	ErrBodyLimit = ErrorCode{
		category: InputError,
		code:     2003,
		desc:     "Request body exceeds the allowed size.",
	}

	ErrUnsupportedMethod = ErrorCode{
		category: InputError,
		code:     2004,
		desc:     "Request method is not supported.",
	}

	ErrAuthenticationRequired = ErrorCode{
		category: AuthenticationError,
		code:     3001,
		desc:     "Authentication required.",
	}

	ErrAuthenticationInvalid = ErrorCode{
		category: AuthenticationError,
		code:     3002,
		desc:     "Authentication failed.",
	}

	ErrInvalidCredentials = ErrorCode{
		category: AuthenticationError,
		code:     3003,
		desc:     "Invalid credentials.",
	}

	ErrAuthorizationDenied = ErrorCode{
		category: AuthorizationError,
		code:     4001,
		desc:     "Not authorized to perform this operation.",
	}

	ErrWrongPrincipal = ErrorCode{
		category: AuthorizationError,
		code:     4002,
		desc:     "Not authorized to perform this operation.",
	}

	ErrNotFound = ErrorCode{
		category: NotFound,
		code:     5001,
		desc:     "Resource not found.",
	}

	ErrMethodNotAllowed = ErrorCode{
		category: MethodNotAllowed,
		code:     5002,
		desc:     "Method not allowed for this resource.",
	}

	ErrNotAcceptable = ErrorCode{
		category: NotAcceptable,
		code:     5003,
		desc:     "No acceptable representation available.",
	}

	ErrConflict = ErrorCode{
		category: StateConflict,
		code:     6001,
		desc:     "The request conflicts with the current state of the resource.",
	}
)

// Category defines error categories that logically group them. Each category
// maps to exactly one HTTP status code
type Category string

const (
	// InternalError refers to programming errors or other unexpected errors,
	// such as failing to reach a collaborator. The only action a user can
	// take out of an InternalError is reach out to the operator
	InternalError Category = "InternalError"

	// InputError refers to request data that fails validation before any
	// side effect took place. Safe to retry after correction
	InputError Category = "InputError"

	// AuthenticationError refers to a missing, malformed, expired, not yet
	// valid or forged credential
	AuthenticationError Category = "AuthenticationError"

	// AuthorizationError refers to an authenticated caller that lacks the
	// required purpose or acts as the wrong principal
	AuthorizationError Category = "AuthorizationError"

	// NotFound refers to requests for which no resource is registered
	NotFound Category = "NotFound"

	// MethodNotAllowed refers to requests for a resource that does not
	// support the request method
	MethodNotAllowed Category = "MethodNotAllowed"

	// NotAcceptable refers to requests for which no representation satisfies
	// the client's preferences
	NotAcceptable Category = "NotAcceptable"

	// StateConflict refers to a uniqueness or state rule violated in a
	// collaborator
	StateConflict Category = "StateConflict"
)

// Status returns the HTTP status code for the category
func (c Category) Status() int {
	switch c {
	case InputError:
		return http.StatusUnprocessableEntity
	case AuthenticationError:
		return http.StatusUnauthorized
	case AuthorizationError:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case NotAcceptable:
		return http.StatusNotAcceptable
	case StateConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is the implementation of an error for this package. It contains
// an instance of an ErrorCode which provides the client facing information,
// a Reason aimed at developers and a cause which might be nil if there's
// no underlying cause for the error
type Error struct {
	Cause     error
	ErrorCode ErrorCode
	Reason    string
}

// Error is the implementation of error for Error
func (e Error) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("[%d] error code %s with desc %s with cause %s",
			e.ErrorCode.Code(), e.ErrorCode.Category(), e.ErrorCode.Desc(), e.Cause)
	case len(e.Reason) > 0:
		return fmt.Sprintf("[%d] error code %s with desc %s with reason %s",
			e.ErrorCode.Code(), e.ErrorCode.Category(), e.ErrorCode.Desc(), e.Reason)
	default:
		return fmt.Sprintf("[%d] error code %s with desc %s",
			e.ErrorCode.Code(), e.ErrorCode.Category(), e.ErrorCode.Desc())
	}
}

// Status returns the HTTP status code associated with the error
func (e Error) Status() int {
	return e.ErrorCode.Category().Status()
}

// Log implementation of log.Loggable
func (e Error) Log(fields log.Fields) {
	fields.Add("err", e.ErrorCode.Desc())
	fields.Add("errorCode", e.ErrorCode.Code())
	fields.Add("statusCode", e.Status())

	if len(e.Reason) > 0 {
		fields.Add("reason", e.Reason)
	}

	if e.Cause != nil {
		fields.Add("cause", e.Cause.Error())
	}
}

// New creates a new instance of an error
func New(errorCode ErrorCode, cause error) Error {
	return Error{Cause: cause, ErrorCode: errorCode}
}

// NewWithReason creates a new instance of an error with a developer
// readable reason
func NewWithReason(errorCode ErrorCode, reason string) Error {
	return Error{ErrorCode: errorCode, Reason: reason}
}

// Lookup finds an Error in the chain of wrapped errors. It returns
// false if err is not a handled failure
func Lookup(err error) (Error, bool) {
	if err == nil {
		return Error{}, false
	}

	var e Error
	if pkgerrors.As(err, &e) {
		return e, true
	}

	var p *Error
	if pkgerrors.As(err, &p) && p != nil {
		return *p, true
	}

	return Error{}, false
}

// Classify returns the Error for err, converting unhandled failures
// into an internal error that keeps err as its cause
func Classify(err error) Error {
	if e, ok := Lookup(err); ok {
		return e
	}

	return New(ErrInternalError, err)
}

// IsCategory returns true if err is a handled failure of the category
func IsCategory(err error, category Category) bool {
	e, ok := Lookup(err)
	return ok && e.ErrorCode.Category() == category
}

// ErrorCode holds the necessary information to uniquely identify an error
// and make sure that a valuable response is returned to the user
// in case of encountering an error
type ErrorCode struct {
	// category is the type of the error
	category Category

	// code is a unique identifier for the error that can be used to identify
	// the particular type of error encountered
	code int

	// desc is a human readable description of the error that occurred
	// to aid the client in debugging
	desc string
}

// Category getter for category
func (e ErrorCode) Category() Category {
	return e.category
}

// Code getter for code
func (e ErrorCode) Code() int {
	return e.code
}

// Desc getter for desc
func (e ErrorCode) Desc() string {
	return e.desc
}
