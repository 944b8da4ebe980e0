package rpc

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/negotiate"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
	"github.com/iancoleman/strcase"
)

// ErrorBody is the response returned by the server when it fails
// to satisfy a request
type ErrorBody struct {
	// ErrorCode is a unique identifier for the error that can be used to identify
	// the particular type of error encountered
	ErrorCode int `json:"errorCode"`

	// Description is a human readable description of the error that occurred
	// to aid the client in debugging
	Description string `json:"description"`

	// Kind is the snake case name of the error category
	Kind string `json:"kind"`

	// Reason and Cause are only set in development mode
	Reason string `json:"reason,omitempty"`
	Cause  string `json:"cause,omitempty"`
}

// String is the plain text representation of the body
func (b ErrorBody) String() string {
	s := fmt.Sprintf("%d %s: %s", b.ErrorCode, b.Kind, b.Description)
	if len(b.Reason) > 0 {
		s += " (" + b.Reason + ")"
	}
	if len(b.Cause) > 0 {
		s += " caused by " + b.Cause
	}
	return s
}

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.ErrorCode}} {{.Kind}}</title></head>
<body>
<h1>{{.Description}}</h1>
{{- if .Reason}}
<p>{{.Reason}}</p>
{{- end}}
{{- if .Cause}}
<pre>{{.Cause}}</pre>
{{- end}}
</body>
</html>
`))

// NewErrorSelector creates the selector for error representations. JSON
// is the default
func NewErrorSelector() *negotiate.Selector {
	return negotiate.NewSelector(negotiate.SelectorProps{
		Builders: []negotiate.Builder{
			negotiate.NewBuilder(negotiate.JsonEncoder{}, negotiate.First),
			negotiate.NewBuilder(negotiate.MsgpackEncoder{}, negotiate.First),
			negotiate.NewBuilder(negotiate.CborEncoder{}, negotiate.First),
			negotiate.NewBuilder(negotiate.TextEncoder{}, negotiate.First),
			negotiate.NewBuilder(negotiate.HtmlEncoder{Template: errorTemplate}, negotiate.First),
		},
		Default: negotiate.ContentTypeJSON,
	})
}

// ErrorResourceProps are the properties used to create an ErrorResource
type ErrorResourceProps struct {
	Logger log.Logger

	// Development exposes the reason and the cause of failures to
	// clients
	Development bool

	// Selector selects the representation of the failures. Defaults
	// to NewErrorSelector
	Selector *negotiate.Selector
}

// ErrorResource is the resource every failure is delivered to. Its
// pipeline expects the failure as first value and optionally the
// content type preferred by the resource that failed as second value
type ErrorResource struct {
	logger      log.Logger
	development bool
	selector    *negotiate.Selector
}

// NewErrorResource creates a new ErrorResource
func NewErrorResource(props ErrorResourceProps) *ErrorResource {
	if props.Logger == nil {
		panic("logger must be set")
	}

	selector := props.Selector
	if selector == nil {
		selector = NewErrorSelector()
	}

	return &ErrorResource{
		logger:      props.Logger.ForClass("rpc", "ErrorResource"),
		development: props.Development,
		selector:    selector,
	}
}

// Pipeline is the implementation of Resource for ErrorResource. Every
// method is handled the same way
func (r *ErrorResource) Pipeline(method request.Method) (pipeline.Stage, bool) {
	return pipeline.StageFunc(r.handle), true
}

// DefaultContentType is the implementation of Defaulter for ErrorResource
func (r *ErrorResource) DefaultContentType() string {
	return r.selector.Default()
}

// Body returns the client facing body for a failure
func (r *ErrorResource) Body(e errors.Error) ErrorBody {
	body := ErrorBody{
		ErrorCode:   e.ErrorCode.Code(),
		Description: e.ErrorCode.Desc(),
		Kind:        strcase.ToSnake(string(e.ErrorCode.Category())),
	}

	if r.development {
		body.Reason = e.Reason
		if e.Cause != nil {
			body.Cause = e.Cause.Error()
		}
	}

	return body
}

func (r *ErrorResource) report(req *request.Request, e errors.Error) {
	fields := log.MapFields{
		"path":      req.Endpoint(),
		"method":    string(req.Method()),
		"scheme":    req.EndpointScheme(),
		"call_type": "HttpRequestHandleFailure",
	}

	if e.Status() == http.StatusInternalServerError {
		r.logger.Error(req.Context(), "unhandled failure", fields, e)
		return
	}

	r.logger.Info(req.Context(), "", fields, e)
}

func (r *ErrorResource) handle(req *request.Request, in pipeline.Values) (pipeline.Values, error) {
	failure, _ := in.At(0).(error)
	if failure == nil {
		failure = errors.NewWithReason(errors.ErrInternalError, "failure missing from error resource input")
	}

	preferred, _ := in.At(1).(string)

	e := errors.Classify(failure)
	r.report(req, e)
	req.SetStatus(e.Status())

	builder, err := r.selector.SelectPreferred(req.AcceptedContentTypes(), preferred, r.selector.Default())
	if err != nil {
		return nil, err
	}

	res, err := builder.Build(req, pipeline.Values{r.Body(e)})
	if err != nil {
		return nil, err
	}

	return pipeline.Values{res}, nil
}
