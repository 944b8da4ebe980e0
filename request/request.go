package request

import (
	"context"
	"net/http"
	"strings"
)

const (
	HeaderAccept        = "Accept"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
)

// Props are the values an inbound call is built from
type Props struct {
	Context context.Context
	Method  Method

	// Endpoint is the request path. Trailing slashes are stripped
	Endpoint string

	// Params are the query string parameters
	Params *Params

	// PrivateParams are the body encoded form fields. They are kept
	// apart from Params so that they never end up in urls or logs
	PrivateParams map[string]string

	Headers map[string]string
	Body    []byte
}

// Request is one inbound call. Apart from the expected response status
// it is immutable once its endpoint scheme has been resolved. A Request
// belongs to the goroutine that handles it and must not be shared
type Request struct {
	ctx            context.Context
	method         Method
	endpoint       string
	params         *Params
	privateParams  map[string]string
	headers        map[string]string
	body           []byte
	status         int
	matched        bool
	endpointScheme string
	endpointParams map[string]interface{}
}

// New creates a new Request from its properties
func New(props Props) *Request {
	ctx := props.Context
	if ctx == nil {
		ctx = context.Background()
	}

	params := props.Params
	if params == nil {
		params = NewParams()
	}

	privateParams := make(map[string]string, len(props.PrivateParams))
	for k, v := range props.PrivateParams {
		privateParams[k] = v
	}

	headers := make(map[string]string, len(props.Headers))
	for k, v := range props.Headers {
		headers[k] = v
	}

	return &Request{
		ctx:            ctx,
		method:         props.Method,
		endpoint:       normalizeEndpoint(props.Endpoint),
		params:         params,
		privateParams:  privateParams,
		headers:        headers,
		body:           props.Body,
		status:         http.StatusOK,
		endpointParams: make(map[string]interface{}),
	}
}

func normalizeEndpoint(endpoint string) string {
	return "/" + strings.Trim(endpoint, "/")
}

func (r *Request) Context() context.Context {
	return r.ctx
}

func (r *Request) Method() Method {
	return r.method
}

// Endpoint returns the normalized request path
func (r *Request) Endpoint() string {
	return r.endpoint
}

func (r *Request) Params() *Params {
	return r.params
}

// Param returns a query string parameter
func (r *Request) Param(key string) (string, bool) {
	return r.params.Get(key)
}

// PrivateParam returns a body encoded form field
func (r *Request) PrivateParam(key string) (string, bool) {
	v, ok := r.privateParams[key]
	return v, ok
}

func (r *Request) Body() []byte {
	return r.body
}

// Header returns the header exactly as it was received
func (r *Request) Header(name string) (string, bool) {
	v, ok := r.headers[name]
	return v, ok
}

// headerFold looks up a header ignoring case. Used by the derived
// header utilities, which should not depend on how the hosting layer
// spells header names
func (r *Request) headerFold(name string) (string, bool) {
	if v, ok := r.headers[name]; ok {
		return v, true
	}

	for k, v := range r.headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}

	return "", false
}

// Status returns the status the response is expected to have
func (r *Request) Status() int {
	return r.status
}

// SetStatus sets the status the response is expected to have. Pipeline
// stages use it to signal e.g. 201 Created
func (r *Request) SetStatus(status int) {
	r.status = status
}

// EndpointScheme returns the scheme that matched the endpoint, or an
// empty string if the request has not been matched yet
func (r *Request) EndpointScheme() string {
	return r.endpointScheme
}

// Matched returns true once an endpoint scheme has been set
func (r *Request) Matched() bool {
	return r.matched
}

// SetEndpointScheme matches the endpoint against the scheme. On success
// the scheme and the typed endpoint params are set together. On failure
// the request is left untouched so it can be matched against another
// scheme. A request that has already been matched is never matched
// again and the call returns false
func (r *Request) SetEndpointScheme(scheme string) bool {
	return r.MatchScheme(ParseScheme(scheme))
}

// MatchScheme is SetEndpointScheme for an already parsed scheme
func (r *Request) MatchScheme(scheme Scheme) bool {
	if r.matched {
		return false
	}

	params, ok := scheme.Match(strings.Trim(r.endpoint, "/"))
	if !ok {
		return false
	}

	r.matched = true
	r.endpointScheme = scheme.String()
	r.endpointParams = params
	return true
}

// EndpointParams returns a copy of the params captured by the endpoint
// scheme
func (r *Request) EndpointParams() map[string]interface{} {
	params := make(map[string]interface{}, len(r.endpointParams))
	for k, v := range r.endpointParams {
		params[k] = v
	}

	return params
}

// EndpointParam returns a captured endpoint param
func (r *Request) EndpointParam(name string) (interface{}, bool) {
	v, ok := r.endpointParams[name]
	return v, ok
}

// EndpointInt returns a captured endpoint param declared as `int`
func (r *Request) EndpointInt(name string) (int64, bool) {
	v, ok := r.endpointParams[name].(int64)
	return v, ok
}

// EndpointString returns a captured endpoint param declared as `str`
func (r *Request) EndpointString(name string) (string, bool) {
	v, ok := r.endpointParams[name].(string)
	return v, ok
}

// AcceptedContentTypes returns the content types accepted by the client
// ordered by preference. It is empty if the client did not state any
func (r *Request) AcceptedContentTypes() []string {
	v, _ := r.headerFold(HeaderAccept)
	return ParseAccept(v)
}

// Authorization splits the Authorization header into its scheme and
// value. ok is false when the header is absent or empty
func (r *Request) Authorization() (scheme string, value string, ok bool) {
	v, _ := r.headerFold(HeaderAuthorization)
	v = strings.TrimSpace(v)
	if len(v) == 0 {
		return "", "", false
	}

	parts := strings.SplitN(v, " ", 2)
	if len(parts) == 1 {
		return parts[0], "", true
	}

	return parts[0], strings.TrimSpace(parts[1]), true
}
