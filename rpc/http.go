package rpc

import (
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/negotiate"
	"github.com/garagehub/dispatch/request"
	"github.com/garagehub/dispatch/rw"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/cors"
)

const (
	HttpHeaderRequestID = "X-Request-ID"

	contentTypeForm = "application/x-www-form-urlencoded"

	defaultBodyLimit = 1 << 16 // 64 KB
)

// HttpPreProcessor processes a request and can directly write a response
// to the writer if required.
type HttpPreProcessor interface {
	// ServeHTTP is a similar interface to http.Handler with the difference that
	// it returns true parameters. The boolean parameter indicates in case of its
	// value being true that the request can be further processed by another handler.
	// In case that it's false, no further processing of the request is required.
	// The *http.Request returned is a potentially modified request resulting of
	// mutating the original *http.Request
	ServeHTTP(w http.ResponseWriter, req *http.Request) (bool, *http.Request)
}

// Dispatcher handles requests once they have been converted from http
type Dispatcher interface {
	// Dispatch handles the request
	Dispatch(req *request.Request) *negotiate.Response

	// Fail builds the response for a request that could not be
	// converted
	Fail(req *request.Request, failure error) *negotiate.Response
}

// HttpHandlerProps are the properties used to create an HttpHandler
type HttpHandlerProps struct {
	Logger     log.Logger
	Dispatcher Dispatcher

	// PreProcessors run in order before the request is converted
	PreProcessors []HttpPreProcessor

	// BodyLimit is the maximum number of bytes an Http body can have.
	// Requests with larger bodies are rejected
	BodyLimit int64
}

// HttpHandler is the http.Handler that converts http requests into
// request.Request values, dispatches them and writes the responses
type HttpHandler struct {
	logger        log.Logger
	dispatcher    Dispatcher
	preProcessors []HttpPreProcessor
	bodyLimit     int64
}

// NewHttpHandler creates a new HttpHandler
func NewHttpHandler(props HttpHandlerProps) *HttpHandler {
	if props.Logger == nil {
		panic("logger must be set")
	}

	if props.Dispatcher == nil {
		panic("dispatcher must be set")
	}

	bodyLimit := props.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}

	return &HttpHandler{
		logger:        props.Logger.ForClass("rpc", "HttpHandler"),
		dispatcher:    props.Dispatcher,
		preProcessors: props.PreProcessors,
		bodyLimit:     bodyLimit,
	}
}

// ServeHTTP is the implementation of http.Handler for HttpHandler
func (h *HttpHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var ok bool
	for _, preProcessor := range h.preProcessors {
		ok, req = preProcessor.ServeHTTP(w, req)
		if !ok {
			return
		}
	}

	requestID := req.Header.Get(HttpHeaderRequestID)
	if len(requestID) == 0 {
		requestID = log.NewRequestID()
	}
	ctx := log.PutRequestID(req.Context(), requestID)

	r, err := h.convert(req.WithContext(ctx))

	var res *negotiate.Response
	if err != nil {
		h.logger.Debug(ctx, "failed to convert http request", log.MapFields{
			"path":      req.URL.EscapedPath(),
			"method":    req.Method,
			"call_type": "HttpRequestConvertFailure",
		}, errors.Classify(err))
		res = h.dispatcher.Fail(r, err)
	} else {
		res = h.dispatcher.Dispatch(r)
	}

	h.write(w, req, requestID, res)
}

// convert converts the http request. On failure the returned request
// is still usable to report the failure
func (h *HttpHandler) convert(req *http.Request) (*request.Request, error) {
	headers := make(map[string]string, len(req.Header))
	for k := range req.Header {
		headers[k] = strings.Join(req.Header.Values(k), ", ")
	}

	params, err := parseQuery(req.URL.RawQuery)
	if err != nil {
		return request.New(request.Props{Context: req.Context(), Endpoint: req.URL.Path, Headers: headers}),
			errors.NewWithReason(errors.ErrMalformedInput, "malformed query string")
	}

	props := request.Props{
		Context:  req.Context(),
		Endpoint: req.URL.Path,
		Params:   params,
		Headers:  headers,
	}

	method, err := request.ParseMethod(req.Method)
	if err != nil {
		return request.New(props), errors.NewWithReason(errors.ErrUnsupportedMethod, err.Error())
	}
	props.Method = method

	body, err := h.readBody(req)
	if err != nil {
		return request.New(props), err
	}
	props.Body = body

	privateParams, err := parseForm(req.Header.Get(request.HeaderContentType), body)
	if err != nil {
		return request.New(props), err
	}
	props.PrivateParams = privateParams

	return request.New(props), nil
}

func (h *HttpHandler) readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	defer func() { _ = req.Body.Close() }()

	if req.ContentLength > h.bodyLimit {
		return nil, errors.NewWithReason(errors.ErrBodyLimit, "content length exceeds request limit")
	}

	body, err := rw.ReadAllWithLimit(req.Body, rw.ReadLimitProps{
		FailOnExceed: true,
		Limit:        h.bodyLimit,
	})
	if err == rw.ErrLimitExceeded {
		return nil, errors.NewWithReason(errors.ErrBodyLimit, "body exceeds request limit")
	}
	if err != nil {
		return nil, errors.New(errors.ErrMalformedInput, pkgerrors.Wrap(err, "failed to read request body"))
	}

	return body, nil
}

// parseForm parses an url encoded form body into private params. Other
// bodies have no private params
func parseForm(contentType string, body []byte) (map[string]string, error) {
	if len(body) == 0 || len(contentType) == 0 {
		return nil, nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != contentTypeForm {
		return nil, nil
	}

	values, err := parseQuery(string(body))
	if err != nil {
		return nil, errors.NewWithReason(errors.ErrMalformedInput, "malformed form body")
	}

	params := make(map[string]string, values.Len())
	for _, k := range values.Keys() {
		params[k], _ = values.Get(k)
	}

	return params, nil
}

// parseQuery parses an url encoded query in the order it was received.
// When a key repeats the last occurrence wins and the key keeps the
// position of its first occurrence
func parseQuery(raw string) (*request.Params, error) {
	params := request.NewParams()

	for _, pair := range strings.Split(raw, "&") {
		if len(pair) == 0 {
			continue
		}

		rawKey, rawValue := pair, ""
		if i := strings.IndexByte(pair, '='); i >= 0 {
			rawKey, rawValue = pair[:i], pair[i+1:]
		}

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, err
		}

		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, err
		}

		params.Set(key, value)
	}

	return params, nil
}

func (h *HttpHandler) write(w http.ResponseWriter, req *http.Request, requestID string, res *negotiate.Response) {
	for k, v := range res.Headers {
		w.Header().Set(k, v)
	}
	w.Header().Set(HttpHeaderRequestID, requestID)
	w.WriteHeader(res.Status)

	if req.Method == http.MethodHead || len(res.Body) == 0 {
		return
	}

	if _, err := w.Write(res.Body); err != nil {
		h.logger.Debug(req.Context(), "failed to write response body", log.MapFields{
			"path":      req.URL.EscapedPath(),
			"method":    req.Method,
			"call_type": "HttpResponseWriteFailure",
			"err":       err.Error(),
		})
	}
}

// HttpCorsPreProcessorProps properties used to define the behaviour
// of the CORS implementation
type HttpCorsPreProcessorProps struct {
	// Enabled if true the HttpCorsHandler will verify requests, if false
	// the handler will just pass on a request to the next middleware
	Enabled bool

	// AllowedOrigins is a list of origins a cross-domain request can be executed from.
	// If the special "*" value is present in the list, all origins will be allowed.
	// An origin may contain a wildcard (*) to replace 0 or more characters
	// (i.e.: http://*.domain.com). Only one wildcard can be used per origin.
	AllowedOrigins []string

	// AllowedMethods is a list of methods the client is allowed to use with
	// cross-domain requests.
	AllowedMethods []string

	// AllowedHeaders is list of non simple headers the client is allowed to use with
	// cross-domain requests.
	AllowedHeaders []string

	// ExposedHeaders indicates which headers are safe to expose to the API of a CORS
	// API specification
	ExposedHeaders []string

	// MaxAge indicates how long (in seconds) the results of a preflight request
	// can be cached
	MaxAge int

	// AllowCredentials indicates whether the request can include user credentials like
	// cookies, HTTP authentication or client side SSL certificates.
	AllowCredentials bool
}

// HttpCorsPreProcessor handles CORS https://developer.mozilla.org/en-US/docs/Web/HTTP/CORS
// for requests
type HttpCorsPreProcessor struct {
	cors    *cors.Cors
	enabled bool
}

// NewHttpCorsPreProcessor creates a new instance of a Cors Http PreProcessor
func NewHttpCorsPreProcessor(props HttpCorsPreProcessorProps) *HttpCorsPreProcessor {
	c := cors.New(cors.Options{
		AllowedOrigins:     props.AllowedOrigins,
		AllowedMethods:     props.AllowedMethods,
		AllowedHeaders:     props.AllowedHeaders,
		ExposedHeaders:     props.ExposedHeaders,
		MaxAge:             props.MaxAge,
		AllowCredentials:   props.AllowCredentials,
		OptionsPassthrough: false,
		Debug:              false,
	})

	return &HttpCorsPreProcessor{
		cors:    c,
		enabled: props.Enabled,
	}
}

// ServeHTTP is the implementation of HttpPreProcessor for HttpCorsPreProcessor
func (h *HttpCorsPreProcessor) ServeHTTP(w http.ResponseWriter, req *http.Request) (bool, *http.Request) {
	if !h.enabled {
		return true, req
	}

	var (
		next    bool
		nextReq *http.Request
	)

	h.cors.ServeHTTP(w, req, func(w http.ResponseWriter, req *http.Request) {
		next = true
		nextReq = req
	})

	return next, nextReq
}
