package rpc

import (
	stderr "errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/metrics"
	"github.com/garagehub/dispatch/negotiate"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
)

const internalErrorBody = "Internal Error. Please check the status of the service.\n"

type route struct {
	scheme   request.Scheme
	resource Resource
}

// RouterProps are the properties used to create a Router
type RouterProps struct {
	Logger log.Logger

	// ErrorResource handles every failure. It is required
	ErrorResource Resource

	// Metrics records dispatched requests. Optional
	Metrics *metrics.ServiceMetrics
}

// Router maps endpoint schemes to resources and dispatches requests to
// the pipeline of the matched resource and method. Resources must be
// registered before the first request is dispatched. Once serving,
// the Router is safe for concurrent use
type Router struct {
	logger        log.Logger
	errorResource Resource
	metrics       *metrics.ServiceMetrics
	routes        []route
}

// NewRouter creates a new Router
func NewRouter(props RouterProps) *Router {
	if props.Logger == nil {
		panic("logger must be set")
	}

	if props.ErrorResource == nil {
		panic("error resource must be set")
	}

	return &Router{
		logger:        props.Logger.ForClass("rpc", "Router"),
		errorResource: props.ErrorResource,
		metrics:       props.Metrics,
	}
}

// Register binds the resource to the endpoint scheme. Schemes are
// matched in registration order and the first match wins, so a scheme
// must be registered before any other scheme that overlaps it
func (r *Router) Register(scheme string, resource Resource) {
	if resource == nil {
		panic(fmt.Sprintf("resource for scheme %s must be set", scheme))
	}

	parsed := request.ParseScheme(scheme)
	for _, route := range r.routes {
		if route.scheme.String() == parsed.String() {
			panic(fmt.Sprintf("scheme %s registered more than once", scheme))
		}
	}

	r.routes = append(r.routes, route{scheme: parsed, resource: resource})
}

// Schemes returns the registered schemes in registration order
func (r *Router) Schemes() []string {
	schemes := make([]string, 0, len(r.routes))
	for _, route := range r.routes {
		schemes = append(schemes, route.scheme.String())
	}

	return schemes
}

// Dispatch handles the request. It always returns a response, failures
// included
func (r *Router) Dispatch(req *request.Request) *negotiate.Response {
	start := time.Now()

	r.logger.Debug(req.Context(), "", log.MapFields{
		"path":      req.Endpoint(),
		"method":    string(req.Method()),
		"call_type": "HttpRequestHandleAttempt",
	})

	res := r.dispatch(req)

	if r.metrics != nil {
		r.metrics.ObserveRequest(req.EndpointScheme(), string(req.Method()), res.Status, time.Since(start))
	}

	return res
}

func (r *Router) dispatch(req *request.Request) *negotiate.Response {
	resource, stage, err := r.route(req)
	if err != nil {
		return r.fail(req, resource, err)
	}

	res, err := r.run(req, stage, nil)
	if err != nil {
		return r.fail(req, resource, err)
	}

	r.logger.Info(req.Context(), "", log.MapFields{
		"path":        req.Endpoint(),
		"method":      string(req.Method()),
		"scheme":      req.EndpointScheme(),
		"call_type":   "HttpRequestHandleSuccess",
		"status_code": res.Status,
	})

	return res
}

// route finds the resource and the pipeline for the request. The
// resource is returned whenever a scheme matched
func (r *Router) route(req *request.Request) (Resource, pipeline.Stage, error) {
	for _, route := range r.routes {
		if !req.MatchScheme(route.scheme) {
			continue
		}

		stage, ok := route.resource.Pipeline(req.Method())
		if !ok {
			return route.resource, nil, errors.NewWithReason(errors.ErrMethodNotAllowed,
				fmt.Sprintf("%s does not support %s", route.scheme, req.Method()))
		}

		return route.resource, stage, nil
	}

	return nil, nil, errors.NewWithReason(errors.ErrNotFound,
		fmt.Sprintf("no resource matches %s", req.Endpoint()))
}

// run runs the stage and extracts the response from its output.
// Panics are recovered as internal errors
func (r *Router) run(req *request.Request, stage pipeline.Stage, in pipeline.Values) (res *negotiate.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var cause error
			switch x := rec.(type) {
			case string:
				cause = stderr.New(x)
			case error:
				cause = x
			default:
				cause = fmt.Errorf("unknown panic %+v", rec)
			}

			r.logger.Error(req.Context(), "unexpected panic caught", log.MapFields{
				"path":       req.Endpoint(),
				"method":     string(req.Method()),
				"call_type":  "HttpRequestHandleFailure",
				"err":        cause.Error(),
				"stacktrace": string(debug.Stack()),
			})

			res = nil
			err = errors.New(errors.ErrInternalError, cause)
		}
	}()

	out, err := stage.Run(req, in)
	if err != nil {
		return nil, err
	}

	if len(out) != 1 {
		return nil, errors.NewWithReason(errors.ErrInvalidPipelineOutput,
			fmt.Sprintf("pipeline returned %d values instead of a single response", len(out)))
	}

	res, ok := out[0].(*negotiate.Response)
	if !ok || res == nil {
		return nil, errors.NewWithReason(errors.ErrInvalidPipelineOutput,
			fmt.Sprintf("pipeline returned %T instead of a response", out[0]))
	}

	return res, nil
}

// Fail delivers a failure raised outside of dispatch, such as by the
// hosting layer, to the error resource
func (r *Router) Fail(req *request.Request, failure error) *negotiate.Response {
	res := r.fail(req, nil, failure)
	if r.metrics != nil {
		r.metrics.ObserveRequest(req.EndpointScheme(), string(req.Method()), res.Status, 0)
	}
	return res
}

// fail delivers the failure to the error resource. If the error
// resource fails as well a fixed plain text response is returned
func (r *Router) fail(req *request.Request, resource Resource, failure error) *negotiate.Response {
	var preferred string
	if d, ok := resource.(Defaulter); ok {
		preferred = d.DefaultContentType()
	}

	stage, ok := r.errorResource.Pipeline(req.Method())
	if !ok {
		r.logger.Error(req.Context(), "error resource does not handle method", log.MapFields{
			"method":    string(req.Method()),
			"call_type": "HttpRequestHandleFailure",
		}, errors.Classify(failure))
		return internalErrorResponse()
	}

	res, err := r.run(req, stage, pipeline.Values{failure, preferred})
	if err != nil {
		r.logger.Error(req.Context(), "error resource failed", log.MapFields{
			"path":      req.Endpoint(),
			"method":    string(req.Method()),
			"call_type": "HttpRequestHandleFailure",
			"failure":   failure.Error(),
		}, errors.Classify(err))
		return internalErrorResponse()
	}

	return res
}

func internalErrorResponse() *negotiate.Response {
	return &negotiate.Response{
		Status:  http.StatusInternalServerError,
		Headers: map[string]string{negotiate.HeaderContentType: "text/plain; charset=utf-8"},
		Body:    []byte(internalErrorBody),
	}
}
