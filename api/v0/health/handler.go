package health

import (
	"context"
	"net/http"

	"github.com/garagehub/dispatch/api"
	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/negotiate"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
	"github.com/garagehub/dispatch/rpc"
)

// Checker checks whether a collaborator is reachable
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc allows functions to implement Checker
type CheckerFunc func(ctx context.Context) error

// Ping is the implementation of Checker for CheckerFunc
func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

type Services struct {
	Logger log.Logger

	// Checkers are the collaborators that must be reachable for the
	// service to be healthy
	Checkers []Checker
}

type HealthHandler struct {
	logger   log.Logger
	checkers []Checker
}

func NewHealthHandler(services Services) HealthHandler {
	if services.Logger == nil {
		panic("Logger must be provided as a service")
	}

	return HealthHandler{
		logger:   services.Logger.ForClass("health", "handler"),
		checkers: services.Checkers,
	}
}

// GetHealth reports the service as unhealthy as soon as one of the
// collaborators cannot be reached. Unhealthy responses have status 503
func (h HealthHandler) GetHealth(req *request.Request, in pipeline.Values) (interface{}, error) {
	for _, checker := range h.checkers {
		if err := checker.Ping(req.Context()); err != nil {
			h.logger.Warn(req.Context(), "health check failed", log.MapFields{
				"call_type": "HealthCheckFailure",
			}, errors.New(errors.ErrInternalError, err))

			req.SetStatus(http.StatusServiceUnavailable)
			return GetHealthResponse{Health: Unhealthy}, nil
		}
	}

	return GetHealthResponse{Health: Healthy}, nil
}

func BindHandler(services Services, binder rpc.ResourceBinder) {
	handler := NewHealthHandler(services)

	binder.Register("/api/health", rpc.MethodPipelines{
		request.MethodGet: pipeline.Pipe(
			pipeline.Map(handler.GetHealth),
			negotiate.Stage(api.NewSelector(negotiate.First)),
		),
	})
}
