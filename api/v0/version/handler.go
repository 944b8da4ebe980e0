package version

import (
	"github.com/garagehub/dispatch/api"
	"github.com/garagehub/dispatch/negotiate"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
	"github.com/garagehub/dispatch/rpc"
)

// Version is the version of the API served
const Version = 0

// Handler is the handler to satisfy version related requests
type Handler struct{}

// NewHandler creates a new instance of a version handler
func NewHandler() Handler {
	return Handler{}
}

// GetVersion returns the version of the component
func (h Handler) GetVersion(req *request.Request, in pipeline.Values) (interface{}, error) {
	return GetVersionResponse{Version: Version}, nil
}

// BindHandler binds the version handler to the resource binder
func BindHandler(binder rpc.ResourceBinder) {
	handler := NewHandler()

	binder.Register("/api/version", rpc.MethodPipelines{
		request.MethodGet: pipeline.Pipe(
			pipeline.Map(handler.GetVersion),
			negotiate.Stage(api.NewSelector(negotiate.First)),
		),
	})
}
