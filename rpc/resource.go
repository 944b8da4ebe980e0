package rpc

import (
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
)

// Resource supplies the pipeline that handles each of the methods it
// supports
type Resource interface {
	// Pipeline returns the pipeline for the method and false if the
	// method is not supported by the resource
	Pipeline(method request.Method) (pipeline.Stage, bool)
}

// Defaulter is implemented by resources that prefer a content type
// for their representations, which is also used for the failures
// raised while handling them
type Defaulter interface {
	DefaultContentType() string
}

// MethodPipelines is a Resource defined by the pipelines of its
// methods
type MethodPipelines map[request.Method]pipeline.Stage

// Pipeline is the implementation of Resource for MethodPipelines
func (m MethodPipelines) Pipeline(method request.Method) (pipeline.Stage, bool) {
	stage, ok := m[method]
	return stage, ok && stage != nil
}

type defaultResource struct {
	Resource
	contentType string
}

func (r defaultResource) DefaultContentType() string {
	return r.contentType
}

// WithDefault returns a Resource that behaves as resource and prefers
// contentType
func WithDefault(resource Resource, contentType string) Resource {
	return defaultResource{Resource: resource, contentType: contentType}
}

// AnyMethod is a Resource that handles every method with the same
// pipeline
type AnyMethod struct {
	Stage pipeline.Stage
}

// Pipeline is the implementation of Resource for AnyMethod
func (a AnyMethod) Pipeline(method request.Method) (pipeline.Stage, bool) {
	return a.Stage, a.Stage != nil
}

// ResourceBinder binds resources to the endpoint schemes they handle
type ResourceBinder interface {
	Register(scheme string, resource Resource)
}
