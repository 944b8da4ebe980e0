package negotiate

import (
	"fmt"
	"strings"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
)

// SelectorProps are the properties used to create a Selector
type SelectorProps struct {
	// Builders are the available representations. When more than one
	// builder matches a wildcard the first one is used
	Builders []Builder

	// Default is the content type used when the client does not accept
	// any of the available representations. If it is empty such
	// requests are not acceptable
	Default string
}

// Selector selects the Builder for a request out of the client's
// preferences
type Selector struct {
	builders    []Builder
	index       map[string]Builder
	defaultType string
}

// NewSelector creates a new Selector
func NewSelector(props SelectorProps) *Selector {
	if len(props.Builders) == 0 {
		panic("at least one builder must be set")
	}

	index := make(map[string]Builder, len(props.Builders))
	builders := make([]Builder, 0, len(props.Builders))
	for _, builder := range props.Builders {
		contentType := builder.ContentType()
		if _, ok := index[contentType]; ok {
			panic(fmt.Sprintf("builder for %s registered more than once", contentType))
		}

		index[contentType] = builder
		builders = append(builders, builder)
	}

	return &Selector{builders: builders, index: index, defaultType: props.Default}
}

// Default returns the default content type of the selector, which may
// be empty
func (s *Selector) Default() string {
	return s.defaultType
}

// ContentTypes returns the supported content types in registration order
func (s *Selector) ContentTypes() []string {
	contentTypes := make([]string, 0, len(s.builders))
	for _, builder := range s.builders {
		contentTypes = append(contentTypes, builder.ContentType())
	}

	return contentTypes
}

// lookup finds the builder for an accepted media range. The full
// wildcard matches the first of the fallbacks that has a builder
func (s *Selector) lookup(accepted string, fallbacks ...string) (Builder, bool) {
	accepted = strings.ToLower(strings.TrimSpace(accepted))

	if accepted == "*/*" {
		for _, contentType := range fallbacks {
			if builder, ok := s.index[contentType]; ok {
				return builder, true
			}
		}

		return s.builders[0], true
	}

	if strings.HasSuffix(accepted, "/*") {
		prefix := strings.TrimSuffix(accepted, "*")
		for _, builder := range s.builders {
			if strings.HasPrefix(builder.ContentType(), prefix) {
				return builder, true
			}
		}

		return nil, false
	}

	builder, ok := s.index[accepted]
	return builder, ok
}

// Select returns the builder for the first accepted content type that is
// supported. If none is, the builder for defaultType is returned. If
// there is no builder for defaultType either the selection fails with
// ErrNotAcceptable. A client that states no preference accepts anything
func (s *Selector) Select(accepted []string, defaultType string) (Builder, error) {
	return s.SelectPreferred(accepted, "", defaultType)
}

// SelectPreferred is Select with a preferred content type that is tried
// before defaultType. A client without preferences accepts anything, so
// it gets the preferred, the default or else the first registered
// builder and never NotAcceptable
func (s *Selector) SelectPreferred(accepted []string, preferred, defaultType string) (Builder, error) {
	if len(accepted) == 0 {
		accepted = []string{"*/*"}
	}

	for _, contentType := range accepted {
		if builder, ok := s.lookup(contentType, preferred, defaultType); ok {
			return builder, nil
		}
	}

	if builder, ok := s.index[preferred]; ok {
		return builder, nil
	}

	if builder, ok := s.index[defaultType]; ok {
		return builder, nil
	}

	return nil, errors.NewWithReason(errors.ErrNotAcceptable,
		fmt.Sprintf("none of %v is supported, available %v", accepted, s.ContentTypes()))
}

// Stage returns the terminal stage that builds the response with the
// representation that best fits the request. Its output is the single
// *Response value
func Stage(selector *Selector) pipeline.Stage {
	return pipeline.StageFunc(func(req *request.Request, in pipeline.Values) (pipeline.Values, error) {
		builder, err := selector.Select(req.AcceptedContentTypes(), selector.Default())
		if err != nil {
			return nil, err
		}

		res, err := builder.Build(req, in)
		if err != nil {
			return nil, err
		}

		return pipeline.Values{res}, nil
	})
}
