package request

import (
	"strconv"
	"strings"
)

// ParamType is the type annotation of a named capture in a path
// scheme, e.g. `int` in `/api/garages/:id<int>`
type ParamType string

const (
	ParamString ParamType = "str"
	ParamInt    ParamType = "int"
)

func parseParamType(annotation string) ParamType {
	switch annotation {
	case "int", "integer":
		return ParamInt
	default:
		return ParamString
	}
}

type segment struct {
	literal  string
	name     string
	kind     ParamType
	capture  bool
	wildcard bool
}

// match parses the endpoint segment as required by the scheme
// segment. ok is false if the segment does not match
func (s segment) match(raw string) (value interface{}, ok bool) {
	switch {
	case s.wildcard:
		return nil, true
	case !s.capture:
		return nil, s.literal == raw
	case s.kind == ParamInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	default:
		return raw, true
	}
}

// Scheme is a parsed path scheme such as `/api/garages/:id<int>`. Segments
// are `/` delimited. A segment starting with `:` is a named capture with
// an optional type annotation in angle brackets, a `*` segment matches
// any single segment without capturing it and any other segment must
// match literally
type Scheme struct {
	raw      string
	segments []segment
}

// ParseScheme parses a path scheme. Unknown or missing type
// annotations are kept as strings
func ParseScheme(raw string) Scheme {
	parts := strings.Split(strings.Trim(raw, "/"), "/")
	segments := make([]segment, 0, len(parts))

	for _, part := range parts {
		switch {
		case part == "*":
			segments = append(segments, segment{wildcard: true})
		case strings.HasPrefix(part, ":"):
			name := part[1:]
			kind := ParamString
			if i := strings.IndexByte(name, '<'); i >= 0 && strings.HasSuffix(name, ">") {
				kind = parseParamType(name[i+1 : len(name)-1])
				name = name[:i]
			}
			segments = append(segments, segment{name: name, kind: kind, capture: true})
		default:
			segments = append(segments, segment{literal: part})
		}
	}

	return Scheme{raw: raw, segments: segments}
}

// String returns the scheme as it was registered
func (s Scheme) String() string {
	return s.raw
}

// Match matches an endpoint against the scheme. The endpoint is
// expected without leading or trailing slashes. Matching is all or
// nothing, the returned params are only valid if ok is true
func (s Scheme) Match(endpoint string) (params map[string]interface{}, ok bool) {
	parts := strings.Split(endpoint, "/")
	if len(parts) != len(s.segments) {
		return nil, false
	}

	params = make(map[string]interface{})
	for i, segment := range s.segments {
		value, ok := segment.match(parts[i])
		if !ok {
			return nil, false
		}

		if segment.capture {
			params[segment.name] = value
		}
	}

	return params, true
}
