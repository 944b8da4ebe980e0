package pipeline

import (
	"github.com/garagehub/dispatch/request"
)

// Values are the positional values passed from one stage to the next
type Values []interface{}

// At returns the value at position i or nil if there is no such value
func (v Values) At(i int) interface{} {
	if i < 0 || i >= len(v) {
		return nil
	}

	return v[i]
}

// Append returns a copy of the values with vs appended
func (v Values) Append(vs ...interface{}) Values {
	out := make(Values, 0, len(v)+len(vs))
	out = append(out, v...)
	return append(out, vs...)
}

// Stage is a single step in the handling of a request. A stage receives
// the output of the previous stage and returns the input of the next one.
// Returning an error stops the pipeline the stage is part of
type Stage interface {
	Run(req *request.Request, in Values) (Values, error)
}

// StageFunc allows functions to implement Stage
type StageFunc func(req *request.Request, in Values) (Values, error)

// Run is the implementation of Stage for StageFunc
func (f StageFunc) Run(req *request.Request, in Values) (Values, error) {
	return f(req, in)
}

// Identity is a stage that returns its input unchanged
var Identity Stage = StageFunc(func(req *request.Request, in Values) (Values, error) {
	return in, nil
})

// Map creates a stage from a function that produces a single value
// out of the stage input
func Map(fn func(req *request.Request, in Values) (interface{}, error)) Stage {
	return StageFunc(func(req *request.Request, in Values) (Values, error) {
		v, err := fn(req, in)
		if err != nil {
			return nil, err
		}

		return Values{v}, nil
	})
}
