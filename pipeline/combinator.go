package pipeline

import (
	"fmt"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/request"
)

type pipe []Stage

// Run is the implementation of Stage for pipe
func (p pipe) Run(req *request.Request, in Values) (Values, error) {
	values := in
	for _, stage := range p {
		out, err := stage.Run(req, values)
		if err != nil {
			return nil, err
		}

		values = out
	}

	return values, nil
}

// Pipe composes stages sequentially. Each stage receives the output of
// the previous one and the output of the last stage is the output of
// the pipe. The first stage that fails stops the pipe
func Pipe(stages ...Stage) Stage {
	for i, stage := range stages {
		if stage == nil {
			panic(fmt.Sprintf("pipe stage %d must be set", i))
		}
	}

	p := make(pipe, len(stages))
	copy(p, stages)
	return p
}

// KeySelector computes the key used by Dispatch to pick a stage
type KeySelector func(req *request.Request, in Values) interface{}

// Key returns a KeySelector that always returns key
func Key(key interface{}) KeySelector {
	return func(*request.Request, Values) interface{} {
		return key
	}
}

// Table maps keys to the stage that handles them
type Table map[interface{}]Stage

type dispatch struct {
	table    Table
	selector KeySelector
}

// Run is the implementation of Stage for dispatch
func (d dispatch) Run(req *request.Request, in Values) (Values, error) {
	key := d.selector(req, in)
	stage, ok := d.table[key]
	if !ok {
		panic(fmt.Sprintf("no stage registered for dispatch key %v", key))
	}

	return stage.Run(req, in)
}

// Dispatch selects the stage to run out of the table by the key returned
// by selector. A key without a stage in the table is a programming error
// and causes a panic
func Dispatch(table Table, selector KeySelector) Stage {
	if selector == nil {
		panic("selector must be set")
	}

	t := make(Table, len(table))
	for key, stage := range table {
		if stage == nil {
			panic(fmt.Sprintf("stage for dispatch key %v must be set", key))
		}
		t[key] = stage
	}

	return dispatch{table: t, selector: selector}
}

type firstOf struct {
	failure  errors.Error
	branches []Stage
}

// Run is the implementation of Stage for firstOf
func (f firstOf) Run(req *request.Request, in Values) (Values, error) {
	for _, branch := range f.branches {
		out, err := branch.Run(req, in)
		if err == nil {
			return out, nil
		}

		if _, ok := errors.Lookup(err); !ok {
			return nil, err
		}
	}

	return nil, f.failure
}

// FirstOf runs the branches in order with the same input and returns
// the output of the first branch that succeeds. Branches that fail with
// an errors.Error are skipped. Any other error is returned straight
// away. If every branch fails the result is failure, so that callers
// cannot tell which branches were attempted
func FirstOf(failure errors.Error, branches ...Stage) Stage {
	if len(branches) == 0 {
		panic("at least one branch must be set")
	}

	for i, branch := range branches {
		if branch == nil {
			panic(fmt.Sprintf("branch %d must be set", i))
		}
	}

	b := make([]Stage, len(branches))
	copy(b, branches)
	return firstOf{failure: failure, branches: b}
}
