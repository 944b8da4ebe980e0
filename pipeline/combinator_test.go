package pipeline

import (
	stderr "errors"
	"testing"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/request"
	"github.com/stretchr/testify/assert"
)

func newRequest() *request.Request {
	return request.New(request.Props{Method: request.MethodGet, Endpoint: "/"})
}

func appendStage(calls *[]string, name string) Stage {
	return StageFunc(func(req *request.Request, in Values) (Values, error) {
		*calls = append(*calls, name)
		return in.Append(name), nil
	})
}

func failStage(calls *[]string, name string, err error) Stage {
	return StageFunc(func(req *request.Request, in Values) (Values, error) {
		*calls = append(*calls, name)
		return nil, err
	})
}

func TestPipeSpreadsOutputs(t *testing.T) {
	var calls []string
	stage := Pipe(
		appendStage(&calls, "a"),
		StageFunc(func(req *request.Request, in Values) (Values, error) {
			assert.Equal(t, Values{"a"}, in)
			return Values{in.At(0), 1, 2}, nil
		}),
		appendStage(&calls, "c"),
	)

	out, err := stage.Run(newRequest(), nil)

	assert.Nil(t, err)
	assert.Equal(t, Values{"a", 1, 2, "c"}, out)
	assert.Equal(t, []string{"a", "c"}, calls)
}

func TestPipeStopsOnFailure(t *testing.T) {
	var calls []string
	failure := errors.New(errors.ErrMalformedInput, nil)

	stage := Pipe(
		appendStage(&calls, "first"),
		failStage(&calls, "second", failure),
		appendStage(&calls, "third"),
	)

	out, err := stage.Run(newRequest(), nil)

	assert.Nil(t, out)
	assert.Equal(t, failure, err)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestPipeEmptyIsIdentity(t *testing.T) {
	out, err := Pipe().Run(newRequest(), Values{1})

	assert.Nil(t, err)
	assert.Equal(t, Values{1}, out)
}

func TestPipeNilStagePanics(t *testing.T) {
	assert.Panics(t, func() {
		Pipe(Identity, nil)
	})
}

func TestPipeNested(t *testing.T) {
	var calls []string
	stage := Pipe(
		appendStage(&calls, "a"),
		Pipe(appendStage(&calls, "b"), appendStage(&calls, "c")),
	)

	out, err := stage.Run(newRequest(), nil)

	assert.Nil(t, err)
	assert.Equal(t, Values{"a", "b", "c"}, out)
}

func TestDispatchLiteralKey(t *testing.T) {
	var calls []string
	stage := Dispatch(Table{
		"a": appendStage(&calls, "a"),
		"b": appendStage(&calls, "b"),
	}, Key("b"))

	out, err := stage.Run(newRequest(), nil)

	assert.Nil(t, err)
	assert.Equal(t, Values{"b"}, out)
	assert.Equal(t, []string{"b"}, calls)
}

func TestDispatchSelectorUsesInput(t *testing.T) {
	var calls []string
	stage := Dispatch(Table{
		1: appendStage(&calls, "one"),
		2: appendStage(&calls, "two"),
	}, func(req *request.Request, in Values) interface{} {
		return in.At(0)
	})

	out, err := stage.Run(newRequest(), Values{2})

	assert.Nil(t, err)
	assert.Equal(t, Values{2, "two"}, out)
}

func TestDispatchUnknownKeyPanics(t *testing.T) {
	stage := Dispatch(Table{"a": Identity}, Key("z"))

	assert.Panics(t, func() {
		_, _ = stage.Run(newRequest(), nil)
	})
}

func TestFirstOfSecondBranchWins(t *testing.T) {
	var calls []string
	failure := errors.New(errors.ErrAuthorizationDenied, nil)

	stage := FirstOf(failure,
		failStage(&calls, "first", errors.New(errors.ErrWrongPrincipal, nil)),
		appendStage(&calls, "second"),
		appendStage(&calls, "third"),
	)

	out, err := stage.Run(newRequest(), Values{"in"})

	assert.Nil(t, err)
	assert.Equal(t, Values{"in", "second"}, out)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestFirstOfAllFail(t *testing.T) {
	var calls []string
	failure := errors.New(errors.ErrAuthorizationDenied, nil)

	stage := FirstOf(failure,
		failStage(&calls, "first", errors.New(errors.ErrWrongPrincipal, nil)),
		failStage(&calls, "second", errors.New(errors.ErrAuthenticationRequired, nil)),
	)

	_, err := stage.Run(newRequest(), nil)

	assert.Equal(t, failure, err)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestFirstOfUnhandledErrorPropagates(t *testing.T) {
	var calls []string
	cause := stderr.New("connection reset")

	stage := FirstOf(errors.New(errors.ErrAuthorizationDenied, nil),
		failStage(&calls, "first", cause),
		appendStage(&calls, "second"),
	)

	_, err := stage.Run(newRequest(), nil)

	assert.Equal(t, cause, err)
	assert.Equal(t, []string{"first"}, calls)
}

func TestFirstOfWithoutBranchesPanics(t *testing.T) {
	assert.Panics(t, func() {
		FirstOf(errors.New(errors.ErrAuthorizationDenied, nil))
	})
}

func TestMap(t *testing.T) {
	stage := Map(func(req *request.Request, in Values) (interface{}, error) {
		return in.At(0).(int) * 2, nil
	})

	out, err := stage.Run(newRequest(), Values{21})

	assert.Nil(t, err)
	assert.Equal(t, Values{42}, out)
}

func TestValuesAt(t *testing.T) {
	v := Values{1, "a"}

	assert.Equal(t, 1, v.At(0))
	assert.Equal(t, "a", v.At(1))
	assert.Nil(t, v.At(2))
	assert.Nil(t, v.At(-1))
}
