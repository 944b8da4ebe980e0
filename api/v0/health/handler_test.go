package health

import (
	"context"
	stderr "errors"
	"net/http"
	"testing"

	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/request"
	"github.com/garagehub/dispatch/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockChecker struct {
	mock.Mock
}

func (c *MockChecker) Ping(ctx context.Context) error {
	args := c.Called(ctx)
	return args.Error(0)
}

func getHealth(checkers ...Checker) (int, string) {
	logger := log.NewDiscard()
	router := rpc.NewRouter(rpc.RouterProps{
		Logger:        logger,
		ErrorResource: rpc.NewErrorResource(rpc.ErrorResourceProps{Logger: logger}),
	})
	BindHandler(Services{Logger: logger, Checkers: checkers}, router)

	res := router.Dispatch(request.New(request.Props{
		Method:   request.MethodGet,
		Endpoint: "/api/health",
	}))

	return res.Status, string(res.Body)
}

func TestGetHealthNoCheckers(t *testing.T) {
	status, body := getHealth()

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"health":"healthy"}`, body)
}

func TestGetHealthHealthy(t *testing.T) {
	checker := &MockChecker{}
	checker.On("Ping", mock.Anything).Return(nil)

	status, body := getHealth(checker)

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"health":"healthy"}`, body)
	checker.AssertExpectations(t)
}

func TestGetHealthUnhealthy(t *testing.T) {
	healthy := &MockChecker{}
	healthy.On("Ping", mock.Anything).Return(nil)
	failing := &MockChecker{}
	failing.On("Ping", mock.Anything).Return(stderr.New("connection refused"))

	status, body := getHealth(healthy, failing)

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.JSONEq(t, `{"health":"unhealthy"}`, body)
}

func TestCheckerFunc(t *testing.T) {
	status, _ := getHealth(CheckerFunc(func(context.Context) error {
		return stderr.New("timeout")
	}))

	assert.Equal(t, http.StatusServiceUnavailable, status)
}
