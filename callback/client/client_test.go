package client

import (
	"context"
	stderr "errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"text/template"
	"time"

	"github.com/garagehub/dispatch/concurrent"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var Context = context.TODO()

var TestRetryConfig = concurrent.RetryConfig{
	BaseTimeout:     1,
	BaseExp:         1,
	MaxRetryTimeout: 10 * time.Millisecond,
	Attempts:        3,
	Random:          false,
}

var Logger = log.NewDiscard()

type MockHttpClient struct {
	mock.Mock
}

func (c *MockHttpClient) Do(req *http.Request) (*http.Response, error) {
	args := c.Called(req)
	if args.Get(1) != nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*http.Response), nil
}

func newClient() *Client {
	return NewClientWithDeps(&Deps{
		Client: &MockHttpClient{},
		Logger: Logger,
	}, &Props{
		Callbacks:   Callbacks{},
		RetryConfig: TestRetryConfig,
	})
}

func TestClientCallbackDisabledNoSend(t *testing.T) {
	client := newClient()
	mockclient := client.client.(*MockHttpClient)

	err := client.Callback(Context,
		&Callback{Enabled: false, Sync: true},
		&CallbackProps{})

	assert.Nil(t, err)
	mockclient.AssertNotCalled(t, "Do", mock.Anything)
}

func TestClientCallbackSendOK(t *testing.T) {
	client := newClient()
	mockclient := client.client.(*MockHttpClient)

	mockclient.On("Do",
		mock.MatchedBy(func(req *http.Request) bool {
			return req.Method == http.MethodPost &&
				req.URL.String() == "http://localhost:1234/" &&
				req.Header.Get("Content-type") == "plain/text"
		})).Return(&http.Response{StatusCode: http.StatusOK}, nil)

	err := client.Callback(Context, &Callback{
		Enabled: true,
		Method:  http.MethodPost,
		URL:     "http://localhost:1234/",
		Headers: []string{"Content-type:plain/text"},
		Sync:    true,
	}, &CallbackProps{})

	assert.Nil(t, err)
	mockclient.AssertNumberOfCalls(t, "Do", 1)
}

func TestClientCallbackSendNotOK(t *testing.T) {
	client := newClient()
	mockclient := client.client.(*MockHttpClient)

	mockclient.On("Do", mock.Anything).
		Return(&http.Response{StatusCode: http.StatusInternalServerError}, nil)

	err := client.Callback(Context, &Callback{
		Enabled: true,
		Method:  http.MethodPost,
		URL:     "http://localhost:1234/",
		Sync:    true,
	}, &CallbackProps{})

	_, ok := err.(concurrent.ErrMaxAttemptsReached)
	assert.True(t, ok)
	mockclient.AssertNumberOfCalls(t, "Do", 3)
}

func TestClientCallbackClientErrorNotRetried(t *testing.T) {
	client := newClient()
	mockclient := client.client.(*MockHttpClient)

	mockclient.On("Do", mock.Anything).
		Return(&http.Response{StatusCode: http.StatusBadRequest}, nil)

	err := client.Callback(Context, &Callback{
		Enabled: true,
		Method:  http.MethodPost,
		URL:     "http://localhost:1234/",
		Sync:    true,
	}, &CallbackProps{})

	_, ok := err.(ErrDeliverHttpRequest)
	assert.True(t, ok)
	mockclient.AssertNumberOfCalls(t, "Do", 1)
}

func TestClientCallbackTransportErrorRetried(t *testing.T) {
	client := newClient()
	mockclient := client.client.(*MockHttpClient)

	mockclient.On("Do", mock.Anything).Return(nil, stderr.New("connection refused")).Once()
	mockclient.On("Do", mock.Anything).Return(&http.Response{StatusCode: http.StatusAccepted}, nil).Once()

	err := client.Callback(Context, &Callback{
		Enabled: true,
		Method:  http.MethodPost,
		URL:     "http://localhost:1234/",
		Sync:    true,
	}, &CallbackProps{})

	assert.Nil(t, err)
	mockclient.AssertNumberOfCalls(t, "Do", 2)
}

func TestClientCallbackBodyTemplate(t *testing.T) {
	bodyTmpl, err := template.New("PasswordResetRequested").Parse(
		`{"to": "{{.Username}}", "link": "https://garages.example/reset?token={{.Token}}"}`)
	require.Nil(t, err)

	client := newClient()
	mockclient := client.client.(*MockHttpClient)
	mockclient.On("Do", mock.Anything).Return(&http.Response{StatusCode: http.StatusOK}, nil)

	err = client.Callback(Context, &Callback{
		Enabled:    true,
		Method:     http.MethodPost,
		URL:        "http://localhost:1234/",
		BodyFormat: bodyTmpl,
		Sync:       true,
	}, &CallbackProps{Body: PasswordResetRequestedBody{Username: "bob", Token: "abc"}})

	assert.Nil(t, err)
	mockclient.AssertCalled(t, "Do", mock.MatchedBy(func(req *http.Request) bool {
		v, err := ioutil.ReadAll(req.Body)
		if err != nil {
			return false
		}

		return string(v) == `{"to": "bob", "link": "https://garages.example/reset?token=abc"}`
	}))
}

func TestClientPasswordResetRequestedOverHttp(t *testing.T) {
	var calls int32
	received := make(chan string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		body, _ := ioutil.ReadAll(req.Body)
		received <- req.Header.Get("X-Request-ID") + " " + string(body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	m := metrics.NewOperationMetrics("callback", prometheus.NewRegistry())
	client := NewClientWithDeps(&Deps{
		Client:  server.Client(),
		Logger:  Logger,
		Metrics: m,
	}, &Props{
		Callbacks: Callbacks{
			PasswordResetRequested: Callback{
				Enabled: true,
				Method:  http.MethodPost,
				URL:     server.URL,
				Headers: []string{"Content-Type: application/json"},
			},
		},
		RetryConfig: TestRetryConfig,
	})

	ctx := log.PutRequestID(context.Background(), "req-1")
	client.PasswordResetRequested(ctx, PasswordResetRequestedBody{
		UserType:  "garage",
		Username:  "bob",
		Token:     "abc",
		ExpiresAt: 1600000600,
	})

	select {
	case v := <-received:
		assert.Equal(t, `req-1 {"usertype":"garage","username":"bob","token":"abc","expiresAt":1600000600}`, v)
	case <-time.After(5 * time.Second):
		t.Fatal("callback not delivered")
	}

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.Operations.WithLabelValues(passwordResetRequested, "ok")) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
