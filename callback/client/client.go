package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/garagehub/dispatch/concurrent"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/metrics"
)

const passwordResetRequested string = "PasswordResetRequested"

// CallbackProps are properties that can be passed
// when executing a callback to modify the behaviour
// of the call
type CallbackProps struct {
	// Body is the value used to generate the body that will be
	// sent on the request
	Body interface{}
}

// Calls are all the callbacks that the client implements
type Calls interface {
	PasswordResetRequested(ctx context.Context, body PasswordResetRequestedBody)
}

// HttpClient is the basic interface for the
// underlying http client used by the Client
type HttpClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Callbacks defines all the callbacks that the
// client supports and the behaviour that the client
// should have on those callbacks
type Callbacks struct {
	PasswordResetRequested Callback
}

// Services are services required by the client
type Services struct {
	Logger log.Logger

	// Metrics records the delivery attempts. Optional
	Metrics *metrics.OperationMetrics
}

// Props are the properties that define
// the behaviour of the client to send callbacks
type Props struct {
	Callbacks   Callbacks
	RetryConfig concurrent.RetryConfig
}

// Deps are the required instantiated dependencies
// that a Client requires
type Deps struct {
	Logger  log.Logger
	Client  HttpClient
	Metrics *metrics.OperationMetrics
}

// NewClient creates a new callback client
func NewClient(services *Services, props *Props) *Client {
	return NewClientWithDeps(&Deps{
		Logger:  services.Logger,
		Client:  &http.Client{},
		Metrics: services.Metrics,
	}, props)
}

// NewClientWithDeps creates a new client using the external
// dependencies provided
func NewClientWithDeps(deps *Deps, props *Props) *Client {
	if deps.Logger == nil {
		panic("logger must be set")
	}

	if deps.Client == nil {
		panic("client must be set")
	}

	return &Client{
		callbacks:   props.Callbacks,
		retryConfig: props.RetryConfig,
		client:      deps.Client,
		logger:      deps.Logger.ForClass("callback", "Client"),
		metrics:     deps.Metrics,
	}
}

// Client is the callback client that will send
// callbacks when events are triggered
type Client struct {
	callbacks   Callbacks
	client      HttpClient
	retryConfig concurrent.RetryConfig
	logger      log.Logger
	metrics     *metrics.OperationMetrics
}

func (c *Client) instrumentedRequest(ctx context.Context, callback *Callback, body []byte) (int, error) {
	if c.metrics == nil {
		return c.request(ctx, callback, body)
	}

	timer := c.metrics.OperationTimer(callback.Name)
	defer timer.ObserveDuration()

	code, err := c.request(ctx, callback, body)
	c.metrics.ObserveOperation(callback.Name, err)
	return code, err
}

// request sends an http request. A new request is created on every
// attempt since the body of a request can only be read once
func (c *Client) request(ctx context.Context, callback *Callback, body []byte) (int, error) {
	code, err := concurrent.RetryWithConfig(ctx, concurrent.SupplierFunc(func() (interface{}, error) {
		req, err := c.createRequest(ctx, callback, body)
		if err != nil {
			return 0, concurrent.ErrCannotRecover{Cause: ErrNewHttpRequest{Cause: err}}
		}

		res, err := c.client.Do(req)
		if err != nil {
			return 0, ErrDeliverHttpRequest{Cause: err}
		}
		drain(res.Body)

		if res.StatusCode >= 500 {
			return 0, ErrDeliverHttpRequest{StatusCode: res.StatusCode}
		}

		if res.StatusCode >= 400 {
			return 0, concurrent.ErrCannotRecover{Cause: ErrDeliverHttpRequest{StatusCode: res.StatusCode}}
		}

		return res.StatusCode, nil
	}), c.retryConfig)

	if err != nil {
		return 0, err
	}

	return code.(int), err
}

func drain(body io.ReadCloser) {
	if body == nil {
		return
	}

	_, _ = io.Copy(ioutil.Discard, body)
	_ = body.Close()
}

func (c *Client) createRequest(ctx context.Context, callback *Callback, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(callback.Method, callback.URL, reader)
	if err != nil {
		return nil, err
	}

	for _, header := range callback.Headers {
		h := strings.SplitN(header, ":", 2)
		if len(h) != 2 {
			continue
		}

		req.Header.Add(strings.TrimSpace(h[0]), strings.TrimSpace(h[1]))
	}

	if requestID := log.GetRequestID(ctx); len(requestID) > 0 {
		req.Header.Set("X-Request-ID", requestID)
	}

	return req.WithContext(ctx), nil
}

func (c *Client) createBody(callback *Callback, props *CallbackProps) ([]byte, error) {
	if props == nil || props.Body == nil {
		return nil, nil
	}

	if callback.BodyFormat == nil {
		return json.Marshal(props.Body)
	}

	var buffer bytes.Buffer
	if err := callback.BodyFormat.Execute(&buffer, props.Body); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// Callback sends the callback if it is enabled. Callbacks that are
// not Sync are delivered in the background and Callback only returns
// the errors raised while creating the request
func (c *Client) Callback(
	ctx context.Context,
	callback *Callback,
	props *CallbackProps,
) error {
	if !callback.Enabled {
		return nil
	}

	body, err := c.createBody(callback, props)
	if err != nil {
		c.logger.Warn(ctx, "failed to create http request body", log.MapFields{
			"call_type": "SendCallbackFailure",
			"method":    callback.Method,
			"url":       callback.URL,
			"err":       err.Error(),
		})
		return ErrNewHttpRequest{Cause: err}
	}

	c.logger.Debug(ctx, "attempt to deliver http callback", log.MapFields{
		"call_type": "SendCallbackAttempt",
		"method":    callback.Method,
		"url":       callback.URL,
		"callback":  callback.Name,
		"sync":      callback.Sync,
	})

	if callback.Sync {
		return c.deliver(ctx, callback, body)
	}

	// the request context ends with the request, the delivery keeps
	// only its request id
	bg := log.PutRequestID(context.Background(), log.GetRequestID(ctx))
	go func() {
		_ = c.deliver(bg, callback, body)
	}()

	return nil
}

func (c *Client) deliver(ctx context.Context, callback *Callback, body []byte) error {
	code, err := c.instrumentedRequest(ctx, callback, body)
	if err != nil {
		c.logger.Warn(ctx, "failed to deliver http callback", log.MapFields{
			"call_type": "SendCallbackFailure",
			"method":    callback.Method,
			"url":       callback.URL,
			"callback":  callback.Name,
			"sync":      callback.Sync,
			"err":       err.Error(),
		})
		return err
	}

	c.logger.Debug(ctx, "http callback delivered", log.MapFields{
		"call_type":  "SendCallbackSuccess",
		"method":     callback.Method,
		"url":        callback.URL,
		"callback":   callback.Name,
		"statusCode": code,
		"sync":       callback.Sync,
	})

	return nil
}

// PasswordResetRequested sends a callback that is triggered when a
// password reset token has been issued for an identity
func (c *Client) PasswordResetRequested(ctx context.Context, body PasswordResetRequestedBody) {
	cb := c.callbacks.PasswordResetRequested
	if len(cb.Name) == 0 {
		cb.Name = passwordResetRequested
	}

	_ = c.Callback(ctx, &cb, &CallbackProps{
		Body: body,
	})
}
