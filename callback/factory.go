package callback

import (
	"text/template"
	"time"

	"github.com/garagehub/dispatch/callback/client"
	"github.com/garagehub/dispatch/concurrent"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/metrics"
)

type ClientServices struct {
	Logger  log.Logger
	Metrics *metrics.OperationMetrics
}

func newCallback(name string, c Callback) (client.Callback, error) {
	cb := client.Callback{
		Enabled: c.Enabled,
		Name:    name,
		Method:  c.Method,
		URL:     c.URL,
		Headers: c.Headers,
		Sync:    c.Sync,
	}

	if len(c.Body) > 0 {
		tmpl, err := template.New(name).Parse(c.Body)
		if err != nil {
			return client.Callback{}, err
		}
		cb.BodyFormat = tmpl
	}

	return cb, nil
}

// NewClient creates a new instance of the client with the
// specified configuration and the provided services
func NewClient(services *ClientServices, config *Config) (*client.Client, error) {
	passwordReset, err := newCallback("PasswordResetRequested", config.PasswordReset.Callback)
	if err != nil {
		return nil, err
	}

	return client.NewClient(&client.Services{
		Logger:  services.Logger,
		Metrics: services.Metrics,
	}, &client.Props{
		Callbacks: client.Callbacks{
			PasswordResetRequested: passwordReset,
		},
		RetryConfig: concurrent.RetryConfig{
			Random:          true,
			Attempts:        5,
			BaseExp:         2,
			BaseTimeout:     100 * time.Millisecond,
			MaxRetryTimeout: 5 * time.Second,
		},
	}), nil
}
