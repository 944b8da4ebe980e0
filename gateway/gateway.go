package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/garagehub/dispatch/api/v0/garage"
	"github.com/garagehub/dispatch/api/v0/health"
	"github.com/garagehub/dispatch/api/v0/password"
	"github.com/garagehub/dispatch/api/v0/session"
	"github.com/garagehub/dispatch/api/v0/version"
	"github.com/garagehub/dispatch/auth"
	"github.com/garagehub/dispatch/callback"
	callbackclient "github.com/garagehub/dispatch/callback/client"
	"github.com/garagehub/dispatch/eventlog"
	"github.com/garagehub/dispatch/identity"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/metrics"
	"github.com/garagehub/dispatch/rpc"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const serviceName = "dispatch"

// Services are the collaborators the resources are built with
type Services struct {
	Logger        log.Logger
	Registry      *prometheus.Registry
	Store         identity.Store
	Authenticator *auth.Authenticator
	Recorder      eventlog.Recorder
	Callbacks     callbackclient.Calls
	Checkers      []health.Checker

	closers []io.Closer
}

// Close releases the resources held by the services
func (s *Services) Close() error {
	var first error
	for _, closer := range s.closers {
		if err := closer.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// NewServices creates the services out of the configuration
func NewServices(ctx context.Context, logger log.Logger, config *Config) (*Services, error) {
	registry := NewRegistry()
	services := &Services{Logger: logger, Registry: registry}

	store, closer, err := identity.NewStore(ctx, &config.IdentityConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create identity store")
	}
	services.closers = append(services.closers, closer)
	services.Store = identity.Instrument(store, metrics.NewOperationMetrics("identity_store", registry))

	if p, ok := closer.(pinger); ok {
		services.Checkers = append(services.Checkers, health.CheckerFunc(p.PingContext))
	}

	services.Recorder = eventlog.NewRecorder(eventlog.Services{Logger: logger}, &config.EventlogConfig)

	services.Authenticator = auth.NewAuthenticator(auth.Props{
		Secret:           []byte(config.AuthConfig.Secret),
		Issuer:           config.AuthConfig.Issuer,
		Store:            services.Store,
		Logger:           logger,
		Recorder:         services.Recorder,
		StandardValidity: config.AuthConfig.StandardValidity,
		ShortValidity:    config.AuthConfig.ShortValidity,
	})

	callbacks, err := callback.NewClient(&callback.ClientServices{
		Logger:  logger,
		Metrics: metrics.NewOperationMetrics("callback", registry),
	}, &config.CallbackConfig)
	if err != nil {
		_ = services.Close()
		return nil, errors.Wrap(err, "failed to create callback client")
	}
	services.Callbacks = callbacks

	return services, nil
}

// NewRouter creates the router with every API resource registered
func NewRouter(services *Services, config *Config) *rpc.Router {
	router := rpc.NewRouter(rpc.RouterProps{
		Logger: services.Logger,
		ErrorResource: rpc.NewErrorResource(rpc.ErrorResourceProps{
			Logger:      services.Logger,
			Development: config.ServerConfig.Development,
		}),
		Metrics: metrics.NewServiceMetrics(serviceName, services.Registry),
	})

	version.BindHandler(router)
	health.BindHandler(health.Services{
		Logger:   services.Logger,
		Checkers: services.Checkers,
	}, router)
	session.BindHandler(session.Services{
		Logger:        services.Logger,
		Store:         services.Store,
		Authenticator: services.Authenticator,
	}, router)
	garage.BindHandler(garage.Services{
		Logger:        services.Logger,
		Store:         services.Store,
		Authenticator: services.Authenticator,
	}, router)
	password.BindHandler(password.Services{
		Logger:        services.Logger,
		Store:         services.Store,
		Authenticator: services.Authenticator,
		Callbacks:     services.Callbacks,
	}, router)

	return router
}

// NewHttpHandler creates the http.Handler that serves the router
func NewHttpHandler(logger log.Logger, router *rpc.Router, config *Config) *rpc.HttpHandler {
	cors := config.CorsConfig
	return rpc.NewHttpHandler(rpc.HttpHandlerProps{
		Logger:     logger,
		Dispatcher: router,
		BodyLimit:  config.BindPublicConfig.HttpMaxBodyBytes,
		PreProcessors: []rpc.HttpPreProcessor{
			rpc.NewHttpCorsPreProcessor(rpc.HttpCorsPreProcessorProps{
				Enabled:          cors.Enabled,
				AllowedOrigins:   cors.AllowedOrigins,
				AllowedMethods:   cors.AllowedMethods,
				AllowedHeaders:   cors.AllowedHeaders,
				ExposedHeaders:   cors.ExposedHeaders,
				MaxAge:           cors.MaxAge,
				AllowCredentials: cors.AllowCredentials,
			}),
		},
	})
}

// NewHttpServer creates the public http server
func NewHttpServer(handler http.Handler, config *BindConfig) *http.Server {
	return &http.Server{
		Addr:           fmt.Sprintf("%s:%d", config.HttpInterface, config.HttpPort),
		Handler:        handler,
		ReadTimeout:    config.ReadTimeout(),
		WriteTimeout:   config.WriteTimeout(),
		MaxHeaderBytes: int(config.HttpMaxHeaderBytes),
	}
}
