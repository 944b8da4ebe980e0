package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garagehub/dispatch/config"
	"github.com/garagehub/dispatch/gateway"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/metrics"
)

const shutdownTimeout = 10 * time.Second

func parseConfig() *gateway.Config {
	c := &gateway.Config{}
	parser, err := config.Generate(c)
	if err != nil {
		fmt.Println("failed to generate configuration parser: ", err.Error())
		os.Exit(1)
	}

	if err := parser.Parse(); err != nil {
		fmt.Println("failed to parse configuration: ", err.Error())
		if err := parser.Usage(); err != nil {
			panic("failed to print usage")
		}
		os.Exit(1)
	}

	return c
}

func serve(s *http.Server, bind *gateway.BindConfig) error {
	if bind.HttpsEnabled {
		return s.ListenAndServeTLS(bind.TlsCertificatePath, bind.TlsPrivateKeyPath)
	}

	return s.ListenAndServe()
}

func main() {
	c := parseConfig()
	logger := log.New(&c.LoggingConfig).ForClass("cmd", "dispatch")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting with configuration", log.MapFields{
		"call_type": "StartupConfig",
	}, c)

	services, err := gateway.NewServices(ctx, logger, c)
	if err != nil {
		logger.Fatal(ctx, "failed to create services", log.MapFields{
			"call_type": "StartupFailure",
			"err":       err.Error(),
		})
		return
	}
	defer func() { _ = services.Close() }()

	metricsService, err := metrics.NewService(&c.MetricsConfig, services.Registry, logger)
	if err != nil {
		logger.Fatal(ctx, "failed to create metrics service", log.MapFields{
			"call_type": "StartupFailure",
			"err":       err.Error(),
		})
		return
	}
	metricsService.Start()

	router := gateway.NewRouter(services, c)
	s := gateway.NewHttpServer(gateway.NewHttpHandler(logger, router, c), &c.BindPublicConfig.BindConfig)

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", log.MapFields{
			"call_type": "HttpListen",
			"addr":      s.Addr,
		})
		errCh <- serve(s, &c.BindPublicConfig.BindConfig)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http server failed to listen", log.MapFields{
				"call_type": "HttpListenFailure",
				"err":       err.Error(),
			})
		}
	case <-ctx.Done():
		logger.Info(context.Background(), "shutting down", log.MapFields{
			"call_type": "Shutdown",
		})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "http server did not shut down cleanly", log.MapFields{
			"call_type": "ShutdownFailure",
			"err":       err.Error(),
		})
	}

	if err := metricsService.Stop(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "metrics service did not stop cleanly", log.MapFields{
			"call_type": "ShutdownFailure",
			"err":       err.Error(),
		})
	}
}
