package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Service is a background service that exposes the collected
// metrics.
type Service interface {
	// Start starts exposing the metrics.
	Start()

	// Stop stops exposing the metrics. It is safe to call more than once.
	Stop(ctx context.Context) error
}

// NewService constructs the Service for the configured mode. The
// metrics are gathered from gatherer.
func NewService(config *Config, gatherer prometheus.Gatherer, logger log.Logger) (Service, error) {
	logger = logger.ForClass("metrics", "Service")

	switch config.Mode {
	case "", metricsModeNone:
		return stubService{}, nil
	case metricsModePull:
		return newPullService(config, gatherer, logger), nil
	case metricsModePush:
		return newPushService(config, gatherer, logger), nil
	default:
		return nil, fmt.Errorf("metrics: unsupported mode: '%v'", config.Mode)
	}
}

// A stub service does not expose metrics.
type stubService struct{}

func (stubService) Start() {}

func (stubService) Stop(ctx context.Context) error { return nil }

// A pull service exposes metrics that Prometheus can pull.
type pullService struct {
	server *http.Server
	logger log.Logger
}

func newPullService(config *Config, gatherer prometheus.Gatherer, logger log.Logger) *pullService {
	return &pullService{
		server: &http.Server{
			Addr:           fmt.Sprintf("%s:%s", config.PullAddr, config.PullPort),
			Handler:        promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		logger: logger,
	}
}

func (s *pullService) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error(context.Background(), "metrics: pull server stopped", log.MapFields{
				"call_type": "MetricsPullFailure",
				"addr":      s.server.Addr,
			}, errors.New(errors.ErrInternalError, err))
		}
	}()
}

func (s *pullService) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// A push service pushes metrics to a Prometheus push gateway.
type pushService struct {
	pusher   *push.Pusher
	interval time.Duration
	logger   log.Logger
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func newPushService(config *Config, gatherer prometheus.Gatherer, logger log.Logger) *pushService {
	pusher := push.New(config.PushAddr, config.PushJobName).
		Grouping("instance", config.PushInstanceLabel).
		Gatherer(gatherer)

	return &pushService{
		pusher:   pusher,
		interval: config.PushInterval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *pushService) Start() {
	go s.startWorker()
}

func (s *pushService) Stop(ctx context.Context) error {
	s.once.Do(func() { close(s.stop) })

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *pushService) startWorker() {
	defer close(s.done)

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-s.stop:
			return

		case <-t.C:
			if err := s.pusher.Push(); err != nil {
				s.logger.Warn(context.Background(), "metrics: unable to push to prometheus", log.MapFields{
					"call_type": "MetricsPushFailure",
				}, errors.New(errors.ErrInternalError, err))
			}
		}
	}
}
