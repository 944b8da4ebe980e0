package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NewRegistry creates the registry the service metrics are collected
// in. It exposes the go runtime and process metrics as well
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return registry
}
