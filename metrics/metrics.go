package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Labels to use for partitioning requests.
	requestLabels = []string{"scheme", "method", "status"}

	// Labels to use for partitioning request latencies.
	requestLatencyLabels = []string{"scheme", "method"}

	// Labels to use for collaborator operations.
	operationLabels = []string{"operation", "status"}

	// Labels to use for collaborator operation latencies.
	operationLatencyLabels = []string{"operation"}
)

// UnmatchedScheme is the scheme label of requests that did not match
// any registered scheme
const UnmatchedScheme = "unmatched"

// ServiceMetrics are the request metrics of the dispatch service.
type ServiceMetrics struct {
	// Counts of requests partitioned by endpoint scheme, method and
	// response status.
	Requests *prometheus.CounterVec

	// Latencies of requests partitioned by endpoint scheme and method.
	RequestLatencies *prometheus.SummaryVec
}

// NewServiceMetrics creates the request metrics and registers them
// with the registerer. Default metrics include:
//
// 1. Counts of requests per scheme, method and status.
// 2. Latencies for requests.
func NewServiceMetrics(serviceName string, registerer prometheus.Registerer) *ServiceMetrics {
	metrics := &ServiceMetrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: serviceName + "_requests",
				Help: "How many requests were dispatched, partitioned by endpoint scheme, method and status.",
			},
			requestLabels,
		),
		RequestLatencies: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: serviceName + "_request_durations",
				Help: "How long requests take to dispatch, partitioned by endpoint scheme and method.",
			},
			requestLatencyLabels,
		),
	}

	registerer.MustRegister(metrics.Requests, metrics.RequestLatencies)
	return metrics
}

// ObserveRequest counts a dispatched request and records its latency
func (m *ServiceMetrics) ObserveRequest(scheme, method string, status int, d time.Duration) {
	if len(scheme) == 0 {
		scheme = UnmatchedScheme
	}

	m.Requests.WithLabelValues(scheme, method, strconv.Itoa(status)).Inc()
	m.RequestLatencies.WithLabelValues(scheme, method).Observe(d.Seconds())
}

// OperationMetrics are the metrics of the operations made against a
// collaborator such as the identity store.
type OperationMetrics struct {
	// Counts of operations partitioned by operation and status.
	Operations *prometheus.CounterVec

	// Latencies of operations partitioned by operation.
	OperationLatencies *prometheus.SummaryVec
}

// NewOperationMetrics creates the operation metrics for a collaborator
// and registers them with the registerer
func NewOperationMetrics(collaborator string, registerer prometheus.Registerer) *OperationMetrics {
	metrics := &OperationMetrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: collaborator + "_operations",
				Help: "How many operations are made, partitioned by operation and status.",
			},
			operationLabels,
		),
		OperationLatencies: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: collaborator + "_operation_durations",
				Help: "How long operations take, partitioned by operation.",
			},
			operationLatencyLabels,
		),
	}

	registerer.MustRegister(metrics.Operations, metrics.OperationLatencies)
	return metrics
}

// OperationTimer creates a new latency timer for the operation.
func (m *OperationMetrics) OperationTimer(operation string) *prometheus.Timer {
	return prometheus.NewTimer(m.OperationLatencies.WithLabelValues(operation))
}

// ObserveOperation counts an operation as ok or failed
func (m *OperationMetrics) ObserveOperation(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	m.Operations.WithLabelValues(operation, status).Inc()
}
