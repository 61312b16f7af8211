package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the document lifecycle core.
type Metrics struct {
	LifecycleOps     *prometheus.CounterVec
	LifecycleErrors  *prometheus.CounterVec
	ActionsRecorded  prometheus.Counter
	OperationSeconds *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LifecycleOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doctrail_lifecycle_operations_total",
			Help: "Completed lifecycle operations by name",
		}, []string{"operation"}),
		LifecycleErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doctrail_lifecycle_errors_total",
			Help: "Failed lifecycle operations by name and error code",
		}, []string{"operation", "code"}),
		ActionsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "doctrail_actions_recorded_total",
			Help: "Audit actions written to the trail",
		}),
		OperationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "doctrail_operation_duration_seconds",
			Help:    "Lifecycle operation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// NewForTest builds Metrics on a private registry so parallel test packages
// do not collide on the default registerer.
func NewForTest() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		LifecycleOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "doctrail_lifecycle_operations_total",
			Help: "Completed lifecycle operations by name",
		}, []string{"operation"}),
		LifecycleErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "doctrail_lifecycle_errors_total",
			Help: "Failed lifecycle operations by name and error code",
		}, []string{"operation", "code"}),
		ActionsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "doctrail_actions_recorded_total",
			Help: "Audit actions written to the trail",
		}),
		OperationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "doctrail_operation_duration_seconds",
			Help:    "Lifecycle operation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}
