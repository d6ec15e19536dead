package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics covers the audit worker that drains conversion events.
type WorkerMetrics struct {
	registry *prometheus.Registry

	eventsTotal *prometheus.CounterVec
	eventLag    *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "events_total",
			Help:      "Conversion events handled by status.",
		},
		[]string{"service", "level", "status"},
	)
	eventLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "event_lag_seconds",
			Help:      "Delay between a conversion attempt and its audit append.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"service"},
	)

	registry.MustRegister(eventsTotal, eventLag)

	return &WorkerMetrics{
		registry:    registry,
		eventsTotal: eventsTotal,
		eventLag:    eventLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) ObserveEvent(service, level string, lag time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.eventsTotal.WithLabelValues(service, level, status).Inc()
	if lag >= 0 {
		m.eventLag.WithLabelValues(service).Observe(lag.Seconds())
	}
}
