package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics tracks the intake pipeline: how many files were processed,
// how long each took, and why files were skipped before reaching the LLM.
type PipelineMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	skippedTotal    *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "masticator",
			Subsystem: "pipeline",
			Name:      "fodder_process_total",
			Help:      "Total processed files by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "masticator",
			Subsystem: "pipeline",
			Name:      "fodder_process_duration_seconds",
			Help:      "File processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "masticator",
			Subsystem: "pipeline",
			Name:      "fodder_process_in_flight",
			Help:      "Number of files currently being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	skippedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "masticator",
			Subsystem: "pipeline",
			Name:      "fodder_skipped_total",
			Help:      "Files skipped before processing, by reason.",
		},
		[]string{"service", "reason"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, skippedTotal)

	return &PipelineMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		skippedTotal:    skippedTotal,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartFile() {
	m.processInFlight.Inc()
}

func (m *PipelineMetrics) FinishFile(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) Skipped(service, reason string) {
	m.skippedTotal.WithLabelValues(service, reason).Inc()
}
