package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mguerin/docpilot/internal/core/domain"
)

// PipelineMetrics instruments the document worker: run counts by terminal
// status and category, per-run duration, recognition confidence and the
// delay between ingestion and pickup.
type PipelineMetrics struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	runsInFlight  prometheus.Gauge
	ocrConfidence prometheus.Histogram
	queueLag      prometheus.Histogram
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docpilot",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by outcome status and category.",
		},
		[]string{"service", "status", "category"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docpilot",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration in seconds by outcome status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120, 300},
		},
		[]string{"service", "status"},
	)
	runsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docpilot",
			Subsystem: "pipeline",
			Name:      "runs_in_flight",
			Help:      "Number of pipeline runs currently executing.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	ocrConfidence := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docpilot",
			Subsystem: "pipeline",
			Name:      "ocr_confidence",
			Help:      "Recognition confidence (0-100) observed per run.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docpilot",
			Subsystem: "pipeline",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document ingestion and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(runsTotal, runDuration, runsInFlight, ocrConfidence, queueLag)

	return &PipelineMetrics{
		registry:      registry,
		runsTotal:     runsTotal,
		runDuration:   runDuration,
		runsInFlight:  runsInFlight,
		ocrConfidence: ocrConfidence,
		queueLag:      queueLag,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartRun() {
	m.runsInFlight.Inc()
}

func (m *PipelineMetrics) FinishRun(service string, duration time.Duration, outcome *domain.PipelineOutcome, err error) {
	m.runsInFlight.Dec()

	status := "success"
	category := "none"
	if err != nil {
		status = "error"
	} else if outcome != nil {
		category = string(outcome.Record.Category)
		m.ocrConfidence.Observe(outcome.OCRConfidence)
	}

	m.runsTotal.WithLabelValues(service, status, category).Inc()
	m.runDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.Observe(lag.Seconds())
}
