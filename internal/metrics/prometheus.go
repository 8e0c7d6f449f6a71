// Package metrics exposes the process-wide Prometheus instrumentation for
// training sessions and the analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "callgym"

// Manager owns the registry and every collector registered against it.
type Manager struct {
	registry *prometheus.Registry

	sessionsStarted   prometheus.Counter
	sessionsEnded     prometheus.Counter
	analysisFallbacks prometheus.Counter
	reportScore       prometheus.Histogram
	sessionDuration   prometheus.Histogram
}

func NewManager(registry *prometheus.Registry) *Manager {
	factory := promauto.With(registry)
	return &Manager{
		registry: registry,
		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Training sessions started.",
		}),
		sessionsEnded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Training sessions ended.",
		}),
		analysisFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_fallbacks_total",
			Help:      "Coaching reports that resolved to the deterministic fallback.",
		}),
		reportScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_score",
			Help:      "Overall score distribution of generated coaching reports.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall-clock duration of ended training sessions.",
			Buckets:   prometheus.ExponentialBuckets(15, 2, 8),
		}),
	}
}

var defaultManager = NewManager(prometheus.NewRegistry())

// GetRegistry returns the registry backing the default manager, for exposing
// over /metrics.
func GetRegistry() *prometheus.Registry {
	return defaultManager.registry
}

func RecordSessionStarted() { defaultManager.sessionsStarted.Inc() }

func RecordSessionEnded(durationSeconds float64) {
	defaultManager.sessionsEnded.Inc()
	defaultManager.sessionDuration.Observe(durationSeconds)
}

func RecordAnalysisFallback() { defaultManager.analysisFallbacks.Inc() }

func RecordReportScore(score int) { defaultManager.reportScore.Observe(float64(score)) }
