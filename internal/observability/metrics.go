package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the safety desk.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	PageRenders    *prometheus.CounterVec // labels: page
	Navigations    *prometheus.CounterVec // labels: action, outcome={accepted,rejected}
	Submissions    *prometheus.CounterVec // labels: kind, outcome={accepted,rejected,failed}

	// Archival gateway metrics.
	ArchiveRecords  *prometheus.CounterVec // labels: category, outcome={success,error}
	ArchiveDuration prometheus.Histogram

	// Wind metrics.
	WindAlerts    prometheus.Counter
	WeatherErrors prometheus.Counter

	EmergencyMessages *prometheus.CounterVec // labels: target
}

// NewMetrics creates and registers all desk metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()
	prometheus.MustRegister(
		m.ActiveSessions,
		m.PageRenders,
		m.Navigations,
		m.Submissions,
		m.ArchiveRecords,
		m.ArchiveDuration,
		m.WindAlerts,
		m.WeatherErrors,
		m.EmergencyMessages,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "safety_desk",
			Name:      "active_sessions",
			Help:      "Number of live user sessions.",
		}),
		PageRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety_desk",
			Name:      "page_renders_total",
			Help:      "Pages rendered by page.",
		}, []string{"page"}),
		Navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety_desk",
			Name:      "navigations_total",
			Help:      "Navigation actions by action and outcome.",
		}, []string{"action", "outcome"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety_desk",
			Name:      "submissions_total",
			Help:      "Form submissions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ArchiveRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety_desk",
			Name:      "archive_records_total",
			Help:      "Archival gateway calls by category and outcome.",
		}, []string{"category", "outcome"}),
		ArchiveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "safety_desk",
			Name:      "archive_record_duration_seconds",
			Help:      "Duration of a single archival gateway call.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		WindAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safety_desk",
			Name:      "wind_stoppage_alerts_total",
			Help:      "Page renders that showed the work-stoppage alert.",
		}),
		WeatherErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safety_desk",
			Name:      "weather_errors_total",
			Help:      "Failed wind readings.",
		}),
		EmergencyMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety_desk",
			Name:      "emergency_messages_total",
			Help:      "Emergency stop messages acknowledged by target.",
		}, []string{"target"}),
	}
}
