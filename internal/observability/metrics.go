package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the triage pipeline.
type Metrics struct {
	ReportsTriaged  *prometheus.CounterVec // labels: recommendation={approve,reject,pending}
	TriageFailures  *prometheus.CounterVec // labels: stage={load,score,save_analysis,apply_status,panic}
	TriageDuration  prometheus.Histogram
	StatusChanges   *prometheus.CounterVec // labels: status, source={automated,operator}
	Reanalyses      *prometheus.CounterVec // labels: outcome={success,not_found,unauthorized,error}
	Notifications   *prometheus.CounterVec // labels: outcome={created,failed}
	FanoutDuration  prometheus.Histogram
	QueueDepth      prometheus.Gauge
	QueueDropped    prometheus.Counter
	EventsConsumed  prometheus.Counter
	EventsMalformed prometheus.Counter
	ConsumerRunning prometheus.Gauge
}

// NewMetrics creates and registers all triage metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsTriaged,
		m.TriageFailures,
		m.TriageDuration,
		m.StatusChanges,
		m.Reanalyses,
		m.Notifications,
		m.FanoutDuration,
		m.QueueDepth,
		m.QueueDropped,
		m.EventsConsumed,
		m.EventsMalformed,
		m.ConsumerRunning,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsTriaged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_triage",
			Name:      "reports_triaged_total",
			Help:      "Reports scored by the ingestion trigger, by recommendation.",
		}, []string{"recommendation"}),
		TriageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_triage",
			Name:      "triage_failures_total",
			Help:      "Swallowed ingestion trigger failures, by stage.",
		}, []string{"stage"}),
		TriageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazard_triage",
			Name:      "triage_duration_seconds",
			Help:      "Duration of one ingestion trigger run.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_triage",
			Name:      "status_changes_total",
			Help:      "Report status transitions, by target status and source.",
		}, []string{"status", "source"}),
		Reanalyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_triage",
			Name:      "reanalyses_total",
			Help:      "Manual re-analysis requests, by outcome.",
		}, []string{"outcome"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_triage",
			Name:      "notifications_total",
			Help:      "Administrator notification writes, by outcome.",
		}, []string{"outcome"}),
		FanoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazard_triage",
			Name:      "fanout_duration_seconds",
			Help:      "Duration of one notification fan-out.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazard_triage",
			Name:      "queue_depth",
			Help:      "Report-created events waiting in the in-process queue.",
		}),
		QueueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_triage",
			Name:      "queue_dropped_total",
			Help:      "Report-created events dropped because the queue was full or closed.",
		}),
		EventsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_triage",
			Name:      "events_consumed_total",
			Help:      "Report-created events read from Kafka.",
		}),
		EventsMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_triage",
			Name:      "events_malformed_total",
			Help:      "Kafka messages that could not be decoded into a report-created event.",
		}),
		ConsumerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazard_triage",
			Name:      "consumer_running",
			Help:      "1 when the Kafka consumer loop is active, 0 when shut down.",
		}),
	}
}
