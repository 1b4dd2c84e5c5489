package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config contains configuration for metric registration.
type Config struct {
	// Namespace is the metric namespace prefix.
	// Default: "themis"
	Namespace string

	// Subsystem is the metric subsystem prefix.
	// Default: "safety"
	Subsystem string
}

// applyDefaults fills zero-valued fields.
func (c *Config) applyDefaults() {
	if c.Namespace == "" {
		c.Namespace = "themis"
	}
	if c.Subsystem == "" {
		c.Subsystem = "safety"
	}
}

// SafetyMetrics tracks metrics for the safety pipeline.
//
// Metrics:
//   - themis_safety_scans_total: DLP scans by mode and outcome
//   - themis_safety_findings_total: resolved findings by category
//   - themis_safety_scan_duration_seconds: DLP scan duration
//   - themis_safety_moderation_total: layer evaluations by layer and outcome
//   - themis_safety_moderation_duration_seconds: layer call duration
//   - themis_safety_turns_blocked_total: blocked turns by phase
//   - themis_safety_fallbacks_total: fail-open fallbacks
type SafetyMetrics struct {
	scansTotal         *prometheus.CounterVec
	findingsTotal      *prometheus.CounterVec
	scanDuration       *prometheus.HistogramVec
	moderationTotal    *prometheus.CounterVec
	moderationDuration *prometheus.HistogramVec
	turnsBlockedTotal  *prometheus.CounterVec
	fallbacksTotal     prometheus.Counter
}

// NewSafetyMetrics creates and registers safety metrics with the registry.
func NewSafetyMetrics(cfg Config, registry *prometheus.Registry) *SafetyMetrics {
	cfg.applyDefaults()

	m := &SafetyMetrics{
		scansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "scans_total",
				Help:      "Total number of sensitive-data scans",
			},
			[]string{"mode", "outcome"},
		),
		findingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "findings_total",
				Help:      "Total number of resolved sensitive-data findings",
			},
			[]string{"category"},
		),
		scanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "scan_duration_seconds",
				Help:      "Duration of sensitive-data scans in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		moderationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "moderation_total",
				Help:      "Total number of moderation layer evaluations",
			},
			[]string{"layer", "outcome"},
		),
		moderationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "moderation_duration_seconds",
				Help:      "Duration of moderation gate evaluations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"direction"},
		),
		turnsBlockedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "turns_blocked_total",
				Help:      "Total number of turns blocked by moderation",
			},
			[]string{"phase"},
		),
		fallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fallbacks_total",
				Help:      "Total number of fail-open fallbacks to reduced protection",
			},
		),
	}

	registry.MustRegister(
		m.scansTotal,
		m.findingsTotal,
		m.scanDuration,
		m.moderationTotal,
		m.moderationDuration,
		m.turnsBlockedTotal,
		m.fallbacksTotal,
	)

	return m
}

// RecordScan records a completed (or failed) sensitive-data scan.
func (m *SafetyMetrics) RecordScan(mode string, outcome string, duration time.Duration, categories map[string]int) {
	if m == nil {
		return
	}
	m.scansTotal.WithLabelValues(mode, outcome).Inc()
	m.scanDuration.WithLabelValues(mode).Observe(duration.Seconds())
	for category, count := range categories {
		m.findingsTotal.WithLabelValues(category).Add(float64(count))
	}
}

// RecordModeration records one gate evaluation.
func (m *SafetyMetrics) RecordModeration(direction string, duration time.Duration, layerOutcomes map[string]string) {
	if m == nil {
		return
	}
	m.moderationDuration.WithLabelValues(direction).Observe(duration.Seconds())
	for layer, outcome := range layerOutcomes {
		m.moderationTotal.WithLabelValues(layer, outcome).Inc()
	}
}

// RecordBlocked records a turn blocked in the given phase.
func (m *SafetyMetrics) RecordBlocked(phase string) {
	if m == nil {
		return
	}
	m.turnsBlockedTotal.WithLabelValues(phase).Inc()
}

// RecordFallback records a fail-open fallback.
func (m *SafetyMetrics) RecordFallback() {
	if m == nil {
		return
	}
	m.fallbacksTotal.Inc()
}
