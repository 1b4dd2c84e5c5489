// Package metrics provides Prometheus instrumentation for the safety
// pipeline: scan and finding counters, moderation layer outcomes,
// latency histograms, blocked-turn and fallback counters. All recording
// methods are nil-safe so callers can wire metrics optionally.
package metrics
