package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSafetyMetrics_RecordAndServe(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewSafetyMetrics(Config{}, registry)

	m.RecordScan("deidentify", "ok", 12*time.Millisecond, map[string]int{"EMAIL_ADDRESS": 2})
	m.RecordModeration("prompt", 30*time.Millisecond, map[string]string{"builtin": "blocked"})
	m.RecordBlocked("prompt")
	m.RecordFallback()

	rec := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`themis_safety_scans_total{mode="deidentify",outcome="ok"} 1`,
		`themis_safety_findings_total{category="EMAIL_ADDRESS"} 2`,
		`themis_safety_turns_blocked_total{phase="prompt"} 1`,
		`themis_safety_fallbacks_total 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Metrics output missing %q", want)
		}
	}
}

// A nil SafetyMetrics is a valid no-op receiver so callers never need
// nil checks around recording.
func TestSafetyMetrics_NilReceiver(t *testing.T) {
	var m *SafetyMetrics
	m.RecordScan("redact", "ok", time.Millisecond, nil)
	m.RecordModeration("response", time.Millisecond, nil)
	m.RecordBlocked("response")
	m.RecordFallback()
}
