package coordinator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"aegis-hq/themis/pkg/dlp"
	"aegis-hq/themis/pkg/dlp/detector"
	"aegis-hq/themis/pkg/moderation"
)

// fakeDetector is a detector.Client returning canned findings.
type fakeDetector struct {
	findings []detector.Finding
	err      error
	calls    int
}

func (f *fakeDetector) Inspect(_ context.Context, req detector.Request) (*detector.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &detector.Response{Findings: f.findings}, nil
}

// fakeBuiltin is a moderation.BuiltinClient returning canned scores.
type fakeBuiltin struct {
	scores map[string]float64
	err    error
}

func (f *fakeBuiltin) Score(_ context.Context, _ string, _ moderation.Direction) (map[string]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

// fakeRecorder captures recorded turns.
type fakeRecorder struct {
	recorded []*AggregatedSafetyResult
	err      error
}

func (f *fakeRecorder) RecordTurn(_ context.Context, result *AggregatedSafetyResult) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, result)
	return nil
}

func cleanScores() map[string]float64 {
	return map[string]float64{moderation.CategoryHate: 0.01}
}

func newTestCoordinator(t *testing.T, det detector.Client, builtin moderation.BuiltinClient, cfg Config, recorder Recorder) *Coordinator {
	t.Helper()
	pipeline := dlp.NewPipeline(det, nil)
	gate := moderation.NewGate(builtin, nil, moderation.GateConfig{FailOpen: true})
	c, err := New(pipeline, gate, cfg, recorder, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return c
}

func TestCoordinator_PromptPhase_Masking(t *testing.T) {
	det := &fakeDetector{findings: []detector.Finding{
		{Category: "EMAIL_ADDRESS", Likelihood: "VERY_LIKELY", Start: 8, End: 24},
	}}
	cfg := Config{
		SafetyMode: moderation.SafetyModeBuiltinOnly,
		PromptDLP:  dlp.ProcessConfig{Mode: dlp.ModeDeidentify, Method: dlp.MethodMasking},
	}
	c := newTestCoordinator(t, det, &fakeBuiltin{scores: cleanScores()}, cfg, nil)

	result, err := c.RunPromptPhase(context.Background(), "contact jane@company.com today")
	if err != nil {
		t.Fatalf("RunPromptPhase() failed: %v", err)
	}

	want := "contact **************** today"
	if result.TextToSend != want {
		t.Errorf("Expected %q, got %q", want, result.TextToSend)
	}
	if result.TurnID == "" {
		t.Error("Expected a turn ID")
	}
	if result.Blocked() {
		t.Error("Clean prompt should not be blocked")
	}
	if len(result.DLP.Findings) != 1 {
		t.Errorf("Expected 1 finding, got %d", len(result.DLP.Findings))
	}
}

func TestCoordinator_PromptPhase_Blocked(t *testing.T) {
	builtin := &fakeBuiltin{scores: map[string]float64{moderation.CategoryHate: 0.95}}
	cfg := Config{
		SafetyMode: moderation.SafetyModeBuiltinOnly,
		PromptDLP:  dlp.ProcessConfig{Mode: dlp.ModeDisabled},
	}
	c := newTestCoordinator(t, &fakeDetector{}, builtin, cfg, nil)

	result, err := c.RunPromptPhase(context.Background(), "hostile text")
	if err != nil {
		t.Fatalf("RunPromptPhase() failed: %v", err)
	}

	if !result.Blocked() {
		t.Error("Expected prompt to be blocked")
	}
	if len(result.Moderation.BlockedBy()) == 0 {
		t.Error("Expected a blocking source")
	}
}

func TestCoordinator_PromptPhase_DetectorFailure(t *testing.T) {
	det := &fakeDetector{err: errors.New("connection refused")}
	cfg := Config{
		SafetyMode: moderation.SafetyModeBuiltinOnly,
		PromptDLP:  dlp.ProcessConfig{Mode: dlp.ModeInspectOnly},
	}
	c := newTestCoordinator(t, det, &fakeBuiltin{scores: cleanScores()}, cfg, nil)

	if _, err := c.RunPromptPhase(context.Background(), "text"); err == nil {
		t.Fatal("Expected detector failure to propagate")
	}
}

func TestCoordinator_ResponsePhase_DLPDisabled(t *testing.T) {
	det := &fakeDetector{findings: []detector.Finding{
		{Category: "EMAIL_ADDRESS", Likelihood: "LIKELY", Start: 0, End: 5},
	}}
	cfg := Config{
		SafetyMode:  moderation.SafetyModeBuiltinOnly,
		PromptDLP:   dlp.ProcessConfig{Mode: dlp.ModeDisabled},
		ResponseDLP: dlp.ProcessConfig{Mode: dlp.ModeDisabled},
	}
	c := newTestCoordinator(t, det, &fakeBuiltin{scores: cleanScores()}, cfg, nil)

	result, err := c.RunResponsePhase(context.Background(), "model output")
	if err != nil {
		t.Fatalf("RunResponsePhase() failed: %v", err)
	}

	if result.DLP != nil {
		t.Error("Expected no DLP result with response processing disabled")
	}
	if det.calls != 0 {
		t.Errorf("Detector called %d times with response DLP disabled", det.calls)
	}
	if result.Moderation == nil {
		t.Error("Expected moderation to still run on the response")
	}
}

func TestCoordinator_ResponsePhase_Redact(t *testing.T) {
	det := &fakeDetector{findings: []detector.Finding{
		{Category: "PHONE_NUMBER", Likelihood: "VERY_LIKELY", Start: 6, End: 18},
	}}
	cfg := Config{
		SafetyMode:  moderation.SafetyModeBuiltinOnly,
		PromptDLP:   dlp.ProcessConfig{Mode: dlp.ModeDisabled},
		ResponseDLP: dlp.ProcessConfig{Mode: dlp.ModeRedact},
	}
	c := newTestCoordinator(t, det, &fakeBuiltin{scores: cleanScores()}, cfg, nil)

	result, err := c.RunResponsePhase(context.Background(), "call: 555-0142-9981")
	if err != nil {
		t.Fatalf("RunResponsePhase() failed: %v", err)
	}

	if result.DLP == nil {
		t.Fatal("Expected a DLP result")
	}
	if !strings.Contains(result.DLP.ProcessedText, "[REDACTED]") {
		t.Errorf("Expected redaction marker, got %q", result.DLP.ProcessedText)
	}
}

func TestCoordinator_CompleteTurn_RecordsEvidence(t *testing.T) {
	recorder := &fakeRecorder{}
	cfg := Config{
		SafetyMode: moderation.SafetyModeBuiltinOnly,
		PromptDLP:  dlp.ProcessConfig{Mode: dlp.ModeDisabled},
	}
	c := newTestCoordinator(t, &fakeDetector{}, &fakeBuiltin{scores: cleanScores()}, cfg, recorder)

	prompt, err := c.RunPromptPhase(context.Background(), "hello")
	if err != nil {
		t.Fatalf("RunPromptPhase() failed: %v", err)
	}
	response, err := c.RunResponsePhase(context.Background(), "hi there")
	if err != nil {
		t.Fatalf("RunResponsePhase() failed: %v", err)
	}

	result, err := c.CompleteTurn(context.Background(), prompt, response)
	if err != nil {
		t.Fatalf("CompleteTurn() failed: %v", err)
	}

	if len(recorder.recorded) != 1 {
		t.Fatalf("Expected 1 recorded turn, got %d", len(recorder.recorded))
	}
	if recorder.recorded[0].TurnID != prompt.TurnID {
		t.Errorf("Recorded turn ID %q does not match %q", recorder.recorded[0].TurnID, prompt.TurnID)
	}
	if result.Blocked {
		t.Error("Clean turn should not be blocked")
	}
}

// A failed evidence write surfaces an error but still returns the
// aggregated result: the audit trail never invalidates the turn.
func TestCoordinator_CompleteTurn_RecorderFailure(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("disk full")}
	cfg := Config{
		SafetyMode: moderation.SafetyModeBuiltinOnly,
		PromptDLP:  dlp.ProcessConfig{Mode: dlp.ModeDisabled},
	}
	c := newTestCoordinator(t, &fakeDetector{}, &fakeBuiltin{scores: cleanScores()}, cfg, recorder)

	prompt, err := c.RunPromptPhase(context.Background(), "hello")
	if err != nil {
		t.Fatalf("RunPromptPhase() failed: %v", err)
	}

	result, err := c.CompleteTurn(context.Background(), prompt, nil)
	if err == nil {
		t.Error("Expected the recorder failure to surface")
	}
	if result == nil {
		t.Fatal("Expected the aggregated result despite the recorder failure")
	}
}

func TestCoordinator_CompleteTurn_BlockedPromptNilResponse(t *testing.T) {
	builtin := &fakeBuiltin{scores: map[string]float64{moderation.CategoryHate: 0.9}}
	cfg := Config{
		SafetyMode: moderation.SafetyModeBuiltinOnly,
		PromptDLP:  dlp.ProcessConfig{Mode: dlp.ModeDisabled},
	}
	c := newTestCoordinator(t, &fakeDetector{}, builtin, cfg, nil)

	prompt, err := c.RunPromptPhase(context.Background(), "hostile")
	if err != nil {
		t.Fatalf("RunPromptPhase() failed: %v", err)
	}
	if !prompt.Blocked() {
		t.Fatal("Expected blocked prompt")
	}

	result, err := c.CompleteTurn(context.Background(), prompt, nil)
	if err != nil {
		t.Fatalf("CompleteTurn() failed: %v", err)
	}

	if !result.Blocked {
		t.Error("Expected aggregated result to be blocked")
	}
	if len(result.ResponseVerdicts) != 0 {
		t.Errorf("Expected no response verdicts, got %d", len(result.ResponseVerdicts))
	}
	if !strings.Contains(result.Summary(), "Blocked by moderation") {
		t.Errorf("Expected blocking summary, got %q", result.Summary())
	}
}

func TestAggregate_MergesBothPhases(t *testing.T) {
	prompt := &PromptPhaseResult{
		TurnID: "turn-1",
		DLP:    &dlp.Result{ProcessedText: "p"},
		Moderation: &moderation.Evaluation{
			Verdicts: []moderation.Verdict{{Source: moderation.SourceBuiltin}},
			FellBack: true,
		},
	}
	response := &ResponsePhaseResult{
		Moderation: &moderation.Evaluation{
			Blocked:  true,
			Verdicts: []moderation.Verdict{{Source: moderation.SourceBuiltin, Blocked: true}},
		},
	}

	result := Aggregate(prompt, response)

	if result.TurnID != "turn-1" {
		t.Errorf("Expected turn-1, got %q", result.TurnID)
	}
	if !result.Blocked {
		t.Error("Response-phase block must carry through")
	}
	if !result.FellBack {
		t.Error("Prompt-phase fallback must carry through")
	}
	if len(result.PromptVerdicts) != 1 || len(result.ResponseVerdicts) != 1 {
		t.Errorf("Verdicts not merged: %d prompt, %d response",
			len(result.PromptVerdicts), len(result.ResponseVerdicts))
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(nil, nil, Config{SafetyMode: "everything"}, nil, nil)
	if err == nil {
		t.Fatal("Expected invalid safety mode to be rejected")
	}
}
