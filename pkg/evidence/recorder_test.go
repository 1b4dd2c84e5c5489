package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"aegis-hq/themis/pkg/coordinator"
	"aegis-hq/themis/pkg/dlp"
	"aegis-hq/themis/pkg/moderation"
)

// captureStorage records Store calls and fails on demand.
type captureStorage struct {
	stored []*Record
	err    error
}

func (s *captureStorage) Store(_ context.Context, record *Record) error {
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, record)
	return nil
}

func (s *captureStorage) Query(context.Context, *Query) ([]*Record, error) { return nil, nil }
func (s *captureStorage) Count(context.Context, *Query) (int64, error)    { return 0, nil }
func (s *captureStorage) DeleteBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}
func (s *captureStorage) Close() error { return nil }

func TestRecorder_RecordTurn(t *testing.T) {
	store := &captureStorage{}
	recorder := NewRecorder(store)

	result := &coordinator.AggregatedSafetyResult{
		TurnID:   "turn-1",
		Blocked:  true,
		FellBack: true,
		DLPPrompt: &dlp.Result{
			ProcessedText:   "contact **************** today",
			Findings:        []dlp.Span{{Start: 8, End: 24, Category: "EMAIL_ADDRESS"}},
			CategoriesFound: []string{"EMAIL_ADDRESS"},
		},
		PromptVerdicts: []moderation.Verdict{
			{Source: moderation.SourceBuiltin, Blocked: true, CategoryScores: map[string]float64{"hate": 0.9}},
			{Source: moderation.SourceAdvanced, Unavailable: true, ErrorDetail: "timeout"},
		},
	}

	if err := recorder.RecordTurn(context.Background(), result); err != nil {
		t.Fatalf("RecordTurn() failed: %v", err)
	}

	if len(store.stored) != 1 {
		t.Fatalf("Expected 1 stored record, got %d", len(store.stored))
	}
	rec := store.stored[0]

	if rec.ID == "" {
		t.Error("Expected a record ID")
	}
	if rec.TurnID != "turn-1" {
		t.Errorf("Expected turn-1, got %q", rec.TurnID)
	}
	if !rec.Blocked || !rec.FellBack {
		t.Errorf("Expected blocked and fell-back flags, got %v/%v", rec.Blocked, rec.FellBack)
	}
	if rec.PromptFindings != 1 {
		t.Errorf("Expected 1 prompt finding, got %d", rec.PromptFindings)
	}
	if len(rec.PromptVerdicts) != 2 {
		t.Fatalf("Expected 2 prompt verdicts, got %d", len(rec.PromptVerdicts))
	}
	if rec.PromptVerdicts[1].ErrorDetail != "timeout" {
		t.Errorf("Verdict error detail not carried: %+v", rec.PromptVerdicts[1])
	}
	if rec.ResponseHash != "" || rec.ResponseFindings != 0 {
		t.Error("A turn without a response phase must leave response fields empty")
	}
}

// The audit record holds hashes only; the processed text never reaches
// storage.
func TestRecorder_StoresHashNotText(t *testing.T) {
	store := &captureStorage{}
	recorder := NewRecorder(store)

	text := "sensitive processed text"
	result := &coordinator.AggregatedSafetyResult{
		TurnID:    "turn-2",
		DLPPrompt: &dlp.Result{ProcessedText: text},
	}

	if err := recorder.RecordTurn(context.Background(), result); err != nil {
		t.Fatalf("RecordTurn() failed: %v", err)
	}

	sum := sha256.Sum256([]byte(text))
	want := hex.EncodeToString(sum[:])
	if store.stored[0].PromptHash != want {
		t.Errorf("Expected SHA-256 %s, got %q", want, store.stored[0].PromptHash)
	}
}

func TestRecorder_StorageFailure(t *testing.T) {
	recorder := NewRecorder(&captureStorage{err: errors.New("disk full")})

	err := recorder.RecordTurn(context.Background(), &coordinator.AggregatedSafetyResult{TurnID: "turn-3"})
	if err == nil {
		t.Fatal("Expected storage failure to surface")
	}

	var recErr *RecorderError
	if !errors.As(err, &recErr) {
		t.Fatalf("Expected RecorderError, got %T", err)
	}
	if recErr.TurnID != "turn-3" {
		t.Errorf("Expected turn-3 in error, got %q", recErr.TurnID)
	}
}
