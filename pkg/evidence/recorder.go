package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"aegis-hq/themis/pkg/coordinator"
	"aegis-hq/themis/pkg/moderation"
)

// Recorder converts aggregated turn results into evidence records and
// persists them. It implements coordinator.Recorder.
type Recorder struct {
	store  Storage
	logger *slog.Logger
}

// NewRecorder creates a recorder backed by the given storage.
func NewRecorder(store Storage) *Recorder {
	return &Recorder{
		store:  store,
		logger: slog.Default().With("component", "evidence.recorder"),
	}
}

// RecordTurn persists one aggregated turn result.
func (r *Recorder) RecordTurn(ctx context.Context, result *coordinator.AggregatedSafetyResult) error {
	record := buildRecord(result)

	if err := r.store.Store(ctx, record); err != nil {
		return &RecorderError{TurnID: result.TurnID, Cause: err}
	}

	r.logger.Debug("evidence recorded",
		"record_id", record.ID,
		"turn_id", record.TurnID,
		"blocked", record.Blocked,
	)
	return nil
}

// buildRecord maps a turn result onto the audit schema. Raw text is
// reduced to hashes here; nothing else in the package ever sees it.
func buildRecord(result *coordinator.AggregatedSafetyResult) *Record {
	record := &Record{
		ID:               uuid.NewString(),
		TurnID:           result.TurnID,
		RecordedAt:       time.Now().UTC(),
		Blocked:          result.Blocked,
		FellBack:         result.FellBack,
		PromptVerdicts:   verdictRecords(result.PromptVerdicts),
		ResponseVerdicts: verdictRecords(result.ResponseVerdicts),
	}

	if result.DLPPrompt != nil {
		record.PromptHash = hashText(result.DLPPrompt.ProcessedText)
		record.PromptFindings = len(result.DLPPrompt.Findings)
		record.PromptCategories = result.DLPPrompt.CategoriesFound
	}
	if result.DLPResponse != nil {
		record.ResponseHash = hashText(result.DLPResponse.ProcessedText)
		record.ResponseFindings = len(result.DLPResponse.Findings)
		record.ResponseCategories = result.DLPResponse.CategoriesFound
	}

	return record
}

// verdictRecords converts moderation verdicts into their audit form.
func verdictRecords(verdicts []moderation.Verdict) []VerdictRecord {
	if len(verdicts) == 0 {
		return nil
	}
	out := make([]VerdictRecord, 0, len(verdicts))
	for _, v := range verdicts {
		out = append(out, VerdictRecord{
			Source:         string(v.Source),
			Blocked:        v.Blocked,
			Unavailable:    v.Unavailable,
			ErrorDetail:    v.ErrorDetail,
			CategoryScores: v.CategoryScores,
			Signals:        v.Signals,
		})
	}
	return out
}

// hashText returns the hex SHA-256 of the text, or empty for empty
// text.
func hashText(text string) string {
	if text == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

var _ coordinator.Recorder = (*Recorder)(nil)
