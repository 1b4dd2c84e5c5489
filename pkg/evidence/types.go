package evidence

import (
	"context"
	"time"
)

// Record is the audit trail for one conversation turn through the
// safety pipeline. It deliberately carries no raw text: prompt and
// response content appear only as SHA-256 hashes, so the evidence
// store never becomes a secondary copy of the sensitive data the
// pipeline exists to protect.
type Record struct {
	// ID is a UUID v4 assigned at recording time.
	ID string `json:"id"`

	// TurnID identifies the conversation turn this record describes.
	TurnID string `json:"turn_id"`

	// RecordedAt is when the record was written.
	RecordedAt time.Time `json:"recorded_at"`

	// Blocked reports whether moderation rejected the turn.
	Blocked bool `json:"blocked"`

	// FellBack reports whether the turn proceeded with reduced
	// protection after the advanced layer was unavailable.
	FellBack bool `json:"fell_back"`

	// PromptHash is the SHA-256 of the processed prompt text, hex
	// encoded. Empty when sensitive-data scanning was disabled.
	PromptHash string `json:"prompt_hash"`

	// ResponseHash is the SHA-256 of the processed response text.
	// Empty for turns blocked at the prompt.
	ResponseHash string `json:"response_hash"`

	// PromptFindings is the number of sensitive-data findings in the
	// prompt.
	PromptFindings int `json:"prompt_findings"`

	// ResponseFindings is the number of sensitive-data findings in the
	// response.
	ResponseFindings int `json:"response_findings"`

	// PromptCategories are the sensitive-data categories found in the
	// prompt, sorted and de-duplicated.
	PromptCategories []string `json:"prompt_categories"`

	// ResponseCategories are the categories found in the response.
	ResponseCategories []string `json:"response_categories"`

	// PromptVerdicts are the moderation layer outcomes for the prompt.
	PromptVerdicts []VerdictRecord `json:"prompt_verdicts"`

	// ResponseVerdicts are the moderation layer outcomes for the
	// response.
	ResponseVerdicts []VerdictRecord `json:"response_verdicts"`
}

// VerdictRecord captures one moderation layer's outcome for audit.
type VerdictRecord struct {
	// Source is the layer that produced the verdict ("builtin" or
	// "advanced").
	Source string `json:"source"`

	// Blocked reports whether the layer wanted the text rejected.
	Blocked bool `json:"blocked"`

	// Unavailable reports that the layer could not be consulted.
	Unavailable bool `json:"unavailable"`

	// ErrorDetail describes why the layer was unavailable.
	ErrorDetail string `json:"error_detail,omitempty"`

	// CategoryScores are the builtin layer's per-category harm scores.
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`

	// Signals are the advanced layer's matched filter descriptions.
	Signals []string `json:"signals,omitempty"`
}

// Query defines filter parameters for querying evidence records.
type Query struct {
	// StartTime is the inclusive lower bound on RecordedAt.
	StartTime *time.Time `json:"start_time,omitempty"`

	// EndTime is the inclusive upper bound on RecordedAt.
	EndTime *time.Time `json:"end_time,omitempty"`

	// TurnID filters to a single turn.
	TurnID string `json:"turn_id,omitempty"`

	// Blocked filters by moderation outcome when non-nil.
	Blocked *bool `json:"blocked,omitempty"`

	// Limit caps the number of records returned (0 means no cap).
	Limit int `json:"limit,omitempty"`

	// Offset skips the first N matching records.
	Offset int `json:"offset,omitempty"`
}

// Storage defines the interface for evidence storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists an evidence record.
	Store(ctx context.Context, record *Record) error

	// Query retrieves records matching the filters, newest first.
	// Returns an empty slice when nothing matches.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// DeleteBefore removes records recorded before the cutoff and
	// returns the number deleted. Used for retention enforcement.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}
