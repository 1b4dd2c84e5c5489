package coordinator

import (
	"fmt"
	"strings"

	"aegis-hq/themis/pkg/dlp"
	"aegis-hq/themis/pkg/moderation"
)

// AggregatedSafetyResult is the per-turn result handed to the caller.
// It is owned exclusively by the turn that produced it; no component
// retains a reference across turns.
type AggregatedSafetyResult struct {
	// TurnID identifies the turn.
	TurnID string

	// PromptVerdicts are the moderation verdicts for the prompt phase.
	PromptVerdicts []moderation.Verdict

	// ResponseVerdicts are the moderation verdicts for the response
	// phase. Empty for turns blocked at the prompt.
	ResponseVerdicts []moderation.Verdict

	// Blocked is the OR over all available verdicts from both phases.
	Blocked bool

	// FellBack records that the advanced layer was requested but
	// unavailable in either phase and the turn proceeded with only the
	// builtin layer.
	FellBack bool

	// DLPPrompt is the sensitive-data result for the user input.
	DLPPrompt *dlp.Result

	// DLPResponse is the sensitive-data result for the model output.
	// Nil when the response phase was skipped or its DLP was disabled.
	DLPResponse *dlp.Result
}

// Aggregate merges both phases into the turn's final result. It is a
// pure function: no I/O, no retained references.
func Aggregate(prompt *PromptPhaseResult, response *ResponsePhaseResult) *AggregatedSafetyResult {
	result := &AggregatedSafetyResult{
		TurnID:    prompt.TurnID,
		DLPPrompt: prompt.DLP,
	}

	if prompt.Moderation != nil {
		result.PromptVerdicts = prompt.Moderation.Verdicts
		result.Blocked = prompt.Moderation.Blocked
		result.FellBack = prompt.Moderation.FellBack
	}

	if response != nil {
		result.DLPResponse = response.DLP
		if response.Moderation != nil {
			result.ResponseVerdicts = response.Moderation.Verdicts
			result.Blocked = result.Blocked || response.Moderation.Blocked
			result.FellBack = result.FellBack || response.Moderation.FellBack
		}
	}

	return result
}

// Summary renders a human-readable account of the turn for display.
func (r *AggregatedSafetyResult) Summary() string {
	var lines []string

	if r.DLPPrompt != nil && r.DLPPrompt.HasFindings() {
		lines = append(lines, r.DLPPrompt.Summary())
	}
	if r.DLPResponse != nil && r.DLPResponse.HasFindings() {
		lines = append(lines, "Response: "+r.DLPResponse.Summary())
	}

	if r.Blocked {
		lines = append(lines, "Blocked by moderation: "+strings.Join(blockedSources(r), ", "))
	}
	if r.FellBack {
		lines = append(lines, "Advanced protection unavailable; proceeded with reduced protection")
	}

	if len(lines) == 0 {
		return "No safety events for this turn"
	}
	return strings.Join(lines, "\n")
}

// blockedSources lists the layer/phase pairs that blocked the turn.
func blockedSources(r *AggregatedSafetyResult) []string {
	var sources []string
	for _, v := range r.PromptVerdicts {
		if !v.Unavailable && v.Blocked {
			sources = append(sources, fmt.Sprintf("%s (prompt)", v.Source))
		}
	}
	for _, v := range r.ResponseVerdicts {
		if !v.Unavailable && v.Blocked {
			sources = append(sources, fmt.Sprintf("%s (response)", v.Source))
		}
	}
	return sources
}
