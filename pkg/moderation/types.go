package moderation

import (
	"fmt"
	"strings"
)

// Direction indicates whether the gate is evaluating text on its way to
// the model or text the model produced.
type Direction string

const (
	// DirectionPrompt evaluates user input before the model call.
	DirectionPrompt Direction = "prompt"

	// DirectionResponse evaluates model output after the model call.
	DirectionResponse Direction = "response"
)

// SafetyMode selects which moderation layers an evaluation queries.
// It is configuration, immutable for the life of a session.
type SafetyMode string

const (
	// SafetyModeBuiltinOnly queries only the builtin safety layer.
	SafetyModeBuiltinOnly SafetyMode = "builtin_only"

	// SafetyModeAdvancedOnly queries only the advanced security layer.
	SafetyModeAdvancedOnly SafetyMode = "advanced_only"

	// SafetyModeBoth queries both layers for maximum protection.
	SafetyModeBoth SafetyMode = "both"
)

// ParseSafetyMode converts a configuration string to a SafetyMode.
func ParseSafetyMode(s string) (SafetyMode, error) {
	switch SafetyMode(strings.ToLower(s)) {
	case SafetyModeBuiltinOnly, SafetyModeAdvancedOnly, SafetyModeBoth:
		return SafetyMode(strings.ToLower(s)), nil
	}
	return "", fmt.Errorf("unknown safety mode %q", s)
}

// requiresBuiltin reports whether the mode queries the builtin layer.
func (m SafetyMode) requiresBuiltin() bool {
	return m == SafetyModeBuiltinOnly || m == SafetyModeBoth
}

// requiresAdvanced reports whether the mode queries the advanced layer.
func (m SafetyMode) requiresAdvanced() bool {
	return m == SafetyModeAdvancedOnly || m == SafetyModeBoth
}

// Source identifies which moderation layer produced a verdict.
type Source string

const (
	// SourceBuiltin is the always-available threshold-based harm classifier.
	SourceBuiltin Source = "builtin"

	// SourceAdvanced is the optionally configured template-driven scanner.
	SourceAdvanced Source = "advanced"
)

// Verdict is one moderation layer's answer for one text.
//
// Unavailable=true means the remote call failed or the layer is not
// configured; it is distinct from a clean "not blocked" result and its
// Blocked field carries no meaning.
type Verdict struct {
	// Source is the layer that produced this verdict.
	Source Source

	// Blocked reports whether the layer wants the text rejected.
	Blocked bool

	// CategoryScores are the builtin layer's per-category harm scores.
	// Nil for the advanced layer.
	CategoryScores map[string]float64

	// Signals are the advanced layer's matched filter descriptions
	// (prompt injection, malicious URI, embedded PII). Nil for builtin.
	Signals []string

	// Unavailable reports that the layer could not be consulted.
	Unavailable bool

	// ErrorDetail describes why the layer was unavailable, when it was.
	ErrorDetail string
}

// State tracks an evaluation through its lifecycle. Terminal states are
// StateAggregated (success, possibly with a fallback) and StateFailed
// (fail-closed path).
type State string

const (
	// StatePending is the initial state before any layer is queried.
	StatePending State = "pending"

	// StateQueried means layer requests are in flight.
	StateQueried State = "queried"

	// StateResolved means a layer answered cleanly.
	StateResolved State = "resolved"

	// StateUnavailable means a layer failed or was not configured.
	StateUnavailable State = "unavailable"

	// StateAggregated means the evaluation completed.
	StateAggregated State = "aggregated"

	// StateFailed means an explicitly requested layer was unavailable
	// with fail-open disabled.
	StateFailed State = "failed"
)

// Evaluation is the aggregated outcome of one gate call.
type Evaluation struct {
	// Direction is the direction the gate evaluated.
	Direction Direction

	// Verdicts holds one verdict per queried layer, builtin first when
	// both were requested.
	Verdicts []Verdict

	// Blocked is the OR over all available verdicts' Blocked flags.
	Blocked bool

	// FellBack records that the advanced layer was requested but
	// unavailable and the evaluation proceeded with the remaining layers.
	FellBack bool

	// State is the terminal state of the evaluation.
	State State
}

// BlockedBy returns the sources whose verdicts blocked the text.
func (e *Evaluation) BlockedBy() []Source {
	var sources []Source
	for _, v := range e.Verdicts {
		if !v.Unavailable && v.Blocked {
			sources = append(sources, v.Source)
		}
	}
	return sources
}
