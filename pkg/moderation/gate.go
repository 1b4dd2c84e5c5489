package moderation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// GateConfig configures a moderation gate. It is immutable once the gate
// is constructed.
type GateConfig struct {
	// Thresholds are per-category blocking thresholds for the builtin
	// layer. Categories without an entry use DefaultThreshold.
	Thresholds map[string]float64

	// PromptTemplateID is the advanced layer's template for prompt
	// evaluations. Empty means the advanced layer is not configured for
	// prompts.
	PromptTemplateID string

	// ResponseTemplateID is the advanced layer's template for response
	// evaluations. Empty means the advanced layer is not configured for
	// responses.
	ResponseTemplateID string

	// FailOpen controls the policy when a requested advanced layer is
	// unavailable: proceed with the remaining layers (true) or reject the
	// evaluation (false).
	// Default: true
	FailOpen bool

	// Timeout bounds each layer call. A layer that exceeds it is treated
	// as unavailable.
	// Default: 10s
	Timeout time.Duration
}

// Gate queries one or two independent moderation layers and combines
// their verdicts. The layers are logically independent, so a single
// evaluation fans out to all requested layers concurrently and joins
// before aggregating. The gate holds only shared client handles and is
// safe for concurrent use.
type Gate struct {
	builtin  BuiltinClient
	advanced AdvancedClient
	config   GateConfig
	logger   *slog.Logger
}

// NewGate creates a moderation gate over the given layer clients. Either
// client may be nil if the corresponding layer will never be requested;
// requesting a layer whose client is nil yields an unavailable verdict.
func NewGate(builtin BuiltinClient, advanced AdvancedClient, cfg GateConfig) *Gate {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Gate{
		builtin:  builtin,
		advanced: advanced,
		config:   cfg,
		logger:   slog.Default().With("component", "moderation.gate"),
	}
}

// layerOutcome pairs a layer verdict with its terminal layer state.
type layerOutcome struct {
	verdict Verdict
	state   State
}

// Evaluate runs one moderation pass over the text.
//
// The requested layers are queried concurrently with no ordering
// dependency; the call joins on all of them before aggregating. An
// unavailable builtin layer always fails the evaluation; its absence is
// a deployment error, never a fallback case. An unavailable advanced
// layer falls back (FellBack=true) when fail-open is set, and fails the
// evaluation with ModerationUnavailableError when it is not.
func (g *Gate) Evaluate(ctx context.Context, text string, direction Direction, mode SafetyMode) (*Evaluation, error) {
	// Reject unknown modes here as well as at config load: an
	// unrecognized mode would otherwise query no layers and pass the
	// text unmoderated.
	mode, err := ParseSafetyMode(string(mode))
	if err != nil {
		return nil, err
	}

	eval := &Evaluation{Direction: direction, State: StatePending}

	type indexed struct {
		order   int
		outcome layerOutcome
	}

	var wg sync.WaitGroup
	results := make(chan indexed, 2)

	eval.State = StateQueried
	if mode.requiresBuiltin() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- indexed{order: 0, outcome: g.queryBuiltin(ctx, text, direction)}
		}()
	}
	if mode.requiresAdvanced() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- indexed{order: 1, outcome: g.queryAdvanced(ctx, text, direction)}
		}()
	}

	wg.Wait()
	close(results)

	outcomes := make(map[int]layerOutcome, 2)
	for r := range results {
		outcomes[r.order] = r.outcome
	}
	for order := 0; order < 2; order++ {
		if o, ok := outcomes[order]; ok {
			eval.Verdicts = append(eval.Verdicts, o.verdict)
		}
	}

	return g.aggregate(eval, mode)
}

// aggregate applies the availability policy and computes the final
// blocked decision. It is a pure function of the collected verdicts,
// the safety mode, and the fail-open flag.
func (g *Gate) aggregate(eval *Evaluation, mode SafetyMode) (*Evaluation, error) {
	for _, v := range eval.Verdicts {
		if !v.Unavailable {
			eval.Blocked = eval.Blocked || v.Blocked
			continue
		}

		switch v.Source {
		case SourceBuiltin:
			eval.State = StateFailed
			return nil, &ModerationUnavailableError{Layer: SourceBuiltin, Detail: v.ErrorDetail}
		case SourceAdvanced:
			if !g.config.FailOpen {
				eval.State = StateFailed
				return nil, &ModerationUnavailableError{Layer: SourceAdvanced, Detail: v.ErrorDetail}
			}
			eval.FellBack = true
			g.logger.Warn("advanced moderation unavailable, proceeding with reduced protection",
				"direction", eval.Direction,
				"detail", v.ErrorDetail,
			)
		}
	}

	eval.State = StateAggregated
	return eval, nil
}

// queryBuiltin runs the builtin layer and scores the result against the
// configured per-category thresholds.
func (g *Gate) queryBuiltin(ctx context.Context, text string, direction Direction) layerOutcome {
	if g.builtin == nil {
		return layerOutcome{
			verdict: Verdict{Source: SourceBuiltin, Unavailable: true, ErrorDetail: "not configured"},
			state:   StateUnavailable,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	scores, err := g.builtin.Score(ctx, text, direction)
	if err != nil {
		return layerOutcome{
			verdict: Verdict{Source: SourceBuiltin, Unavailable: true, ErrorDetail: err.Error()},
			state:   StateUnavailable,
		}
	}

	blocked := false
	for category, score := range scores {
		if score >= g.threshold(category) {
			blocked = true
			break
		}
	}

	return layerOutcome{
		verdict: Verdict{Source: SourceBuiltin, Blocked: blocked, CategoryScores: scores},
		state:   StateResolved,
	}
}

// queryAdvanced runs the advanced layer against the direction's template.
// A missing template means the layer is unavailable without a remote
// call being attempted.
func (g *Gate) queryAdvanced(ctx context.Context, text string, direction Direction) layerOutcome {
	templateID := g.config.PromptTemplateID
	if direction == DirectionResponse {
		templateID = g.config.ResponseTemplateID
	}
	if templateID == "" || g.advanced == nil {
		return layerOutcome{
			verdict: Verdict{Source: SourceAdvanced, Unavailable: true, ErrorDetail: "not configured"},
			state:   StateUnavailable,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	scan, err := g.advanced.Scan(ctx, text, templateID)
	if err != nil {
		return layerOutcome{
			verdict: Verdict{Source: SourceAdvanced, Unavailable: true, ErrorDetail: err.Error()},
			state:   StateUnavailable,
		}
	}

	return layerOutcome{
		verdict: Verdict{Source: SourceAdvanced, Blocked: scan.Blocked, Signals: scan.Signals},
		state:   StateResolved,
	}
}

// threshold returns the blocking threshold for a builtin category.
func (g *Gate) threshold(category string) float64 {
	if t, ok := g.config.Thresholds[category]; ok {
		return t
	}
	return DefaultThreshold
}
