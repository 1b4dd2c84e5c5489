package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"aegis-hq/themis/pkg/dlp"
	"aegis-hq/themis/pkg/moderation"
	"aegis-hq/themis/pkg/telemetry/metrics"
)

// Config controls how the coordinator processes a turn. It is immutable;
// construct it once and pass it in. The coordinator reads no ambient
// state.
type Config struct {
	// SafetyMode selects which moderation layers are queried.
	SafetyMode moderation.SafetyMode

	// PromptDLP configures sensitive-data processing for user input.
	PromptDLP dlp.ProcessConfig

	// ResponseDLP configures sensitive-data processing for model output.
	// Typically ModeInspectOnly or ModeDisabled: redacting the model's own
	// reply has no clear benefit, but the same pipeline contract is reused.
	ResponseDLP dlp.ProcessConfig
}

// Validate rejects invalid configuration before any turn is processed.
func (c Config) Validate() error {
	if _, err := moderation.ParseSafetyMode(string(c.SafetyMode)); err != nil {
		return err
	}
	if err := c.PromptDLP.Validate(); err != nil {
		return fmt.Errorf("prompt dlp: %w", err)
	}
	if err := c.ResponseDLP.Validate(); err != nil {
		return fmt.Errorf("response dlp: %w", err)
	}
	return nil
}

// Recorder persists completed turns for audit. Implementations must be
// safe for concurrent use.
type Recorder interface {
	// RecordTurn persists one aggregated turn result.
	RecordTurn(ctx context.Context, result *AggregatedSafetyResult) error
}

// Coordinator sequences the safety pipeline for one user turn: sensitive
// data processing, prompt moderation, the external model call (owned by
// the caller), and response moderation. It holds only shared handles and
// is safe for concurrent turns; all mutation is local to a turn's result
// objects.
type Coordinator struct {
	pipeline *dlp.Pipeline
	gate     *moderation.Gate
	config   Config
	recorder Recorder
	metrics  *metrics.SafetyMetrics
	logger   *slog.Logger
}

// New creates a coordinator. The recorder and safety metrics may be nil.
func New(pipeline *dlp.Pipeline, gate *moderation.Gate, cfg Config, recorder Recorder, m *metrics.SafetyMetrics) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Coordinator{
		pipeline: pipeline,
		gate:     gate,
		config:   cfg,
		recorder: recorder,
		metrics:  m,
		logger:   slog.Default().With("component", "coordinator"),
	}, nil
}

// PromptPhaseResult is the outcome of the prompt phase. When Blocked()
// is true the caller must not invoke the model and must not enter the
// response phase for this turn.
type PromptPhaseResult struct {
	// TurnID identifies the turn across both phases.
	TurnID string

	// TextToSend is the processed text that should reach the model.
	TextToSend string

	// DLP is the sensitive-data result for the raw input.
	DLP *dlp.Result

	// Moderation is the gate's evaluation of the processed text.
	Moderation *moderation.Evaluation
}

// Blocked reports whether prompt moderation rejected the turn.
func (r *PromptPhaseResult) Blocked() bool {
	return r.Moderation != nil && r.Moderation.Blocked
}

// ResponsePhaseResult is the outcome of the response phase.
type ResponsePhaseResult struct {
	// DLP is the sensitive-data result for the model output. Nil when
	// response-phase DLP is disabled.
	DLP *dlp.Result

	// Moderation is the gate's evaluation of the model output.
	Moderation *moderation.Evaluation
}

// Blocked reports whether response moderation rejected the output.
func (r *ResponsePhaseResult) Blocked() bool {
	return r.Moderation != nil && r.Moderation.Blocked
}

// RunPromptPhase processes raw user input: the sensitive-data pipeline
// runs first, then the moderation gate evaluates the processed text,
// never the raw input, so moderation sees exactly what would reach the
// model.
//
// Detector and moderation failures propagate unchanged; the system-wide
// fail-open policy for the advanced layer lives in the gate.
func (c *Coordinator) RunPromptPhase(ctx context.Context, rawInput string) (*PromptPhaseResult, error) {
	turnID := uuid.NewString()

	dlpResult, err := c.runDLP(ctx, rawInput, c.config.PromptDLP)
	if err != nil {
		return nil, err
	}

	eval, err := c.runModeration(ctx, dlpResult.ProcessedText, moderation.DirectionPrompt)
	if err != nil {
		return nil, err
	}

	if eval.Blocked {
		c.metrics.RecordBlocked(string(moderation.DirectionPrompt))
		c.logger.Info("prompt blocked by moderation",
			"turn_id", turnID,
			"blocked_by", eval.BlockedBy(),
		)
	}

	return &PromptPhaseResult{
		TurnID:     turnID,
		TextToSend: dlpResult.ProcessedText,
		DLP:        dlpResult,
		Moderation: eval,
	}, nil
}

// RunResponsePhase processes model output for a turn whose prompt phase
// passed. The caller must not call it for a blocked turn.
func (c *Coordinator) RunResponsePhase(ctx context.Context, rawOutput string) (*ResponsePhaseResult, error) {
	result := &ResponsePhaseResult{}

	if c.config.ResponseDLP.Mode != dlp.ModeDisabled {
		dlpResult, err := c.runDLP(ctx, rawOutput, c.config.ResponseDLP)
		if err != nil {
			return nil, err
		}
		result.DLP = dlpResult
	}

	text := rawOutput
	if result.DLP != nil {
		text = result.DLP.ProcessedText
	}

	eval, err := c.runModeration(ctx, text, moderation.DirectionResponse)
	if err != nil {
		return nil, err
	}
	result.Moderation = eval

	if eval.Blocked {
		c.metrics.RecordBlocked(string(moderation.DirectionResponse))
	}

	return result, nil
}

// CompleteTurn aggregates both phases, records evidence and metrics, and
// returns the final result. The response may be nil for turns blocked at
// the prompt phase. Aggregation itself is a pure merge with no I/O; only
// the optional evidence write touches storage.
func (c *Coordinator) CompleteTurn(ctx context.Context, prompt *PromptPhaseResult, response *ResponsePhaseResult) (*AggregatedSafetyResult, error) {
	result := Aggregate(prompt, response)

	if result.FellBack {
		c.metrics.RecordFallback()
	}

	if c.recorder != nil {
		if err := c.recorder.RecordTurn(ctx, result); err != nil {
			// Evidence is an audit trail, not a gate: a failed write is
			// logged and surfaced but does not invalidate the turn result.
			c.logger.Error("failed to record turn evidence", "turn_id", result.TurnID, "error", err)
			return result, fmt.Errorf("record turn evidence: %w", err)
		}
	}

	return result, nil
}

// runDLP runs the sensitive-data pipeline and records scan metrics.
func (c *Coordinator) runDLP(ctx context.Context, text string, cfg dlp.ProcessConfig) (*dlp.Result, error) {
	start := time.Now()
	result, err := c.pipeline.Process(ctx, text, cfg)
	if err != nil {
		c.metrics.RecordScan(string(cfg.Mode), "error", time.Since(start), nil)
		return nil, err
	}

	counts := make(map[string]int, len(result.CategoriesFound))
	for _, f := range result.Findings {
		counts[f.Category]++
	}
	c.metrics.RecordScan(string(cfg.Mode), "ok", time.Since(start), counts)
	return result, nil
}

// runModeration runs the gate and records layer metrics.
func (c *Coordinator) runModeration(ctx context.Context, text string, direction moderation.Direction) (*moderation.Evaluation, error) {
	start := time.Now()
	eval, err := c.gate.Evaluate(ctx, text, direction, c.config.SafetyMode)
	if err != nil {
		c.metrics.RecordModeration(string(direction), time.Since(start),
			map[string]string{"gate": "error"})
		return nil, err
	}

	outcomes := make(map[string]string, len(eval.Verdicts))
	for _, v := range eval.Verdicts {
		outcome := "ok"
		if v.Unavailable {
			outcome = "unavailable"
		} else if v.Blocked {
			outcome = "blocked"
		}
		outcomes[string(v.Source)] = outcome
	}
	c.metrics.RecordModeration(string(direction), time.Since(start), outcomes)
	return eval, nil
}
