package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aegis-hq/themis/pkg/evidence"
)

// TokenPruner removes expired entries from the token vault. The vault
// implements this; it is an interface here so the pruner does not pull
// in a database driver.
type TokenPruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain evidence.
	// 0 means keep evidence forever (no pruning).
	RetentionDays int

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner enforces retention on evidence records and, when a token
// vault is attached, sweeps its expired tokens in the same cycle.
type Pruner struct {
	storage   evidence.Storage
	tokens    TokenPruner
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a retention pruner. tokens may be nil when no
// vault is in use.
func NewPruner(storage evidence.Storage, tokens TokenPruner, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		storage: storage,
		tokens:  tokens,
		config:  config,
		logger:  slog.Default().With("component", "evidence.retention"),
	}
	pruner.scheduler = NewScheduler(pruner)
	return pruner
}

// Prune deletes evidence records older than the retention period and
// sweeps expired vault tokens. Returns the number of evidence records
// deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var deleted int64

	if p.config.RetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)

		n, err := p.storage.DeleteBefore(ctx, cutoff)
		if err != nil {
			return 0, &evidence.RetentionError{RetentionDays: p.config.RetentionDays, Cause: err}
		}
		deleted = n

		if deleted > 0 {
			p.logger.Info("pruned evidence records",
				"deleted_count", deleted,
				"retention_days", p.config.RetentionDays,
			)
		} else {
			p.logger.Debug("no evidence records pruned",
				"retention_days", p.config.RetentionDays,
			)
		}
	}

	if p.tokens != nil {
		swept, err := p.tokens.PruneExpired(ctx)
		if err != nil {
			return deleted, fmt.Errorf("token sweep failed: %w", err)
		}
		if swept > 0 {
			p.logger.Info("swept expired vault tokens", "swept_count", swept)
		}
	}

	return deleted, nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
