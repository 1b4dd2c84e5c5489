// Package retention enforces the evidence retention policy. A Pruner
// deletes records older than the configured window and sweeps expired
// token-vault entries; a cron-driven Scheduler runs it automatically.
package retention
