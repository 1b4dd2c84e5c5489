package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrTokenNotFound is returned by Lookup when the token does not exist or
// has expired.
var ErrTokenNotFound = errors.New("vault: token not found")

// Config configures the token vault.
type Config struct {
	// Path is the SQLite database file path. ":memory:" keeps the vault
	// in memory for the process lifetime.
	Path string

	// TTL is how long a stored token remains re-identifiable.
	// Default: 24h
	TTL time.Duration

	// BusyTimeout is how long to wait for database locks before failing.
	// Default: 5s
	BusyTimeout time.Duration
}

// Vault stores tokenization mappings (opaque token to original content)
// so that authorized callers can reverse individual tokens later. It is
// safe for concurrent use; database/sql serializes access to the shared
// connection pool.
type Vault struct {
	db     *sql.DB
	ttl    time.Duration
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
	token      TEXT PRIMARY KEY,
	original   TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tokens_expires ON tokens(expires_at);
`

// Open creates or opens a token vault at the configured path.
func Open(cfg Config) (*Vault, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("vault path cannot be empty")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize vault schema: %w", err)
	}

	logger := slog.Default().With("component", "dlp.vault")
	logger.Info("token vault opened", "path", cfg.Path, "ttl", cfg.TTL)

	return &Vault{db: db, ttl: cfg.TTL, logger: logger}, nil
}

// Put stores an opaque token's original content with the configured TTL.
// It implements the dlp.TokenStore interface.
func (v *Vault) Put(ctx context.Context, token, original string) error {
	now := time.Now()
	_, err := v.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tokens (token, original, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, original, now.Unix(), now.Add(v.ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Lookup reverses a single token. Expired tokens are indistinguishable
// from tokens that never existed.
func (v *Vault) Lookup(ctx context.Context, token string) (string, error) {
	var original string
	err := v.db.QueryRowContext(ctx,
		`SELECT original FROM tokens WHERE token = ? AND expires_at > ?`,
		token, time.Now().Unix(),
	).Scan(&original)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up token: %w", err)
	}
	return original, nil
}

// PruneExpired deletes tokens past their expiry and returns how many
// were removed. The retention scheduler calls this periodically.
func (v *Vault) PruneExpired(ctx context.Context) (int64, error) {
	res, err := v.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned tokens: %w", err)
	}
	if n > 0 {
		v.logger.Debug("pruned expired tokens", "count", n)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (v *Vault) Close() error {
	return v.db.Close()
}
