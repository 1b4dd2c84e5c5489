package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"aegis-hq/themis/pkg/evidence"
)

// SQLiteConfig contains configuration for the SQLite evidence backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/evidence.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the evidence database
// and initializes its schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "evidence.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite evidence storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets pragmas and creates the schema.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return evidence.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return evidence.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}

	return nil
}

// Store persists an evidence record.
func (s *SQLiteStorage) Store(ctx context.Context, record *evidence.Record) error {
	promptCategories, _ := json.Marshal(record.PromptCategories)
	responseCategories, _ := json.Marshal(record.ResponseCategories)
	promptVerdicts, _ := json.Marshal(record.PromptVerdicts)
	responseVerdicts, _ := json.Marshal(record.ResponseVerdicts)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turn_evidence (
			id, turn_id, recorded_at, blocked, fell_back,
			prompt_hash, response_hash,
			prompt_findings, response_findings,
			prompt_categories, response_categories,
			prompt_verdicts, response_verdicts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, record.TurnID, record.RecordedAt.UnixMilli(), record.Blocked, record.FellBack,
		record.PromptHash, record.ResponseHash,
		record.PromptFindings, record.ResponseFindings,
		string(promptCategories), string(responseCategories),
		string(promptVerdicts), string(responseVerdicts),
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves matching records, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.Record, error) {
	where, args := buildWhere(query)

	sqlQuery := "SELECT id, turn_id, recorded_at, blocked, fell_back, prompt_hash, response_hash, prompt_findings, response_findings, prompt_categories, response_categories, prompt_verdicts, response_verdicts FROM turn_evidence" +
		where + " ORDER BY recorded_at DESC"

	if query != nil && query.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", query.Limit)
		if query.Offset > 0 {
			sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
		}
	} else if query != nil && query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT -1 OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*evidence.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Count returns the number of records matching the filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	where, args := buildWhere(query)

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM turn_evidence"+where, args...).Scan(&count)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// DeleteBefore removes records recorded before the cutoff.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM turn_evidence WHERE recorded_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}
	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError("sqlite", "close", err)
	}
	return nil
}

// buildWhere converts query filters into a WHERE clause and args.
func buildWhere(query *evidence.Query) (string, []any) {
	if query == nil {
		return "", nil
	}

	var conditions []string
	var args []any

	if query.TurnID != "" {
		conditions = append(conditions, "turn_id = ?")
		args = append(args, query.TurnID)
	}
	if query.Blocked != nil {
		conditions = append(conditions, "blocked = ?")
		args = append(args, *query.Blocked)
	}
	if query.StartTime != nil {
		conditions = append(conditions, "recorded_at >= ?")
		args = append(args, query.StartTime.UnixMilli())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "recorded_at <= ?")
		args = append(args, query.EndTime.UnixMilli())
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// scanRecord reads one row into a Record, decoding the JSON columns.
func scanRecord(rows *sql.Rows) (*evidence.Record, error) {
	var (
		record             evidence.Record
		recordedAt         int64
		promptCategories   string
		responseCategories string
		promptVerdicts     string
		responseVerdicts   string
	)

	err := rows.Scan(
		&record.ID, &record.TurnID, &recordedAt, &record.Blocked, &record.FellBack,
		&record.PromptHash, &record.ResponseHash,
		&record.PromptFindings, &record.ResponseFindings,
		&promptCategories, &responseCategories,
		&promptVerdicts, &responseVerdicts,
	)
	if err != nil {
		return nil, err
	}

	record.RecordedAt = time.UnixMilli(recordedAt).UTC()

	if err := json.Unmarshal([]byte(promptCategories), &record.PromptCategories); err != nil {
		return nil, fmt.Errorf("decode prompt categories: %w", err)
	}
	if err := json.Unmarshal([]byte(responseCategories), &record.ResponseCategories); err != nil {
		return nil, fmt.Errorf("decode response categories: %w", err)
	}
	if err := json.Unmarshal([]byte(promptVerdicts), &record.PromptVerdicts); err != nil {
		return nil, fmt.Errorf("decode prompt verdicts: %w", err)
	}
	if err := json.Unmarshal([]byte(responseVerdicts), &record.ResponseVerdicts); err != nil {
		return nil, fmt.Errorf("decode response verdicts: %w", err)
	}

	return &record, nil
}

var _ evidence.Storage = (*SQLiteStorage)(nil)
