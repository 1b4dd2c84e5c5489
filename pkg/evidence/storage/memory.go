package storage

import (
	"context"
	"sync"
	"time"

	"aegis-hq/themis/pkg/evidence"
)

// MemoryStorage is an in-memory evidence backend. It holds records in
// insertion order and is intended for tests and short-lived sessions
// where persistence is not required.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*evidence.Record
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store appends a copy of the record.
func (s *MemoryStorage) Store(_ context.Context, record *evidence.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.records = append(s.records, &clone)
	return nil
}

// Query returns matching records, newest first.
func (s *MemoryStorage) Query(_ context.Context, query *evidence.Query) ([]*evidence.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*evidence.Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if matches(s.records[i], query) {
			matched = append(matched, s.records[i])
		}
	}

	if query != nil {
		if query.Offset > 0 {
			if query.Offset >= len(matched) {
				return []*evidence.Record{}, nil
			}
			matched = matched[query.Offset:]
		}
		if query.Limit > 0 && len(matched) > query.Limit {
			matched = matched[:query.Limit]
		}
	}

	if matched == nil {
		matched = []*evidence.Record{}
	}
	return matched, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(_ context.Context, query *evidence.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.records {
		if matches(r, query) {
			n++
		}
	}
	return n, nil
}

// DeleteBefore removes records recorded before the cutoff.
func (s *MemoryStorage) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, r := range s.records {
		if r.RecordedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return deleted, nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStorage) Close() error {
	return nil
}

// matches applies query filters to a single record.
func matches(r *evidence.Record, q *evidence.Query) bool {
	if q == nil {
		return true
	}
	if q.TurnID != "" && r.TurnID != q.TurnID {
		return false
	}
	if q.Blocked != nil && r.Blocked != *q.Blocked {
		return false
	}
	if q.StartTime != nil && r.RecordedAt.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.RecordedAt.After(*q.EndTime) {
		return false
	}
	return true
}

var _ evidence.Storage = (*MemoryStorage)(nil)
