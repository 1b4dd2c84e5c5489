package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"aegis-hq/themis/pkg/evidence"
	"aegis-hq/themis/pkg/evidence/storage"
)

// fakeTokenPruner counts sweeps and fails on demand.
type fakeTokenPruner struct {
	swept int64
	err   error
	calls int
}

func (f *fakeTokenPruner) PruneExpired(_ context.Context) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.swept, nil
}

// failingStorage wraps the memory backend with a DeleteBefore failure.
type failingStorage struct {
	*storage.MemoryStorage
	deleteErr error
}

func (s *failingStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	return s.MemoryStorage.DeleteBefore(ctx, cutoff)
}

func seedRecords(t *testing.T, store evidence.Storage, ages ...time.Duration) {
	t.Helper()
	now := time.Now().UTC()
	for i, age := range ages {
		rec := &evidence.Record{
			ID:         string(rune('a' + i)),
			TurnID:     string(rune('a' + i)),
			RecordedAt: now.Add(-age),
		}
		if err := store.Store(context.Background(), rec); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}
}

func TestPruner_DeletesExpiredRecords(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedRecords(t, store,
		100*24*time.Hour, // expired
		95*24*time.Hour,  // expired
		10*24*time.Hour,  // kept
	)

	pruner := NewPruner(store, nil, &Config{RetentionDays: 90})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", deleted)
	}

	remaining, err := store.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if remaining != 1 {
		t.Errorf("Expected 1 remaining record, got %d", remaining)
	}
}

func TestPruner_ZeroRetentionKeepsForever(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedRecords(t, store, 1000*24*time.Hour)

	pruner := NewPruner(store, nil, &Config{RetentionDays: 0})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected no deletions with retention disabled, got %d", deleted)
	}
}

func TestPruner_SweepsVaultTokens(t *testing.T) {
	store := storage.NewMemoryStorage()
	tokens := &fakeTokenPruner{swept: 7}

	pruner := NewPruner(store, tokens, &Config{RetentionDays: 90})

	if _, err := pruner.Prune(context.Background()); err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if tokens.calls != 1 {
		t.Errorf("Expected 1 token sweep, got %d", tokens.calls)
	}
}

func TestPruner_StorageFailure(t *testing.T) {
	store := &failingStorage{
		MemoryStorage: storage.NewMemoryStorage(),
		deleteErr:     errors.New("database locked"),
	}
	tokens := &fakeTokenPruner{}

	pruner := NewPruner(store, tokens, &Config{RetentionDays: 90})

	_, err := pruner.Prune(context.Background())
	if err == nil {
		t.Fatal("Expected storage failure to surface")
	}
	var retErr *evidence.RetentionError
	if !errors.As(err, &retErr) {
		t.Fatalf("Expected RetentionError, got %T", err)
	}
	if tokens.calls != 0 {
		t.Error("Token sweep must not run after a storage failure")
	}
}

func TestPruner_TokenSweepFailureKeepsDeleteCount(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedRecords(t, store, 100*24*time.Hour)
	tokens := &fakeTokenPruner{err: errors.New("vault closed")}

	pruner := NewPruner(store, tokens, &Config{RetentionDays: 90})

	deleted, err := pruner.Prune(context.Background())
	if err == nil {
		t.Fatal("Expected token sweep failure to surface")
	}
	if deleted != 1 {
		t.Errorf("Expected the evidence delete count to survive, got %d", deleted)
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), nil, &Config{
		RetentionDays: 90,
		PruneSchedule: "not a cron expression",
	})

	if err := pruner.Start(context.Background()); err == nil {
		pruner.Stop()
		t.Fatal("Expected invalid cron expression to be rejected")
	}
}

func TestScheduler_NextRun(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), nil, &Config{
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer pruner.Stop()

	next := pruner.NextPruning()
	if next == nil {
		t.Fatal("Expected a next pruning time")
	}
	if !next.After(time.Now()) {
		t.Errorf("Expected next pruning in the future, got %v", next)
	}
}
