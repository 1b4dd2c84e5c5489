package vault

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestVault(t *testing.T, ttl time.Duration) *Vault {
	t.Helper()

	v, err := Open(Config{
		Path: filepath.Join(t.TempDir(), "vault.db"),
		TTL:  ttl,
	})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { v.Close() })
	return v
}

func TestVault_PutAndLookup(t *testing.T) {
	v := openTestVault(t, time.Hour)
	ctx := context.Background()

	token := "TOKEN(11):aabbccddeeff00112233445566778899"
	if err := v.Put(ctx, token, "123-45-6789"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	original, err := v.Lookup(ctx, token)
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if original != "123-45-6789" {
		t.Errorf("Expected '123-45-6789', got %q", original)
	}
}

func TestVault_LookupUnknownToken(t *testing.T) {
	v := openTestVault(t, time.Hour)

	_, err := v.Lookup(context.Background(), "TOKEN(5):deadbeef")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound, got %v", err)
	}
}

func TestVault_ExpiredTokenNotFound(t *testing.T) {
	// 1s TTL: expires_at is stored at second granularity, so waiting
	// past the next second boundary guarantees expiry.
	v := openTestVault(t, time.Second)
	ctx := context.Background()

	token := "TOKEN(4):0123456789abcdef0123456789abcdef"
	if err := v.Put(ctx, token, "data"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	time.Sleep(2100 * time.Millisecond)

	_, err := v.Lookup(ctx, token)
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected expired token to be not found, got %v", err)
	}
}

func TestVault_PutOverwrites(t *testing.T) {
	v := openTestVault(t, time.Hour)
	ctx := context.Background()

	token := "TOKEN(3):ffffffffffffffffffffffffffffffff"
	if err := v.Put(ctx, token, "old"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := v.Put(ctx, token, "new"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	original, err := v.Lookup(ctx, token)
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if original != "new" {
		t.Errorf("Expected 'new', got %q", original)
	}
}

func TestVault_PruneExpired(t *testing.T) {
	v := openTestVault(t, time.Second)
	ctx := context.Background()

	for _, token := range []string{"TOKEN(1):aa", "TOKEN(1):bb", "TOKEN(1):cc"} {
		if err := v.Put(ctx, token, "x"); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	time.Sleep(2100 * time.Millisecond)

	pruned, err := v.PruneExpired(ctx)
	if err != nil {
		t.Fatalf("PruneExpired() failed: %v", err)
	}
	if pruned != 3 {
		t.Errorf("Expected 3 pruned tokens, got %d", pruned)
	}

	// Second prune finds nothing.
	pruned, err = v.PruneExpired(ctx)
	if err != nil {
		t.Fatalf("PruneExpired() failed: %v", err)
	}
	if pruned != 0 {
		t.Errorf("Expected 0 pruned tokens, got %d", pruned)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Error("Expected error for empty path")
	}
}
