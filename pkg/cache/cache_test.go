package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var errPermanent = errors.New("permanent")

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// TreeKey should include options in hash
	tk1 := k.TreeKey("snap1", "lodash", TreeKeyOpts{})
	tk2 := k.TreeKey("snap1", "lodash", TreeKeyOpts{MaxDepth: 3})
	if tk1 == tk2 {
		t.Error("Different TreeKeyOpts should produce different keys")
	}

	// A new snapshot invalidates every tree
	if tk1 == k.TreeKey("snap2", "lodash", TreeKeyOpts{}) {
		t.Error("Different snapshot hashes should produce different keys")
	}

	if !strings.HasPrefix(tk1, "tree:") {
		t.Errorf("TreeKey unexpected: %s", tk1)
	}
	if tk1 != k.TreeKey("snap1", "lodash", TreeKeyOpts{}) {
		t.Error("TreeKey should be deterministic")
	}

	// CompatKey
	ck1 := k.CompatKey("snap1", "lodash")
	ck2 := k.CompatKey("snap1", "")
	if ck1 == ck2 || !strings.HasPrefix(ck1, "compat:") {
		t.Errorf("CompatKey unexpected: %s %s", ck1, ck2)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "user:123:")

	// All keys should be prefixed
	treeKey := scoped.TreeKey("snap", "express", TreeKeyOpts{})
	if treeKey != "user:123:"+inner.TreeKey("snap", "express", TreeKeyOpts{}) {
		t.Errorf("ScopedKeyer TreeKey unexpected: %s", treeKey)
	}

	compatKey := scoped.CompatKey("snap", "serde")
	if len(compatKey) < 15 || compatKey[:9] != "user:123:" {
		t.Errorf("ScopedKeyer CompatKey should be prefixed: %s", compatKey)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.TreeKey("snap", "key", TreeKeyOpts{})
	if key != "prefix:"+NewDefaultKeyer().TreeKey("snap", "key", TreeKeyOpts{}) {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	// Non-nil error is wrapped
	err := Retryable(ErrUnavailable)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}

	// Error message is preserved
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	// Non-wrapped errors are not retryable
	if IsRetryable(errPermanent) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return errPermanent
	})
	if err != errPermanent {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
