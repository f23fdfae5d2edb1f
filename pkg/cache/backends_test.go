package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Fatalf("Get on empty cache = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get corrupt = hit %v, err %v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d entries left after Clear", len(entries))
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %s", c.Dir())
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", "revdeps") {
		t.Errorf("DefaultDir() = %s", dir)
	}
}

func TestLRUCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUCache(2)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("least recently used entry was not evicted")
	}
	if data, hit, _ := c.Get(ctx, "c"); !hit || string(data) != "c" {
		t.Errorf("Get(c) = %q, %v", data, hit)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUCache(0)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry missed")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if c.Len() != 0 {
		t.Error("expired entry was not evicted")
	}
}

func TestLRUCacheCopiesData(t *testing.T) {
	ctx := context.Background()
	c, _ := NewLRUCache(1)
	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'
	if data, _, _ := c.Get(ctx, "k"); string(data) != "abc" {
		t.Errorf("stored data changed to %q", data)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRedisClassify(t *testing.T) {
	if err := classify(nil); err != nil {
		t.Errorf("classify(nil) = %v", err)
	}
	if err := classify(redis.Nil); !errors.Is(err, redis.Nil) || IsRetryable(err) {
		t.Errorf("classify(redis.Nil) = %v", err)
	}
	err := classify(timeoutErr{})
	if !IsRetryable(err) || !errors.Is(err, ErrUnavailable) {
		t.Errorf("classify(timeout) = %v, want retryable ErrUnavailable", err)
	}
	if err := classify(errPermanent); IsRetryable(err) {
		t.Error("non-network error marked retryable")
	}
}
