package cache

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

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

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// Miss before Set
	_, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("expected miss for unknown key")
	}

	// Round trip
	want := []byte(`{"score":0.75}`)
	if err := c.Set(ctx, "key", want, 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("expected hit after Set")
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get returned %q, want %q", got, want)
	}

	// Delete
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("expected miss after Delete")
	}

	// Deleting a missing key is not an error
	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("expired entry should be a miss")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	opts := ResultKeyOpts{Strategy: "local-search", Jobs: 4, Iters: 1000}

	k1 := k.ResultKey("matrixhash", opts)
	k2 := k.ResultKey("matrixhash", opts)
	if k1 != k2 {
		t.Error("ResultKey should be deterministic")
	}
	if !strings.HasPrefix(k1, "result:") {
		t.Errorf("ResultKey should carry the result prefix: %s", k1)
	}

	// Any parameter change produces a different key
	if k.ResultKey("otherhash", opts) == k1 {
		t.Error("different matrices should produce different keys")
	}
	changed := opts
	changed.Iters = 2000
	if k.ResultKey("matrixhash", changed) == k1 {
		t.Error("different iters should produce different keys")
	}
	seed := int64(7)
	changed = opts
	changed.Seed = &seed
	if k.ResultKey("matrixhash", changed) == k1 {
		t.Error("seeded runs should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	k := NewScopedKeyer(nil, "tenant:42:")
	key := k.ResultKey("matrixhash", ResultKeyOpts{Strategy: "delegate"})
	if !strings.HasPrefix(key, "tenant:42:result:") {
		t.Errorf("scoped key missing prefix: %s", key)
	}
}

func TestResultKeyOptsCacheable(t *testing.T) {
	seed := int64(1)
	tests := []struct {
		name string
		opts ResultKeyOpts
		want bool
	}{
		{name: "SeededLocalSearch", opts: ResultKeyOpts{Strategy: "local-search", Seed: &seed}, want: true},
		{name: "UnseededLocalSearch", opts: ResultKeyOpts{Strategy: "local-search"}, want: false},
		{name: "Delegate", opts: ResultKeyOpts{Strategy: "delegate"}, want: true},
		{name: "ZeroValue", opts: ResultKeyOpts{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.Cacheable(); got != tt.want {
				t.Errorf("Cacheable() = %v, want %v", got, tt.want)
			}
		})
	}
}
