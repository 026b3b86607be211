package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/modmap/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	key := NewDefaultKeyer().ArtifactKey("dataset-hash", ArtifactKeyOpts{Format: "svg", Module: "MATH0005"})

	if err := c.Set(ctx, key, []byte("<svg/>"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data, hit, err := c.Get(ctx, key); hit || data != nil || err != nil {
		t.Errorf("Get after Set = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
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

	dk := k.DatasetKey("https://example.org/modules.json")
	if !strings.HasPrefix(dk, "dataset:") || len(dk) != len("dataset:")+64 {
		t.Errorf("DatasetKey unexpected: %s", dk)
	}
	if dk != k.DatasetKey("https://example.org/modules.json") {
		t.Error("DatasetKey should be deterministic")
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "html"})
	ak3 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Theme: "Algebra"})
	if ak1 == ak2 || ak1 == ak3 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	v1 := NewScopedKeyer(NewDefaultKeyer(), "modmap@v1:")
	v2 := NewScopedKeyer(NewDefaultKeyer(), "modmap@v2:")

	if key := v1.DatasetKey("modules.json"); !strings.HasPrefix(key, "modmap@v1:dataset:") {
		t.Errorf("DatasetKey should be prefixed: %s", key)
	}
	if key := v1.ArtifactKey("h", ArtifactKeyOpts{}); !strings.HasPrefix(key, "modmap@v1:artifact:") {
		t.Errorf("ArtifactKey should be prefixed: %s", key)
	}
	if v1.ArtifactKey("h", ArtifactKeyOpts{}) == v2.ArtifactKey("h", ArtifactKeyOpts{}) {
		t.Error("different scopes produced the same artifact key")
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	want := "prefix:" + NewDefaultKeyer().DatasetKey("x")
	if key := scoped.DatasetKey("x"); key != want {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "artifact:a"); hit || err != nil {
		t.Fatalf("Get on empty cache = %v, %v", hit, err)
	}
	if err := c.Set(ctx, "artifact:a", []byte("<svg/>"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "artifact:a")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "artifact:a"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "artifact:a"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "artifact:a"); hit {
		t.Error("entry should be gone after Delete")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("non-positive ttl should never expire")
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	c.Set(ctx, "k", []byte("v"), 0)

	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry should be a clean miss, got %v, %v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, []byte(k), 0)
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entries should be gone after Clear")
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets int
	kinds              []string
}

func (h *countingHooks) OnCacheHit(_ context.Context, kind string) {
	h.hits++
	h.kinds = append(h.kinds, kind)
}
func (h *countingHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

func TestInstrument(t *testing.T) {
	hooks := &countingHooks{}
	observability.Register(observability.Hooks{Cache: hooks})
	defer observability.Reset()

	ctx := context.Background()
	fc, _ := NewFileCache(t.TempDir())
	c := Instrument(fc)

	c.Get(ctx, "artifact:x")
	c.Set(ctx, "artifact:x", []byte("x"), 0)
	c.Get(ctx, "artifact:x")

	if hooks.hits != 1 || hooks.misses != 1 || hooks.sets != 1 {
		t.Errorf("hits=%d misses=%d sets=%d, want 1 each", hooks.hits, hooks.misses, hooks.sets)
	}
	if len(hooks.kinds) != 1 || hooks.kinds[0] != "artifact" {
		t.Errorf("kinds = %v, want [artifact]", hooks.kinds)
	}
}

func TestKeyKind(t *testing.T) {
	scoped := NewScopedKeyer(nil, "modmap@v1:")
	tests := []struct {
		key  string
		want string
	}{
		{"artifact:x", "artifact"},
		{NewDefaultKeyer().DatasetKey("m.json"), "dataset"},
		{scoped.DatasetKey("m.json"), "dataset"},
		{scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}), "artifact"},
		{"bare", "bare"},
	}
	for _, tt := range tests {
		if got := keyKind(tt.key); got != tt.want {
			t.Errorf("keyKind(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestFileCacheLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for i := range 3 {
		if err := c.Set(ctx, "artifact:x", []byte{byte(i)}, time.Hour); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(c.path("artifact:x")))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != filepath.Base(c.path("artifact:x")) {
		t.Errorf("cache dir holds %v, want only the entry", entries)
	}
	if data, _, _ := c.Get(ctx, "artifact:x"); len(data) != 1 || data[0] != 2 {
		t.Errorf("Get = %v, want the last write", data)
	}
}
