package magazines

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIndexCacheReloadsOnModTimeChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte("<h1>v1</h1>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, first, first); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	cache := NewIndexCache(path)
	got, err := cache.Get()
	if err != nil || string(got) != "<h1>v1</h1>" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	// Same mtime: the cached copy is served even though the bytes changed.
	if err := os.WriteFile(path, []byte("<h1>v2</h1>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Chtimes(path, first, first); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if got, _ := cache.Get(); string(got) != "<h1>v1</h1>" {
		t.Fatalf("expected cached content, got %q", got)
	}

	second := first.Add(time.Hour)
	if err := os.Chtimes(path, second, second); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if got, _ := cache.Get(); string(got) != "<h1>v2</h1>" {
		t.Fatalf("expected reloaded content, got %q", got)
	}
}

func TestIndexCacheMissingFile(t *testing.T) {
	cache := NewIndexCache(filepath.Join(t.TempDir(), "missing.html"))
	if _, err := cache.Get(); err == nil {
		t.Fatal("expected error for missing index")
	}
}
