package cache

import (
	"os"
	"path/filepath"
	"testing"
)

const erdosURL = "https://en.wikipedia.org/wiki/Erd%C5%91s_number"

func TestPutAndGet(t *testing.T) {
	c := New(t.TempDir())

	page := Page{
		Status:       200,
		Body:         "<p>Hello</p>",
		ETag:         `"abc"`,
		LastModified: "Fri, 14 Feb 2025 10:30:00 GMT",
	}

	if err := c.Put(erdosURL, page); err != nil {
		t.Fatalf("put: %v", err)
	}

	entry, err := c.Get(erdosURL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry == nil {
		t.Fatal("expected cached entry, got nil")
	}
	if entry.Page.Status != 200 {
		t.Errorf("status: got %d, want 200", entry.Page.Status)
	}
	if entry.Page.Body != "<p>Hello</p>" {
		t.Errorf("body: got %q", entry.Page.Body)
	}
	if entry.Page.ETag != `"abc"` {
		t.Errorf("etag: got %q", entry.Page.ETag)
	}
	if entry.Page.LastModified != page.LastModified {
		t.Errorf("last modified: got %q", entry.Page.LastModified)
	}
	if entry.CachedAt.IsZero() {
		t.Error("cached_at should not be zero")
	}
}

func TestCacheMiss(t *testing.T) {
	c := New(t.TempDir())

	entry, err := c.Get("https://en.wikipedia.org/wiki/Nonexistent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry != nil {
		t.Error("expected nil for cache miss")
	}
}

func TestSlashInTitleDoesNotCollide(t *testing.T) {
	tests := []struct {
		name  string
		order []string
	}{
		{name: "parent first", order: []string{"AC", "AC/DC"}},
		{name: "child first", order: []string{"AC/DC", "AC"}},
		{name: "nested", order: []string{"AC/DC/Live", "AC/DC", "AC"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(t.TempDir())
			for _, title := range tt.order {
				if err := c.Put("https://en.wikipedia.org/wiki/"+title, Page{Status: 200, Body: title}); err != nil {
					t.Fatalf("put %q: %v", title, err)
				}
			}
			for _, title := range tt.order {
				entry, err := c.Get("https://en.wikipedia.org/wiki/" + title)
				if err != nil || entry == nil {
					t.Fatalf("get %q: entry=%v err=%v", title, entry, err)
				}
				if entry.Page.Body != title {
					t.Errorf("body of %q: got %q", title, entry.Page.Body)
				}
			}
		})
	}
}

func TestMetaSuffixInTitleDoesNotCollide(t *testing.T) {
	c := New(t.TempDir())

	if err := c.Put("https://en.wikipedia.org/wiki/AC", Page{Status: 200, Body: "ac"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.Put("https://en.wikipedia.org/wiki/AC.meta", Page{Status: 200, Body: "not toml {{{"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	entry, err := c.Get("https://en.wikipedia.org/wiki/AC")
	if err != nil || entry == nil {
		t.Fatalf("get: entry=%v err=%v", entry, err)
	}
	if entry.Page.Body != "ac" {
		t.Errorf("body: got %q, want %q", entry.Page.Body, "ac")
	}
}

func TestPathSanitisation(t *testing.T) {
	c := New(t.TempDir())

	// Traversal path should be cleaned
	raw := "https://en.wikipedia.org/../../etc/passwd"
	if err := c.Put(raw, Page{Status: 200, Body: "safe"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Should not write outside cache dir
	escaped := filepath.Join(c.Dir, "..", "..", "etc", "passwd")
	if _, err := os.Stat(escaped); err == nil {
		t.Fatal("SECURITY: cache wrote outside cache directory")
	}

	entry, err := c.Get(raw)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry == nil {
		t.Fatal("expected cached entry for cleaned path")
	}
}

func TestCorruptedMetaIsCacheMiss(t *testing.T) {
	c := New(t.TempDir())

	if err := c.Put(erdosURL, Page{Status: 200, Body: "x"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	filePath, err := c.filePath(erdosURL)
	if err != nil {
		t.Fatalf("filePath: %v", err)
	}
	if err := os.WriteFile(filePath+".meta", []byte("not valid toml {{{"), 0o644); err != nil {
		t.Fatalf("corrupt meta: %v", err)
	}

	entry, err := c.Get(erdosURL)
	if err != nil {
		t.Fatalf("expected no error for corrupted meta, got: %v", err)
	}
	if entry != nil {
		t.Error("expected nil entry for corrupted meta")
	}
}

func TestMissingMetaIsCacheMiss(t *testing.T) {
	c := New(t.TempDir())

	if err := c.Put(erdosURL, Page{Status: 200, Body: "x"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	filePath, err := c.filePath(erdosURL)
	if err != nil {
		t.Fatalf("filePath: %v", err)
	}
	if err := os.Remove(filePath + ".meta"); err != nil {
		t.Fatalf("remove meta: %v", err)
	}

	entry, err := c.Get(erdosURL)
	if err != nil {
		t.Fatalf("expected no error for missing meta, got: %v", err)
	}
	if entry != nil {
		t.Error("expected nil entry for missing meta")
	}
}

func TestHostIsSanitised(t *testing.T) {
	c := New(t.TempDir())

	if err := c.Put("https://localhost:8080/wiki/A", Page{Status: 200, Body: "a"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(c.Dir, "localhost_8080", "wiki%2FA.page")); err != nil {
		t.Errorf("expected page under sanitised host dir: %v", err)
	}
}
