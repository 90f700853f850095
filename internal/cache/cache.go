// Package cache provides local file-based caching for fetched article pages.
package cache

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Page is a fetched article page together with its HTTP validators.
type Page struct {
	Status       int
	Body         string
	ETag         string
	LastModified string
}

// Entry is a cached page with metadata about when it was stored.
type Entry struct {
	Page     Page
	CachedAt time.Time
}

// Cache stores article pages on the local filesystem.
type Cache struct {
	Dir string
}

// meta is the TOML-serializable cache metadata.
type meta struct {
	URL          string    `toml:"url"`
	Status       int       `toml:"status"`
	CachedAt     time.Time `toml:"cached_at"`
	ETag         string    `toml:"etag,omitempty"`
	LastModified string    `toml:"last_modified,omitempty"`
}

// DefaultDir returns the per-user cache directory for wikigraph, or a
// directory under the system temp dir when no user cache dir is known.
func DefaultDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "wikigraph")
	}
	return filepath.Join(dir, "wikigraph")
}

// New creates a cache rooted at the given directory.
func New(dir string) *Cache {
	return &Cache{Dir: dir}
}

// Put writes a page fetched from rawURL to the cache.
func (c *Cache) Put(rawURL string, page Page) error {
	filePath, err := c.filePath(rawURL)
	if err != nil {
		return err
	}
	metaPath := filePath + ".meta"

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}

	if err := os.WriteFile(filePath, []byte(page.Body), 0o644); err != nil {
		return err
	}

	m := meta{
		URL:          rawURL,
		Status:       page.Status,
		CachedAt:     time.Now().UTC(),
		ETag:         page.ETag,
		LastModified: page.LastModified,
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return err
	}
	return os.WriteFile(metaPath, buf.Bytes(), 0o644)
}

// Get reads a cached page. Returns nil if not cached.
func (c *Cache) Get(rawURL string) (*Entry, error) {
	filePath, err := c.filePath(rawURL)
	if err != nil {
		return nil, err
	}
	metaPath := filePath + ".meta"

	body, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var m meta
	if _, err := toml.DecodeFile(metaPath, &m); err != nil {
		return nil, nil
	}
	if m.URL != rawURL {
		return nil, nil
	}

	return &Entry{
		Page: Page{
			Status:       m.Status,
			Body:         string(body),
			ETag:         m.ETag,
			LastModified: m.LastModified,
		},
		CachedAt: m.CachedAt,
	}, nil
}

// filePath returns the cache file path for a page URL. The whole URL path is
// flattened into one file name with "/" escaped as %2F, so "AC" and "AC/DC"
// never need to be a file and a directory at once. The ".page" suffix keeps
// bodies apart from ".meta" files of titles that end in ".meta".
func (c *Cache) filePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("cache key %q: %w", rawURL, err)
	}
	safeHost := strings.ReplaceAll(u.Host, "..", "_")
	safeHost = strings.ReplaceAll(safeHost, string(filepath.Separator), "_")
	safeHost = strings.ReplaceAll(safeHost, ":", "_")

	cleaned := path.Clean("/" + u.EscapedPath())
	cleaned = strings.TrimLeft(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		cleaned = ".index"
	}
	name := strings.ReplaceAll(cleaned, "/", "%2F")

	return filepath.Join(c.Dir, safeHost, name+".page"), nil
}
