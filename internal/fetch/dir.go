package fetch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/latebit/wikigraph/internal/links"
)

// DirSource reads articles from a directory of markdown pages, one file per
// title named like "Paul_Erdős.md". It implements graph.LinkSource and is
// meant for offline exports and tests.
type DirSource struct {
	Dir    string
	Logger *slog.Logger
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string, logger *slog.Logger) *DirSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirSource{Dir: dir, Logger: logger}
}

// PagePath returns the file holding title, or "" if title would resolve
// outside the directory.
func (s *DirSource) PagePath(title string) string {
	name := strings.ReplaceAll(title, " ", "_") + ".md"
	if strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") || strings.HasPrefix(name, "..") {
		return ""
	}
	return filepath.Join(s.Dir, name)
}

// FetchLinks implements graph.LinkSource.
func (s *DirSource) FetchLinks(ctx context.Context, title string) []string {
	if ctx.Err() != nil {
		return nil
	}
	p := s.PagePath(title)
	if p == "" {
		s.Logger.Warn("article does not exist", "title", title)
		return nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.Logger.Warn("article does not exist", "title", title)
		} else {
			s.Logger.Warn("fetch failed", "title", title, "error", err)
		}
		return nil
	}
	s.Logger.Info("fetched", "path", p)
	return links.ExtractMarkdown(string(data))
}
