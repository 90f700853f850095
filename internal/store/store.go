// Package store persists article graphs in node-link form and loads them
// back as adjacency lists for path queries.
//
// The file layout is the node-link document produced by networkx, so the
// graph can be read by the same rendering tools:
//
//	{
//	  "directed": true,
//	  "multigraph": false,
//	  "graph": {},
//	  "nodes": [{"id": "Erdős number"}, {"id": "Paul Erdős"}],
//	  "links": [{"source": "Erdős number", "target": "Paul Erdős"}]
//	}
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/latebit/wikigraph/internal/graph"
)

// MinNodes is the node count a graph must exceed to be worth saving.
const MinNodes = 20

// ErrNotFound is returned by Load when the graph file does not exist.
var ErrNotFound = errors.New("graph file not found")

// Node is a node object of the persisted document.
type Node struct {
	ID string `json:"id"`
}

// Link is a link object of the persisted document.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Document is the persisted node-link form of a graph.
type Document struct {
	Directed   bool           `json:"directed"`
	Multigraph bool           `json:"multigraph"`
	Graph      map[string]any `json:"graph"`
	Nodes      []Node         `json:"nodes"`
	Links      []Link         `json:"links"`
}

// document is the decoding view; newer networkx releases write "edges".
type document struct {
	Document
	Edges []Link `json:"edges"`
}

// FromGraph converts g to its node-link document, keeping insertion order.
func FromGraph(g *graph.Graph) Document {
	doc := Document{
		Directed: true,
		Graph:    map[string]any{},
		Nodes:    []Node{},
		Links:    []Link{},
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, Node{ID: n})
	}
	for _, e := range g.Edges() {
		doc.Links = append(doc.Links, Link{Source: e.From, Target: e.To})
	}
	return doc
}

// SaveResult tells what Save did.
type SaveResult int

const (
	// Failed means writing the graph file returned an error.
	Failed SaveResult = iota
	// Written means the graph file was replaced.
	Written
	// SkippedUnconfigured means no destination was configured.
	SkippedUnconfigured
	// SkippedSmall means the graph had too few nodes to be useful.
	SkippedSmall
	// SkippedEmpty means the graph held only its root.
	SkippedEmpty
)

func (r SaveResult) String() string {
	switch r {
	case Failed:
		return "failed"
	case Written:
		return "written"
	case SkippedUnconfigured:
		return "skipped: no output file"
	case SkippedSmall:
		return "skipped: too few nodes"
	case SkippedEmpty:
		return "skipped: nothing found"
	}
	return fmt.Sprintf("SaveResult(%d)", int(r))
}

// Store reads and writes one graph file.
type Store struct {
	path   string
	logger *slog.Logger
}

// New creates a store for the file at path. An empty path leaves the store
// unconfigured: Save becomes a no-op and Load fails.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the graph file path.
func (s *Store) Path() string {
	return s.path
}

// Configured reports whether a destination was set.
func (s *Store) Configured() bool {
	return s.path != ""
}

// Save writes g if it has more than MinNodes nodes. Smaller graphs are not
// written; a warning is logged unless the graph holds only its root.
func (s *Store) Save(g *graph.Graph) (SaveResult, error) {
	if !s.Configured() {
		s.logger.Warn("output file not configured, graph not saved")
		return SkippedUnconfigured, nil
	}
	n := g.NodeCount()
	if n <= MinNodes {
		if n != 1 {
			s.logger.Warn("few links, choose another search", "root", g.Root(), "nodes", n)
			return SkippedSmall, nil
		}
		return SkippedEmpty, nil
	}
	if err := s.Write(FromGraph(g)); err != nil {
		return Failed, err
	}
	s.logger.Info("graph saved", "path", s.path, "nodes", n, "edges", g.EdgeCount())
	return Written, nil
}

// Write atomically replaces the graph file with doc. On failure the
// previous file, if any, is left untouched.
func (s *Store) Write(doc Document) (err error) {
	if !s.Configured() {
		return errors.New("graph file path is empty")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create graph directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync graph file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close graph file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod graph file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace graph file: %w", err)
	}
	return nil
}

// Read decodes the graph file.
func (s *Store) Read() (Document, error) {
	if !s.Configured() {
		return Document{}, fmt.Errorf("%w: no path configured", ErrNotFound)
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return Document{}, fmt.Errorf("read graph file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode graph file %s: %w", s.path, err)
	}
	if doc.Links == nil {
		doc.Links = doc.Edges
	}
	return doc.Document, nil
}

// Load reads the graph file into an adjacency list.
func (s *Store) Load() (*Adjacency, error) {
	doc, err := s.Read()
	if err != nil {
		return nil, err
	}
	return FromDocument(doc), nil
}
