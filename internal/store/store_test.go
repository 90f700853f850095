package store

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/latebit/wikigraph/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, path string) (*Store, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	return New(path, slog.New(slog.NewTextHandler(&logs, nil))), &logs
}

// starGraph returns a graph with root linking to n-1 leaves.
func starGraph(n int) *graph.Graph {
	g := graph.New("Root", 0)
	for i := 1; i < n; i++ {
		g.Admit("Root", fmt.Sprintf("Leaf %d", i))
	}
	return g
}

func TestSaveWritesLargeGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wiki.json")
	s, _ := newTestStore(t, path)

	g := starGraph(21)
	g.Admit("Leaf 3", "Root")

	res, err := s.Save(g)
	require.NoError(t, err)
	assert.Equal(t, Written, res)

	doc, err := s.Read()
	require.NoError(t, err)
	assert.True(t, doc.Directed)
	assert.False(t, doc.Multigraph)
	require.Len(t, doc.Nodes, 21)
	assert.Equal(t, "Root", doc.Nodes[0].ID)
	require.Len(t, doc.Links, 21)
	assert.Equal(t, Link{Source: "Leaf 3", Target: "Root"}, doc.Links[20])
}

func TestSaveSkipsSmallGraphs(t *testing.T) {
	tests := []struct {
		name     string
		nodes    int
		want     SaveResult
		wantWarn bool
	}{
		{name: "root only", nodes: 1, want: SkippedEmpty, wantWarn: false},
		{name: "two nodes", nodes: 2, want: SkippedSmall, wantWarn: true},
		{name: "exactly twenty", nodes: 20, want: SkippedSmall, wantWarn: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "wiki.json")
			s, logs := newTestStore(t, path)

			res, err := s.Save(starGraph(tt.nodes))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)

			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr), "graph file should not exist")
			assert.Equal(t, tt.wantWarn, strings.Contains(logs.String(), "few links"))
		})
	}
}

func TestSaveUnconfigured(t *testing.T) {
	s, logs := newTestStore(t, "")

	res, err := s.Save(starGraph(30))
	require.NoError(t, err)
	assert.Equal(t, SkippedUnconfigured, res)
	assert.Contains(t, logs.String(), "output file not configured")
	assert.Contains(t, logs.String(), "level=WARN")
}

func TestSaveReplacesExistingFileAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wiki.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"nodes":[],"links":[]}`), 0o644))

	s, _ := newTestStore(t, path)
	_, err := s.Save(starGraph(25))
	require.NoError(t, err)

	adj, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, adj.Nodes, 25)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the file makes the final rename fail.
	path := filepath.Join(dir, "wiki.json")
	require.NoError(t, os.Mkdir(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "keep"), nil, 0o644))

	s, _ := newTestStore(t, path)
	res, err := s.Save(starGraph(25))
	require.Error(t, err)
	assert.Equal(t, Failed, res)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be removed after a failed write")
}

func TestLoadMissingFile(t *testing.T) {
	s, _ := newTestStore(t, filepath.Join(t.TempDir(), "absent.json"))

	_, err := s.Load()
	require.ErrorIs(t, err, ErrNotFound)

	_, err = New("", nil).Load()
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wiki.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path, nil).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestLoadKeepsOrderAndDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wiki.json")
	data := `{
		"directed": true, "multigraph": false, "graph": {},
		"nodes": [{"id": "A"}, {"id": "B"}, {"id": "C"}],
		"links": [
			{"source": "A", "target": "C"},
			{"source": "A", "target": "B"},
			{"source": "A", "target": "C"},
			{"source": "B", "target": "D"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	adj, err := New(path, nil).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C", "D"}, adj.Nodes)
	assert.Equal(t, []string{"C", "B", "C"}, adj.Out["A"])
	assert.Equal(t, []string{"D"}, adj.Out["B"])
	assert.NotNil(t, adj.Out["C"])
	assert.Empty(t, adj.Out["C"])
	assert.True(t, adj.Has("D"))
}

func TestLoadAcceptsEdgesKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wiki.json")
	data := `{"nodes": [{"id": "A"}, {"id": "B"}], "edges": [{"source": "A", "target": "B"}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	adj, err := New(path, nil).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, adj.Out["A"])
}

func TestRoundTripPreservesFanOutOrder(t *testing.T) {
	g := graph.New("Root", 0)
	for i := 0; i < 25; i++ {
		g.Admit("Root", fmt.Sprintf("N%02d", 24-i))
	}
	g.Admit("N03", "N01")
	g.Admit("N03", "Root")
	g.Admit("N03", "N20")

	path := filepath.Join(t.TempDir(), "wiki.json")
	s, _ := newTestStore(t, path)
	_, err := s.Save(g)
	require.NoError(t, err)

	adj, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, g.Nodes(), adj.Nodes)
	for _, n := range g.Nodes() {
		want := g.Neighbors(n)
		if want == nil {
			want = []string{}
		}
		assert.Equal(t, want, adj.Out[n], "fan-out of %s", n)
	}
	assert.Equal(t, g.EdgeCount(), adj.Stats().Edges)
}

func TestNonASCIITitlesRoundTrip(t *testing.T) {
	g := graph.New("Erdős number", 0)
	for i := 0; i < 21; i++ {
		g.Admit("Erdős number", fmt.Sprintf("Ünïcödé <%d> & co", i))
	}
	path := filepath.Join(t.TempDir(), "wiki.json")
	s, _ := newTestStore(t, path)
	_, err := s.Save(g)
	require.NoError(t, err)

	adj, err := s.Load()
	require.NoError(t, err)
	assert.True(t, adj.Has("Erdős number"))
	assert.True(t, adj.Has("Ünïcödé <0> & co"))
}
