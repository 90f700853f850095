package main

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/latebit/wikigraph/internal/cache"
	"github.com/latebit/wikigraph/internal/fetch"
	"github.com/latebit/wikigraph/internal/graph"
	"github.com/latebit/wikigraph/internal/metrics"
	"github.com/latebit/wikigraph/internal/store"
	"github.com/spf13/cobra"
)

// DefaultTitle is the article a build starts from when none is given.
const DefaultTitle = "Erdős number"

type buildFlags struct {
	title    string
	depth    int
	source   string
	insecure bool
}

func newBuildCmd(a *app) *cobra.Command {
	var bf buildFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Crawl links from an article and save the graph",
		Long: `Crawl outbound links depth-first from an article, up to the given depth
and at most 1000 articles, and save the graph as node-link JSON.

Graphs with 20 articles or fewer are not saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBuild(cmd.Context(), bf)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&bf.title, "title", "p", DefaultTitle, "article title to start from")
	f.IntVarP(&bf.depth, "depth", "d", graph.DefaultMaxDepth, "search depth")
	f.StringVar(&bf.source, "source", "wikipedia", `link source: "wikipedia" or "dir:PATH" for markdown pages`)
	f.BoolVar(&bf.insecure, "insecure", false, "skip TLS certificate verification")
	f.Int("workers", 1, "concurrent fetches; 1 keeps depth-first order (env: WIKIGRAPH_WORKERS)")
	f.String("base-url", fetch.DefaultBaseURL, "article URL prefix (env: WIKIGRAPH_BASE_URL)")
	f.String("cache-dir", "", "page cache directory (env: WIKIGRAPH_CACHE_DIR)")
	f.Bool("no-cache", false, "disable the page cache")
	f.Bool("http3", false, "fetch over HTTP/3")
	f.String("metrics-file", "", "write Prometheus metrics to this file after the build")
	return cmd
}

// sourceSpec is a parsed --source value.
type sourceSpec struct {
	kind string // "wikipedia" or "dir"
	dir  string
}

func parseSource(s string) (sourceSpec, error) {
	switch {
	case s == "" || s == "wikipedia":
		return sourceSpec{kind: "wikipedia"}, nil
	case strings.HasPrefix(s, "dir:"):
		dir := strings.TrimPrefix(s, "dir:")
		if dir == "" {
			return sourceSpec{}, fmt.Errorf("source %q: missing directory", s)
		}
		return sourceSpec{kind: "dir", dir: dir}, nil
	}
	return sourceSpec{}, fmt.Errorf("unknown source %q (want wikipedia or dir:PATH)", s)
}

// newSource returns the link source described by s and a function releasing it.
func (a *app) newSource(s sourceSpec, m *metrics.Metrics, insecure bool) (graph.LinkSource, func()) {
	if s.kind == "dir" {
		return fetch.NewDirSource(s.dir, a.logger), func() {}
	}

	opts := fetch.Options{
		BaseURL:  a.cfg.BaseURL,
		HTTP3:    a.cfg.HTTP3,
		Insecure: insecure,
		Metrics:  m,
		Logger:   a.logger,
	}
	if !a.cfg.NoCache {
		dir := a.cfg.CacheDir
		if dir == "" {
			dir = cache.DefaultDir()
		}
		opts.Cache = cache.New(dir)
	}
	c := fetch.NewClient(opts)
	return c, c.Close
}

func (a *app) runBuild(ctx context.Context, bf buildFlags) error {
	if bf.title == "" {
		return fmt.Errorf("title must not be empty")
	}
	if bf.depth < 1 {
		return fmt.Errorf("depth must be at least 1, got %d", bf.depth)
	}
	ss, err := parseSource(bf.source)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if a.cfg.MetricsFile != "" {
		m = metrics.New()
	}

	src, release := a.newSource(ss, m, bf.insecure)
	defer release()

	var expanded atomic.Int64
	g := graph.New(bf.title, graph.DefaultMaxNodes)
	graph.Build(ctx, g, src, graph.BuildOptions{
		MaxDepth: bf.depth,
		Workers:  a.cfg.Workers,
		Logger:   a.logger,
		OnExpand: func(string, int, int) { expanded.Add(1) },
	})
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("build interrupted: %w", err)
	}
	m.ObserveGraph(g.NodeCount(), g.EdgeCount())

	res, err := store.New(a.cfg.GraphFile, a.logger).Save(g)
	if err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	a.logger.Info("build finished",
		"pages", expanded.Load(), "nodes", g.NodeCount(), "edges", g.EdgeCount(), "result", res.String())

	if a.cfg.MetricsFile != "" {
		if err := m.WriteTextfile(a.cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
