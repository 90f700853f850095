package graph

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxDepth is the expansion depth used when BuildOptions.MaxDepth is
// negative.
const DefaultMaxDepth = 3

// BuildOptions configures the graph builder.
type BuildOptions struct {
	// MaxDepth bounds expansion: nodes at this depth are never expanded, so
	// 0 leaves the graph at its root. Negative values select DefaultMaxDepth.
	MaxDepth int
	Workers  int // concurrent fetches; 1 keeps the depth-first order (default: 1)

	// OnExpand is called after a node's links were fetched. With more than
	// one worker it may be called concurrently.
	OnExpand func(title string, depth, links int)
	Logger   *slog.Logger
}

func (o *BuildOptions) applyDefaults() {
	if o.MaxDepth < 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// frame is one node of the explicit depth-first stack: the candidates fetched
// for title and the index of the next one to admit.
type frame struct {
	title string
	depth int
	links []string
	next  int
}

type buildItem struct {
	title string
	depth int
}

// Build expands g outward from its root, following links from src until the
// depth bound or the node cap stops it. It mutates and returns g.
//
// With a single worker the expansion is depth first: a newly discovered
// target is expanded before the next candidate of its parent is looked at.
// With more workers the frontier is expanded level by level and fetched
// concurrently.
func Build(ctx context.Context, g *Graph, src LinkSource, opts BuildOptions) *Graph {
	opts.applyDefaults()

	if opts.Workers == 1 {
		buildSequential(ctx, g, src, opts)
	} else {
		buildParallel(ctx, g, src, opts)
	}

	opts.Logger.Info("graph built",
		"root", g.Root(), "nodes", g.NodeCount(), "edges", g.EdgeCount(), "max_depth", opts.MaxDepth)
	return g
}

func (o *BuildOptions) fetch(ctx context.Context, src LinkSource, title string, depth int) []string {
	links := src.FetchLinks(ctx, title)
	o.Logger.Debug("expanded", "title", title, "depth", depth, "links", len(links))
	if o.OnExpand != nil {
		o.OnExpand(title, depth, len(links))
	}
	return links
}

func buildSequential(ctx context.Context, g *Graph, src LinkSource, opts BuildOptions) {
	expand := func(title string, depth int) *frame {
		if depth >= opts.MaxDepth || ctx.Err() != nil {
			return nil
		}
		return &frame{title: title, depth: depth, links: opts.fetch(ctx, src, title, depth)}
	}

	var stack []*frame
	if f := expand(g.Root(), 0); f != nil {
		stack = append(stack, f)
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.links) {
			stack = stack[:len(stack)-1]
			continue
		}
		target := top.links[top.next]
		top.next++

		switch g.Admit(top.title, target) {
		case Capped:
			// The rest of this node's candidates are dropped.
			stack = stack[:len(stack)-1]
		case AddedNode:
			if f := expand(target, top.depth+1); f != nil {
				stack = append(stack, f)
			}
		}
	}
}

func buildParallel(ctx context.Context, g *Graph, src LinkSource, opts BuildOptions) {
	var frontier []buildItem
	if opts.MaxDepth > 0 {
		frontier = append(frontier, buildItem{title: g.Root(), depth: 0})
	}

	for len(frontier) > 0 && ctx.Err() == nil && !g.Full() {
		var (
			next []buildItem
			mu   sync.Mutex
			eg   errgroup.Group
		)
		eg.SetLimit(opts.Workers)

		for _, item := range frontier {
			eg.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				for _, target := range opts.fetch(ctx, src, item.title, item.depth) {
					switch g.Admit(item.title, target) {
					case Capped:
						return nil
					case AddedNode:
						if item.depth+1 < opts.MaxDepth {
							mu.Lock()
							next = append(next, buildItem{title: target, depth: item.depth + 1})
							mu.Unlock()
						}
					}
				}
				return nil
			})
		}
		_ = eg.Wait()
		frontier = next
	}
}
