// Package export loads a stored link graph into Neo4j.
package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/latebit/wikigraph/internal/store"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// DefaultBatchSize is the number of rows sent per UNWIND statement.
const DefaultBatchSize = 500

// Runner executes one Cypher statement.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) error
}

// Driver runs statements against a live Neo4j server.
type Driver struct {
	driver   neo4j.DriverWithContext
	database string
}

// Dial connects to Neo4j and verifies the server is reachable.
func Dial(ctx context.Context, uri, user, password, database string) (*Driver, error) {
	d, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := d.VerifyConnectivity(ctx); err != nil {
		_ = d.Close(ctx)
		return nil, fmt.Errorf("connect to %s: %w", uri, err)
	}
	return &Driver{driver: d, database: database}, nil
}

// Run implements Runner.
func (d *Driver) Run(ctx context.Context, cypher string, params map[string]any) error {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if d.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(d.database))
	}
	_, err := neo4j.ExecuteQuery(ctx, d.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	return err
}

// Close releases driver resources.
func (d *Driver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

const (
	cypherIndex = "CREATE INDEX article_title IF NOT EXISTS FOR (n:Article) ON (n.title)"
	cypherClean = "MATCH (n:Article) DETACH DELETE n"
	cypherNodes = `UNWIND $batch AS row
		 MERGE (n:Article {title: row.title})
		 SET n.root = row.root`
	cypherLinks = `UNWIND $batch AS row
		 MERGE (a:Article {title: row.source})
		 MERGE (b:Article {title: row.target})
		 MERGE (a)-[r:LINKS_TO]->(b)
		 SET r.position = row.position`
)

// Options controls an export.
type Options struct {
	BatchSize int
	Clean     bool   // remove existing articles first
	Root      string // defaults to the first stored node
	Logger    *slog.Logger
}

// Summary reports what an export sent.
type Summary struct {
	Nodes      int
	Links      int
	Statements int
}

// Exporter writes adjacency lists through a Runner.
type Exporter struct {
	runner Runner
	opts   Options
}

// New returns an exporter.
func New(r Runner, opts Options) *Exporter {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Exporter{runner: r, opts: opts}
}

// Export upserts every article as an :Article node and every link as a
// :LINKS_TO relationship. The position property keeps the fan-out order.
func (e *Exporter) Export(ctx context.Context, adj *store.Adjacency) (Summary, error) {
	var sum Summary
	run := func(cypher string, params map[string]any) error {
		sum.Statements++
		return e.runner.Run(ctx, cypher, params)
	}

	if e.opts.Clean {
		if err := run(cypherClean, nil); err != nil {
			return sum, fmt.Errorf("clean: %w", err)
		}
	}
	if err := run(cypherIndex, nil); err != nil {
		return sum, fmt.Errorf("create index: %w", err)
	}

	root := e.opts.Root
	if root == "" && len(adj.Nodes) > 0 {
		root = adj.Nodes[0]
	}
	nodes := NodeRows(adj, root)
	for _, batch := range Batches(nodes, e.opts.BatchSize) {
		if err := run(cypherNodes, map[string]any{"batch": batch}); err != nil {
			return sum, fmt.Errorf("load articles: %w", err)
		}
		sum.Nodes += len(batch)
	}
	e.opts.Logger.Info("articles loaded", "count", sum.Nodes)

	links := LinkRows(adj)
	for _, batch := range Batches(links, e.opts.BatchSize) {
		if err := run(cypherLinks, map[string]any{"batch": batch}); err != nil {
			return sum, fmt.Errorf("load links: %w", err)
		}
		sum.Links += len(batch)
	}
	e.opts.Logger.Info("links loaded", "count", sum.Links)
	return sum, nil
}

// NodeRows returns one parameter row per article, in node order.
func NodeRows(adj *store.Adjacency, root string) []map[string]any {
	rows := make([]map[string]any, 0, len(adj.Nodes))
	for _, n := range adj.Nodes {
		rows = append(rows, map[string]any{"title": n, "root": n == root})
	}
	return rows
}

// LinkRows returns one parameter row per link, grouped by source.
func LinkRows(adj *store.Adjacency) []map[string]any {
	var rows []map[string]any
	for _, src := range adj.Nodes {
		for i, dst := range adj.Out[src] {
			rows = append(rows, map[string]any{"source": src, "target": dst, "position": i})
		}
	}
	return rows
}

// Batches splits rows into consecutive chunks of at most size rows.
func Batches(rows []map[string]any, size int) [][]map[string]any {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]map[string]any
	for len(rows) > 0 {
		n := min(size, len(rows))
		out = append(out, rows[:n])
		rows = rows[n:]
	}
	return out
}
