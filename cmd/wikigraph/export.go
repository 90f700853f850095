package main

import (
	"context"
	"fmt"

	"github.com/latebit/wikigraph/internal/export"
	"github.com/latebit/wikigraph/internal/store"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		clean     bool
		batchSize int
	)
	cmd := &cobra.Command{
		Use:   "export-neo4j",
		Short: "Load the saved graph into Neo4j",
		Long: `Load the saved graph into Neo4j as (:Article {title})-[:LINKS_TO]->(:Article)
relationships. Connection settings come from WIKIGRAPH_NEO4J_URI, WIKIGRAPH_NEO4J_USER,
WIKIGRAPH_NEO4J_PASSWORD and WIKIGRAPH_NEO4J_DATABASE or the [neo4j] config table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runExport(cmd.Context(), clean, batchSize)
		},
	}
	cmd.Flags().BoolVar(&clean, "clean", false, "delete existing :Article nodes first")
	cmd.Flags().IntVar(&batchSize, "batch-size", export.DefaultBatchSize, "rows per UNWIND statement")
	return cmd
}

func (a *app) runExport(ctx context.Context, clean bool, batchSize int) error {
	file, err := a.cfg.RequireGraphFile()
	if err != nil {
		return err
	}
	adj, err := store.New(file, a.logger).Load()
	if err != nil {
		return err
	}

	n := a.cfg.Neo4j
	drv, err := export.Dial(ctx, n.URI, n.User, n.Password, n.Database)
	if err != nil {
		return err
	}
	defer drv.Close(ctx)

	sum, err := export.New(drv, export.Options{
		BatchSize: batchSize,
		Clean:     clean,
		Logger:    a.logger,
	}).Export(ctx, adj)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(a.stdout, "exported %d articles and %d links to %s\n", sum.Nodes, sum.Links, n.URI)
	return nil
}
