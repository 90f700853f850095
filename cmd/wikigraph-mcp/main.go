// Command wikigraph-mcp is an MCP server that answers shortest-path and
// statistics questions about a saved article graph over stdio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/latebit/wikigraph/internal/config"
	"github.com/latebit/wikigraph/internal/logging"
	"github.com/latebit/wikigraph/internal/pathfind"
	"github.com/latebit/wikigraph/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	configFile := flag.String("config", "", "config file (default: ./wikigraph.toml)")
	file := flag.String("file", "", "graph file (env: WIKIGRAPH_FILE or WIKI_FILE)")
	flag.Parse()

	cfg, err := config.Load(config.New(), *configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *file != "" {
		cfg.GraphFile = *file
	}

	// stdout carries the protocol; logs go to stderr.
	logger := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	s := server.NewMCPServer("wikigraph-mcp", "0.1.0")

	h := &handler{file: cfg.GraphFile, logger: logger}
	s.AddTool(wikiPathTool(h.file), h.wikiPath)
	s.AddTool(wikiGraphStatsTool(h.file), h.wikiGraphStats)
	s.AddTool(wikiLinksTool(h.file), h.wikiLinks)

	if err := server.ServeStdio(s); err != nil {
		logger.Error("serve", "error", err)
		os.Exit(1)
	}
}

type handler struct {
	file   string
	logger *slog.Logger
}

// load reads the graph named by the request's file argument, or the
// configured graph file.
func (h *handler) load(req mcp.CallToolRequest) (*store.Adjacency, string, error) {
	file := req.GetString("file", "")
	if file == "" {
		file = h.file
	}
	if file == "" {
		return nil, "", errors.New("no graph file configured; pass file or set WIKIGRAPH_FILE")
	}
	adj, err := store.New(file, h.logger).Load()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, file, fmt.Errorf("file not found: %s", file)
		}
		return nil, file, err
	}
	return adj, file, nil
}

// Tool definitions.

// fileHint tells the LLM whether a graph file is preconfigured.
func fileHint(file string) string {
	if file != "" {
		return fmt.Sprintf("Reads %s unless file is given.", file)
	}
	return "No graph file is configured; pass file."
}

func fileOption() mcp.ToolOption {
	return mcp.WithString("file",
		mcp.Description("path to a node-link JSON graph written by wikigraph build"),
	)
}

func wikiPathTool(file string) mcp.Tool {
	return mcp.NewTool("wiki_path",
		mcp.WithDescription(
			"Find the shortest chain of Wikipedia links between two articles in a saved "+
				"link graph. Returns the path and its number of hops, or 'path not found'. "+
				"Titles are matched exactly, e.g. \"Paul Erdős\". "+
				fileHint(file),
		),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("start article title"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("end article title"),
		),
		mcp.WithBoolean("non_directed",
			mcp.Description("follow links in both directions (default false)"),
		),
		fileOption(),
	)
}

func wikiGraphStatsTool(file string) mcp.Tool {
	return mcp.NewTool("wiki_graph_stats",
		mcp.WithDescription(
			"Summarize a saved Wikipedia link graph: article and link counts, the root "+
				"article, the article with the most outbound links and the number of "+
				"articles without outbound links. "+
				fileHint(file),
		),
		fileOption(),
	)
}

func wikiLinksTool(file string) mcp.Tool {
	return mcp.NewTool("wiki_links",
		mcp.WithDescription(
			"List the outbound links of one article in a saved link graph, in page order. "+
				fileHint(file),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("article title"),
		),
		fileOption(),
	)
}

// Tool handlers.
// Handler signatures are dictated by mcp-go's ToolHandlerFunc type.

func (h *handler) wikiPath(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError("from is required"), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError("to is required"), nil
	}

	adj, _, err := h.load(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := pathfind.ShortestPath(adj, from, to, req.GetBool("non_directed", false))
	h.logger.Info("path query", "from", from, "to", to, "found", res.Found)
	return mcp.NewToolResultText(res.Format(true)), nil
}

func (h *handler) wikiGraphStats(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	adj, file, err := h.load(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatStats(file, adj)), nil
}

func (h *handler) wikiLinks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title is required"), nil
	}

	adj, _, err := h.load(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !adj.Has(title) {
		return mcp.NewToolResultError(fmt.Sprintf("article %q is not in the graph", title)), nil
	}

	out := adj.Out[title]
	var b strings.Builder
	fmt.Fprintf(&b, "%s links to %d articles\n", title, len(out))
	for _, t := range out {
		fmt.Fprintf(&b, "  %s\n", t)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// formatStats renders graph statistics as plain text for LLM consumption.
func formatStats(file string, adj *store.Adjacency) string {
	st := adj.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "Graph %s: %d articles, %d links\n", file, st.Nodes, st.Edges)
	if len(adj.Nodes) > 0 {
		fmt.Fprintf(&b, "Root: %s\n", adj.Nodes[0])
	}
	if st.MaxOutNode != "" {
		fmt.Fprintf(&b, "Most links: %s (%d)\n", st.MaxOutNode, st.MaxOutDegree)
	}
	fmt.Fprintf(&b, "Articles without outbound links: %d\n", st.Sinks)
	return b.String()
}
