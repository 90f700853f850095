package main

import (
	"fmt"

	"github.com/latebit/wikigraph/internal/pathfind"
	"github.com/latebit/wikigraph/internal/store"
	"github.com/spf13/cobra"
)

type pathFlags struct {
	from        string
	to          string
	nonDirected bool
	verbose     bool
}

func newPathCmd(a *app) *cobra.Command {
	var pf pathFlags
	cmd := &cobra.Command{
		Use:   "path --from TITLE --to TITLE",
		Short: "Print the shortest link path between two saved articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPath(pf)
		},
	}
	f := cmd.Flags()
	f.StringVar(&pf.from, "from", "", "start article")
	f.StringVar(&pf.to, "to", "", "end article")
	f.BoolVar(&pf.nonDirected, "non-directed", false, "follow links in both directions")
	f.BoolVarP(&pf.verbose, "verbose", "v", false, "print the path, not only its length")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) runPath(pf pathFlags) error {
	adj, err := store.New(a.cfg.GraphFile, a.logger).Load()
	if err != nil {
		return err
	}
	res := pathfind.ShortestPath(adj, pf.from, pf.to, pf.nonDirected)
	a.logger.Debug("path query", "from", pf.from, "to", pf.to, "non_directed", pf.nonDirected, "found", res.Found)
	_, err = fmt.Fprint(a.stdout, res.Format(pf.verbose))
	return err
}
