// Command wikigraph builds a link graph of Wikipedia articles and answers
// shortest-path queries over the saved graph.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/latebit/wikigraph/internal/config"
	"github.com/latebit/wikigraph/internal/logging"
	"github.com/latebit/wikigraph/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries the state shared by every subcommand.
type app struct {
	v          *viper.Viper
	configFile string
	stdout     io.Writer
	stderr     io.Writer

	cfg    *config.Config
	logger *slog.Logger
}

// boundFlags are bound to config keys whenever the running command has them.
var boundFlags = []string{
	"file", "base-url", "cache-dir", "no-cache", "http3", "workers",
	"log-level", "log-format", "metrics-file",
}

func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *app) {
	a := &app{v: config.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "wikigraph",
		Short:         "Crawl Wikipedia links into a graph and find shortest paths",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Flags())
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetGlobalNormalizationFunc(normalizeFlag)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default: ./wikigraph.toml)")
	pf.StringP("file", "f", "", "graph file (env: WIKIGRAPH_FILE or WIKI_FILE)")
	pf.String("log-level", "info", "log level: debug, info, warn, error (env: WIKIGRAPH_LOG_LEVEL)")
	pf.String("log-format", "text", "log format: text or json (env: WIKIGRAPH_LOG_FORMAT)")

	root.AddCommand(newBuildCmd(a), newPathCmd(a), newExportCmd(a))
	return root, a
}

// normalizeFlag accepts --output as the graph file and underscores in
// flag names.
func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	name = strings.ReplaceAll(name, "_", "-")
	if name == "output" {
		name = "file"
	}
	return pflag.NormalizedName(name)
}

// setup resolves configuration and the logger for the running command.
func (a *app) setup(fs *pflag.FlagSet) error {
	var names []string
	for _, n := range boundFlags {
		if fs.Lookup(n) != nil {
			names = append(names, n)
		}
	}
	if err := config.BindFlags(a.v, fs, names...); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.LogFormat, cfg.LogLevel, a.stderr)
	if cfg.Source != "" {
		a.logger.Debug("config loaded", "file", cfg.Source)
	}
	return nil
}

// execute runs the command line and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root, _ := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		report(stdout, err)
		return 1
	}
	return 0
}

// report prints a failure the way query users expect it.
func report(w io.Writer, err error) {
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintln(w, "file not found")
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
