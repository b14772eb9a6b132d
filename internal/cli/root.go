// Package cli implements the nbm command line.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Options wires the command line to its streams.
type Options struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// globals holds the persistent flag values shared by every subcommand.
type globals struct {
	opts        Options
	configPath  string
	logLevel    string
	onConflict  string
	contentRoot string
}

// NewRootCmd builds the nbm command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	g := &globals{opts: opts}

	root := &cobra.Command{
		Use:   "nbm",
		Short: "Bookmarks for notebook files",
		Long: `nbm keeps bookmarks to notebook files, grouped into categories and exposed
as launcher entries, menu entries and commands. Bookmarks are kept in a local
settings store and, when a server is configured, reconciled with it on every
start (the server wins).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	flags := root.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "Path to config file (default ~/.config/nbm/config.yaml)")
	flags.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flags.StringVar(&g.onConflict, "on-conflict", conflictAsk, "Duplicate title policy: ask, overwrite, new, cancel")
	flags.StringVar(&g.contentRoot, "content-root", "", "Content root for relative paths and temporary copies (overrides config)")

	root.AddCommand(
		newAddCmd(g),
		newRmCmd(g),
		newLsCmd(g),
		newOpenCmd(g),
		newMvCmd(g),
		newCategoryCmd(g),
		newImportCmd(g),
		newExportCmd(g),
		newSyncCmd(g),
		newWatchCmd(g),
		newLauncherCmd(g),
		newServeCmd(g),
	)
	return root
}

// Execute runs the command line against the process streams.
func Execute(ctx context.Context) error {
	return NewRootCmd(Options{}).ExecuteContext(ctx)
}
