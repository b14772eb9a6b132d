package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/nbm/internal/model"
	"github.com/nikbrunner/nbm/internal/registry"
	"github.com/nikbrunner/nbm/internal/storage"
)

func newSyncCmd(g *globals) *cobra.Command {
	var showDiff bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile local bookmarks with the server",
		Long: `Reconcile the local settings with the server. When they differ the server's
bookmarks replace the local ones. The server then refreshes availability and
temporary copies, and the result is written back once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			printReport(out, e.report)
			if showDiff {
				diff, err := settingsDiff(e.report.Stored, e.report.After)
				if err != nil {
					return err
				}
				fmt.Fprint(out, diff)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Show a unified diff of the stored settings against the reconciled bookmarks")
	return cmd
}

func printReport(w io.Writer, rep registry.Report) {
	switch {
	case rep.Degraded:
		fmt.Fprintln(w, "Server unreachable, using local bookmarks.")
	case rep.Overwritten:
		fmt.Fprintln(w, "Local bookmarks replaced by the server's.")
	}
	fmt.Fprintf(w, "%d added, %d updated, %d removed, %d unchanged\n",
		len(rep.Added), len(rep.Updated), len(rep.Removed), len(rep.Unchanged))
	if rep.Persisted {
		fmt.Fprintln(w, "Settings saved.")
	}
}

// settingsDiff renders a unified diff between two settings snapshots.
// Equal snapshots produce an empty string.
func settingsDiff(before, after *model.Entries) (string, error) {
	a, err := indentSettings(before)
	if err != nil {
		return "", err
	}
	b, err := indentSettings(after)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "stored",
		ToFile:   "reconciled",
		Context:  3,
	})
}

func indentSettings(entries *model.Entries) (string, error) {
	if entries == nil {
		entries = model.NewEntries()
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}
	return string(data) + "\n", nil
}

func newWatchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Sync temporary copies back to their bookmarks as they are saved",
		Long: `Watch <content root>/<temp prefix> and copy every saved temporary copy back to
the notebook it was made from. Changes to the settings file are reconciled as
they happen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			events, err := e.app.Watch(ctx)
			if err != nil {
				return err
			}

			var changes <-chan struct{}
			if path, ok := settingsFile(e.cfg); ok {
				if changes, err = storage.WatchSettings(ctx, path); err != nil {
					return err
				}
			}

			fmt.Fprintf(out, "Watching %s\n", e.app.ContentRoot())
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					if ev.Err != nil {
						e.logger.Warn().Err(ev.Err).Str("title", ev.Title).Msg("sync failed")
						continue
					}
					fmt.Fprintf(out, "%s: synced from %s\n", ev.Title, ev.Path)
				case _, ok := <-changes:
					if !ok {
						changes = nil
						continue
					}
					rep, err := e.app.Startup(ctx)
					if err != nil {
						e.logger.Warn().Err(err).Msg("failed to reload settings")
						continue
					}
					if rep.Changed() {
						printReport(out, rep)
					}
				}
			}
		},
	}
}

// settingsFile returns the settings path when the backend is a watchable
// JSON file.
func settingsFile(cfg *storage.Config) (string, bool) {
	backend := strings.ToLower(cfg.Backend)
	if backend != "" && backend != storage.BackendJSON {
		return "", false
	}
	return cfg.SettingsPath, cfg.SettingsPath != ""
}
