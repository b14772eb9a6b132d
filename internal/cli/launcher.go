package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/nbm/internal/app"
	"github.com/nikbrunner/nbm/internal/tui"
)

func newLauncherCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "launcher",
		Short: "Browse bookmarks and management commands in the launcher",
		Long: `Show every launcher entry grouped by section. Enter runs the selected
command; the launcher reopens afterwards until it is closed with q.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			term := tui.Terminal{In: g.opts.In, Out: g.opts.Err}
			for {
				entry, ok, err := term.Launch(cmd.Context(), e.mem, "Notebook bookmarks")
				if err != nil {
					if errors.Is(err, cmd.Context().Err()) {
						return nil
					}
					return err
				}
				if !ok {
					return nil
				}
				// Failures are shown by the command itself.
				if err := e.mem.Execute(cmd.Context(), entry.Item.Command, entry.Item.Args); err != nil && !app.Reported(err) {
					e.logger.Debug().Err(err).Str("command", entry.Item.Command).Msg("launcher command failed")
				}
			}
		},
	}
}
