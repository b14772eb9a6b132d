package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/nbm/internal/server"
	"github.com/nikbrunner/nbm/internal/storage"
)

func newServeCmd(g *globals) *cobra.Command {
	var listen, dbPath, token string
	var concurrency int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the server-side bookmark store",
		Long: `Serve the bookmark endpoints under /notebook-bookmarks/ over the content
root. Settings are kept in SQLite. Clients point server_url at this address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if dbPath != "" {
				cfg.ServerDBPath = dbPath
			}
			if token != "" {
				cfg.Token = token
			}
			if cfg.ContentRoot == "" {
				return errors.New("serve: content_root is not configured (set it in the config, NBM_CONTENT_ROOT or --content-root)")
			}

			store, err := storage.NewSQLiteStorage(cfg.ServerDBPath)
			if err != nil {
				return fmt.Errorf("serve: open store: %w", err)
			}
			defer store.Close()

			srv, err := server.New(server.Params{
				Root:        cfg.ContentRoot,
				TempPrefix:  cfg.TempPrefix,
				Store:       store,
				Token:       cfg.Token,
				Concurrency: concurrency,
				Logger:      logger,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context(), cfg.Listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	cmd.Flags().StringVar(&token, "token", "", "Shared bearer token (overrides config)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "Availability checks run in parallel")
	return cmd
}
