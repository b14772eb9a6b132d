package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/nbm/internal/app"
	"github.com/nikbrunner/nbm/internal/host"
	"github.com/nikbrunner/nbm/internal/registry"
	"github.com/nikbrunner/nbm/internal/remote"
	"github.com/nikbrunner/nbm/internal/storage"
	"github.com/nikbrunner/nbm/internal/tui"
)

// Duplicate title policies for --on-conflict.
const (
	conflictAsk       = "ask"
	conflictOverwrite = "overwrite"
	conflictNew       = "new"
	conflictCancel    = "cancel"
)

// env is a bootstrapped application: config, logger, in-memory host and a
// reconciled registry.
type env struct {
	cfg       *storage.Config
	logger    zerolog.Logger
	mem       *host.Memory
	app       *app.App
	report    registry.Report
	hasServer bool

	settings storage.Settings
}

// Close releases every registered resource and the settings store.
func (e *env) Close() {
	e.app.Close()
	if c, ok := e.settings.(io.Closer); ok {
		if err := c.Close(); err != nil {
			e.logger.Warn().Err(err).Msg("failed to close settings store")
		}
	}
}

// loadConfig applies flag overrides on top of the loaded configuration.
func (g *globals) loadConfig() (*storage.Config, zerolog.Logger, error) {
	cfg, err := storage.LoadConfig(g.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.contentRoot != "" {
		cfg.ContentRoot = g.contentRoot
	}
	return cfg, newLogger(cfg.LogLevel, g.opts.Err), nil
}

// prompter returns the host prompter for the --on-conflict policy.
func (g *globals) prompter() (host.Prompter, error) {
	switch g.onConflict {
	case "", conflictAsk:
		return tui.Terminal{In: g.opts.In, Out: g.opts.Err}, nil
	case conflictOverwrite:
		return &host.ScriptedPrompter{Default: registry.ChoiceOverwrite}, nil
	case conflictNew:
		return &host.ScriptedPrompter{Default: registry.ChoiceSaveAsNew}, nil
	case conflictCancel:
		return &host.ScriptedPrompter{Default: registry.ChoiceCancel}, nil
	default:
		return nil, fmt.Errorf("invalid --on-conflict %q: want ask, overwrite, new or cancel", g.onConflict)
	}
}

// open bootstraps the application and reconciles the registry.
func (g *globals) open(cmd *cobra.Command) (*env, error) {
	cfg, logger, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	prompter, err := g.prompter()
	if err != nil {
		return nil, err
	}

	settings, err := storage.OpenSettings(cfg)
	if err != nil {
		return nil, err
	}

	var server app.Server
	if cfg.ServerURL != "" {
		client, err := remote.NewClient(remote.Params{
			BaseURL: cfg.ServerURL,
			Token:   cfg.Token,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		server = client
	}

	mem := host.NewMemory()
	a, err := app.New(app.Params{
		Settings: settings,
		Host: host.Host{
			Commands:  mem,
			Launcher:  mem,
			Menu:      mem,
			Prompter:  prompter,
			Notifier:  host.ConsoleNotifier{Out: g.opts.Err},
			Documents: pathOpener{out: cmd.OutOrStdout(), root: cfg.ContentRoot},
			Files:     tui.Terminal{In: g.opts.In, Out: g.opts.Err},
		},
		Server:      server,
		ContentRoot: cfg.ContentRoot,
		TempPrefix:  cfg.TempPrefix,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, logger: logger, mem: mem, app: a, hasServer: server != nil, settings: settings}
	if err := a.RegisterCommands(); err != nil {
		e.Close()
		return nil, err
	}
	report, err := a.Startup(cmd.Context())
	if err != nil {
		e.Close()
		return nil, err
	}
	e.report = report
	return e, nil
}

// bookmarkPath turns a command line path into the base path sent to the
// resolver. Without a server it is made absolute against the working
// directory; a server resolves paths against its own content root.
func (e *env) bookmarkPath(path string) string {
	if e.hasServer || filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// pathOpener "opens" a document by printing the path it would open.
// Relative paths are joined to the content root.
type pathOpener struct {
	out  io.Writer
	root string
}

func (o pathOpener) Open(_ context.Context, path string) error {
	if o.root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(o.root, filepath.FromSlash(path))
	}
	_, err := fmt.Fprintln(o.out, path)
	return err
}
