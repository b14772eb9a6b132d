package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nikbrunner/nbm/internal/exporter"
	"github.com/nikbrunner/nbm/internal/host"
	"github.com/nikbrunner/nbm/internal/importer"
	"github.com/nikbrunner/nbm/internal/model"
	"github.com/nikbrunner/nbm/internal/registry"
)

// Management command ids.
const (
	AddCommand             = registry.CommandPrefix + "addBookmark"
	AddFromLauncherCommand = registry.AddFromLauncherCommand
	RemoveCommand          = registry.RemoveCommand
	AddCategoryCommand     = registry.CommandPrefix + "addCategory"
	DeleteCategoryCommand  = registry.CommandPrefix + "deleteCategory"
	MoveToCategoryCommand  = registry.CommandPrefix + "moveToCategory"
	ImportCommand          = registry.CommandPrefix + "importBookmarks"
	ExportCommand          = registry.CommandPrefix + "exportBookmarks"
)

// ManagementLauncher is the launcher section holding the management commands.
const ManagementLauncher = registry.LauncherPrefix + "Management"

// AllCategories scopes removeBookmark to every bookmark.
const AllCategories = "all"

var (
	// ErrResolve wraps path resolution failures already shown to the user.
	ErrResolve = errors.New("failed to resolve bookmark path")
	// ErrNoDocument is returned by addBookmark without a focused document.
	ErrNoDocument = errors.New("no document is open")
	// ErrNoFilePicker is returned when the host cannot pick files.
	ErrNoFilePicker = errors.New("no file picker configured")
)

type commandDef struct {
	id       string
	cmd      host.Command
	launcher *host.LauncherItem
	menu     bool
}

func (a *App) commandDefs() []commandDef {
	launch := func(rank int, args host.Args) *host.LauncherItem {
		return &host.LauncherItem{Category: ManagementLauncher, Rank: rank, Args: args}
	}
	return []commandDef{
		{
			id:  AddCommand,
			cmd: a.command("Add to bookmarks", "Add to bookmarks", "", a.addCurrent),
		},
		{
			id:       AddFromLauncherCommand,
			cmd:      a.command("Add bookmark", "Add bookmark", "add", a.addFromLauncher),
			launcher: launch(1, nil),
			menu:     true,
		},
		{
			id:       RemoveCommand,
			cmd:      a.command("Delete Bookmark", "Delete Bookmark", "close", a.removeBookmark),
			launcher: launch(2, host.Args{"category": AllCategories}),
			menu:     true,
		},
		{
			id:       AddCategoryCommand,
			cmd:      a.command("Add category", "Add new bookmark category", "add", a.addCategory),
			launcher: launch(3, nil),
		},
		{
			id:       DeleteCategoryCommand,
			cmd:      a.command("Delete category", "Delete category", "close", a.deleteCategory),
			launcher: launch(4, nil),
		},
		{
			id:       ImportCommand,
			cmd:      a.command("Import bookmarks", "Import bookmarks", "upload", a.importBookmarks),
			launcher: launch(5, nil),
		},
		{
			id:       ExportCommand,
			cmd:      a.command("Export bookmarks", "Export bookmarks", "download", a.exportBookmarks),
			launcher: launch(6, nil),
		},
		{
			id:       MoveToCategoryCommand,
			cmd:      a.command("Move to category", "Move to category", "redo", a.moveToCategory),
			launcher: launch(7, nil),
		},
	}
}

// RegisterCommands registers the management commands with their launcher and
// menu entries. On failure nothing stays registered.
func (a *App) RegisterCommands() error {
	var acquired []host.Handle
	rollback := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Release()
		}
	}

	for _, def := range a.commandDefs() {
		h, err := a.host.Commands.AddCommand(def.id, def.cmd)
		if err != nil {
			rollback()
			return fmt.Errorf("register %s: %w", def.id, err)
		}
		acquired = append(acquired, h)

		if def.launcher != nil {
			item := *def.launcher
			item.Command = def.id
			h, err := a.host.Launcher.Add(item)
			if err != nil {
				rollback()
				return fmt.Errorf("register launcher entry %s: %w", def.id, err)
			}
			acquired = append(acquired, h)
		}
		if def.menu {
			h, err := a.host.Menu.AddItem(host.MenuItem{Command: def.id})
			if err != nil {
				rollback()
				return fmt.Errorf("register menu entry %s: %w", def.id, err)
			}
			acquired = append(acquired, h)
		}
	}

	a.mu.Lock()
	a.handles = append(a.handles, acquired...)
	a.mu.Unlock()
	return nil
}

// command wraps run so failures reach the notifier exactly once.
func (a *App) command(label, caption, icon string, run func(ctx context.Context, args host.Args) error) host.Command {
	return host.Command{
		Label:   label,
		Caption: caption,
		Icon:    icon,
		Execute: func(ctx context.Context, args host.Args) error {
			if args == nil {
				args = host.Args{}
			}
			err := run(ctx, args)
			if err != nil && !Reported(err) {
				a.logger.Error().Err(err).Str("command", label).Msg("command failed")
				a.host.Notifier.Error(label, err.Error())
			}
			return err
		},
	}
}

// Reported reports whether err was already shown to the user where it
// originated.
func Reported(err error) bool {
	for _, target := range []error{
		ErrResolve,
		registry.ErrEmptyCategory,
		registry.ErrDuplicateCategory,
		registry.ErrDefaultCategory,
		registry.ErrUnknownCategory,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (a *App) choose(ctx context.Context, title string, choices []string) (string, bool, error) {
	if a.host.Prompter == nil {
		return "", false, nil
	}
	return a.host.Prompter.Choose(ctx, title, choices)
}

func (a *App) text(ctx context.Context, title string) (string, bool, error) {
	if a.host.Prompter == nil {
		return "", false, nil
	}
	return a.host.Prompter.Text(ctx, title)
}

func (a *App) addCurrent(ctx context.Context, args host.Args) error {
	path := args["path"]
	if path == "" {
		doc := a.Current()
		if doc == nil {
			return ErrNoDocument
		}
		a.Tracker.CurrentChanged(ctx, doc)
		path = doc.Path()
	}
	_, err := a.AddBookmarkItem(ctx, args["title"], path, args["category"])
	return err
}

func (a *App) addFromLauncher(ctx context.Context, args host.Args) error {
	if a.host.Files == nil {
		return ErrNoFilePicker
	}
	paths, err := a.host.Files.PickFiles(ctx)
	if err != nil {
		return fmt.Errorf("pick files: %w", err)
	}
	var errs []error
	for _, p := range paths {
		if _, err := a.AddBookmarkItem(ctx, filepath.Base(p), p, args["category"]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// candidates lists the bookmarks a category-scoped action applies to.
func (a *App) candidates(category string) []string {
	var bookmarks []model.Bookmark
	if category == "" || category == AllCategories {
		bookmarks = a.Registry.All()
	} else {
		bookmarks = a.Registry.Members(category)
	}
	titles := make([]string, len(bookmarks))
	for i, b := range bookmarks {
		titles[i] = b.Title
	}
	return titles
}

func (a *App) removeBookmark(ctx context.Context, args host.Args) error {
	title := args["title"]
	if title == "" {
		titles := a.candidates(args["category"])
		if len(titles) == 0 {
			a.host.Notifier.Warn("There are no bookmarks to delete.")
			return nil
		}
		choice, ok, err := a.choose(ctx, "Select bookmark to delete", titles)
		if err != nil || !ok {
			return err
		}
		title = choice
	}
	if _, ok := a.Registry.Get(title); !ok {
		return fmt.Errorf("%w: %s", registry.ErrUnknownBookmark, title)
	}
	return a.Registry.Remove(ctx, title)
}

func (a *App) addCategory(ctx context.Context, args host.Args) error {
	name := args["name"]
	if name == "" {
		value, ok, err := a.text(ctx, "Add new category")
		if err != nil || !ok {
			return err
		}
		name = value
	}
	return a.Registry.AddCategory(name, false)
}

func (a *App) deleteCategory(ctx context.Context, args host.Args) error {
	name := args["name"]
	if name == "" {
		var choices []string
		for _, c := range a.Registry.Categories() {
			if c != model.DefaultCategory {
				choices = append(choices, c)
			}
		}
		if len(choices) == 0 {
			a.host.Notifier.Warn("There are no categories to delete.")
			return nil
		}
		choice, ok, err := a.choose(ctx, "Delete category", choices)
		if err != nil || !ok {
			return err
		}
		name = choice
	}
	return a.Registry.DeleteCategory(ctx, name)
}

func (a *App) moveToCategory(ctx context.Context, args host.Args) error {
	title := args["title"]
	if title == "" {
		titles := a.candidates(AllCategories)
		if len(titles) == 0 {
			a.host.Notifier.Warn("There are no bookmarks to move.")
			return nil
		}
		choice, ok, err := a.choose(ctx, "Select bookmark to move", titles)
		if err != nil || !ok {
			return err
		}
		title = choice
	}
	category := args["category"]
	if category == "" {
		choice, ok, err := a.choose(ctx, "Move to category", a.Registry.Categories())
		if err != nil || !ok {
			return err
		}
		category = choice
	}
	return a.Registry.MoveToCategory(ctx, title, category)
}

func (a *App) importBookmarks(ctx context.Context, args host.Args) error {
	path := args["path"]
	if path == "" {
		if a.host.Files == nil {
			return ErrNoFilePicker
		}
		paths, err := a.host.Files.PickFiles(ctx)
		if err != nil {
			return fmt.Errorf("pick files: %w", err)
		}
		if len(paths) == 0 {
			return nil
		}
		path = paths[0]
	}
	_, err := a.Import(ctx, path)
	return err
}

func (a *App) exportBookmarks(ctx context.Context, args host.Args) error {
	format := exporter.Format(strings.ToLower(args["format"]))
	if format == "" {
		f, err := exporter.ParseFormat(filepath.Ext(args["path"]))
		if err != nil {
			return err
		}
		format = f
	}
	_, err := a.Export(ctx, args["path"], format)
	return err
}

// Import replaces the stored bookmarks with the document at path and
// reconciles the registry against the result.
func (a *App) Import(ctx context.Context, path string) (registry.Report, error) {
	doc, err := importer.ReadFile(path)
	if err != nil {
		return registry.Report{}, fmt.Errorf("import: %w", err)
	}
	if a.server != nil {
		if _, err := a.server.Import(ctx, *doc); err != nil {
			return registry.Report{}, fmt.Errorf("import: %w", err)
		}
	} else if err := a.settings.Save(doc.Bookmarks); err != nil {
		return registry.Report{}, fmt.Errorf("import: %w", err)
	}
	a.logger.Info().Str("path", path).Int("count", doc.Bookmarks.Len()).Msg("bookmarks imported")
	return a.Startup(ctx)
}

// Export writes the stored bookmarks to path in format and returns the path
// written. An empty path selects the default export location. The server's
// copy is preferred; the registry is used when it cannot be reached.
func (a *App) Export(ctx context.Context, path string, format exporter.Format) (string, error) {
	format, err := exporter.ParseFormat(string(format))
	if err != nil {
		return "", err
	}
	entries := a.Registry.Snapshot()
	if a.server != nil {
		doc, err := a.server.Export(ctx)
		if err != nil {
			a.logger.Warn().Err(err).Msg("failed to export from server")
			a.host.Notifier.Warn(fmt.Sprintf("Failed to export bookmarks from the server, using local bookmarks.\n%v", err))
		} else {
			entries = doc.Bookmarks
		}
	}
	if path == "" {
		p, err := exporter.DefaultExportPath(format)
		if err != nil {
			return "", err
		}
		path = p
	}
	if err := exporter.WriteFile(path, format, entries); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	a.logger.Info().Str("path", path).Int("count", entries.Len()).Msg("bookmarks exported")
	return path, nil
}
