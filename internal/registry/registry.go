// Package registry owns the bookmark map and keeps it in lockstep with the
// host's commands, launcher entries, menu entries and the settings store.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nikbrunner/nbm/internal/host"
	"github.com/nikbrunner/nbm/internal/model"
	"github.com/nikbrunner/nbm/internal/storage"
)

// CommandPrefix namespaces every command id the registry registers.
const CommandPrefix = "notebook-bookmarks:"

// Launcher categories.
const (
	LauncherPrefix   = "Bookmarks - "
	DisabledLauncher = "Disabled bookmarks"
)

// Category-scoped action command ids.
const (
	AddFromLauncherCommand = CommandPrefix + "addBookmarkFromLauncher"
	RemoveCommand          = CommandPrefix + "removeBookmark"
)

var (
	// ErrInconsistent marks a registry entry whose UI resources were missing.
	ErrInconsistent = errors.New("registry entry without ui resources")
	// ErrUnknownBookmark is returned when a title is not registered.
	ErrUnknownBookmark = errors.New("unknown bookmark")
	// ErrEmptyCategory is returned for a blank category name.
	ErrEmptyCategory = errors.New("category name is empty")
	// ErrDuplicateCategory is returned when a category already exists.
	ErrDuplicateCategory = errors.New("category already exists")
	// ErrDefaultCategory is returned when deleting the default category.
	ErrDefaultCategory = errors.New("default category cannot be deleted")
	// ErrUnknownCategory is returned when a category does not exist.
	ErrUnknownCategory = errors.New("unknown category")
)

// Pusher mirrors the persisted bookmarks to an external store.
type Pusher interface {
	PushSettings(ctx context.Context, entries *model.Entries) error
}

// Params holds the dependencies of a Registry.
type Params struct {
	Settings   storage.Settings
	Host       host.Host
	Pusher     Pusher
	Logger     zerolog.Logger
	TempPrefix string
}

// resources are the UI handles owned by one bookmark.
type resources struct {
	command  host.Handle
	launcher host.Handle
	menu     host.Handle
}

// release releases every handle once and reports the missing ones.
func (r *resources) release() []string {
	var missing []string
	for _, h := range []struct {
		name   string
		handle host.Handle
	}{
		{"command", r.command},
		{"launcher", r.launcher},
		{"menu", r.menu},
	} {
		if h.handle == nil {
			missing = append(missing, h.name)
			continue
		}
		h.handle.Release()
	}
	*r = resources{}
	return missing
}

type category struct {
	name    string
	handles []host.Handle
}

// Registry is the authoritative title to Bookmark map.
type Registry struct {
	mu sync.Mutex
	// mirrorMu orders pushes to the external store. It is never taken while
	// holding mu.
	mirrorMu sync.Mutex

	settings   storage.Settings
	host       host.Host
	pusher     Pusher
	logger     zerolog.Logger
	tempPrefix string

	bookmarks     *model.Entries
	ui            map[string]*resources
	categories    map[string]*category
	categoryOrder []string
}

// New creates an empty Registry and registers the default category.
func New(params Params) (*Registry, error) {
	if params.Settings == nil {
		return nil, errors.New("registry: settings store is required")
	}
	if params.Host.Commands == nil || params.Host.Launcher == nil || params.Host.Menu == nil {
		return nil, errors.New("registry: host commands, launcher and menu are required")
	}
	if params.Host.Notifier == nil {
		params.Host.Notifier = host.LogNotifier{Logger: params.Logger}
	}
	if params.TempPrefix == "" {
		params.TempPrefix = model.DefaultTempPrefix
	}

	r := &Registry{
		settings:   params.Settings,
		host:       params.Host,
		pusher:     params.Pusher,
		logger:     params.Logger.With().Str("component", "registry").Logger(),
		tempPrefix: params.TempPrefix,
		bookmarks:  model.NewEntries(),
		ui:         make(map[string]*resources),
		categories: make(map[string]*category),
	}
	if _, err := r.addCategoryLocked(model.DefaultCategory); err != nil {
		return nil, fmt.Errorf("registry: create default category: %w", err)
	}
	return r, nil
}

// TempPrefix returns the prefix marking temporary active paths.
func (r *Registry) TempPrefix() string {
	return r.tempPrefix
}

// Get returns the bookmark registered under title.
func (r *Registry) Get(title string) (model.Bookmark, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookmarks.Get(title)
}

// All returns every bookmark in stable registration order.
func (r *Registry) All() []model.Bookmark {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookmarks.Bookmarks()
}

// Snapshot returns a copy of the registered entries.
func (r *Registry) Snapshot() *model.Entries {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookmarks.Clone()
}

// Len returns the number of registered bookmarks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookmarks.Len()
}

// Categories returns category names in creation order.
func (r *Registry) Categories() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.categoryOrder...)
}

// HasCategory reports whether name exists.
func (r *Registry) HasCategory(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.categories[name]
	return ok
}

// Members returns the bookmarks in category, in registration order.
func (r *Registry) Members(name string) []model.Bookmark {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.membersLocked(name)
}

func (r *Registry) membersLocked(name string) []model.Bookmark {
	var members []model.Bookmark
	for _, b := range r.bookmarks.Bookmarks() {
		if b.Category == name {
			members = append(members, b)
		}
	}
	return members
}

// Put inserts or overwrites the bookmark keyed by its title and persists.
// Fields are never merged with an existing entry.
func (r *Registry) Put(ctx context.Context, b model.Bookmark) error {
	r.mu.Lock()
	err := r.putLocked(b, true)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.mirror(ctx)
	return nil
}

// Remove deletes the bookmark under title and releases its UI resources.
// Removing an absent title is a no-op.
func (r *Registry) Remove(ctx context.Context, title string) error {
	r.mu.Lock()
	if !r.bookmarks.Has(title) {
		r.mu.Unlock()
		return nil
	}
	faultErr := r.removeLocked(title)
	err := r.persistLocked()
	r.mu.Unlock()

	if err != nil {
		return errors.Join(faultErr, err)
	}
	r.mirror(ctx)
	return faultErr
}

// Persist writes the registered bookmarks to the settings store and mirrors
// them to the external store when one is configured.
func (r *Registry) Persist(ctx context.Context) error {
	r.mu.Lock()
	err := r.persistLocked()
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.mirror(ctx)
	return nil
}

func (r *Registry) persistLocked() error {
	if err := r.settings.Save(r.bookmarks.Clone()); err != nil {
		return fmt.Errorf("persist bookmarks: %w", err)
	}
	return nil
}

// mirror pushes the current bookmarks to the external store. Pushes are
// serialized and each one reads the registry afresh, so a slow push can never
// overwrite a newer one. Failures leave local state intact.
func (r *Registry) mirror(ctx context.Context) {
	if r.pusher == nil {
		return
	}
	r.mirrorMu.Lock()
	defer r.mirrorMu.Unlock()
	if err := r.pusher.PushSettings(ctx, r.Snapshot()); err != nil {
		r.logger.Warn().Err(err).Msg("failed to mirror bookmarks")
		r.host.Notifier.Warn(fmt.Sprintf("Failed to save bookmarks on the server.\n%v", err))
	}
}

// removeLocked tears down title. A missing handle is logged and returned as
// ErrInconsistent; the entry is removed regardless.
func (r *Registry) removeLocked(title string) error {
	res, ok := r.ui[title]
	var missing []string
	if ok {
		missing = res.release()
	} else {
		missing = []string{"command", "launcher", "menu"}
	}
	delete(r.ui, title)
	r.bookmarks.Delete(title)

	if len(missing) > 0 {
		r.logger.Error().
			Str("title", title).
			Strs("missing", missing).
			Msg("consistency fault: registry entry without ui resources")
		return fmt.Errorf("%w: %s (missing %s)", ErrInconsistent, title, strings.Join(missing, ", "))
	}
	return nil
}

// putLocked registers b, replacing any entry with the same title. Either
// every side effect happens or the previous state is restored.
func (r *Registry) putLocked(b model.Bookmark, persist bool) error {
	b.Category = model.NormalizeCategory(b.Category)

	createdCategory, err := r.ensureCategoryLocked(b.Category)
	if err != nil {
		return err
	}
	rollbackCategory := func() {
		if createdCategory {
			r.dropCategoryLocked(b.Category)
		}
	}

	old, hadOld := r.bookmarks.Get(b.Title)
	if hadOld {
		// The command id is reused, so the old registration must go first.
		if res, ok := r.ui[b.Title]; ok {
			res.release()
		}
		delete(r.ui, b.Title)
	}

	res, err := r.registerLocked(b)
	if err != nil {
		if hadOld {
			r.restoreLocked(old)
		}
		rollbackCategory()
		return err
	}
	r.ui[b.Title] = res
	r.bookmarks.Set(b.Title, b)

	if !persist {
		return nil
	}
	if err := r.persistLocked(); err != nil {
		res.release()
		delete(r.ui, b.Title)
		if hadOld {
			r.bookmarks.Set(b.Title, old)
			r.restoreLocked(old)
		} else {
			r.bookmarks.Delete(b.Title)
		}
		rollbackCategory()
		return err
	}
	return nil
}

// restoreLocked re-registers old after a failed overwrite.
func (r *Registry) restoreLocked(old model.Bookmark) {
	res, err := r.registerLocked(old)
	if err != nil {
		r.logger.Error().Err(err).Str("title", old.Title).
			Msg("consistency fault: failed to restore ui resources")
		r.bookmarks.Delete(old.Title)
		return
	}
	r.ui[old.Title] = res
}

// registerLocked acquires command, launcher and menu handles for b.
func (r *Registry) registerLocked(b model.Bookmark) (*resources, error) {
	id := CommandID(b.Title)
	res := &resources{}

	cmd, err := r.host.Commands.AddCommand(id, r.openCommand(b))
	if err != nil {
		return nil, fmt.Errorf("register command %s: %w", id, err)
	}
	res.command = cmd

	launcher, err := r.host.Launcher.Add(launcherItem(b))
	if err != nil {
		res.release()
		return nil, fmt.Errorf("register launcher entry %s: %w", id, err)
	}
	res.launcher = launcher

	menu, err := r.host.Menu.AddItem(host.MenuItem{Command: id})
	if err != nil {
		res.launcher.Release()
		res.command.Release()
		return nil, fmt.Errorf("register menu entry %s: %w", id, err)
	}
	res.menu = menu

	return res, nil
}

// relaunchLocked swaps the launcher entry of title for one matching b.
// The new entry is acquired before the old one is released.
func (r *Registry) relaunchLocked(b model.Bookmark) error {
	res, ok := r.ui[b.Title]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInconsistent, b.Title)
	}
	launcher, err := r.host.Launcher.Add(launcherItem(b))
	if err != nil {
		return fmt.Errorf("register launcher entry %s: %w", b.Title, err)
	}
	if res.launcher != nil {
		res.launcher.Release()
	}
	res.launcher = launcher
	r.bookmarks.Set(b.Title, b)
	return nil
}

func (r *Registry) openCommand(b model.Bookmark) host.Command {
	label := b.Title
	if b.Disabled {
		label += " (unavailable)"
	}
	return host.Command{
		Label:   label,
		Caption: b.AbsPath,
		Icon:    "notebook",
		Execute: func(ctx context.Context, _ host.Args) error {
			if b.Disabled {
				r.host.Notifier.Error("Bookmark unavailable",
					fmt.Sprintf("%s could not be found at %s.", b.Title, b.AbsPath))
				return nil
			}
			if r.host.Documents == nil {
				return errors.New("no document opener configured")
			}
			return r.host.Documents.Open(ctx, b.OpenPath())
		},
	}
}

// CommandID returns the command id registered for a bookmark title.
func CommandID(title string) string {
	return CommandPrefix + title
}

// LauncherCategory returns the launcher section a bookmark is listed under.
func LauncherCategory(b model.Bookmark) string {
	if b.Disabled {
		return DisabledLauncher
	}
	return LauncherPrefix + model.NormalizeCategory(b.Category)
}

func launcherItem(b model.Bookmark) host.LauncherItem {
	return host.LauncherItem{
		Command:  CommandID(b.Title),
		Category: LauncherCategory(b),
	}
}
