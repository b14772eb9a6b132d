// Package app wires the registry, the sync tracker, the server client and the
// host together and exposes the management commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nikbrunner/nbm/internal/host"
	"github.com/nikbrunner/nbm/internal/model"
	"github.com/nikbrunner/nbm/internal/registry"
	"github.com/nikbrunner/nbm/internal/storage"
	"github.com/nikbrunner/nbm/internal/synctrack"
)

// Resolver turns a bookmark request (title, base path, category) into a
// complete bookmark.
type Resolver interface {
	GetAbsPath(ctx context.Context, b model.Bookmark) (model.Bookmark, error)
}

// Server is the external bookmark store. *remote.Client implements it.
type Server interface {
	registry.Source
	registry.Pusher
	synctrack.Syncer
	Resolver
	Import(ctx context.Context, doc model.Document) (*model.Entries, error)
	Export(ctx context.Context) (*model.Document, error)
}

// Params holds the dependencies of an App.
type Params struct {
	Settings storage.Settings
	Host     host.Host
	// Server is optional. Without it paths are resolved and synced locally
	// under ContentRoot.
	Server      Server
	ContentRoot string
	TempPrefix  string
	Logger      zerolog.Logger
}

// App is the context object owned by the application root.
type App struct {
	Registry *registry.Registry
	Tracker  *synctrack.Tracker

	host     host.Host
	settings storage.Settings
	server   Server
	resolver Resolver
	root     string
	logger   zerolog.Logger

	mu      sync.Mutex
	current host.Document
	handles []host.Handle
}

// New creates an App. Commands are not registered until RegisterCommands.
func New(params Params) (*App, error) {
	if params.Host.Notifier == nil {
		params.Host.Notifier = host.LogNotifier{Logger: params.Logger}
	}
	if params.TempPrefix == "" {
		params.TempPrefix = model.DefaultTempPrefix
	}

	var pusher registry.Pusher
	if params.Server != nil {
		pusher = params.Server
	}
	reg, err := registry.New(registry.Params{
		Settings:   params.Settings,
		Host:       params.Host,
		Pusher:     pusher,
		Logger:     params.Logger,
		TempPrefix: params.TempPrefix,
	})
	if err != nil {
		return nil, err
	}

	root := params.ContentRoot
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	a := &App{
		Registry: reg,
		host:     params.Host,
		settings: params.Settings,
		server:   params.Server,
		root:     root,
		logger:   params.Logger.With().Str("component", "app").Logger(),
	}

	var syncer synctrack.Syncer
	if params.Server != nil {
		a.resolver = params.Server
		syncer = params.Server
	} else {
		local := NewLocal(root, params.TempPrefix)
		a.resolver = local
		syncer = local
	}
	a.Tracker = synctrack.New(synctrack.Params{
		Bookmarks: reg,
		Syncer:    syncer,
		Notifier:  params.Host.Notifier,
		Logger:    params.Logger,
	})
	return a, nil
}

// ContentRoot returns the absolute content root, or "" when unset.
func (a *App) ContentRoot() string {
	return a.root
}

// Startup reconciles local settings with the server and registers every
// bookmark.
func (a *App) Startup(ctx context.Context) (registry.Report, error) {
	var src registry.Source
	if a.server != nil {
		src = a.server
	}
	return a.Registry.Reconcile(ctx, src)
}

// AddBookmarkItem resolves path and adds the bookmark under name.
// Resolution failures are reported through the notifier.
func (a *App) AddBookmarkItem(ctx context.Context, name, path, category string) (registry.Result, error) {
	if name == "" {
		name = filepath.Base(path)
	}
	req := model.Bookmark{
		Title:    name,
		BasePath: filepath.ToSlash(path),
		Category: category,
	}
	b, err := a.resolver.GetAbsPath(ctx, req)
	if err != nil {
		a.host.Notifier.Error("Failed to save bookmark", err.Error())
		return registry.Result{}, fmt.Errorf("%w: %s: %w", ErrResolve, path, err)
	}
	if b.Title == "" {
		b.Title = name
	}
	if category != "" {
		b.Category = category
	}
	return a.Registry.Add(ctx, b, registry.AddOptions{})
}

// SetCurrent records doc as the focused document and hooks its saves when it
// is a temporary copy.
func (a *App) SetCurrent(ctx context.Context, doc host.Document) {
	a.mu.Lock()
	a.current = doc
	a.mu.Unlock()
	a.Tracker.CurrentChanged(ctx, doc)
}

// Current returns the focused document, if any.
func (a *App) Current() host.Document {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Watch syncs temporary copies under the content root as they are written.
func (a *App) Watch(ctx context.Context) (<-chan synctrack.Event, error) {
	if a.root == "" {
		return nil, errors.New("watch: content root is not configured")
	}
	return a.Tracker.Watch(ctx, a.root)
}

// Close releases the management commands and every save hook.
func (a *App) Close() {
	a.mu.Lock()
	handles := a.handles
	a.handles = nil
	a.mu.Unlock()

	for i := len(handles) - 1; i >= 0; i-- {
		handles[i].Release()
	}
	a.Tracker.Close()
}
