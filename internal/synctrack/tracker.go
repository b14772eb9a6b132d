// Package synctrack copies temporary notebook copies back to their canonical
// location when they are saved.
package synctrack

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nikbrunner/nbm/internal/host"
	"github.com/nikbrunner/nbm/internal/model"
)

// Bookmarks lists registered bookmarks in stable order.
type Bookmarks interface {
	All() []model.Bookmark
	TempPrefix() string
}

// Syncer copies a bookmark's temporary content to its absolute path.
type Syncer interface {
	SyncBookmark(ctx context.Context, b model.Bookmark) error
}

// Params holds the dependencies of a Tracker.
type Params struct {
	Bookmarks Bookmarks
	Syncer    Syncer
	Notifier  host.Notifier
	Logger    zerolog.Logger
}

// Tracker reacts to document saves for temp-tracked bookmarks.
type Tracker struct {
	bookmarks Bookmarks
	syncer    Syncer
	notifier  host.Notifier
	logger    zerolog.Logger

	mu       sync.Mutex
	attached map[string]host.Handle
}

// New creates a Tracker.
func New(params Params) *Tracker {
	if params.Notifier == nil {
		params.Notifier = host.LogNotifier{Logger: params.Logger}
	}
	return &Tracker{
		bookmarks: params.Bookmarks,
		syncer:    params.Syncer,
		notifier:  params.Notifier,
		logger:    params.Logger.With().Str("component", "synctrack").Logger(),
		attached:  make(map[string]host.Handle),
	}
}

// Match returns the first temp-tracked bookmark whose absolute path is path.
func (t *Tracker) Match(path string) (model.Bookmark, bool) {
	prefix := t.bookmarks.TempPrefix()
	for _, b := range t.bookmarks.All() {
		if b.IsTemporary(prefix) && b.AbsPath == path {
			return b, true
		}
	}
	return model.Bookmark{}, false
}

// MatchActive returns the first temp-tracked bookmark whose active path is rel.
func (t *Tracker) MatchActive(rel string) (model.Bookmark, bool) {
	prefix := t.bookmarks.TempPrefix()
	rel = filepath.ToSlash(filepath.Clean(rel))
	for _, b := range t.bookmarks.All() {
		if b.IsTemporary(prefix) && filepath.ToSlash(filepath.Clean(b.ActivePath)) == rel {
			return b, true
		}
	}
	return model.Bookmark{}, false
}

// DocumentSaved syncs the bookmark tracking path, if any. A failed sync is
// reported as a warning and leaves the bookmark untouched.
func (t *Tracker) DocumentSaved(ctx context.Context, path string) (synced bool, err error) {
	b, ok := t.Match(path)
	if !ok {
		return false, nil
	}
	if err := t.sync(ctx, b); err != nil {
		return false, err
	}
	return true, nil
}

func (t *Tracker) sync(ctx context.Context, b model.Bookmark) error {
	if err := t.syncer.SyncBookmark(ctx, b); err != nil {
		t.logger.Warn().Err(err).Str("title", b.Title).Msg("autosync failed")
		t.notifier.Warn(fmt.Sprintf("Failed to autosync for %s.\n%v", b.Title, err))
		return err
	}
	t.logger.Debug().Str("title", b.Title).Str("path", b.AbsPath).Msg("bookmark synced")
	return nil
}

// CurrentChanged attaches a save hook to doc when it is temp-tracked.
// A document is hooked at most once. Reports whether a hook is attached.
func (t *Tracker) CurrentChanged(ctx context.Context, doc host.Document) bool {
	if doc == nil {
		return false
	}
	path := doc.Path()
	if _, ok := t.Match(path); !ok {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.attached[path]; ok {
		return true
	}
	t.attached[path] = doc.OnSaved(func(saved string) {
		_, _ = t.DocumentSaved(ctx, saved)
	})
	return true
}

// Close releases every attached save hook.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, h := range t.attached {
		h.Release()
		delete(t.attached, path)
	}
}
