package synctrack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceDelay coalesces the write bursts a notebook save produces.
const DebounceDelay = 200 * time.Millisecond

// Event reports the outcome of one sync triggered by the watcher.
type Event struct {
	Title string
	Path  string
	Err   error
}

// Watch syncs bookmarks whenever their temporary copy under
// <root>/<temp prefix> is written. Events are delivered until ctx is done.
func (t *Tracker) Watch(ctx context.Context, root string) (<-chan Event, error) {
	tempDir := filepath.Join(root, t.bookmarks.TempPrefix())
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("synctrack: ensure temp dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("synctrack: create watcher: %w", err)
	}
	if err := addWatchTree(watcher, tempDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("synctrack: watch %s: %w", tempDir, err)
	}

	events := make(chan Event, 32)

	go func() {
		defer watcher.Close()

		var (
			mu      sync.Mutex
			closed  bool
			pending = make(map[string]*time.Timer)
			wg      sync.WaitGroup
		)
		defer func() {
			mu.Lock()
			closed = true
			for _, timer := range pending {
				if timer.Stop() {
					wg.Done()
				}
			}
			mu.Unlock()
			wg.Wait()
			close(events)
		}()

		fire := func(name string) {
			defer wg.Done()
			mu.Lock()
			delete(pending, name)
			if closed {
				mu.Unlock()
				return
			}
			mu.Unlock()

			ev, ok := t.syncFile(ctx, root, name)
			if !ok {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = addWatchTree(watcher, event.Name)
						continue
					}
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				name := event.Name
				mu.Lock()
				if timer, ok := pending[name]; ok && timer.Stop() {
					wg.Done()
				}
				wg.Add(1)
				pending[name] = time.AfterFunc(DebounceDelay, func() { fire(name) })
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				t.logger.Warn().Err(err).Msg("watcher error")
			}
		}
	}()

	return events, nil
}

// syncFile maps a written temp file back to its bookmark and syncs it.
func (t *Tracker) syncFile(ctx context.Context, root, name string) (Event, bool) {
	rel, err := filepath.Rel(root, name)
	if err != nil {
		return Event{}, false
	}
	b, ok := t.MatchActive(rel)
	if !ok {
		return Event{}, false
	}
	err = t.sync(ctx, b)
	return Event{Title: b.Title, Path: b.AbsPath, Err: err}, true
}

func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
