package registry

import (
	"context"
	"fmt"

	"github.com/nikbrunner/nbm/internal/model"
)

// Source is the external bookmark store consulted during reconciliation.
type Source interface {
	// FetchSettings returns the bookmarks the external store holds.
	FetchSettings(ctx context.Context) (*model.Entries, error)
	// UpdateBookmarks asks the store to refresh derived state (disabled
	// flags, temporary copies) and returns the refreshed bookmarks.
	UpdateBookmarks(ctx context.Context, entries *model.Entries) (*model.Entries, error)
}

// Report summarizes a reconciliation.
type Report struct {
	// Overwritten is true when the external store replaced local settings.
	Overwritten bool
	// Degraded is true when the external store could not be reached.
	Degraded bool
	// Persisted is true when the settings store was written.
	Persisted bool
	// Stored is the local settings as read before reconciliation.
	Stored *model.Entries
	// Before and After are the registry contents around the reconciliation.
	Before    *model.Entries
	After     *model.Entries
	Added     []string
	Updated   []string
	Removed   []string
	Unchanged []string
}

// Changed reports whether the registry was mutated.
func (rep Report) Changed() bool {
	return len(rep.Added)+len(rep.Updated)+len(rep.Removed) > 0
}

// Reconcile folds local settings and the external store into the registry.
// The external store wins on any mismatch. A nil source reconciles against
// local settings only. Failures to reach the source are reported as warnings
// and the local settings are used instead.
func (r *Registry) Reconcile(ctx context.Context, src Source) (Report, error) {
	local, err := r.settings.Load()
	if err != nil {
		r.host.Notifier.Error("Settings", fmt.Sprintf("Failed to read bookmark settings.\n%v", err))
		return Report{}, fmt.Errorf("load settings: %w", err)
	}

	rep := Report{Stored: local, Before: r.Snapshot()}
	stored := local

	if src != nil {
		remote, err := src.FetchSettings(ctx)
		switch {
		case err != nil:
			rep.Degraded = true
			r.logger.Warn().Err(err).Msg("failed to fetch bookmarks from server")
			r.host.Notifier.Warn(fmt.Sprintf("Failed to load bookmarks from server side during startup.\n%v", err))
		case !model.CompareMaps(remote, local):
			if err := r.settings.Save(remote); err != nil {
				return rep, fmt.Errorf("overwrite settings: %w", err)
			}
			r.logger.Info().Int("local", local.Len()).Int("remote", remote.Len()).
				Msg("local settings replaced by server state")
			rep.Overwritten = true
			local = remote
			stored = remote
		}

		if !rep.Degraded {
			updated, err := src.UpdateBookmarks(ctx, local)
			if err != nil {
				rep.Degraded = true
				r.logger.Warn().Err(err).Msg("failed to refresh bookmarks on server")
				r.host.Notifier.Warn(fmt.Sprintf("Failed to refresh bookmarks on server side.\n%v", err))
			} else if updated != nil {
				local = updated
			}
		}
	}

	r.mu.Lock()
	r.foldLocked(local, &rep)
	if !model.CompareMaps(r.bookmarks, stored) {
		if err := r.persistLocked(); err != nil {
			r.mu.Unlock()
			return rep, err
		}
		rep.Persisted = true
	}
	rep.After = r.bookmarks.Clone()
	r.mu.Unlock()

	if rep.Persisted && !rep.Degraded {
		r.mirror(ctx)
	}
	r.logger.Info().
		Int("added", len(rep.Added)).
		Int("updated", len(rep.Updated)).
		Int("removed", len(rep.Removed)).
		Int("unchanged", len(rep.Unchanged)).
		Bool("overwritten", rep.Overwritten).
		Msg("bookmarks reconciled")
	return rep, nil
}

// foldLocked makes the registry match target in startup mode. Entries equal
// to what is registered keep their UI resources.
func (r *Registry) foldLocked(target *model.Entries, rep *Report) {
	for _, title := range r.bookmarks.Titles() {
		if target.Has(title) {
			continue
		}
		if err := r.removeLocked(title); err != nil {
			r.host.Notifier.Warn(err.Error())
		}
		rep.Removed = append(rep.Removed, title)
	}

	for _, b := range target.Bookmarks() {
		b.Category = model.NormalizeCategory(b.Category)
		current, ok := r.bookmarks.Get(b.Title)
		if ok && current.Equal(b) {
			rep.Unchanged = append(rep.Unchanged, b.Title)
			continue
		}
		if err := r.putLocked(b, false); err != nil {
			r.logger.Error().Err(err).Str("title", b.Title).Msg("failed to register bookmark")
			r.host.Notifier.Warn(fmt.Sprintf("Failed to register bookmark %s.\n%v", b.Title, err))
			continue
		}
		if ok {
			rep.Updated = append(rep.Updated, b.Title)
		} else {
			rep.Added = append(rep.Added, b.Title)
		}
	}
}
