package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/nikbrunner/nbm/internal/host"
	"github.com/nikbrunner/nbm/internal/model"
)

// AddCategory creates a category and registers its launcher actions.
// An existing name is reported through the notifier unless silent; a silent
// duplicate is a no-op.
func (r *Registry) AddCategory(name string, silent bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		r.host.Notifier.Error("Invalid category", "The category name must not be empty.")
		return ErrEmptyCategory
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[name]; ok {
		if silent {
			return nil
		}
		r.host.Notifier.Warn(fmt.Sprintf("Category %q already exists.", name))
		return fmt.Errorf("%w: %s", ErrDuplicateCategory, name)
	}
	_, err := r.addCategoryLocked(name)
	return err
}

// DeleteCategory moves every member to the default category, releases the
// category's launcher actions and removes it.
func (r *Registry) DeleteCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == model.DefaultCategory {
		r.host.Notifier.Error("Invalid category", fmt.Sprintf("%q cannot be deleted.", name))
		return ErrDefaultCategory
	}

	r.mu.Lock()
	if _, ok := r.categories[name]; !ok {
		r.mu.Unlock()
		r.host.Notifier.Error("Invalid category", fmt.Sprintf("Category %q does not exist.", name))
		return fmt.Errorf("%w: %s", ErrUnknownCategory, name)
	}

	members := r.membersLocked(name)
	moved := make([]model.Bookmark, 0, len(members))
	for _, b := range members {
		nb := b
		nb.Category = model.DefaultCategory
		if err := r.relaunchLocked(nb); err != nil {
			r.revertMovesLocked(moved, name)
			r.mu.Unlock()
			return err
		}
		moved = append(moved, nb)
	}

	if len(moved) > 0 {
		if err := r.persistLocked(); err != nil {
			r.revertMovesLocked(moved, name)
			r.mu.Unlock()
			return err
		}
	}
	r.dropCategoryLocked(name)
	r.mu.Unlock()

	r.logger.Info().Str("category", name).Int("moved", len(moved)).Msg("category deleted")
	if len(moved) > 0 {
		r.mirror(ctx)
	}
	return nil
}

// MoveToCategory re-homes one bookmark, creating the category if needed.
func (r *Registry) MoveToCategory(ctx context.Context, title, name string) error {
	name = model.NormalizeCategory(name)

	r.mu.Lock()
	b, ok := r.bookmarks.Get(title)
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownBookmark, title)
	}
	if b.Category == name {
		r.mu.Unlock()
		return nil
	}

	created, err := r.ensureCategoryLocked(name)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	nb := b
	nb.Category = name
	if err := r.relaunchLocked(nb); err != nil {
		if created {
			r.dropCategoryLocked(name)
		}
		r.mu.Unlock()
		return err
	}
	if err := r.persistLocked(); err != nil {
		_ = r.relaunchLocked(b)
		if created {
			r.dropCategoryLocked(name)
		}
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.mirror(ctx)
	return nil
}

func (r *Registry) revertMovesLocked(moved []model.Bookmark, name string) {
	for _, b := range moved {
		b.Category = name
		if err := r.relaunchLocked(b); err != nil {
			r.logger.Error().Err(err).Str("title", b.Title).
				Msg("consistency fault: failed to revert category move")
		}
	}
}

// ensureCategoryLocked creates name silently. created reports whether it was new.
func (r *Registry) ensureCategoryLocked(name string) (created bool, err error) {
	if _, ok := r.categories[name]; ok {
		return false, nil
	}
	return r.addCategoryLocked(name)
}

func (r *Registry) addCategoryLocked(name string) (bool, error) {
	c := &category{name: name}
	for _, item := range categoryActions(name) {
		h, err := r.host.Launcher.Add(item)
		if err != nil {
			for _, acquired := range c.handles {
				acquired.Release()
			}
			return false, fmt.Errorf("register category %s: %w", name, err)
		}
		c.handles = append(c.handles, h)
	}
	r.categories[name] = c
	r.categoryOrder = append(r.categoryOrder, name)
	return true, nil
}

func (r *Registry) dropCategoryLocked(name string) {
	c, ok := r.categories[name]
	if !ok {
		return
	}
	for _, h := range c.handles {
		h.Release()
	}
	delete(r.categories, name)
	for i, n := range r.categoryOrder {
		if n == name {
			r.categoryOrder = append(r.categoryOrder[:i], r.categoryOrder[i+1:]...)
			break
		}
	}
}

// categoryActions are the two launcher actions scoped to a category.
func categoryActions(name string) []host.LauncherItem {
	section := LauncherPrefix + name
	return []host.LauncherItem{
		{Command: AddFromLauncherCommand, Category: section, Args: host.Args{"category": name}, Rank: 1},
		{Command: RemoveCommand, Category: section, Args: host.Args{"category": name}, Rank: 2},
	}
}
