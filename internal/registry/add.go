package registry

import (
	"context"
	"fmt"

	"github.com/nikbrunner/nbm/internal/model"
)

// Duplicate-resolution choices offered to the user.
const (
	ChoiceOverwrite = "Overwrite"
	ChoiceSaveAsNew = "Save as new"
	ChoiceCancel    = "Cancel"
)

// Action is the outcome of Add.
type Action int

const (
	Inserted Action = iota
	Rejected
	Overwritten
	SavedAsNew
	Aborted
)

func (a Action) String() string {
	switch a {
	case Inserted:
		return "inserted"
	case Rejected:
		return "rejected as duplicate"
	case Overwritten:
		return "overwritten"
	case SavedAsNew:
		return "saved as new"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// AddOptions control Add.
type AddOptions struct {
	// SkipDuplicateCheck registers the bookmark without consulting the user.
	SkipDuplicateCheck bool
	// Startup registers already-trusted data: no duplicate check and no
	// persistence write.
	Startup bool
}

// Result describes what Add did and the title the bookmark ended up under.
type Result struct {
	Action Action
	Title  string
}

// Add registers b, resolving a title collision with the user when needed.
//
// No lock is held while the user is prompted. Once a decision arrives the
// colliding entry is checked again; if it changed meanwhile the decision is
// discarded and the collision is resolved from scratch.
func (r *Registry) Add(ctx context.Context, b model.Bookmark, opts AddOptions) (Result, error) {
	b.Category = model.NormalizeCategory(b.Category)

	if opts.Startup || opts.SkipDuplicateCheck {
		r.mu.Lock()
		action := Inserted
		if r.bookmarks.Has(b.Title) {
			action = Overwritten
		}
		err := r.putLocked(b, !opts.Startup)
		r.mu.Unlock()
		if err != nil {
			return Result{}, err
		}
		if !opts.Startup {
			r.mirror(ctx)
		}
		return Result{Action: action, Title: b.Title}, nil
	}

	for {
		r.mu.Lock()
		existing, ok := r.bookmarks.Get(b.Title)
		if !ok {
			err := r.putLocked(b, true)
			r.mu.Unlock()
			if err != nil {
				return Result{}, err
			}
			r.logger.Info().Str("title", b.Title).Msg("bookmark added")
			r.mirror(ctx)
			return Result{Action: Inserted, Title: b.Title}, nil
		}
		r.mu.Unlock()

		if existing.AbsPath == b.AbsPath {
			r.host.Notifier.Error("Duplicate bookmark",
				fmt.Sprintf("%s is already bookmarked as %q.", b.AbsPath, existing.Title))
			return Result{Action: Rejected, Title: existing.Title}, nil
		}

		choice, err := r.ask(ctx, b)
		if err != nil {
			return Result{}, err
		}
		if choice == ChoiceCancel {
			return Result{Action: Aborted, Title: b.Title}, nil
		}

		r.mu.Lock()
		current, still := r.bookmarks.Get(b.Title)
		if !still || !current.Equal(existing) {
			r.mu.Unlock()
			r.logger.Debug().Str("title", b.Title).Msg("bookmark changed while prompting, resolving again")
			continue
		}

		var result Result
		switch choice {
		case ChoiceOverwrite:
			result = Result{Action: Overwritten, Title: b.Title}
		default:
			nb := b
			nb.Title = r.disambiguateLocked(b)
			b = nb
			result = Result{Action: SavedAsNew, Title: nb.Title}
		}
		err = r.putLocked(b, true)
		r.mu.Unlock()
		if err != nil {
			return Result{}, err
		}
		r.logger.Info().Str("title", result.Title).Stringer("action", result.Action).Msg("bookmark added")
		r.mirror(ctx)
		return result, nil
	}
}

// ask obtains the user's decision for a colliding title.
func (r *Registry) ask(ctx context.Context, b model.Bookmark) (string, error) {
	if r.host.Prompter == nil {
		return ChoiceCancel, nil
	}
	title := fmt.Sprintf("A bookmark named %q already exists", b.Title)
	choice, ok, err := r.host.Prompter.Choose(ctx, title,
		[]string{ChoiceOverwrite, ChoiceSaveAsNew, ChoiceCancel})
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	if !ok {
		return ChoiceCancel, nil
	}
	switch choice {
	case ChoiceOverwrite, ChoiceSaveAsNew:
		return choice, nil
	default:
		return ChoiceCancel, nil
	}
}

// disambiguateLocked returns a free title of the form name_(n).ext, where n
// starts at the number of registered bookmarks sharing b's file name.
func (r *Registry) disambiguateLocked(b model.Bookmark) string {
	n := model.CountCopies(r.bookmarks, b)
	if n < 1 {
		n = 1
	}
	title := model.DisambiguateTitle(b.Title, n)
	for r.bookmarks.Has(title) {
		n++
		title = model.DisambiguateTitle(b.Title, n)
	}
	return title
}
