package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/nbm/internal/model"
	"github.com/nikbrunner/nbm/internal/picker"
	"github.com/nikbrunner/nbm/internal/registry"
	"github.com/nikbrunner/nbm/internal/search"
)

func newAddCmd(g *globals) *cobra.Command {
	var name, category string
	cmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "Bookmark notebook files",
		Long: `Bookmark one or more notebook files. The title defaults to the file name.
When a bookmark with the same title exists, --on-conflict decides whether it is
overwritten, saved under a new title (name_(n).ext) or left alone.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && len(args) > 1 {
				return errors.New("--name can only be used with a single path")
			}
			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			var errs []error
			for _, path := range args {
				res, err := e.app.AddBookmarkItem(cmd.Context(), name, e.bookmarkPath(path), category)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Title, res.Action)
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Bookmark title (defaults to the file name)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category (defaults to "+model.DefaultCategory+")")
	return cmd
}

func newRmCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <title>...",
		Aliases: []string{"remove"},
		Short:   "Remove bookmarks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			var errs []error
			for _, title := range args {
				if _, ok := e.app.Registry.Get(title); !ok {
					errs = append(errs, fmt.Errorf("%w: %s", registry.ErrUnknownBookmark, title))
					continue
				}
				if err := e.app.Registry.Remove(cmd.Context(), title); err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: removed\n", title)
			}
			return errors.Join(errs...)
		},
	}
}

var (
	headerColor   = color.New(color.Bold)
	disabledColor = color.New(color.FgRed)
	tempColor     = color.New(color.FgYellow)
)

func newLsCmd(g *globals) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List bookmarks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			bookmarks := e.app.Registry.All()
			if category != "" {
				if !e.app.Registry.HasCategory(category) {
					return fmt.Errorf("no category named %q", category)
				}
				bookmarks = e.app.Registry.Members(category)
			}
			if len(bookmarks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bookmarks.")
				return nil
			}

			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.MaxColWidth = 60
			tbl.AddRow(headerColor.Sprint("TITLE"), headerColor.Sprint("CATEGORY"), headerColor.Sprint("PATH"), headerColor.Sprint("STATUS"))
			for _, b := range bookmarks {
				tbl.AddRow(b.Title, model.NormalizeCategory(b.Category), b.AbsPath, status(b, e.cfg.TempPrefix))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return err
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list bookmarks in this category")
	return cmd
}

func status(b model.Bookmark, tempPrefix string) string {
	switch {
	case b.Disabled:
		return disabledColor.Sprint("unavailable")
	case b.IsTemporary(tempPrefix):
		return tempColor.Sprint("temp copy " + b.ActivePath)
	default:
		return "ok"
	}
}

func newOpenCmd(g *globals) *cobra.Command {
	var copyPath, first bool
	cmd := &cobra.Command{
		Use:   "open <query>...",
		Short: "Fuzzy find a bookmark and open it",
		Long: `Fuzzy find a bookmark by title. A single match is opened directly, several
matches show a picker. Opening prints the path the notebook is opened from.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			query := strings.Join(args, " ")
			b, ok, err := g.pick(cmd, e.app.Registry.All(), query, first)
			if err != nil || !ok {
				return err
			}

			if copyPath {
				if err := clipboard.WriteAll(b.AbsPath); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Copied: %s\n", b.AbsPath)
				return nil
			}
			return e.mem.Execute(cmd.Context(), registry.CommandID(b.Title), nil)
		},
	}
	cmd.Flags().BoolVar(&copyPath, "copy", false, "Copy the bookmark path to the clipboard instead of opening it")
	cmd.Flags().BoolVar(&first, "first", false, "Open the best match without showing a picker")
	return cmd
}

// pick selects a bookmark for query, showing the picker for several matches.
func (g *globals) pick(cmd *cobra.Command, bookmarks []model.Bookmark, query string, first bool) (model.Bookmark, bool, error) {
	out := cmd.OutOrStdout()
	if first {
		b, ok := search.Best(bookmarks, query)
		if !ok {
			fmt.Fprintf(out, "No bookmarks found for '%s'\n", query)
		}
		return b, ok, nil
	}

	results := search.Bookmarks(bookmarks, query)
	switch len(results) {
	case 0:
		fmt.Fprintf(out, "No bookmarks found for '%s'\n", query)
		return model.Bookmark{}, false, nil
	case 1:
		return results[0].Bookmark, true, nil
	}

	program := tea.NewProgram(picker.New(results, query),
		tea.WithContext(cmd.Context()),
		tea.WithInput(g.opts.In),
		tea.WithOutput(g.opts.Err),
	)
	final, err := program.Run()
	if err != nil {
		return model.Bookmark{}, false, fmt.Errorf("run picker: %w", err)
	}
	b, ok := final.(picker.Picker).SelectedBookmark()
	return b, ok, nil
}

func newMvCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <title> <category>",
		Short: "Move a bookmark to another category",
		Long:  "Move a bookmark to another category. The category is created when it does not exist.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.app.Registry.MoveToCategory(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: moved to %s\n", args[0], args[1])
			return nil
		},
	}
}
