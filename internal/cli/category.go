package cli

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/nbm/internal/model"
)

func newCategoryCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage bookmark categories",
	}
	cmd.AddCommand(newCategoryAddCmd(g), newCategoryRmCmd(g), newCategoryLsCmd(g))
	return cmd
}

func newCategoryAddCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Long: `Add a category. Categories only live for the current session unless a
bookmark is filed under them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.app.Registry.AddCategory(args[0], false); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: added\n", args[0])
			return nil
		},
	}
}

func newCategoryRmCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a category, moving its bookmarks to " + model.DefaultCategory,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			moved := len(e.app.Registry.Members(args[0]))
			if err := e.app.Registry.DeleteCategory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: deleted (%d bookmarks moved to %s)\n", args[0], moved, model.DefaultCategory)
			return nil
		},
	}
}

func newCategoryLsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List categories and their bookmark counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(headerColor.Sprint("CATEGORY"), headerColor.Sprint("BOOKMARKS"))
			for _, name := range e.app.Registry.Categories() {
				tbl.AddRow(name, len(e.app.Registry.Members(name)))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return err
		},
	}
}
