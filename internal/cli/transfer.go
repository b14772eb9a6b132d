package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/nbm/internal/exporter"
)

func newImportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the bookmarks with a JSON or HTML bookmark file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			rep, err := e.app.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d bookmarks from %s\n", rep.After.Len(), args[0])
			printReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
}

func newExportCmd(g *globals) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export the bookmarks as JSON, HTML or YAML",
		Long: `Export the bookmarks. The format is taken from --format, then from the file
extension, and defaults to JSON. Without a path the file is written to
~/Downloads/notebook-bookmarks-<date>.<ext>.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			if format == "" && path != "" {
				format = filepath.Ext(path)
			}
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}

			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			written, err := e.app.Export(cmd.Context(), path, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d bookmarks to %s\n", e.app.Registry.Len(), written)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format: json, html or yaml")
	return cmd
}
