package exporter_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/golden"

	"github.com/nikbrunner/nbm/internal/exporter"
	"github.com/nikbrunner/nbm/internal/importer"
	"github.com/nikbrunner/nbm/internal/model"
)

func fixture() *model.Entries {
	return model.NewEntries(
		model.Bookmark{
			Title:      "report.ipynb",
			BasePath:   "work/report.ipynb",
			AbsPath:    "/data/work/report.ipynb",
			ActivePath: "work/report.ipynb",
			Category:   "Work",
		},
		model.Bookmark{
			Title:      "R&D.ipynb",
			BasePath:   "R&D.ipynb",
			AbsPath:    "/data/R&D.ipynb",
			ActivePath: "R&D.ipynb",
		},
		model.Bookmark{
			Title:      "shared.ipynb",
			BasePath:   "shared.ipynb",
			AbsPath:    "/mnt/shared/shared.ipynb",
			ActivePath: ".tmp/shared.ipynb",
			Disabled:   true,
			Category:   "Work",
		},
	)
}

func TestExportHTML_Golden(t *testing.T) {
	golden.Assert(t, exporter.ExportHTML(fixture()), "export.html.golden")
}

func TestExportHTML_Empty(t *testing.T) {
	html := exporter.ExportHTML(model.NewEntries())

	assert.Assert(t, strings.HasPrefix(html, "<!DOCTYPE NETSCAPE-Bookmark-file-1>\n"))
	assert.Assert(t, !strings.Contains(html, "<H3>"))
}

func TestExportHTML_ImportsBack(t *testing.T) {
	entries := fixture()
	html := exporter.ExportHTML(entries)

	imported, err := importer.ParseHTML(strings.NewReader(html))
	assert.NilError(t, err)

	// categories come back normalized
	want := entries.Clone()
	b, _ := want.Get("R&D.ipynb")
	b.Category = model.DefaultCategory
	want.Set(b.Title, b)

	assert.Assert(t, model.CompareMaps(want, imported))
}

func TestExportJSON_IsImportable(t *testing.T) {
	data, err := exporter.ExportJSON(fixture())
	assert.NilError(t, err)

	doc, err := importer.ReadJSON(bytes.NewReader(data))
	assert.NilError(t, err)
	assert.Equal(t, doc.Version, model.CurrentDocumentVersion)
	assert.DeepEqual(t, doc.Bookmarks.Titles(), []string{"report.ipynb", "R&D.ipynb", "shared.ipynb"})
}

func TestExportYAML(t *testing.T) {
	data, err := exporter.ExportYAML(fixture())
	assert.NilError(t, err)

	var doc struct {
		Version    int `yaml:"version"`
		Categories []struct {
			Name      string `yaml:"name"`
			Bookmarks []struct {
				Title      string `yaml:"title"`
				ActivePath string `yaml:"active_path"`
				Disabled   bool   `yaml:"disabled"`
			} `yaml:"bookmarks"`
		} `yaml:"categories"`
	}
	assert.NilError(t, yaml.Unmarshal(data, &doc))

	assert.Equal(t, doc.Version, 1)
	assert.Equal(t, len(doc.Categories), 2)
	assert.Equal(t, doc.Categories[0].Name, "Work")
	assert.Equal(t, doc.Categories[1].Name, model.DefaultCategory)

	work := doc.Categories[0].Bookmarks
	assert.Equal(t, len(work), 2)
	assert.Equal(t, work[0].ActivePath, "")
	assert.Equal(t, work[1].ActivePath, ".tmp/shared.ipynb")
	assert.Assert(t, work[1].Disabled)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want exporter.Format
	}{
		{"", exporter.FormatJSON},
		{"JSON", exporter.FormatJSON},
		{".html", exporter.FormatHTML},
		{"htm", exporter.FormatHTML},
		{"yml", exporter.FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := exporter.ParseFormat(tt.in)
			assert.NilError(t, err)
			assert.Equal(t, got, tt.want)
		})
	}

	_, err := exporter.ParseFormat("csv")
	assert.Assert(t, errors.Is(err, exporter.ErrUnknownFormat))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.html")

	assert.NilError(t, exporter.WriteFile(path, exporter.FormatHTML, fixture()))

	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, string(data), exporter.ExportHTML(fixture()))

	err = exporter.WriteFile(path, exporter.Format("csv"), fixture())
	assert.Assert(t, errors.Is(err, exporter.ErrUnknownFormat))
}
