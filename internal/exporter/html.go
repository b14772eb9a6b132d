package exporter

import (
	"fmt"
	"html"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/nikbrunner/nbm/internal/model"
)

// ExportHTML exports entries to Netscape bookmark HTML, one folder per
// category in order of first appearance.
func ExportHTML(entries *model.Entries) string {
	var b strings.Builder

	// Header
	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bookmarks</TITLE>\n")
	b.WriteString("<H1>Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")

	for _, group := range groupByCategory(entries) {
		fmt.Fprintf(&b, "    <DT><H3>%s</H3>\n", html.EscapeString(group.name))
		b.WriteString("    <DL><p>\n")
		for _, bm := range group.bookmarks {
			writeBookmark(&b, bm)
		}
		b.WriteString("    </DL><p>\n")
	}

	// Footer
	b.WriteString("</DL><p>\n")

	return b.String()
}

func writeBookmark(b *strings.Builder, bm model.Bookmark) {
	fmt.Fprintf(b, "        <DT><A HREF=\"%s\" BASE_PATH=\"%s\"",
		html.EscapeString(fileURL(bm.AbsPath)),
		html.EscapeString(bm.BasePath),
	)
	if bm.ActivePath != "" && bm.ActivePath != bm.BasePath {
		fmt.Fprintf(b, " ACTIVE_PATH=\"%s\"", html.EscapeString(bm.ActivePath))
	}
	if bm.Disabled {
		b.WriteString(" DISABLED")
	}
	fmt.Fprintf(b, ">%s</A>\n", html.EscapeString(bm.Title))
}

func fileURL(abs string) string {
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

type categoryGroup struct {
	name      string
	bookmarks []model.Bookmark
}

func groupByCategory(entries *model.Entries) []categoryGroup {
	var groups []categoryGroup
	index := make(map[string]int)
	for _, bm := range entries.Bookmarks() {
		name := model.NormalizeCategory(bm.Category)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, categoryGroup{name: name})
		}
		groups[i].bookmarks = append(groups[i].bookmarks, bm)
	}
	return groups
}
