package importer

import (
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/nikbrunner/nbm/internal/model"
)

// ParseHTML parses Netscape bookmark HTML. Folders become categories (nested
// folders keep the innermost name) and only file:// links are imported.
// Duplicate titles get a "_(n)" suffix.
func ParseHTML(r io.Reader) (*model.Entries, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	entries := model.NewEntries()

	// Track current folder stack for categories
	var folderStack []string
	var pendingFolder string // folder waiting to be pushed on next DL

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				pendingFolder = getTextContent(n)
				return

			case "a":
				abs, ok := filePath(getAttr(n, "href"))
				if !ok {
					return
				}

				title := getTextContent(n)
				if title == "" {
					title = filepath.Base(abs)
				}

				category := ""
				if len(folderStack) > 0 {
					category = folderStack[len(folderStack)-1]
				}

				basePath := getAttr(n, "base_path")
				if basePath == "" {
					basePath = filepath.Base(abs)
				}

				b := model.NewBookmark(model.NewBookmarkParams{
					Title:    title,
					BasePath: basePath,
					AbsPath:  abs,
					Category: category,
				})
				if active := getAttr(n, "active_path"); active != "" {
					b.ActivePath = active
				}
				b.Disabled = hasAttr(n, "disabled")

				b.Title = uniqueTitle(entries, title)
				entries.Set(b.Title, b)
				return

			case "dl":
				// If we have a pending folder, push it now
				pushedFolder := false
				if pendingFolder != "" {
					folderStack = append(folderStack, pendingFolder)
					pendingFolder = ""
					pushedFolder = true
				}

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}

				if pushedFolder {
					folderStack = folderStack[:len(folderStack)-1]
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	return entries, nil
}

// filePath extracts the local path of a file:// link.
func filePath(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

func uniqueTitle(entries *model.Entries, title string) string {
	if !entries.Has(title) {
		return title
	}
	for n := 1; ; n++ {
		candidate := model.DisambiguateTitle(title, n)
		if !entries.Has(candidate) {
			return candidate
		}
	}
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return true
		}
	}
	return false
}
