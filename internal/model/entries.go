package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entries is an ordered map of title to Bookmark.
// Enumeration follows insertion order; overwriting keeps the original slot.
type Entries struct {
	order   []string
	byTitle map[string]Bookmark
}

// NewEntries creates Entries keyed by each bookmark's title.
func NewEntries(bookmarks ...Bookmark) *Entries {
	e := &Entries{byTitle: make(map[string]Bookmark, len(bookmarks))}
	for _, b := range bookmarks {
		e.Set(b.Title, b)
	}
	return e
}

// Len returns the number of entries.
func (e *Entries) Len() int {
	if e == nil {
		return 0
	}
	return len(e.order)
}

// Get returns the bookmark stored under title.
func (e *Entries) Get(title string) (Bookmark, bool) {
	if e == nil {
		return Bookmark{}, false
	}
	b, ok := e.byTitle[title]
	return b, ok
}

// Has reports whether title is present.
func (e *Entries) Has(title string) bool {
	_, ok := e.Get(title)
	return ok
}

// Set inserts or replaces the bookmark under title.
func (e *Entries) Set(title string, b Bookmark) {
	if e.byTitle == nil {
		e.byTitle = make(map[string]Bookmark)
	}
	if _, ok := e.byTitle[title]; !ok {
		e.order = append(e.order, title)
	}
	e.byTitle[title] = b
}

// Delete removes title. Returns false if it was absent.
func (e *Entries) Delete(title string) bool {
	if e == nil {
		return false
	}
	if _, ok := e.byTitle[title]; !ok {
		return false
	}
	delete(e.byTitle, title)
	for i, t := range e.order {
		if t == title {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return true
}

// Titles returns the keys in enumeration order.
func (e *Entries) Titles() []string {
	if e == nil {
		return nil
	}
	titles := make([]string, len(e.order))
	copy(titles, e.order)
	return titles
}

// Bookmarks returns the values in enumeration order.
func (e *Entries) Bookmarks() []Bookmark {
	if e == nil {
		return nil
	}
	result := make([]Bookmark, 0, len(e.order))
	for _, t := range e.order {
		result = append(result, e.byTitle[t])
	}
	return result
}

// Clone returns a deep copy.
func (e *Entries) Clone() *Entries {
	c := &Entries{byTitle: make(map[string]Bookmark, e.Len())}
	if e == nil {
		return c
	}
	c.order = append(c.order, e.order...)
	for k, v := range e.byTitle {
		c.byTitle[k] = v
	}
	return c
}

// CompareMaps reports whether a and b hold the same titles with equal bookmarks.
// Order is irrelevant.
func CompareMaps(a, b *Entries) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, title := range a.Titles() {
		left, _ := a.Get(title)
		right, ok := b.Get(title)
		if !ok || !left.Equal(right) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes entries as an array of [title, record] pairs.
func (e *Entries) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, 0, e.Len())
	if e != nil {
		for _, t := range e.order {
			pairs = append(pairs, [2]any{t, e.byTitle[t]})
		}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON decodes an array of [title, record] pairs. The pair's title
// wins over the record's, so every entry is keyed by its own Title.
func (e *Entries) UnmarshalJSON(data []byte) error {
	e.order = nil
	e.byTitle = make(map[string]Bookmark)
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var pairs []json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	for i, raw := range pairs {
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("entry %d: expected [title, bookmark] pair, got %d elements", i, len(pair))
		}
		var title string
		if err := json.Unmarshal(pair[0], &title); err != nil {
			return fmt.Errorf("entry %d title: %w", i, err)
		}
		var b Bookmark
		if err := json.Unmarshal(pair[1], &b); err != nil {
			return fmt.Errorf("entry %d bookmark: %w", i, err)
		}
		b.Title = title
		e.Set(title, b)
	}
	return nil
}

// Document is the import/export blob and the settings file layout.
type Document struct {
	Version   int      `json:"version,omitempty" yaml:"version,omitempty"`
	Bookmarks *Entries `json:"bookmarks" yaml:"-"`
}

// CurrentDocumentVersion is written by exporters.
const CurrentDocumentVersion = 1
