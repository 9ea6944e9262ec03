// Package msgcat extracts translation strings from source files and
// merges them into catalog files.
package msgcat

import (
	"encoding/json"
	"io"
	"slices"
	"sort"

	"go.trai.ch/zerr"
)

// Entry is one translatable string.
type Entry struct {
	ID          string   `json:"id"`
	PluralID    string   `json:"plural_id,omitempty"`
	Str         string   `json:"str,omitempty"`
	PluralStrs  []string `json:"plural_strs,omitempty"`
	Occurrences []string `json:"occurrences,omitempty"`
	Comments    []string `json:"comments,omitempty"`
	Flags       []string `json:"flags,omitempty"`
}

// Catalog accumulates entries keyed by message ID.
type Catalog struct {
	entries map[string]*Entry
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]*Entry)}
}

// Add merges e into the catalog. Two entries for the same ID merge as
// long as their plural IDs agree or one side has none; the plural
// variant wins, and occurrences, comments and flags are unioned. Two
// different plural IDs for one message are unresolvable.
func (c *Catalog) Add(e Entry) error {
	existing, ok := c.entries[e.ID]
	if !ok {
		stored := e
		stored.PluralStrs = slices.Clone(e.PluralStrs)
		stored.Occurrences = sortedUnique(e.Occurrences)
		stored.Comments = sortedUnique(e.Comments)
		stored.Flags = sortedUnique(e.Flags)
		c.entries[e.ID] = &stored
		return nil
	}

	if existing.PluralID != "" && e.PluralID != "" && existing.PluralID != e.PluralID {
		err := zerr.With(zerr.New("conflicting plural forms for message"), "id", e.ID)
		return zerr.With(zerr.With(err, "plural_a", existing.PluralID), "plural_b", e.PluralID)
	}
	if e.PluralID != "" {
		existing.PluralID = e.PluralID
		if len(e.PluralStrs) > 0 {
			existing.PluralStrs = slices.Clone(e.PluralStrs)
		}
	}
	if existing.Str == "" {
		existing.Str = e.Str
	}
	existing.Occurrences = sortedUnique(append(existing.Occurrences, e.Occurrences...))
	existing.Comments = sortedUnique(append(existing.Comments, e.Comments...))
	existing.Flags = sortedUnique(append(existing.Flags, e.Flags...))
	return nil
}

// Merge adds every entry of other.
func (c *Catalog) Merge(other *Catalog) error {
	for _, e := range other.Entries() {
		if err := c.Add(e); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of distinct message IDs.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns the entries sorted by ID.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WriteTo serializes the catalog.
func (c *Catalog) WriteTo(w io.Writer) error {
	data, err := json.MarshalIndent(c.Entries(), "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal catalog")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return zerr.Wrap(err, "failed to write catalog")
	}
	return nil
}

// Parse reads a catalog serialized by WriteTo.
func Parse(data []byte) (*Catalog, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, zerr.Wrap(err, "failed to parse catalog")
	}
	c := NewCatalog()
	for _, e := range entries {
		if err := c.Add(e); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
