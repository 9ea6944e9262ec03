package msgcat_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/bake/internal/compilers/msgcat"
	"go.trai.ch/zerr"
)

func TestAddMergesSingularAndPlural(t *testing.T) {
	c := msgcat.NewCatalog()
	require.NoError(t, c.Add(msgcat.Entry{
		ID:          "apple",
		Occurrences: []string{"b.go:2"},
		Comments:    []string{"fruit"},
	}))
	require.NoError(t, c.Add(msgcat.Entry{
		ID:          "apple",
		PluralID:    "apples",
		Occurrences: []string{"a.go:1"},
		Flags:       []string{"go-format"},
	}))

	entries := c.Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "apples", e.PluralID, "plural variant wins")
	assert.Equal(t, []string{"a.go:1", "b.go:2"}, e.Occurrences, "occurrences unioned and sorted")
	assert.Equal(t, []string{"fruit"}, e.Comments)
	assert.Equal(t, []string{"go-format"}, e.Flags)
}

func TestAddConflictingPluralsFails(t *testing.T) {
	c := msgcat.NewCatalog()
	require.NoError(t, c.Add(msgcat.Entry{ID: "apple", PluralID: "apples"}))

	err := c.Add(msgcat.Entry{ID: "apple", PluralID: "appless"})
	require.Error(t, err)
	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, "appless", zErr.Metadata()["plural_b"])
}

func TestAddDeduplicatesOccurrences(t *testing.T) {
	c := msgcat.NewCatalog()
	require.NoError(t, c.Add(msgcat.Entry{ID: "x", Occurrences: []string{"a.go:1"}}))
	require.NoError(t, c.Add(msgcat.Entry{ID: "x", Occurrences: []string{"a.go:1"}}))

	assert.Equal(t, []string{"a.go:1"}, c.Entries()[0].Occurrences)
}

func TestMergeCatalogs(t *testing.T) {
	a := msgcat.NewCatalog()
	require.NoError(t, a.Add(msgcat.Entry{ID: "one"}))
	b := msgcat.NewCatalog()
	require.NoError(t, b.Add(msgcat.Entry{ID: "two"}))
	require.NoError(t, b.Add(msgcat.Entry{ID: "one", Str: "eins"}))

	require.NoError(t, a.Merge(b))
	entries := a.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "eins", entries[0].Str)
	assert.Equal(t, "two", entries[1].ID)
}

func TestWriteAndParse(t *testing.T) {
	c := msgcat.NewCatalog()
	require.NoError(t, c.Add(msgcat.Entry{ID: "apple", PluralID: "apples", Occurrences: []string{"a.go:1"}}))

	var buf strings.Builder
	require.NoError(t, c.WriteTo(&buf))

	parsed, err := msgcat.Parse([]byte(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, c.Entries(), parsed.Entries())
}
