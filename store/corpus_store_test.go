package store

import (
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "github.com/gcbaptista/imagination-concordance/internal/errors"
	"github.com/gcbaptista/imagination-concordance/model"
)

const arrayCorpus = `{
  "dhlabids": [
    {"urn": "URN:NBN:no-nb_digibok_1", "title": "Fremtidslandet", "author": "Ibsen", "year": 1850, "category": "Utopi"},
    {"urn": "URN:NBN:no-nb_digibok_2", "title": "Reisen", "author": "Bjørnson", "year": "1872", "category": "Reise"},
    {"urn": "URN:NBN:no-nb_digibok_3", "title": "Ukjent", "author": NaN, "year": NaN, "category": NaN},
    {"urn": "URN:NBN:no-nb_digibok_4", "title": "Igjen", "author": "Ibsen", "year": 1890.0, "category": "Utopi"},
    {"title": "No identifier"}
  ]
}`

func TestParseCorpusArray(t *testing.T) {
	idx, err := ParseCorpus([]byte(arrayCorpus))
	require.NoError(t, err)

	require.Equal(t, 4, idx.Len(), "records without identifier are skipped")

	rec, ok := idx.Lookup("URN:NBN:no-nb_digibok_1")
	require.True(t, ok)
	assert.Equal(t, "Fremtidslandet", rec.Title)
	assert.Equal(t, "1850", rec.Year)

	rec, ok = idx.Lookup("URN:NBN:no-nb_digibok_3")
	require.True(t, ok)
	assert.Empty(t, rec.Author, "NaN must normalize to missing")
	assert.Empty(t, rec.Year)
	assert.Empty(t, rec.Category)

	rec, _ = idx.Lookup("URN:NBN:no-nb_digibok_4")
	assert.Equal(t, "1890", rec.Year, "integral floats render as integers")
}

func TestParseCorpusMapVariant(t *testing.T) {
	raw := `{"dhlabids": {
		"b-id": {"title": "Second", "author": "Collett", "year": "1854"},
		"a-id": {"urn": "URN:explicit", "title": "First", "author": "Wergeland"}
	}}`

	idx, err := ParseCorpus([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, 2, idx.Len())

	assert.Equal(t, "URN:explicit", idx.Records[0].Identifier, "explicit identifier wins over map key")
	assert.Equal(t, "b-id", idx.Records[1].Identifier, "map key used when the record has no identifier")
}

func TestParseCorpusFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `this is not json`},
		{name: "top level array", raw: `[{"urn": "x"}]`},
		{name: "missing field", raw: `{"records": []}`},
		{name: "null field", raw: `{"dhlabids": null}`},
		{name: "wrong shape", raw: `{"dhlabids": "URN:1"}`},
		{name: "entries not objects", raw: `{"dhlabids": [1, 2, 3]}`},
		{name: "object valued field", raw: `{"dhlabids": [{"urn": "x", "title": {"nested": true}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := ParseCorpus([]byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, idx)
			assert.True(t, errors.Is(err, internalErrors.ErrCorpusLoad), "expected LoadError, got %v", err)
		})
	}
}

func TestSanitizeNaN(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "no marker", input: `{"a": 1}`, expected: `{"a": 1}`},
		{name: "bare value", input: `{"a": NaN}`, expected: `{"a": null}`},
		{name: "in array", input: `[NaN,NaN]`, expected: `[null,null]`},
		{name: "inside string untouched", input: `{"a": "NaN and NaNa"}`, expected: `{"a": "NaN and NaNa"}`},
		{name: "escaped quote in string", input: `{"a": "say \"NaN\"", "b": NaN}`, expected: `{"a": "say \"NaN\"", "b": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(SanitizeNaN([]byte(tt.input))))
		})
	}
}

func TestUniqueAuthorsSortedAndDeduplicated(t *testing.T) {
	records := []model.MetadataRecord{
		{Identifier: "1", Author: "Wergeland"},
		{Identifier: "2", Author: "Collett"},
		{Identifier: "3", Author: ""},
		{Identifier: "4", Author: "Wergeland"},
		{Identifier: "5", Author: "Amundsen"},
		{Identifier: "6", Author: "Collett"},
	}

	idx := NewCorpusIndex(records)

	assert.Equal(t, []string{"Amundsen", "Collett", "Wergeland"}, idx.Authors)
	assert.True(t, sort.StringsAreSorted(idx.Authors))

	seen := make(map[string]bool)
	for _, a := range idx.Authors {
		assert.False(t, seen[a], "duplicate author %q", a)
		seen[a] = true
	}
}

func TestCorpusStoreLifecycle(t *testing.T) {
	s := NewCorpusStore()
	assert.False(t, s.Loaded())
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Authors())

	// A failed load leaves the store empty
	_, err := s.Load([]byte(`{"nope": []}`))
	require.Error(t, err)
	assert.False(t, s.Loaded())

	idx, err := s.Load([]byte(arrayCorpus))
	require.NoError(t, err)
	assert.True(t, s.Loaded())
	assert.Equal(t, idx, s.Index())
	assert.Equal(t, []string{"Bjørnson", "Ibsen"}, s.Authors())
	assert.Equal(t, []string{"Reise", "Utopi"}, s.Categories())

	// Load once, read many
	_, err = s.Load([]byte(arrayCorpus))
	assert.ErrorIs(t, err, internalErrors.ErrAlreadyLoaded)

	rec, err := s.Lookup("URN:NBN:no-nb_digibok_2")
	require.NoError(t, err)
	assert.Equal(t, "Reisen", rec.Title)

	_, err = s.Lookup("missing")
	assert.ErrorIs(t, err, internalErrors.ErrRecordNotFound)
}

func TestSnapshotRoundTrip(t *testing.T) {
	idx, err := ParseCorpus([]byte(arrayCorpus))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "corpus.snapshot")
	require.NoError(t, SaveSnapshot(path, idx))

	restored, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, idx.Records, restored.Records)
	assert.Equal(t, idx.Authors, restored.Authors)

	rec, ok := restored.Lookup("URN:NBN:no-nb_digibok_2")
	require.True(t, ok)
	assert.Equal(t, "Bjørnson", rec.Author)
}

func TestSaveSnapshotRejectsNilIndex(t *testing.T) {
	err := SaveSnapshot(filepath.Join(t.TempDir(), "x"), nil)
	assert.Error(t, err)
}
