package filter

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/imagination-concordance/config"
	internalErrors "github.com/gcbaptista/imagination-concordance/internal/errors"
	"github.com/gcbaptista/imagination-concordance/internal/testutil"
	"github.com/gcbaptista/imagination-concordance/model"
	"github.com/gcbaptista/imagination-concordance/store"
)

var allFeatures = config.FeatureSettings{CategoryFilter: true, AuthorFilter: true, YearFilter: true}

func TestParseYear(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"1850", 1850},
		{" 1872 ", 1872},
		{"1850.0", 1850},
		{"1850-1860", 1850},
		{"", 0},
		{"ukjent", 0},
		{"ca. 1850", 0},
		{"-", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseYear(tt.input))
		})
	}
}

func TestIdentityFilter(t *testing.T) {
	records := []model.MetadataRecord{
		{Identifier: "1", Author: "A", Year: "1814", Category: "Utopi"},
		{Identifier: "2", Author: "", Year: "1850", Category: ""},
		{Identifier: "3", Author: "B", Year: "1905", Category: "Reise"},
	}
	facets := NewFacets(model.SearchCriteria{
		Categories: []string{model.AllCategories},
		YearMin:    1814,
		YearMax:    1905,
	}, allFeatures)

	for _, rec := range records {
		assert.True(t, facets.Matches(rec), "record %s should pass the identity filter", rec.Identifier)
	}
}

func TestMissingYearTreatedAsZero(t *testing.T) {
	facets := NewFacets(model.SearchCriteria{YearMin: 1, YearMax: 3000}, allFeatures)

	for _, year := range []string{"", "ukjent", "NaN-ish"} {
		assert.False(t, facets.Matches(model.MetadataRecord{Identifier: "x", Year: year}), "year %q", year)
	}

	zeroRange := NewFacets(model.SearchCriteria{YearMin: 0, YearMax: 1905}, allFeatures)
	assert.True(t, zeroRange.Matches(model.MetadataRecord{Identifier: "x"}), "missing year is 0 and inside [0, 1905]")
}

func TestFacetPredicates(t *testing.T) {
	rec := model.MetadataRecord{Identifier: "x", Author: "Collett", Year: "1868", Category: "Reise"}
	noCategory := model.MetadataRecord{Identifier: "y", Author: "Collett", Year: "1868"}
	noAuthor := model.MetadataRecord{Identifier: "z", Year: "1868", Category: "Reise"}

	tests := []struct {
		name     string
		criteria model.SearchCriteria
		features config.FeatureSettings
		record   model.MetadataRecord
		expected bool
	}{
		{
			name:     "selected category matches",
			criteria: model.SearchCriteria{Categories: []string{"Reise"}, YearMin: 1800, YearMax: 1900},
			features: allFeatures,
			record:   rec,
			expected: true,
		},
		{
			name:     "other category excluded",
			criteria: model.SearchCriteria{Categories: []string{"Utopi"}, YearMin: 1800, YearMax: 1900},
			features: allFeatures,
			record:   rec,
			expected: false,
		},
		{
			name:     "sentinel among selections admits all",
			criteria: model.SearchCriteria{Categories: []string{"Utopi", model.AllCategories}, YearMin: 1800, YearMax: 1900},
			features: allFeatures,
			record:   rec,
			expected: true,
		},
		{
			name:     "missing category excluded when restricted",
			criteria: model.SearchCriteria{Categories: []string{"Reise"}, YearMin: 1800, YearMax: 1900},
			features: allFeatures,
			record:   noCategory,
			expected: false,
		},
		{
			name:     "selected author matches",
			criteria: model.SearchCriteria{Authors: []string{"Collett", "Ibsen"}, YearMin: 1800, YearMax: 1900},
			features: allFeatures,
			record:   rec,
			expected: true,
		},
		{
			name:     "other author excluded",
			criteria: model.SearchCriteria{Authors: []string{"Ibsen"}, YearMin: 1800, YearMax: 1900},
			features: allFeatures,
			record:   rec,
			expected: false,
		},
		{
			name:     "missing author excluded when restricted",
			criteria: model.SearchCriteria{Authors: []string{"Collett"}, YearMin: 1800, YearMax: 1900},
			features: allFeatures,
			record:   noAuthor,
			expected: false,
		},
		{
			name:     "year bounds are inclusive",
			criteria: model.SearchCriteria{YearMin: 1868, YearMax: 1868},
			features: allFeatures,
			record:   rec,
			expected: true,
		},
		{
			name:     "year outside range",
			criteria: model.SearchCriteria{YearMin: 1869, YearMax: 1900},
			features: allFeatures,
			record:   rec,
			expected: false,
		},
		{
			name:     "disabled filters never restrict",
			criteria: model.SearchCriteria{Categories: []string{"Utopi"}, Authors: []string{"Ibsen"}, YearMin: 1900, YearMax: 1950},
			features: config.FeatureSettings{},
			record:   rec,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewFacets(tt.criteria, tt.features).Matches(tt.record))
		})
	}
}

func newTestBuilder(idField string) *Builder {
	settings := config.Default()
	settings.Search.IDField = idField
	return NewBuilder(settings.Search, settings.Features)
}

func TestBuildRequest(t *testing.T) {
	idx := testutil.NewTestIndex(t)
	builder := newTestBuilder(config.IDFieldURNs)

	req, err := builder.Build(idx, model.SearchCriteria{
		Query:      "  Norge ",
		Categories: []string{"Utopi"},
		Authors:    []string{"Wergeland"},
		YearMin:    1814,
		YearMax:    1905,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{testutil.WergelandUtopia1843, testutil.WergelandUtopia1890}, req.Identifiers)
	assert.Equal(t, "Norge", req.Payload.Query)
	assert.Equal(t, 1000, req.Payload.Limit)
	assert.Equal(t, 20, req.Payload.Window)
	assert.True(t, req.Payload.HTMLFormatting)

	body, err := json.Marshal(req.Payload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "Norge", decoded["query"])
	assert.Equal(t, float64(1000), decoded["limit"])
	assert.Equal(t, float64(20), decoded["window"])
	assert.Equal(t, true, decoded["html_formatting"])
	assert.Len(t, decoded["urns"], 2)
	assert.NotContains(t, decoded, "dhlabids")
}

func TestBuildRequestDHLabIDField(t *testing.T) {
	idx := testutil.NewTestIndex(t)
	builder := newTestBuilder(config.IDFieldDHLabIDs)

	req, err := builder.Build(idx, model.SearchCriteria{
		Query:      "fremtid",
		Categories: []string{model.AllCategories},
		YearMin:    1814,
		YearMax:    1905,
	})
	require.NoError(t, err)

	body, err := json.Marshal(req.Payload)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"dhlabids":[`)
	// The record without a year parses to 0 and falls outside the range
	assert.NotContains(t, req.Identifiers, testutil.AmundsenNoYear)
	assert.Len(t, req.Identifiers, 4)
}

func TestBuildRequestEmptyResultSetStillBuilds(t *testing.T) {
	idx := testutil.NewTestIndex(t)
	req, err := newTestBuilder(config.IDFieldURNs).Build(idx, model.SearchCriteria{
		Query:   "Norge",
		Authors: []string{"Nobody"},
		YearMin: 1814,
		YearMax: 1905,
	})
	require.NoError(t, err)
	assert.Empty(t, req.Identifiers)

	body, err := json.Marshal(req.Payload)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"urns":[]`)
}

func TestBuildRequestValidation(t *testing.T) {
	idx := testutil.NewTestIndex(t)
	builder := newTestBuilder(config.IDFieldURNs)

	tests := []struct {
		name     string
		index    *store.CorpusIndex
		criteria model.SearchCriteria
		sentinel error
	}{
		{
			name:     "empty query",
			index:    idx,
			criteria: model.SearchCriteria{Query: "", YearMin: 1814, YearMax: 1905},
			sentinel: internalErrors.ErrInvalidInput,
		},
		{
			name:     "whitespace query",
			index:    idx,
			criteria: model.SearchCriteria{Query: "   ", YearMin: 1814, YearMax: 1905},
			sentinel: internalErrors.ErrInvalidInput,
		},
		{
			name:     "corpus not loaded",
			index:    nil,
			criteria: model.SearchCriteria{Query: "Norge", YearMin: 1814, YearMax: 1905},
			sentinel: internalErrors.ErrCorpusNotLoaded,
		},
		{
			name:     "empty corpus",
			index:    store.NewCorpusIndex(nil),
			criteria: model.SearchCriteria{Query: "Norge", YearMin: 1814, YearMax: 1905},
			sentinel: internalErrors.ErrCorpusNotLoaded,
		},
		{
			name:     "inverted year range",
			index:    idx,
			criteria: model.SearchCriteria{Query: "Norge", YearMin: 1900, YearMax: 1850},
			sentinel: internalErrors.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := builder.Build(tt.index, tt.criteria)
			require.Error(t, err)
			assert.Nil(t, req)
			assert.True(t, errors.Is(err, tt.sentinel), "expected %v, got %v", tt.sentinel, err)
		})
	}
}
