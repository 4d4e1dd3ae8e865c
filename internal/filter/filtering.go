// Package filter narrows the corpus to the records matching the selected
// facets and builds the payload sent to the concordance API.
package filter

import (
	"strconv"
	"strings"

	"github.com/gcbaptista/imagination-concordance/config"
	"github.com/gcbaptista/imagination-concordance/model"
)

// Facets is the prepared form of SearchCriteria used while scanning records.
type Facets struct {
	allCategories bool
	categories    map[string]struct{}
	authors       map[string]struct{}
	yearMin       int
	yearMax       int
	features      config.FeatureSettings
}

// NewFacets prepares criteria for matching. Disabled features never restrict.
func NewFacets(criteria model.SearchCriteria, features config.FeatureSettings) *Facets {
	f := &Facets{
		categories: make(map[string]struct{}, len(criteria.Categories)),
		authors:    make(map[string]struct{}, len(criteria.Authors)),
		yearMin:    criteria.YearMin,
		yearMax:    criteria.YearMax,
		features:   features,
	}

	// No selection at all is treated like the sentinel
	f.allCategories = len(criteria.Categories) == 0
	for _, c := range criteria.Categories {
		if c == model.AllCategories {
			f.allCategories = true
		}
		f.categories[c] = struct{}{}
	}
	for _, a := range criteria.Authors {
		f.authors[a] = struct{}{}
	}
	return f
}

// Matches reports whether rec passes the category, author and year predicates.
func (f *Facets) Matches(rec model.MetadataRecord) bool {
	return f.matchesCategory(rec) && f.matchesAuthor(rec) && f.matchesYear(rec)
}

func (f *Facets) matchesCategory(rec model.MetadataRecord) bool {
	if !f.features.CategoryFilter || f.allCategories {
		return true
	}
	if !rec.HasCategory() {
		return false
	}
	_, ok := f.categories[rec.Category]
	return ok
}

func (f *Facets) matchesAuthor(rec model.MetadataRecord) bool {
	if !f.features.AuthorFilter || len(f.authors) == 0 {
		return true
	}
	if !rec.HasAuthor() {
		return false
	}
	_, ok := f.authors[rec.Author]
	return ok
}

func (f *Facets) matchesYear(rec model.MetadataRecord) bool {
	if !f.features.YearFilter {
		return true
	}
	year := ParseYear(rec.Year)
	return year >= f.yearMin && year <= f.yearMax
}

// ParseYear reads the leading integer of a year value. Missing or
// non-numeric values parse to 0.
func ParseYear(value string) int {
	value = strings.TrimSpace(value)
	end := 0
	for end < len(value) && (value[end] >= '0' && value[end] <= '9' || (end == 0 && value[end] == '-')) {
		end++
	}
	year, err := strconv.Atoi(value[:end])
	if err != nil {
		return 0
	}
	return year
}
