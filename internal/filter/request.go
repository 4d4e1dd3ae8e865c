package filter

import (
	"encoding/json"
	"strings"

	"github.com/gcbaptista/imagination-concordance/config"
	internalErrors "github.com/gcbaptista/imagination-concordance/internal/errors"
	"github.com/gcbaptista/imagination-concordance/model"
	"github.com/gcbaptista/imagination-concordance/store"
)

// Payload is the body posted to the concordance API.
// The identifier list is serialized under IDField ("urns" or "dhlabids").
type Payload struct {
	IDField        string
	Identifiers    []string
	Query          string
	Limit          int
	Window         int
	HTMLFormatting bool
}

// MarshalJSON writes the payload with its configurable identifier key.
func (p Payload) MarshalJSON() ([]byte, error) {
	ids := p.Identifiers
	if ids == nil {
		ids = []string{}
	}
	idField := p.IDField
	if idField == "" {
		idField = config.IDFieldURNs
	}
	return json.Marshal(map[string]interface{}{
		idField:           ids,
		"query":           p.Query,
		"limit":           p.Limit,
		"window":          p.Window,
		"html_formatting": p.HTMLFormatting,
	})
}

// Request is the outcome of filtering: the surviving identifiers in corpus
// order and the payload to send.
type Request struct {
	Identifiers []string
	Payload     Payload
}

// Builder applies facets to a corpus index and builds search payloads.
type Builder struct {
	search   config.SearchSettings
	features config.FeatureSettings
}

// NewBuilder creates a Builder from the search and feature settings.
func NewBuilder(search config.SearchSettings, features config.FeatureSettings) *Builder {
	return &Builder{search: search, features: features}
}

// Validate runs the local precondition checks without touching the corpus.
func (b *Builder) Validate(idx *store.CorpusIndex, criteria model.SearchCriteria) error {
	if strings.TrimSpace(criteria.Query) == "" {
		return internalErrors.NewValidationError("query", "please enter a search term")
	}
	if idx == nil || idx.Len() == 0 {
		return internalErrors.ErrCorpusNotLoaded
	}
	if b.features.YearFilter && criteria.YearMin > criteria.YearMax {
		return internalErrors.NewValidationError("year_min", "start year is after end year")
	}
	return nil
}

// Build validates criteria, filters idx and returns the request to send.
// It never performs I/O.
func (b *Builder) Build(idx *store.CorpusIndex, criteria model.SearchCriteria) (*Request, error) {
	if err := b.Validate(idx, criteria); err != nil {
		return nil, err
	}

	facets := NewFacets(criteria, b.features)
	identifiers := make([]string, 0, idx.Len())
	for _, rec := range idx.Records {
		if facets.Matches(rec) {
			identifiers = append(identifiers, rec.Identifier)
		}
	}

	htmlFormatting := true
	if b.search.HTMLFormatting != nil {
		htmlFormatting = *b.search.HTMLFormatting
	}

	return &Request{
		Identifiers: identifiers,
		Payload: Payload{
			IDField:        b.search.IDField,
			Identifiers:    identifiers,
			Query:          strings.TrimSpace(criteria.Query),
			Limit:          b.search.Limit,
			Window:         b.search.Window,
			HTMLFormatting: htmlFormatting,
		},
	}, nil
}
