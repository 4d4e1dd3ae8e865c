// Package services declares the contracts between the HTTP layer and the
// components behind it.
package services

import (
	"context"

	"github.com/gcbaptista/imagination-concordance/internal/corpus"
	"github.com/gcbaptista/imagination-concordance/internal/dhlab"
	"github.com/gcbaptista/imagination-concordance/internal/filter"
	"github.com/gcbaptista/imagination-concordance/model"
)

// Concordancer sends one request to the concordance API
type Concordancer interface {
	Concordance(ctx context.Context, payload filter.Payload) (*dhlab.ConcordanceResponse, error)
}

// Searcher runs searches on behalf of a session
type Searcher interface {
	Search(ctx context.Context, sessionID string, criteria model.SearchCriteria) (*model.SearchResult, error)
}

// CorpusReader gives read access to the loaded metadata
type CorpusReader interface {
	Loaded() bool
	Len() int
	Authors() []string
	Categories() []string
	Lookup(identifier string) (model.MetadataRecord, error)
}

// CorpusStatus reports the outcome of the corpus load
type CorpusStatus interface {
	Status() corpus.Status
}

// SessionTracker issues sessions and reports their lifecycle state
type SessionTracker interface {
	Ensure(id string) (string, bool)
	Get(id string) (*model.SessionInfo, error)
	Count() int
}

// AnalyticsTracker records search events and aggregates them
type AnalyticsTracker interface {
	TrackSearchEvent(event model.SearchEvent)
	GetDashboardData() model.AnalyticsDashboard
}
