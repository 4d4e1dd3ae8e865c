package model

import "time"

// SearchOutcome classifies how a search ended
type SearchOutcome string

const (
	OutcomeSuccess    SearchOutcome = "success"
	OutcomeEmpty      SearchOutcome = "empty"
	OutcomeValidation SearchOutcome = "validation_error"
	OutcomeTransport  SearchOutcome = "transport_error"
	OutcomeRejected   SearchOutcome = "rejected" // another search was in flight
)

// SearchEvent represents a single search event for analytics tracking
type SearchEvent struct {
	Query        string        `json:"query"`
	Outcome      SearchOutcome `json:"outcome"`
	Candidates   int           `json:"candidates"`
	ResultCount  int           `json:"result_count"`
	Cached       bool          `json:"cached"`
	ResponseTime time.Duration `json:"response_time"`
	Timestamp    time.Time     `json:"timestamp"`
}

// PopularSearch represents aggregated data for popular search terms
type PopularSearch struct {
	Query       string `json:"query"`
	SearchCount int    `json:"search_count"`
}

// AnalyticsDashboard represents the complete analytics dashboard data
type AnalyticsDashboard struct {
	TotalSearches     int             `json:"total_searches"`
	SuccessfulCount   int             `json:"successful_searches"`
	EmptyCount        int             `json:"empty_searches"`
	FailedCount       int             `json:"failed_searches"`
	RejectedCount     int             `json:"rejected_searches"`
	CachedCount       int             `json:"cached_searches"`
	AvgResponseTimeMs float64         `json:"avg_response_time_ms"`
	PopularSearches   []PopularSearch `json:"popular_searches"`
	Last24hSearches   int             `json:"last_24h_searches"`
}
