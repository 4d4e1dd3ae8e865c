package model

// SearchCriteria holds the user's input for a single search.
type SearchCriteria struct {
	Query      string   `json:"query"`
	Categories []string `json:"categories,omitempty"` // AllCategories means no restriction
	Authors    []string `json:"authors,omitempty"`    // empty means no restriction
	YearMin    int      `json:"year_min"`
	YearMax    int      `json:"year_max"`
}

// ConcordanceHit is one entry of the search API response.
type ConcordanceHit struct {
	Key        string `json:"key"`
	Text       string `json:"text"` // highlighted text, match spans wrapped in <b>
	Identifier string `json:"identifier"`
}

// RenderableHit is a ConcordanceHit joined with its metadata and destination link.
type RenderableHit struct {
	Key             string   `json:"key"`
	Identifier      string   `json:"identifier"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Year            string   `json:"year"`
	Category        string   `json:"category"`
	Text            string   `json:"text"`             // plain text, markup removed
	HighlightedHTML string   `json:"highlighted_html"` // markup as configured by the display mode
	Matches         []string `json:"matches"`
	MatchCount      int      `json:"match_count"`
	Link            string   `json:"link"`
	Known           bool     `json:"known"` // false when placeholders were substituted
}

// SearchResult is the outcome of one search.
type SearchResult struct {
	QueryID    string          `json:"query_id"`
	Query      string          `json:"query"`
	Hits       []RenderableHit `json:"hits"`
	Total      int             `json:"total"`
	Empty      bool            `json:"empty"`      // the API returned no concordances
	Candidates int             `json:"candidates"` // identifiers sent to the API
	Unknown    int             `json:"unknown"`    // hits whose identifier is not in the corpus
	Took       int64           `json:"took"`       // milliseconds
	Cached     bool            `json:"cached"`
}

// LifecycleState is the presentation-visible state of a session's search.
type LifecycleState string

const (
	StateIdle       LifecycleState = "idle"
	StateValidating LifecycleState = "validating"
	StateRequesting LifecycleState = "requesting"
	StateRendering  LifecycleState = "rendering"
	StateError      LifecycleState = "error"
)
