// Package config provides configuration structures for the concordance service.
// It defines server, corpus, search API, filter and display settings and loads
// them from a TOML file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Markup modes for the highlighted concordance text returned to the page.
const (
	MarkupTrusted   = "trusted"   // API markup passed through verbatim
	MarkupSanitized = "sanitized" // API markup re-rendered keeping only <b>
)

// Payload identifier field names accepted by the search API.
const (
	IDFieldURNs     = "urns"
	IDFieldDHLabIDs = "dhlabids"
)

// Settings contains all configuration options for the service.
type Settings struct {
	Server    ServerSettings    `toml:"server" json:"server"`
	Corpus    CorpusSettings    `toml:"corpus" json:"corpus"`
	Search    SearchSettings    `toml:"search" json:"search"`
	Viewer    ViewerSettings    `toml:"viewer" json:"viewer"`
	Filters   FilterSettings    `toml:"filters" json:"filters"`
	Features  FeatureSettings   `toml:"features" json:"features"`
	Display   DisplaySettings   `toml:"display" json:"display"`
	Session   SessionSettings   `toml:"session" json:"session"`
	Analytics AnalyticsSettings `toml:"analytics" json:"analytics"`
	Logging   LoggingSettings   `toml:"logging" json:"logging"`
}

type ServerSettings struct {
	Host         string `toml:"host" json:"host"`
	Port         string `toml:"port" json:"port"`
	MaxBodyBytes int64  `toml:"max_body_bytes" json:"max_body_bytes"` // Upper bound for request bodies
	Mode         string `toml:"mode" json:"mode"`                     // gin mode: debug, release, test
}

type CorpusSettings struct {
	Source                string `toml:"source" json:"source"`                                   // Local path or http(s) URL of the corpus file
	SnapshotPath          string `toml:"snapshot_path" json:"snapshot_path"`                     // Optional compressed copy of the last good corpus
	AllowSnapshotFallback bool   `toml:"allow_snapshot_fallback" json:"allow_snapshot_fallback"` // Use the snapshot when the source is unavailable
}

type SearchSettings struct {
	Endpoint          string   `toml:"endpoint" json:"endpoint"`
	IDField           string   `toml:"id_field" json:"id_field"` // "urns" or "dhlabids"
	Limit             int      `toml:"limit" json:"limit"`
	Window            int      `toml:"window" json:"window"`
	HTMLFormatting    *bool    `toml:"html_formatting" json:"html_formatting"`
	RequestsPerSecond float64  `toml:"requests_per_second" json:"requests_per_second"` // Outbound pacing, 0 disables
	Burst             int      `toml:"burst" json:"burst"`
	Timeout           Duration `toml:"timeout" json:"timeout"` // 0 keeps the transport defaults
	CacheSize         int      `toml:"cache_size" json:"cache_size"`
	MaxInFlight       int      `toml:"max_in_flight" json:"max_in_flight"` // Concordance requests in flight across all sessions
	SkipEmpty         bool     `toml:"skip_empty" json:"skip_empty"`       // Answer locally when no identifier survives filtering
}

type ViewerSettings struct {
	Host string `toml:"host" json:"host"` // Document viewer host used in result links
}

type FilterSettings struct {
	Categories []string `toml:"categories" json:"categories"` // Fixed category list; empty derives it from the corpus
	YearMin    int      `toml:"year_min" json:"year_min"`
	YearMax    int      `toml:"year_max" json:"year_max"`
}

// FeatureSettings toggles the optional filter capabilities of the page.
// Each page variant of the original deployment maps to one combination.
type FeatureSettings struct {
	CategoryFilter bool `toml:"category_filter" json:"category_filter"`
	AuthorFilter   bool `toml:"author_filter" json:"author_filter"`
	YearFilter     bool `toml:"year_filter" json:"year_filter"`
	AuthorSearch   bool `toml:"author_search" json:"author_search"`
}

type DisplaySettings struct {
	MarkupMode string `toml:"markup_mode" json:"markup_mode"`
	Title      string `toml:"title" json:"title"`
}

type SessionSettings struct {
	TTL         Duration `toml:"ttl" json:"ttl"`
	MaxSessions int      `toml:"max_sessions" json:"max_sessions"` // Oldest idle sessions are evicted beyond this
}

type AnalyticsSettings struct {
	DataFile string `toml:"data_file" json:"data_file"` // Empty keeps analytics in memory only
}

type LoggingSettings struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"` // "text" or "json"
}

// Duration wraps time.Duration so it can be written as "30s" in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Default returns settings with every default applied and all filters enabled.
func Default() *Settings {
	s := &Settings{
		Corpus: CorpusSettings{AllowSnapshotFallback: true},
		Features: FeatureSettings{
			CategoryFilter: true,
			AuthorFilter:   true,
			YearFilter:     true,
			AuthorSearch:   true,
		},
	}
	s.ApplyDefaults()
	return s
}

// Load reads settings from a TOML file. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	settings := Default()
	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	settings.ApplyDefaults()

	if problems := settings.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return settings, nil
}

// ApplyDefaults applies default values to unset settings
func (s *Settings) ApplyDefaults() {
	if s.Server.Port == "" {
		s.Server.Port = "8080"
	}
	if s.Server.MaxBodyBytes == 0 {
		s.Server.MaxBodyBytes = 1 << 20
	}
	if s.Server.Mode == "" {
		s.Server.Mode = "release"
	}

	if s.Corpus.Source == "" {
		s.Corpus.Source = "imagination.json"
	}

	if s.Search.Endpoint == "" {
		s.Search.Endpoint = "https://api.nb.no/dhlab/conc"
	}
	if s.Search.IDField == "" {
		s.Search.IDField = IDFieldURNs
	}
	if s.Search.Limit == 0 {
		s.Search.Limit = 1000
	}
	if s.Search.Window == 0 {
		s.Search.Window = 20
	}
	if s.Search.HTMLFormatting == nil {
		enabled := true
		s.Search.HTMLFormatting = &enabled
	}
	if s.Search.Burst == 0 {
		s.Search.Burst = 1
	}
	if s.Search.MaxInFlight == 0 {
		s.Search.MaxInFlight = 8
	}

	if s.Viewer.Host == "" {
		s.Viewer.Host = "www.nb.no"
	}

	if s.Filters.YearMin == 0 && s.Filters.YearMax == 0 {
		s.Filters.YearMin = 1814
		s.Filters.YearMax = 1905
	}
	if s.Filters.Categories == nil {
		s.Filters.Categories = []string{}
	}

	if s.Display.MarkupMode == "" {
		s.Display.MarkupMode = MarkupTrusted
	}
	if s.Display.Title == "" {
		s.Display.Title = "ImagiNation"
	}

	if s.Session.TTL.Duration == 0 {
		s.Session.TTL = Duration{30 * time.Minute}
	}
	if s.Session.MaxSessions == 0 {
		s.Session.MaxSessions = 10000
	}

	if s.Logging.Level == "" {
		s.Logging.Level = "info"
	}
	if s.Logging.Format == "" {
		s.Logging.Format = "text"
	}
}

// Validate checks the settings and returns one message per problem found.
func (s *Settings) Validate() []string {
	var problems []string

	if s.Search.IDField != IDFieldURNs && s.Search.IDField != IDFieldDHLabIDs {
		problems = append(problems, "search.id_field must be '"+IDFieldURNs+"' or '"+IDFieldDHLabIDs+"'")
	}
	if u, err := url.Parse(s.Search.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, "search.endpoint must be an absolute http(s) URL")
	}
	if s.Search.Limit < 0 {
		problems = append(problems, "search.limit cannot be negative")
	}
	if s.Search.Window < 0 {
		problems = append(problems, "search.window cannot be negative")
	}
	if s.Search.RequestsPerSecond < 0 {
		problems = append(problems, "search.requests_per_second cannot be negative")
	}
	if s.Search.CacheSize < 0 {
		problems = append(problems, "search.cache_size cannot be negative")
	}
	if s.Search.MaxInFlight < 0 {
		problems = append(problems, "search.max_in_flight cannot be negative")
	}
	if s.Session.MaxSessions < 0 {
		problems = append(problems, "session.max_sessions cannot be negative")
	}
	if s.Filters.YearMin > s.Filters.YearMax {
		problems = append(problems, fmt.Sprintf("filters.year_min (%d) is greater than filters.year_max (%d)", s.Filters.YearMin, s.Filters.YearMax))
	}
	if s.Display.MarkupMode != MarkupTrusted && s.Display.MarkupMode != MarkupSanitized {
		problems = append(problems, "display.markup_mode must be '"+MarkupTrusted+"' or '"+MarkupSanitized+"'")
	}
	if strings.TrimSpace(s.Viewer.Host) == "" || strings.Contains(s.Viewer.Host, "/") {
		problems = append(problems, "viewer.host must be a bare host name")
	}
	if strings.TrimSpace(s.Corpus.Source) == "" {
		problems = append(problems, "corpus.source cannot be empty")
	}
	switch s.Logging.Format {
	case "text", "json":
	default:
		problems = append(problems, "logging.format must be 'text' or 'json'")
	}

	seen := make(map[string]bool)
	for _, c := range s.Filters.Categories {
		if strings.TrimSpace(c) == "" {
			problems = append(problems, "filters.categories cannot contain empty names")
		}
		if seen[c] {
			problems = append(problems, "Duplicate category '"+c+"' found in filters.categories")
		}
		seen[c] = true
	}

	return problems
}

// Address returns the listen address for the HTTP server.
func (s *Settings) Address() string {
	return s.Server.Host + ":" + s.Server.Port
}
