// Package concordance joins concordance hits with corpus metadata and builds
// the deep links into the document viewer.
package concordance

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/gcbaptista/imagination-concordance/config"
	"github.com/gcbaptista/imagination-concordance/internal/dhlab"
	"github.com/gcbaptista/imagination-concordance/model"
	"github.com/gcbaptista/imagination-concordance/store"
)

// MappedResults is the mapper's output for one API response.
type MappedResults struct {
	Hits    []model.RenderableHit
	Empty   bool // the response carried no concordances
	Unknown int  // hits whose identifier is not in the corpus
}

// Mapper turns API responses into renderable hits.
type Mapper struct {
	viewerHost string
	markupMode string
	policy     *bluemonday.Policy
}

// NewMapper creates a Mapper for the given viewer host and markup mode.
func NewMapper(viewerHost, markupMode string) *Mapper {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("b")

	return &Mapper{
		viewerHost: viewerHost,
		markupMode: markupMode,
		policy:     policy,
	}
}

// Map joins every hit of resp with its metadata, in the response's key order.
// An identifier missing from idx is not an error: placeholders are used instead.
func (m *Mapper) Map(idx *store.CorpusIndex, resp *dhlab.ConcordanceResponse) *MappedResults {
	hits := resp.Hits()
	if len(hits) == 0 {
		return &MappedResults{Hits: []model.RenderableHit{}, Empty: true}
	}

	results := &MappedResults{Hits: make([]model.RenderableHit, 0, len(hits))}
	for _, hit := range hits {
		rendered := m.MapHit(idx, hit)
		if !rendered.Known {
			results.Unknown++
		}
		results.Hits = append(results.Hits, rendered)
	}
	return results
}

// MapHit maps a single hit.
func (m *Mapper) MapHit(idx *store.CorpusIndex, hit model.ConcordanceHit) model.RenderableHit {
	fragment := parseFragment(hit.Text)
	matches := extractMatches(fragment)

	rendered := model.RenderableHit{
		Key:             hit.Key,
		Identifier:      hit.Identifier,
		Title:           model.UnknownTitle,
		Author:          model.UnknownAuthor,
		Year:            model.UnknownYear,
		Category:        model.UnknownCategory,
		Text:            plainText(fragment, hit.Text),
		HighlightedHTML: m.highlight(hit.Text),
		Matches:         matches,
		MatchCount:      len(matches),
		Link:            BuildLink(m.viewerHost, hit.Identifier, matches),
	}

	if rec, ok := idx.Lookup(hit.Identifier); ok {
		rendered.Known = true
		rendered.Title = valueOr(rec.Title, model.UnknownTitle)
		rendered.Author = valueOr(rec.Author, model.UnknownAuthor)
		rendered.Year = valueOr(rec.Year, model.UnknownYear)
		rendered.Category = valueOr(rec.Category, model.UnknownCategory)
	}
	return rendered
}

func (m *Mapper) highlight(text string) string {
	if m.markupMode == config.MarkupSanitized {
		return m.policy.Sanitize(text)
	}
	return text
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// ExtractMatches returns the inner text of every <b> span of text, in document order.
func ExtractMatches(text string) []string {
	return extractMatches(parseFragment(text))
}

func parseFragment(text string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil
	}
	return doc
}

func extractMatches(doc *goquery.Document) []string {
	matches := []string{}
	if doc == nil {
		return matches
	}
	doc.Find("b").Each(func(_ int, s *goquery.Selection) {
		matches = append(matches, s.Text())
	})
	return matches
}

func plainText(doc *goquery.Document, fallback string) string {
	if doc == nil {
		return fallback
	}
	return doc.Text()
}

// Phrase joins matches with single spaces.
func Phrase(matches []string) string {
	return strings.Join(matches, " ")
}

// BuildLink composes the viewer URL for identifier, asking the viewer to
// highlight the quoted match phrase. The trailing ~N carries the match count.
func BuildLink(host, identifier string, matches []string) string {
	searchText := EncodeURIComponent(`"` + Phrase(matches) + `"`)
	return fmt.Sprintf("https://%s/items/%s?searchText=%s~%d", host, url.PathEscape(identifier), searchText, len(matches))
}

// uriComponentUnescapes restores the characters encodeURIComponent leaves as-is
// but url.QueryEscape encodes.
var uriComponentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent escapes s the way the viewer expects query values:
// spaces become %20 and the marks !'()* stay literal.
func EncodeURIComponent(s string) string {
	return uriComponentUnescapes.Replace(url.QueryEscape(s))
}
