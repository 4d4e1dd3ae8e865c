package concordance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/imagination-concordance/config"
	"github.com/gcbaptista/imagination-concordance/internal/dhlab"
	"github.com/gcbaptista/imagination-concordance/internal/testutil"
	"github.com/gcbaptista/imagination-concordance/model"
)

func decodeResponse(t *testing.T, body string) *dhlab.ConcordanceResponse {
	t.Helper()
	var resp dhlab.ConcordanceResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	return &resp
}

func TestSingleMatchLink(t *testing.T) {
	matches := ExtractMatches("before <b>Norge</b> after")
	assert.Equal(t, []string{"Norge"}, matches)
	assert.Equal(t, "Norge", Phrase(matches))
	assert.Len(t, matches, 1)

	link := BuildLink("www.nb.no", "URN:NBN:no-nb_digibok_2006081000001", matches)
	assert.Contains(t, link, "searchText=%22Norge%22~1")
	assert.Equal(t, "https://www.nb.no/items/URN:NBN:no-nb_digibok_2006081000001?searchText=%22Norge%22~1", link)
}

func TestExtractMatches(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{name: "no markup", text: "plain text only", expected: []string{}},
		{name: "two spans in order", text: "<b>det</b> gamle <b>Norge</b>", expected: []string{"det", "Norge"}},
		{name: "multi word span", text: "om <b>det nye Norge</b>.", expected: []string{"det nye Norge"}},
		{name: "entities decoded", text: "<b>Bøker &amp; blader</b>", expected: []string{"Bøker & blader"}},
		{name: "empty text", text: "", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractMatches(tt.text))
		})
	}
}

func TestBuildLinkEncoding(t *testing.T) {
	tests := []struct {
		name     string
		matches  []string
		expected string
	}{
		{
			name:     "spaces become %20",
			matches:  []string{"det", "Norge"},
			expected: "https://www.nb.no/items/URN:1?searchText=%22det%20Norge%22~2",
		},
		{
			name:     "non ascii is percent encoded",
			matches:  []string{"Bjørnson"},
			expected: "https://www.nb.no/items/URN:1?searchText=%22Bj%C3%B8rnson%22~1",
		},
		{
			name:     "reserved characters",
			matches:  []string{"a+b&c=(d)"},
			expected: "https://www.nb.no/items/URN:1?searchText=%22a%2Bb%26c%3D(d)%22~1",
		},
		{
			name:     "no matches",
			matches:  []string{},
			expected: "https://www.nb.no/items/URN:1?searchText=%22%22~0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildLink("www.nb.no", "URN:1", tt.matches))
		})
	}
}

func TestMapJoinsMetadataInResponseOrder(t *testing.T) {
	idx := testutil.NewTestIndex(t)
	mapper := NewMapper("www.nb.no", config.MarkupTrusted)

	resp := decodeResponse(t, `{
		"conc": {"5": "om <b>Norge</b> i år 2000", "1": "det <b>nye</b> <b>Norge</b>"},
		"urn": {"5": "`+testutil.WergelandUtopia1890+`", "1": "`+testutil.ColletTravel1868+`"}
	}`)

	results := mapper.Map(idx, resp)
	require.False(t, results.Empty)
	require.Len(t, results.Hits, 2)
	assert.Equal(t, 0, results.Unknown)

	first := results.Hits[0]
	assert.Equal(t, "5", first.Key)
	assert.True(t, first.Known)
	assert.Equal(t, "Aar 2000", first.Title)
	assert.Equal(t, "Wergeland", first.Author)
	assert.Equal(t, "1890", first.Year)
	assert.Equal(t, "Utopi", first.Category)
	assert.Equal(t, "om Norge i år 2000", first.Text)
	assert.Equal(t, "om <b>Norge</b> i år 2000", first.HighlightedHTML)

	second := results.Hits[1]
	assert.Equal(t, []string{"nye", "Norge"}, second.Matches)
	assert.Equal(t, 2, second.MatchCount)
	assert.Contains(t, second.Link, "searchText=%22nye%20Norge%22~2")
}

func TestMapEmptyResponse(t *testing.T) {
	idx := testutil.NewTestIndex(t)
	mapper := NewMapper("www.nb.no", config.MarkupTrusted)

	for _, body := range []string{`{"conc": {}, "urn": {}}`, `{}`, `{"conc": null}`} {
		results := mapper.Map(idx, decodeResponse(t, body))
		assert.True(t, results.Empty, "body %s", body)
		assert.NotNil(t, results.Hits)
		assert.Empty(t, results.Hits)
	}

	results := mapper.Map(idx, nil)
	assert.True(t, results.Empty)
}

func TestMapUnknownIdentifierUsesPlaceholders(t *testing.T) {
	idx := testutil.NewTestIndex(t)
	mapper := NewMapper("www.nb.no", config.MarkupTrusted)

	resp := decodeResponse(t, `{"conc": {"0": "a <b>Norge</b>"}, "urn": {"0": "URN:not-in-corpus"}}`)
	results := mapper.Map(idx, resp)

	require.Len(t, results.Hits, 1)
	hit := results.Hits[0]
	assert.False(t, hit.Known)
	assert.Equal(t, 1, results.Unknown)
	assert.Equal(t, model.UnknownTitle, hit.Title)
	assert.Equal(t, model.UnknownAuthor, hit.Author)
	assert.Equal(t, model.UnknownYear, hit.Year)
	assert.Equal(t, model.UnknownCategory, hit.Category)
	assert.Equal(t, "https://www.nb.no/items/URN:not-in-corpus?searchText=%22Norge%22~1", hit.Link)
}

func TestMapKnownRecordWithMissingFields(t *testing.T) {
	idx := testutil.NewTestIndex(t)
	mapper := NewMapper("www.nb.no", config.MarkupTrusted)

	hit := mapper.MapHit(idx, model.ConcordanceHit{Key: "0", Text: "x", Identifier: testutil.AnonymousNoCategory})
	assert.True(t, hit.Known)
	assert.Equal(t, "Uten forfatter", hit.Title)
	assert.Equal(t, model.UnknownAuthor, hit.Author)
	assert.Equal(t, "1901", hit.Year)
	assert.Equal(t, model.UnknownCategory, hit.Category)
}

func TestMarkupModes(t *testing.T) {
	idx := testutil.NewTestIndex(t)
	text := `før <b>Norge</b><script>alert(1)</script> <i onclick="x()">etter</i>`
	hit := model.ConcordanceHit{Key: "0", Text: text, Identifier: testutil.WergelandUtopia1843}

	trusted := NewMapper("www.nb.no", config.MarkupTrusted).MapHit(idx, hit)
	assert.Equal(t, text, trusted.HighlightedHTML, "trusted mode passes API markup through verbatim")

	sanitized := NewMapper("www.nb.no", config.MarkupSanitized).MapHit(idx, hit)
	assert.Contains(t, sanitized.HighlightedHTML, "<b>Norge</b>")
	assert.NotContains(t, sanitized.HighlightedHTML, "<script>")
	assert.NotContains(t, sanitized.HighlightedHTML, "onclick")
	assert.NotContains(t, sanitized.HighlightedHTML, "<i")

	assert.Equal(t, trusted.Matches, sanitized.Matches, "structured matches do not depend on the markup mode")
}

func TestEncodeURIComponent(t *testing.T) {
	assert.Equal(t, "%22Norge%22", EncodeURIComponent(`"Norge"`))
	assert.Equal(t, "a%20b", EncodeURIComponent("a b"))
	assert.Equal(t, "!'()*-_.~", EncodeURIComponent("!'()*-_.~"))
	assert.Equal(t, "%2F%3F%23", EncodeURIComponent("/?#"))
}
