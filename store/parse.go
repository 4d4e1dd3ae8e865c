package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	internalErrors "github.com/gcbaptista/imagination-concordance/internal/errors"
	"github.com/gcbaptista/imagination-concordance/model"
)

// corpusField is the top-level field holding the corpus records.
const corpusField = "dhlabids"

// nanMarker is the not-a-number literal written by the tooling that exports the corpus.
const nanMarker = "NaN"

// ParseCorpus sanitizes and decodes a raw corpus payload into a CorpusIndex.
// It never returns a partially populated index: any shape problem fails the whole load.
func ParseCorpus(raw []byte) (*CorpusIndex, error) {
	sanitized := SanitizeNaN(raw)

	var top map[string]json.RawMessage
	if err := json.Unmarshal(sanitized, &top); err != nil {
		return nil, internalErrors.NewLoadError("", "payload is not a JSON object", err)
	}

	field, ok := top[corpusField]
	field = bytes.TrimSpace(field)
	if !ok || len(field) == 0 || bytes.Equal(field, []byte("null")) {
		return nil, internalErrors.NewLoadError("", fmt.Sprintf("missing '%s' field", corpusField), nil)
	}

	var records []model.MetadataRecord
	var err error
	switch field[0] {
	case '[':
		records, err = decodeRecordArray(field)
	case '{':
		records, err = decodeRecordMap(field)
	default:
		return nil, internalErrors.NewLoadError("", fmt.Sprintf("'%s' must be an array or an object", corpusField), nil)
	}
	if err != nil {
		return nil, internalErrors.NewLoadError("", fmt.Sprintf("malformed '%s' entries", corpusField), err)
	}

	return NewCorpusIndex(records), nil
}

func decodeRecordArray(data []byte) ([]model.MetadataRecord, error) {
	var raws []rawRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}

	records := make([]model.MetadataRecord, 0, len(raws))
	for _, raw := range raws {
		if rec, ok := raw.toRecord(""); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// decodeRecordMap handles the variant where records are keyed by identifier.
// Entries are ordered by key so the corpus order is stable across loads.
func decodeRecordMap(data []byte) ([]model.MetadataRecord, error) {
	var raws map[string]rawRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(raws))
	for k := range raws {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]model.MetadataRecord, 0, len(raws))
	for _, k := range keys {
		if rec, ok := raws[k].toRecord(k); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// rawRecord mirrors one corpus entry before normalization.
type rawRecord struct {
	URN      flexString `json:"urn"`
	DHLabID  flexString `json:"dhlabid"`
	Title    flexString `json:"title"`
	Author   flexString `json:"author"`
	Authors  flexString `json:"authors"`
	Year     flexString `json:"year"`
	Category flexString `json:"category"`
}

func (r rawRecord) toRecord(fallbackID string) (model.MetadataRecord, bool) {
	id := firstNonEmpty(string(r.URN), string(r.DHLabID), fallbackID)
	if id == "" {
		return model.MetadataRecord{}, false
	}
	return model.MetadataRecord{
		Identifier: id,
		Title:      string(r.Title),
		Author:     firstNonEmpty(string(r.Author), string(r.Authors)),
		Year:       string(r.Year),
		Category:   string(r.Category),
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// flexString accepts strings, numbers, booleans, string lists and null.
// null and the NaN marker become the empty string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == nanMarker {
			s = ""
		}
		*f = flexString(s)
	case '[':
		var parts []flexString
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p != "" {
				values = append(values, string(p))
			}
		}
		*f = flexString(strings.Join(values, ", "))
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*f = flexString(strconv.FormatBool(b))
	case '{':
		return fmt.Errorf("unexpected object value %s", truncate(string(data), 40))
	default:
		*f = flexString(NormalizeNumber(string(data)))
	}
	return nil
}

// NormalizeNumber renders integral floats such as 1850.0 or 1.00000001e8 as
// plain integers. Other text is returned unchanged.
func NormalizeNumber(text string) string {
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return text
	}
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return text
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// SanitizeNaN rewrites bare NaN literals outside string values to null so the
// payload becomes valid JSON. String contents are left untouched.
func SanitizeNaN(raw []byte) []byte {
	if !bytes.Contains(raw, []byte(nanMarker)) {
		return raw
	}

	out := make([]byte, 0, len(raw))
	inString := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}

		if bytes.HasPrefix(raw[i:], []byte(nanMarker)) && isTokenBoundary(raw, i+len(nanMarker)) {
			out = append(out, "null"...)
			i += len(nanMarker) - 1
			continue
		}
		out = append(out, c)
	}
	return out
}

func isTokenBoundary(raw []byte, pos int) bool {
	if pos >= len(raw) {
		return true
	}
	switch raw[pos] {
	case ',', '}', ']', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
