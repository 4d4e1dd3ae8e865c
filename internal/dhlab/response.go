package dhlab

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gcbaptista/imagination-concordance/model"
	"github.com/gcbaptista/imagination-concordance/store"
)

// ConcordanceResponse is the body returned by the concordance endpoint.
// conc maps a result key to highlighted text; urn (or dhlabid) maps the same
// key to the document identifier.
type ConcordanceResponse struct {
	Conc    OrderedMap `json:"conc"`
	URN     OrderedMap `json:"urn"`
	DHLabID OrderedMap `json:"dhlabid"`
}

// Hits returns the concordances in the order the API listed them.
func (r *ConcordanceResponse) Hits() []model.ConcordanceHit {
	if r == nil {
		return nil
	}
	hits := make([]model.ConcordanceHit, 0, r.Conc.Len())
	for _, key := range r.Conc.Keys() {
		text, _ := r.Conc.Get(key)
		id, ok := r.URN.Get(key)
		if !ok {
			id, _ = r.DHLabID.Get(key)
		}
		hits = append(hits, model.ConcordanceHit{Key: key, Text: text, Identifier: id})
	}
	return hits
}

// OrderedMap is a JSON object of scalar values that remembers key order.
// Non-string scalars are kept as their JSON text.
type OrderedMap struct {
	keys   []string
	values map[string]string
}

// NewOrderedMap builds an OrderedMap from alternating key, value pairs.
func NewOrderedMap(pairs ...string) OrderedMap {
	var m OrderedMap
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

// Set adds or replaces a value. Replacing keeps the original position.
func (m *OrderedMap) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key.
func (m OrderedMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m OrderedMap) Keys() []string {
	return m.keys
}

// Len returns the number of entries.
func (m OrderedMap) Len() int {
	return len(m.keys)
}

func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	*m = OrderedMap{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding value for key %q: %w", key, err)
		}
		value, err := scalarText(raw)
		if err != nil {
			return fmt.Errorf("decoding value for key %q: %w", key, err)
		}
		m.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func (m OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func scalarText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("unexpected composite value %s", strings.TrimSpace(string(raw[:min(len(raw), 40)])))
	default:
		// Numbers are keyed the way the corpus keys them.
		return store.NormalizeNumber(string(raw)), nil
	}
}
