// Package testutil provides fixtures and fakes shared by the package tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/imagination-concordance/store"
)

// CorpusJSON is a small corpus in the shape served by the corpus host,
// including the NaN markers the export tooling writes for missing values.
const CorpusJSON = `{
  "dhlabids": [
    {"urn": "URN:NBN:no-nb_digibok_2006081000001", "title": "Fremtidens Norge", "author": "Wergeland", "year": 1843, "category": "Utopi"},
    {"urn": "URN:NBN:no-nb_digibok_2006081000002", "title": "Luftskibet", "author": "Collett", "year": "1868", "category": "Reise"},
    {"urn": "URN:NBN:no-nb_digibok_2006081000003", "title": "Aar 2000", "author": "Wergeland", "year": 1890, "category": "Utopi"},
    {"urn": "URN:NBN:no-nb_digibok_2006081000004", "title": "Uten år", "author": "Amundsen", "year": NaN, "category": "Satire"},
    {"urn": "URN:NBN:no-nb_digibok_2006081000005", "title": "Uten forfatter", "author": NaN, "year": 1901, "category": NaN}
  ]
}`

// ConcordanceJSON answers a search for "Norge" with two hits on corpus
// records and one on an identifier the corpus does not know.
const ConcordanceJSON = `{
  "conc": {
    "0": "det <b>nye</b> <b>Norge</b> i år 2000",
    "1": "over <b>Norge</b> med luftskib",
    "2": "et ukjent <b>Norge</b>"
  },
  "urn": {
    "0": "URN:NBN:no-nb_digibok_2006081000001",
    "1": "URN:NBN:no-nb_digibok_2006081000002",
    "2": "URN:NBN:no-nb_digibok_2099010100000"
  }
}`

// Identifiers of the records in CorpusJSON, in corpus order.
var (
	WergelandUtopia1843 = "URN:NBN:no-nb_digibok_2006081000001"
	ColletTravel1868    = "URN:NBN:no-nb_digibok_2006081000002"
	WergelandUtopia1890 = "URN:NBN:no-nb_digibok_2006081000003"
	AmundsenNoYear      = "URN:NBN:no-nb_digibok_2006081000004"
	AnonymousNoCategory = "URN:NBN:no-nb_digibok_2006081000005"
)

// NewTestIndex parses CorpusJSON.
func NewTestIndex(t *testing.T) *store.CorpusIndex {
	t.Helper()
	idx, err := store.ParseCorpus([]byte(CorpusJSON))
	require.NoError(t, err, "Failed to parse test corpus")
	return idx
}

// NewTestStore returns a store loaded with CorpusJSON.
func NewTestStore(t *testing.T) *store.CorpusStore {
	t.Helper()
	s := store.NewCorpusStore()
	_, err := s.Load([]byte(CorpusJSON))
	require.NoError(t, err, "Failed to load test corpus")
	return s
}

// ConcordanceAPI is a fake of the concordance search endpoint.
// It records every request body and tracks how many calls are in flight.
type ConcordanceAPI struct {
	Server *httptest.Server

	mu          sync.Mutex
	requests    []map[string]interface{}
	status      int
	body        string
	gate        chan struct{}
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	calls       atomic.Int32
}

// NewConcordanceAPI starts a fake answering with the given status and body.
func NewConcordanceAPI(t *testing.T, status int, body string) *ConcordanceAPI {
	t.Helper()
	api := &ConcordanceAPI{status: status, body: body}
	api.Server = httptest.NewServer(http.HandlerFunc(api.handle))
	t.Cleanup(api.Server.Close)
	return api
}

// Hold makes every subsequent call block until Release is called.
func (a *ConcordanceAPI) Hold() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gate = make(chan struct{})
}

// Release unblocks held calls.
func (a *ConcordanceAPI) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gate != nil {
		close(a.gate)
		a.gate = nil
	}
}

// SetResponse changes the status and body served to subsequent calls.
func (a *ConcordanceAPI) SetResponse(status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status, a.body = status, body
}

// URL returns the endpoint URL of the fake.
func (a *ConcordanceAPI) URL() string {
	return a.Server.URL + "/dhlab/conc"
}

// Calls returns the number of requests received.
func (a *ConcordanceAPI) Calls() int {
	return int(a.calls.Load())
}

// InFlight returns the number of requests currently being served.
func (a *ConcordanceAPI) InFlight() int {
	return int(a.inFlight.Load())
}

// MaxInFlight returns the highest number of concurrent requests observed.
func (a *ConcordanceAPI) MaxInFlight() int {
	return int(a.maxInFlight.Load())
}

// LastRequest returns the most recent decoded request body.
func (a *ConcordanceAPI) LastRequest() map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.requests) == 0 {
		return nil
	}
	return a.requests[len(a.requests)-1]
}

func (a *ConcordanceAPI) handle(w http.ResponseWriter, r *http.Request) {
	a.calls.Add(1)
	current := a.inFlight.Add(1)
	defer a.inFlight.Add(-1)
	for {
		prev := a.maxInFlight.Load()
		if current <= prev || a.maxInFlight.CompareAndSwap(prev, current) {
			break
		}
	}

	raw, _ := io.ReadAll(r.Body)
	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)

	a.mu.Lock()
	a.requests = append(a.requests, decoded)
	gate := a.gate
	status, body := a.status, a.body
	a.mu.Unlock()

	if gate != nil {
		<-gate
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
