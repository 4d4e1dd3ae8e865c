package store

import (
	"sort"
	"sync"

	internalErrors "github.com/gcbaptista/imagination-concordance/internal/errors"
	"github.com/gcbaptista/imagination-concordance/model"
)

// CorpusIndex is the immutable, in-memory view of the loaded corpus.
type CorpusIndex struct {
	Records    []model.MetadataRecord
	Authors    []string // unique, non-empty, sorted ascending
	Categories []string // unique, non-empty, sorted ascending
	byID       map[string]int
}

// NewCorpusIndex builds an index over records and derives the facet lists.
// When an identifier appears more than once the first record wins the lookup.
func NewCorpusIndex(records []model.MetadataRecord) *CorpusIndex {
	idx := &CorpusIndex{
		Records: records,
		byID:    make(map[string]int, len(records)),
	}

	authors := make(map[string]struct{})
	categories := make(map[string]struct{})
	for i, rec := range records {
		if _, exists := idx.byID[rec.Identifier]; !exists {
			idx.byID[rec.Identifier] = i
		}
		if rec.HasAuthor() {
			authors[rec.Author] = struct{}{}
		}
		if rec.HasCategory() {
			categories[rec.Category] = struct{}{}
		}
	}

	idx.Authors = sortedKeys(authors)
	idx.Categories = sortedKeys(categories)
	return idx
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the record for identifier.
func (idx *CorpusIndex) Lookup(identifier string) (model.MetadataRecord, bool) {
	if idx == nil {
		return model.MetadataRecord{}, false
	}
	i, ok := idx.byID[identifier]
	if !ok {
		return model.MetadataRecord{}, false
	}
	return idx.Records[i], true
}

// Len returns the number of records.
func (idx *CorpusIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Records)
}

// CorpusStore owns the corpus for the lifetime of the process.
// It is written once by Load and read by every search afterwards.
type CorpusStore struct {
	mu    sync.RWMutex
	index *CorpusIndex
}

// NewCorpusStore creates an empty store.
func NewCorpusStore() *CorpusStore {
	return &CorpusStore{}
}

// Load parses raw and installs the result. A failed load leaves the store empty;
// a second load after a successful one is rejected.
func (s *CorpusStore) Load(raw []byte) (*CorpusIndex, error) {
	idx, err := ParseCorpus(raw)
	if err != nil {
		return nil, err
	}
	if err := s.Install(idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Install sets an already built index, e.g. one restored from a snapshot.
func (s *CorpusStore) Install(idx *CorpusIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return internalErrors.ErrAlreadyLoaded
	}
	s.index = idx
	return nil
}

// Loaded reports whether a corpus has been installed.
func (s *CorpusStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index != nil
}

// Index returns the loaded index, or nil before Load succeeds.
func (s *CorpusStore) Index() *CorpusIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Lookup returns the record for identifier.
func (s *CorpusStore) Lookup(identifier string) (model.MetadataRecord, error) {
	rec, ok := s.Index().Lookup(identifier)
	if !ok {
		return model.MetadataRecord{}, internalErrors.NewRecordNotFoundError(identifier)
	}
	return rec, nil
}

// Authors returns the unique sorted author list, empty before load.
func (s *CorpusStore) Authors() []string {
	idx := s.Index()
	if idx == nil {
		return []string{}
	}
	return idx.Authors
}

// Categories returns the unique sorted category list, empty before load.
func (s *CorpusStore) Categories() []string {
	idx := s.Index()
	if idx == nil {
		return []string{}
	}
	return idx.Categories
}

// Len returns the number of loaded records.
func (s *CorpusStore) Len() int {
	return s.Index().Len()
}
