// Package search runs concordance searches: it filters the corpus, posts the
// request, maps the answer and drives the session lifecycle around it.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/semaphore"

	"github.com/gcbaptista/imagination-concordance/internal/concordance"
	internalErrors "github.com/gcbaptista/imagination-concordance/internal/errors"
	"github.com/gcbaptista/imagination-concordance/internal/filter"
	"github.com/gcbaptista/imagination-concordance/internal/metrics"
	"github.com/gcbaptista/imagination-concordance/internal/session"
	"github.com/gcbaptista/imagination-concordance/model"
	"github.com/gcbaptista/imagination-concordance/services"
	"github.com/gcbaptista/imagination-concordance/store"
)

// Options holds the collaborators of a Service.
type Options struct {
	Store     *store.CorpusStore
	Builder   *filter.Builder
	Client    services.Concordancer
	Mapper    *concordance.Mapper
	Sessions  *session.Manager
	Analytics services.AnalyticsTracker // optional
	CacheSize int                       // 0 disables the results cache
	// MaxInFlight bounds concordance requests across all sessions; 0 leaves
	// only the per-session guard.
	MaxInFlight int
	// SkipEmpty answers an empty result locally when no identifier survives
	// filtering instead of sending the empty list.
	SkipEmpty bool
	Logger    *slog.Logger
}

// Service implements services.Searcher.
type Service struct {
	store     *store.CorpusStore
	builder   *filter.Builder
	client    services.Concordancer
	mapper    *concordance.Mapper
	sessions  *session.Manager
	analytics services.AnalyticsTracker
	cache     *lru.Cache[string, *model.SearchResult]
	inFlight  *semaphore.Weighted
	skipEmpty bool
	logger    *slog.Logger
}

// NewService creates a new search Service.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("corpus store cannot be nil")
	}
	if opts.Builder == nil {
		return nil, fmt.Errorf("request builder cannot be nil")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("concordance client cannot be nil")
	}
	if opts.Mapper == nil {
		return nil, fmt.Errorf("result mapper cannot be nil")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("session manager cannot be nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		store:     opts.Store,
		builder:   opts.Builder,
		client:    opts.Client,
		mapper:    opts.Mapper,
		sessions:  opts.Sessions,
		analytics: opts.Analytics,
		skipEmpty: opts.SkipEmpty,
		logger:    logger.With("component", "search"),
	}

	if opts.MaxInFlight > 0 {
		s.inFlight = semaphore.NewWeighted(int64(opts.MaxInFlight))
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[string, *model.SearchResult](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating results cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// Search runs one search for the session. While a search of the same session
// is in flight, further calls fail with ErrSearchInFlight and nothing is sent.
// When the service-wide bound is reached, calls fail with ErrSearchCapacity.
// The outbound request is not tied to ctx cancellation: once sent it runs to
// completion or to the client timeout.
func (s *Service) Search(ctx context.Context, sessionID string, criteria model.SearchCriteria) (*model.SearchResult, error) {
	startTime := time.Now()
	query := strings.TrimSpace(criteria.Query)

	run, err := s.sessions.Begin(sessionID, query)
	if err != nil {
		if errors.Is(err, internalErrors.ErrSearchInFlight) {
			s.record(query, model.OutcomeRejected, 0, nil, startTime)
			s.logger.Info("search rejected, another search is in flight", "session", sessionID)
		}
		return nil, err
	}

	idx := s.store.Index()
	req, err := s.builder.Build(idx, criteria)
	if err != nil {
		run.Reject()
		s.record(query, model.OutcomeValidation, 0, nil, startTime)
		return nil, err
	}
	candidates := len(req.Identifiers)

	if candidates == 0 && s.skipEmpty {
		run.Skip()
		result := &model.SearchResult{
			QueryID: uuid.New().String(),
			Query:   req.Payload.Query,
			Hits:    []model.RenderableHit{},
			Empty:   true,
			Took:    time.Since(startTime).Milliseconds(),
		}
		s.record(query, model.OutcomeEmpty, 0, result, startTime)
		s.logger.Debug("no candidate documents, skipping concordance request", "query", query)
		return result, nil
	}

	key := cacheKey(req)
	if cached, ok := s.lookup(key); ok {
		run.Skip()
		result := *cached
		result.QueryID = uuid.New().String()
		result.Cached = true
		result.Took = time.Since(startTime).Milliseconds()
		s.record(query, outcomeOf(&result), candidates, &result, startTime)
		return &result, nil
	}

	if s.inFlight != nil && !s.inFlight.TryAcquire(1) {
		run.Reject()
		s.record(query, model.OutcomeRejected, candidates, nil, startTime)
		s.logger.Warn("search rejected, service is at its in-flight limit", "session", sessionID)
		return nil, internalErrors.ErrSearchCapacity
	}

	if err := run.Requesting(); err != nil {
		s.releaseSlot()
		run.Fail(err)
		return nil, err
	}

	resp, err := s.client.Concordance(context.WithoutCancel(ctx), req.Payload)
	s.releaseSlot()
	if err != nil {
		metrics.RecordUpstream(statusClass(err))
		run.Fail(err)
		s.record(query, model.OutcomeTransport, candidates, nil, startTime)
		s.logger.Warn("concordance request failed", "query", query, "candidates", candidates, "error", err)
		return nil, err
	}
	metrics.RecordUpstream("2xx")

	mapped := s.mapper.Map(idx, resp)
	run.Succeed()

	result := &model.SearchResult{
		QueryID:    uuid.New().String(),
		Query:      req.Payload.Query,
		Hits:       mapped.Hits,
		Total:      len(mapped.Hits),
		Empty:      mapped.Empty,
		Candidates: candidates,
		Unknown:    mapped.Unknown,
		Took:       time.Since(startTime).Milliseconds(),
	}
	if s.cache != nil {
		s.cache.Add(key, result)
	}
	metrics.RecordUnknown(mapped.Unknown)
	s.record(query, outcomeOf(result), candidates, result, startTime)

	s.logger.Info("search completed",
		"query", query,
		"candidates", candidates,
		"hits", result.Total,
		"unknown", result.Unknown,
		"took_ms", result.Took)

	return result, nil
}

func (s *Service) releaseSlot() {
	if s.inFlight != nil {
		s.inFlight.Release(1)
	}
}

func (s *Service) lookup(key string) (*model.SearchResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, ok := s.cache.Get(key)
	metrics.RecordCache(ok)
	return cached, ok
}

func (s *Service) record(query string, outcome model.SearchOutcome, candidates int, result *model.SearchResult, startTime time.Time) {
	elapsed := time.Since(startTime)
	metrics.RecordSearch(string(outcome), candidates, elapsed.Seconds())

	if s.analytics == nil {
		return
	}
	event := model.SearchEvent{
		Query:        query,
		Outcome:      outcome,
		Candidates:   candidates,
		ResponseTime: elapsed,
	}
	if result != nil {
		event.ResultCount = result.Total
		event.Cached = result.Cached
	}
	s.analytics.TrackSearchEvent(event)
}

// cacheKey identifies a request by its query and candidate set.
func cacheKey(req *filter.Request) string {
	h := sha256.New()
	h.Write([]byte(req.Payload.Query))
	for _, id := range req.Identifiers {
		h.Write([]byte{0})
		h.Write([]byte(id))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func outcomeOf(result *model.SearchResult) model.SearchOutcome {
	if result.Empty {
		return model.OutcomeEmpty
	}
	return model.OutcomeSuccess
}

func statusClass(err error) string {
	var transportErr *internalErrors.TransportError
	if errors.As(err, &transportErr) && transportErr.StatusCode > 0 {
		return fmt.Sprintf("%dxx", transportErr.StatusCode/100)
	}
	return "error"
}
