package analytics

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gcbaptista/imagination-concordance/model"
)

const (
	maxEventsToKeep    = 10000 // Keep last 10k events for performance
	maxPopularSearches = 10
)

// Service records search events and aggregates them for the dashboard
type Service struct {
	mutex        sync.RWMutex
	saveMutex    sync.Mutex
	pending      sync.WaitGroup
	events       []model.SearchEvent
	dataFilePath string
	logger       *slog.Logger
	now          func() time.Time
}

// NewService creates a new analytics service. With an empty dataFilePath the
// events only live in memory.
func NewService(dataFilePath string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	service := &Service{
		events:       make([]model.SearchEvent, 0),
		dataFilePath: dataFilePath,
		logger:       logger.With("component", "analytics"),
		now:          time.Now,
	}

	if err := service.loadData(); err != nil {
		service.logger.Warn("failed to load analytics data", "path", dataFilePath, "error", err)
	}

	return service
}

// TrackSearchEvent records a new search event
func (s *Service) TrackSearchEvent(event model.SearchEvent) {
	s.mutex.Lock()
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	s.events = append(s.events, event)

	// Keep only the latest events to prevent unbounded growth
	if len(s.events) > maxEventsToKeep {
		s.events = s.events[len(s.events)-maxEventsToKeep:]
	}
	s.mutex.Unlock()

	if s.dataFilePath == "" {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.saveData(); err != nil {
			s.logger.Warn("failed to save analytics data", "error", err)
		}
	}()
}

// EventCount returns the number of retained events
func (s *Service) EventCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.events)
}

// GetDashboardData aggregates the retained events
func (s *Service) GetDashboardData() model.AnalyticsDashboard {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	yesterday := s.now().Add(-24 * time.Hour)

	dashboard := model.AnalyticsDashboard{
		TotalSearches:   len(s.events),
		PopularSearches: s.getPopularSearches(s.events),
	}

	var answered []model.SearchEvent
	for _, event := range s.events {
		switch event.Outcome {
		case model.OutcomeSuccess:
			dashboard.SuccessfulCount++
			answered = append(answered, event)
		case model.OutcomeEmpty:
			dashboard.EmptyCount++
			answered = append(answered, event)
		case model.OutcomeValidation, model.OutcomeTransport:
			dashboard.FailedCount++
		case model.OutcomeRejected:
			dashboard.RejectedCount++
		}
		if event.Cached {
			dashboard.CachedCount++
		}
		if event.Timestamp.After(yesterday) {
			dashboard.Last24hSearches++
		}
	}
	dashboard.AvgResponseTimeMs = calculateAvgResponseTime(answered)

	return dashboard
}

// calculateAvgResponseTime calculates average response time for events in milliseconds
func calculateAvgResponseTime(events []model.SearchEvent) float64 {
	if len(events) == 0 {
		return 0
	}

	var total time.Duration
	for _, event := range events {
		total += event.ResponseTime
	}
	avg := total / time.Duration(len(events))
	return float64(avg.Microseconds()) / 1000
}

// getPopularSearches returns the most frequent queries, ties broken alphabetically
func (s *Service) getPopularSearches(events []model.SearchEvent) []model.PopularSearch {
	queryCounts := make(map[string]int)
	for _, event := range events {
		if event.Query != "" && event.Outcome != model.OutcomeRejected {
			queryCounts[event.Query]++
		}
	}

	popular := make([]model.PopularSearch, 0, len(queryCounts))
	for query, count := range queryCounts {
		popular = append(popular, model.PopularSearch{Query: query, SearchCount: count})
	}

	sort.Slice(popular, func(i, j int) bool {
		if popular[i].SearchCount != popular[j].SearchCount {
			return popular[i].SearchCount > popular[j].SearchCount
		}
		return popular[i].Query < popular[j].Query
	})

	if len(popular) > maxPopularSearches {
		popular = popular[:maxPopularSearches]
	}
	return popular
}

// loadData loads analytics data from file
func (s *Service) loadData() error {
	if s.dataFilePath == "" {
		return nil
	}

	data, err := os.ReadFile(s.dataFilePath) // #nosec G304 -- path comes from configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist yet, that's okay
		}
		return fmt.Errorf("failed to read analytics file: %w", err)
	}

	var events []model.SearchEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("failed to unmarshal analytics data: %w", err)
	}
	if len(events) > maxEventsToKeep {
		events = events[len(events)-maxEventsToKeep:]
	}
	s.events = events

	return nil
}

// saveData saves analytics data to file
func (s *Service) saveData() error {
	s.saveMutex.Lock()
	defer s.saveMutex.Unlock()

	s.mutex.RLock()
	data, err := json.MarshalIndent(s.events, "", "  ")
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal analytics data: %w", err)
	}

	dir := filepath.Dir(s.dataFilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create analytics directory: %w", err)
	}
	if err := os.WriteFile(s.dataFilePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write analytics file: %w", err)
	}

	return nil
}

// Flush waits for pending background saves and writes the events to disk
func (s *Service) Flush() error {
	if s.dataFilePath == "" {
		return nil
	}
	s.pending.Wait()
	return s.saveData()
}
