package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gcbaptista/imagination-concordance/config"
	"github.com/gcbaptista/imagination-concordance/internal/analytics"
	"github.com/gcbaptista/imagination-concordance/internal/concordance"
	"github.com/gcbaptista/imagination-concordance/internal/corpus"
	"github.com/gcbaptista/imagination-concordance/internal/dhlab"
	"github.com/gcbaptista/imagination-concordance/internal/filter"
	"github.com/gcbaptista/imagination-concordance/internal/search"
	"github.com/gcbaptista/imagination-concordance/internal/session"
	"github.com/gcbaptista/imagination-concordance/store"
)

// application wires every component of the service.
type application struct {
	settings  *config.Settings
	store     *store.CorpusStore
	loader    *corpus.Loader
	sessions  *session.Manager
	analytics *analytics.Service
	searcher  *search.Service
}

func newApplication(settings *config.Settings, logger *slog.Logger) (*application, error) {
	corpusStore := store.NewCorpusStore()
	loader := corpus.NewLoader(corpus.Options{
		Source:                settings.Corpus.Source,
		SnapshotPath:          settings.Corpus.SnapshotPath,
		AllowSnapshotFallback: settings.Corpus.AllowSnapshotFallback,
		Logger:                logger,
	})

	client := dhlab.NewClient(dhlab.ClientOptions{
		Endpoint:          settings.Search.Endpoint,
		RequestsPerSecond: settings.Search.RequestsPerSecond,
		Burst:             settings.Search.Burst,
		Timeout:           settings.Search.Timeout.Duration,
		Logger:            logger,
	})

	sessions := session.NewManager(settings.Session.TTL.Duration, logger)
	sessions.SetLimit(settings.Session.MaxSessions)
	tracker := analytics.NewService(settings.Analytics.DataFile, logger)

	searcher, err := search.NewService(search.Options{
		Store:       corpusStore,
		Builder:     filter.NewBuilder(settings.Search, settings.Features),
		Client:      client,
		Mapper:      concordance.NewMapper(settings.Viewer.Host, settings.Display.MarkupMode),
		Sessions:    sessions,
		Analytics:   tracker,
		CacheSize:   settings.Search.CacheSize,
		MaxInFlight: settings.Search.MaxInFlight,
		SkipEmpty:   settings.Search.SkipEmpty,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating search service: %w", err)
	}

	return &application{
		settings:  settings,
		store:     corpusStore,
		loader:    loader,
		sessions:  sessions,
		analytics: tracker,
		searcher:  searcher,
	}, nil
}

// loadCorpus loads the corpus with a bounded wait.
func (a *application) loadCorpus(ctx context.Context) (corpus.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	return a.loader.LoadInto(ctx, a.store)
}

// flushAnalytics writes pending analytics before the process exits.
func (a *application) flushAnalytics(logger *slog.Logger) {
	if err := a.analytics.Flush(); err != nil {
		logger.Warn("failed to flush analytics", "error", err)
	}
}
