// Package corpus fetches the metadata corpus and installs it into the store,
// falling back to the last good snapshot when the source is unavailable.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	internalErrors "github.com/gcbaptista/imagination-concordance/internal/errors"
	"github.com/gcbaptista/imagination-concordance/internal/metrics"
	"github.com/gcbaptista/imagination-concordance/store"
)

// Origins of a loaded corpus.
const (
	OriginSource   = "source"
	OriginSnapshot = "snapshot"
)

const defaultFetchTimeout = 60 * time.Second

// Status describes the outcome of the last load attempt.
type Status struct {
	Loaded   bool      `json:"loaded"`
	Records  int       `json:"records"`
	Authors  int       `json:"authors"`
	Origin   string    `json:"origin,omitempty"`
	Source   string    `json:"source"`
	Message  string    `json:"message"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// Options configures a Loader.
type Options struct {
	Source                string // local path or http(s) URL
	SnapshotPath          string // empty disables snapshots
	AllowSnapshotFallback bool
	HTTPClient            *http.Client
	Logger                *slog.Logger
}

// Loader loads the corpus once at startup.
type Loader struct {
	opts       Options
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.RWMutex
	status Status
}

// NewLoader creates a Loader.
func NewLoader(opts Options) *Loader {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		opts:       opts,
		httpClient: httpClient,
		logger:     logger.With("component", "corpus"),
		now:        time.Now,
		status: Status{
			Source:  opts.Source,
			Message: "Loading metadata...",
		},
	}
}

// Status returns the outcome of the last load attempt.
func (l *Loader) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// Fetch reads the raw corpus from the configured source. HTTP fetches carry a
// t=<unix millis> parameter so intermediaries never serve a stale copy.
func (l *Loader) Fetch(ctx context.Context) ([]byte, error) {
	source := l.opts.Source
	if isRemote(source) {
		return l.fetchRemote(ctx, source)
	}

	raw, err := os.ReadFile(source) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, internalErrors.NewLoadError(source, "cannot read file", err)
	}
	return raw, nil
}

func (l *Loader) fetchRemote(ctx context.Context, source string) ([]byte, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, internalErrors.NewLoadError(source, "invalid URL", err)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(l.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, internalErrors.NewLoadError(source, "cannot build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, internalErrors.NewLoadError(source, "request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			l.logger.Warn("failed to close corpus response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, internalErrors.NewLoadError(source, fmt.Sprintf("server responded %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, internalErrors.NewLoadError(source, "cannot read response", err)
	}
	return raw, nil
}

// LoadInto fetches the corpus and installs it into s. On success a snapshot is
// written when configured. When the source cannot be fetched or parsed and
// fallback is allowed, the snapshot is installed instead. If nothing can be
// loaded the store stays empty and the source error is returned.
func (l *Loader) LoadInto(ctx context.Context, s *store.CorpusStore) (Status, error) {
	started := l.now()

	idx, loadErr := l.loadSource(ctx, s)
	if loadErr == nil {
		l.writeSnapshot(idx)
		return l.succeed(OriginSource, idx, started, ""), nil
	}
	if errors.Is(loadErr, internalErrors.ErrAlreadyLoaded) {
		return l.Status(), loadErr
	}

	l.logger.Error("corpus load failed", "source", l.opts.Source, "error", loadErr)

	if l.opts.AllowSnapshotFallback && l.opts.SnapshotPath != "" {
		idx, err := store.LoadSnapshot(l.opts.SnapshotPath)
		if err == nil {
			err = s.Install(idx)
		}
		if err == nil {
			l.logger.Warn("serving corpus from snapshot", "path", l.opts.SnapshotPath, "records", idx.Len())
			return l.succeed(OriginSnapshot, idx, started, loadErr.Error()), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("snapshot fallback failed", "path", l.opts.SnapshotPath, "error", err)
		}
	}

	l.mu.Lock()
	l.status = Status{
		Source:  l.opts.Source,
		Message: "Could not load metadata. Searching is unavailable.",
		Error:   loadErr.Error(),
	}
	status := l.status
	l.mu.Unlock()

	metrics.SetCorpusRecords(0)
	return status, loadErr
}

func (l *Loader) loadSource(ctx context.Context, s *store.CorpusStore) (*store.CorpusIndex, error) {
	raw, err := l.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return s.Load(raw)
}

func (l *Loader) writeSnapshot(idx *store.CorpusIndex) {
	if l.opts.SnapshotPath == "" {
		return
	}
	if err := store.SaveSnapshot(l.opts.SnapshotPath, idx); err != nil {
		l.logger.Warn("failed to write corpus snapshot", "path", l.opts.SnapshotPath, "error", err)
	}
}

func (l *Loader) succeed(origin string, idx *store.CorpusIndex, started time.Time, sourceErr string) Status {
	message := fmt.Sprintf("Loaded %d records.", idx.Len())
	if origin == OriginSnapshot {
		message = fmt.Sprintf("Loaded %d records from the last saved copy; the metadata source is unavailable.", idx.Len())
	}

	l.mu.Lock()
	l.status = Status{
		Loaded:   true,
		Records:  idx.Len(),
		Authors:  len(idx.Authors),
		Origin:   origin,
		Source:   l.opts.Source,
		Message:  message,
		Error:    sourceErr,
		LoadedAt: l.now(),
	}
	status := l.status
	l.mu.Unlock()

	metrics.SetCorpusRecords(idx.Len())
	l.logger.Info("corpus loaded",
		"origin", origin,
		"records", idx.Len(),
		"authors", len(idx.Authors),
		"took", l.now().Sub(started))
	return status
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
