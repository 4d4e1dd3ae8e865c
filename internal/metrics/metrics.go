// Package metrics provides Prometheus metrics for the concordance service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchesTotal counts searches by outcome.
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagination",
			Name:      "searches_total",
			Help:      "Total number of searches by outcome",
		},
		[]string{"outcome"},
	)

	// SearchDuration measures end-to-end search duration.
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "imagination",
			Name:      "search_duration_seconds",
			Help:      "Duration of searches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// CandidateDocuments observes how many identifiers survive filtering.
	CandidateDocuments = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "imagination",
			Name:      "candidate_documents",
			Help:      "Distribution of identifiers sent to the concordance API",
			Buckets:   []float64{0, 1, 10, 50, 100, 250, 500, 1000, 2500},
		},
	)

	// UpstreamRequestsTotal counts concordance API calls by status class.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagination",
			Name:      "upstream_requests_total",
			Help:      "Total number of concordance API requests",
		},
		[]string{"status"},
	)

	// UnknownIdentifiers counts hits whose identifier is not in the corpus.
	UnknownIdentifiers = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "imagination",
			Name:      "unknown_identifiers_total",
			Help:      "Hits referencing identifiers missing from the corpus",
		},
	)

	// CacheLookups counts result cache lookups by result.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagination",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups",
		},
		[]string{"result"},
	)

	// CorpusRecords reports the number of loaded corpus records.
	CorpusRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "imagination",
			Name:      "corpus_records",
			Help:      "Number of records in the loaded corpus (0 = not loaded)",
		},
	)
)

// RecordSearch records a settled search.
func RecordSearch(outcome string, candidates int, seconds float64) {
	SearchesTotal.WithLabelValues(outcome).Inc()
	SearchDuration.Observe(seconds)
	CandidateDocuments.Observe(float64(candidates))
}

// RecordUpstream records a concordance API call. status is "2xx", "4xx", "5xx" or "error".
func RecordUpstream(status string) {
	UpstreamRequestsTotal.WithLabelValues(status).Inc()
}

// RecordUnknown adds n unknown identifiers.
func RecordUnknown(n int) {
	if n > 0 {
		UnknownIdentifiers.Add(float64(n))
	}
}

// RecordCache records a cache hit or miss.
func RecordCache(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}

// SetCorpusRecords sets the corpus size gauge.
func SetCorpusRecords(n int) {
	CorpusRecords.Set(float64(n))
}
