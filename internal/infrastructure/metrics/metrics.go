// Package metrics provides Prometheus instrumentation for Emma Hub:
// matchmaking run outcomes, HTTP endpoint latency and cache efficiency.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Matchmaking Run Metrics

	MatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_runs_total",
			Help: "Total number of matchmaking runs",
		},
		[]string{"result"}, // "success", "failure"
	)

	MatchRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchmaking_run_duration_seconds",
			Help:    "Duration of matchmaking engine runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	MatchRunRosterSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchmaking_roster_size",
			Help:    "Number of participants considered per run",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000},
		},
	)

	MatchRunBaseline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchmaking_last_baseline",
			Help: "Baseline threshold of the most recent run",
		},
	)

	MatchPairsProduced = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "matchmaking_pairs_produced",
			Help: "Pairs produced by the most recent run",
		},
		[]string{"intent"}, // "friend", "date"
	)

	MatchGroupsProduced = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchmaking_groups_produced",
			Help: "Groups produced by the most recent run",
		},
	)

	// HTTP Metrics

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Cache Metrics

	MatchCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_cache_hits_total",
			Help: "Total number of match view cache hits",
		},
	)

	MatchCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_cache_misses_total",
			Help: "Total number of match view cache misses",
		},
	)
)

// RecordHTTPRequest records a completed HTTP request.
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordCacheHit records a match view cache hit.
func RecordCacheHit() {
	MatchCacheHits.Inc()
}

// RecordCacheMiss records a match view cache miss.
func RecordCacheMiss() {
	MatchCacheMisses.Inc()
}

// Recorder implements the application layer's run metrics contract
// on top of the package-level collectors.
type Recorder struct{}

// NewRecorder creates a new Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordRun records a successful matchmaking run.
func (r *Recorder) RecordRun(baseline float64, rosterSize int, duration time.Duration) {
	MatchRunsTotal.WithLabelValues("success").Inc()
	MatchRunDuration.Observe(duration.Seconds())
	MatchRunRosterSize.Observe(float64(rosterSize))
	MatchRunBaseline.Set(baseline)
}

// RecordRunResult records the output sizes of the most recent run.
func (r *Recorder) RecordRunResult(friendPairs, datePairs, groups int) {
	MatchPairsProduced.WithLabelValues("friend").Set(float64(friendPairs))
	MatchPairsProduced.WithLabelValues("date").Set(float64(datePairs))
	MatchGroupsProduced.Set(float64(groups))
}

// RecordRunFailure records a failed matchmaking run.
func (r *Recorder) RecordRunFailure() {
	MatchRunsTotal.WithLabelValues("failure").Inc()
}
