// Package metrics exposes Prometheus collectors for the catalog crawler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upsert outcomes.
const (
	OutcomeInserted = "inserted"
	OutcomeUpdated  = "updated"
	OutcomeFailed   = "failed"
)

var (
	listingsFetchedTotal       *prometheus.CounterVec
	fetchErrorsTotal           *prometheus.CounterVec
	listingsDroppedTotal       *prometheus.CounterVec
	upsertsTotal               *prometheus.CounterVec
	categoriesTotal            *prometheus.CounterVec
	categoryDurationSeconds    *prometheus.HistogramVec
	pacingDelaySeconds         *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		listingsFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_listings_fetched_total",
				Help: "Raw listings parsed from search pages, labeled by source and category.",
			},
			[]string{"source", "category"},
		)

		fetchErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_fetch_errors_total",
				Help: "Keyword queries that failed to fetch or parse, labeled by source.",
			},
			[]string{"source"},
		)

		listingsDroppedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_listings_dropped_total",
				Help: "Listings dropped during attribute extraction, labeled by category.",
			},
			[]string{"category"},
		)

		upsertsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_upserts_total",
				Help: "Catalog writes, labeled by category and outcome.",
			},
			[]string{"category", "outcome"},
		)

		categoriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_categories_total",
				Help: "Category pipelines run, labeled by status.",
			},
			[]string{"status"},
		)

		categoryDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_category_duration_seconds",
				Help:    "Wall time of one category pipeline.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"category"},
		)

		pacingDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_pacing_delay_seconds",
				Help:    "Time spent waiting on the request pacer, labeled by source.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveListings adds n parsed listings for a source and category.
func ObserveListings(source, category string, n int) {
	Init()
	if n > 0 {
		listingsFetchedTotal.WithLabelValues(source, category).Add(float64(n))
	}
}

// ObserveFetchError counts a failed keyword query.
func ObserveFetchError(source string) {
	Init()
	fetchErrorsTotal.WithLabelValues(source).Inc()
}

// ObserveDropped counts a listing rejected by the extractor.
func ObserveDropped(category string) {
	Init()
	listingsDroppedTotal.WithLabelValues(category).Inc()
}

// ObserveUpsert counts one catalog write.
func ObserveUpsert(category, outcome string) {
	Init()
	upsertsTotal.WithLabelValues(category, outcome).Inc()
}

// ObserveCategory records the status and duration of one category pipeline.
func ObserveCategory(category string, failed bool, duration time.Duration) {
	Init()
	status := "ok"
	if failed {
		status = "failed"
	}
	categoriesTotal.WithLabelValues(status).Inc()
	categoryDurationSeconds.WithLabelValues(category).Observe(duration.Seconds())
}

// ObservePacingDelay records time spent blocked on the pacer.
func ObservePacingDelay(source string, duration time.Duration) {
	Init()
	pacingDelaySeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
