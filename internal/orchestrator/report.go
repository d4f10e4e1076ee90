package orchestrator

import (
	"time"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
)

// CategoryReport counts what happened to one category during a run.
type CategoryReport struct {
	Category     catalog.Category
	Listings     int
	Dropped      int
	Resolved     int
	Inserted     int
	Updated      int
	FailedWrites int
	FetchErrors  int
	Duration     time.Duration
	// Err is set when the category pipeline aborted.
	Err string
}

// Failed reports whether the category pipeline aborted.
func (r CategoryReport) Failed() bool {
	return r.Err != ""
}

// Report is the outcome of one crawl run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Categories []CategoryReport
}

// Failed reports whether any category pipeline aborted.
func (r Report) Failed() bool {
	for _, c := range r.Categories {
		if c.Failed() {
			return true
		}
	}
	return false
}

// Totals sums the per-category counters.
func (r Report) Totals() CategoryReport {
	var total CategoryReport
	for _, c := range r.Categories {
		total.Listings += c.Listings
		total.Dropped += c.Dropped
		total.Resolved += c.Resolved
		total.Inserted += c.Inserted
		total.Updated += c.Updated
		total.FailedWrites += c.FailedWrites
		total.FetchErrors += c.FetchErrors
		total.Duration += c.Duration
	}
	return total
}
