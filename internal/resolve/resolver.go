// Package resolve collapses records describing the same product within a run.
package resolve

import (
	"github.com/nerabuild/catalog-crawler/internal/catalog"
)

// Resolve keeps the first record seen for each brand+model key and drops
// every later record with the same key. Input order is preserved.
func Resolve(records []catalog.CanonicalRecord) []catalog.CanonicalRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]catalog.CanonicalRecord, 0, len(records))
	for _, rec := range records {
		key := rec.Identity().DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
