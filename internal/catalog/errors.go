package catalog

import "errors"

// Error classes. Only ErrStartup aborts a run; the others are isolated to the
// keyword, listing, or record that raised them.
var (
	ErrFetch       = errors.New("fetch failed")
	ErrExtraction  = errors.New("extraction failed")
	ErrPersistence = errors.New("persistence failed")
	ErrStartup     = errors.New("startup failed")
)
