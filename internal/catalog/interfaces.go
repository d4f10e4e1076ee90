package catalog

import (
	"context"
	"time"
)

// SourceAdapter searches one e-commerce platform for a keyword.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, session *Session, category Category, keyword string) ([]RawListing, error)
}

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Pacer bounds the request rate for a key (usually a source name).
type Pacer interface {
	Wait(ctx context.Context, key string) error
}

// Store persists canonical records keyed by identity.
type Store interface {
	// Lookup returns the stored id for key, or found=false.
	Lookup(ctx context.Context, key IdentityKey) (id string, found bool, err error)
	Insert(ctx context.Context, record CanonicalRecord) error
	UpdateMutable(ctx context.Context, id string, fields MutableFields) error
	Close()
}

// PriceCache is the auxiliary fast-lookup store.
type PriceCache interface {
	RecordPrice(ctx context.Context, key IdentityKey, price float64, observedAt time.Time) error
	Close() error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record and run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
