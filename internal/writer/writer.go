// Package writer upserts canonical records into the catalog store.
package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
	"github.com/nerabuild/catalog-crawler/internal/metrics"
)

// Outcome reports what an upsert did.
type Outcome string

// Upsert outcomes.
const (
	Inserted Outcome = metrics.OutcomeInserted
	Updated  Outcome = metrics.OutcomeUpdated
)

// BatchResult summarizes UpsertAll.
type BatchResult struct {
	Inserted int
	Updated  int
	Failed   int
	Errors   []error
}

// Option configures a Writer.
type Option func(*Writer)

// WithPriceCache mirrors the latest price of every written record into cache.
func WithPriceCache(cache catalog.PriceCache) Option {
	return func(w *Writer) {
		w.cache = cache
	}
}

// WithLogger sets the writer logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Writer merges records into a catalog.Store keyed by (brand, model, category).
// Lookup and write are separate calls, so a single writer process is assumed.
type Writer struct {
	store    catalog.Store
	cache    catalog.PriceCache
	clock    catalog.Clock
	ids      catalog.IDGenerator
	validate *validator.Validate
	logger   *zap.Logger
}

// New builds a Writer.
func New(store catalog.Store, clock catalog.Clock, ids catalog.IDGenerator, opts ...Option) (*Writer, error) {
	if store == nil || clock == nil || ids == nil {
		return nil, errors.New("writer requires store, clock and id generator")
	}
	w := &Writer{
		store:    store,
		clock:    clock,
		ids:      ids,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Upsert inserts record when its identity is new, otherwise refreshes only
// the mutable fields of the stored record.
func (w *Writer) Upsert(ctx context.Context, record catalog.CanonicalRecord) (Outcome, error) {
	key := record.Identity()
	if err := w.validate.Struct(record); err != nil {
		return "", fmt.Errorf("%w: invalid record %s: %w", catalog.ErrPersistence, key, err)
	}
	now := w.clock.Now()

	id, found, err := w.store.Lookup(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", catalog.ErrPersistence, err)
	}

	outcome := Updated
	if found {
		if err := w.store.UpdateMutable(ctx, id, record.Mutable(now)); err != nil {
			return "", fmt.Errorf("%w: %w", catalog.ErrPersistence, err)
		}
	} else {
		if err := w.insert(ctx, record, now); err != nil {
			return "", err
		}
		outcome = Inserted
	}

	if w.cache != nil {
		if err := w.cache.RecordPrice(ctx, key, record.Price, now); err != nil {
			w.logger.Warn("price cache write failed", zap.String("identity", key.String()), zap.Error(err))
		}
	}
	return outcome, nil
}

func (w *Writer) insert(ctx context.Context, record catalog.CanonicalRecord, now time.Time) error {
	id, err := w.ids.NewID()
	if err != nil {
		return fmt.Errorf("%w: %w", catalog.ErrPersistence, err)
	}
	record.ID = id
	record.Model3D = catalog.PresentationFor(record.Category)
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Images == nil {
		record.Images = []string{}
	}
	if record.Specs == nil {
		record.Specs = map[string]any{}
	}
	if record.Platform == nil {
		record.Platform = map[string]catalog.PlatformRef{}
	}
	if err := w.store.Insert(ctx, record); err != nil {
		return fmt.Errorf("%w: %w", catalog.ErrPersistence, err)
	}
	return nil
}

// UpsertAll writes every record. A failed record is logged and skipped.
func (w *Writer) UpsertAll(ctx context.Context, records []catalog.CanonicalRecord) BatchResult {
	var result BatchResult
	for _, rec := range records {
		category := rec.Category.String()
		outcome, err := w.Upsert(ctx, rec)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err)
			metrics.ObserveUpsert(category, metrics.OutcomeFailed)
			w.logger.Error("catalog write failed",
				zap.String("identity", rec.Identity().String()),
				zap.Error(err),
			)
			continue
		}
		metrics.ObserveUpsert(category, string(outcome))
		switch outcome {
		case Inserted:
			result.Inserted++
		case Updated:
			result.Updated++
		}
	}
	return result
}
