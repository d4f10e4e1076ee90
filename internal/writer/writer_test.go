package writer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
	"github.com/nerabuild/catalog-crawler/internal/storage/memory"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

type seqIDs struct {
	n int
}

func (s *seqIDs) NewID() (string, error) {
	s.n++
	return fmt.Sprintf("rec-%d", s.n), nil
}

type recordingCache struct {
	prices map[string]float64
	err    error
}

func (c *recordingCache) RecordPrice(_ context.Context, key catalog.IdentityKey, price float64, _ time.Time) error {
	if c.err != nil {
		return c.err
	}
	if c.prices == nil {
		c.prices = map[string]float64{}
	}
	c.prices[key.String()] = price
	return nil
}

func (c *recordingCache) Close() error { return nil }

// failingStore rejects inserts for one brand.
type failingStore struct {
	*memory.CatalogStore
	brand string
}

func (s failingStore) Insert(ctx context.Context, record catalog.CanonicalRecord) error {
	if record.Brand == s.brand {
		return errors.New("disk full")
	}
	return s.CatalogStore.Insert(ctx, record)
}

func cpuRecord(model string, price float64) catalog.CanonicalRecord {
	return catalog.CanonicalRecord{
		Name:     "AMD " + model,
		Brand:    "AMD",
		Model:    model,
		Category: catalog.CategoryCPU,
		Price:    price,
		Image:    "https://img.example/" + model + ".jpg",
		Specs:    map[string]any{"cores": 8},
		Platform: map[string]catalog.PlatformRef{"taobao": {ID: "1"}},
	}
}

func newWriter(t *testing.T, store catalog.Store, opts ...Option) (*Writer, *stepClock) {
	t.Helper()
	clock := &stepClock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	w, err := New(store, clock, &seqIDs{}, opts...)
	require.NoError(t, err)
	return w, clock
}

func TestUpsertInsertsNewRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewCatalogStore()
	w, clock := newWriter(t, store)

	outcome, err := w.Upsert(ctx, cpuRecord("Ryzen 7", 1799))
	require.NoError(t, err)
	assert.Equal(t, Inserted, outcome)

	got, ok := store.Get(ctx, "rec-1")
	require.True(t, ok)
	assert.Equal(t, clock.now, got.CreatedAt)
	assert.Equal(t, clock.now, got.UpdatedAt)
	assert.Equal(t, catalog.PresentationFor(catalog.CategoryCPU), got.Model3D)
	assert.Equal(t, []string{}, got.Images)
}

func TestUpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewCatalogStore()
	w, clock := newWriter(t, store)

	first := cpuRecord("Ryzen 7", 1799)
	_, err := w.Upsert(ctx, first)
	require.NoError(t, err)
	created := clock.now

	clock.now = clock.now.Add(6 * time.Hour)
	second := cpuRecord("Ryzen 7", 1699)
	second.Stock = 4
	orig := 1999.0
	second.OriginalPrice = &orig
	second.Image = "https://img.example/new.jpg"
	second.Specs = map[string]any{"cores": 16}
	second.Platform = map[string]catalog.PlatformRef{"jd": {ID: "2"}}

	outcome, err := w.Upsert(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, Updated, outcome)

	all := store.All(ctx)
	require.Len(t, all, 1)
	got := all[0]
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, clock.now, got.UpdatedAt)
	assert.Equal(t, 1699.0, got.Price)
	assert.Equal(t, &orig, got.OriginalPrice)
	assert.Equal(t, 4, got.Stock)
	assert.Equal(t, "https://img.example/new.jpg", got.Image)
	// Non-mutable fields keep their first-insert values.
	assert.Equal(t, map[string]any{"cores": 8}, got.Specs)
	assert.Equal(t, map[string]catalog.PlatformRef{"taobao": {ID: "1"}}, got.Platform)
}

func TestUpsertRejectsInvalidRecords(t *testing.T) {
	t.Parallel()

	w, _ := newWriter(t, memory.NewCatalogStore())

	bad := cpuRecord("Ryzen 7", 1)
	bad.Category = "monitor"
	_, err := w.Upsert(context.Background(), bad)
	require.ErrorIs(t, err, catalog.ErrPersistence)

	neg := cpuRecord("Ryzen 5", -1)
	_, err = w.Upsert(context.Background(), neg)
	require.ErrorIs(t, err, catalog.ErrPersistence)

	noName := cpuRecord("Ryzen 3", 1)
	noName.Name = ""
	_, err = w.Upsert(context.Background(), noName)
	require.ErrorIs(t, err, catalog.ErrPersistence)
}

func TestUpsertAllIsolatesFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := failingStore{CatalogStore: memory.NewCatalogStore(), brand: "Intel"}
	w, _ := newWriter(t, store)

	intel := cpuRecord("i7", 2899)
	intel.Brand = "Intel"
	records := []catalog.CanonicalRecord{
		cpuRecord("Ryzen 5", 999),
		intel,
		cpuRecord("Ryzen 7", 1799),
	}
	result := w.UpsertAll(ctx, records)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], catalog.ErrPersistence)
	assert.Contains(t, result.Errors[0].Error(), "disk full")
	assert.Len(t, store.All(ctx), 2)

	result = w.UpsertAll(ctx, records[:1])
	assert.Equal(t, 1, result.Updated)
}

func TestUpsertMirrorsPriceToCache(t *testing.T) {
	t.Parallel()

	cache := &recordingCache{}
	w, _ := newWriter(t, memory.NewCatalogStore(), WithPriceCache(cache))

	rec := cpuRecord("Ryzen 7", 1799)
	_, err := w.Upsert(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 1799.0, cache.prices[rec.Identity().String()])
}

func TestUpsertIgnoresCacheErrors(t *testing.T) {
	t.Parallel()

	w, _ := newWriter(t, memory.NewCatalogStore(), WithPriceCache(&recordingCache{err: errors.New("down")}))
	outcome, err := w.Upsert(context.Background(), cpuRecord("Ryzen 7", 1799))
	require.NoError(t, err)
	assert.Equal(t, Inserted, outcome)
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(nil, &stepClock{}, &seqIDs{})
	require.Error(t, err)
}
