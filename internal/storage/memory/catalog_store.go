// Package memory provides in-memory persistence for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
)

// CatalogStore keeps canonical records in process memory.
type CatalogStore struct {
	mu      sync.RWMutex
	records map[string]catalog.CanonicalRecord
	index   map[catalog.IdentityKey]string
	order   []string
}

// NewCatalogStore constructs an empty CatalogStore.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		records: make(map[string]catalog.CanonicalRecord),
		index:   make(map[catalog.IdentityKey]string),
	}
}

// Lookup returns the id stored for key.
func (s *CatalogStore) Lookup(_ context.Context, key catalog.IdentityKey) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.index[key]
	return id, ok, nil
}

// Insert stores a new record. The identity key must not already be present.
func (s *CatalogStore) Insert(_ context.Context, record catalog.CanonicalRecord) error {
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := record.Identity()
	if _, exists := s.index[key]; exists {
		return fmt.Errorf("insert %s: identity already stored", key)
	}
	if _, exists := s.records[record.ID]; exists {
		return fmt.Errorf("insert %s: id %s already stored", key, record.ID)
	}
	s.records[record.ID] = record
	s.index[key] = record.ID
	s.order = append(s.order, record.ID)
	return nil
}

// UpdateMutable refreshes the volatile fields of the record with id.
func (s *CatalogStore) UpdateMutable(_ context.Context, id string, fields catalog.MutableFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("update %s: record not found", id)
	}
	rec.Price = fields.Price
	rec.OriginalPrice = fields.OriginalPrice
	rec.Stock = fields.Stock
	rec.Image = fields.Image
	rec.UpdatedAt = fields.UpdatedAt
	s.records[id] = rec
	return nil
}

// Get fetches a record by id.
func (s *CatalogStore) Get(_ context.Context, id string) (catalog.CanonicalRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// All returns every record in insertion order.
func (s *CatalogStore) All(_ context.Context) []catalog.CanonicalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.CanonicalRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// Close is a no-op.
func (s *CatalogStore) Close() {}
