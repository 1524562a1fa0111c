package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	perrors "github.com/abgdnv/produce/internal/errors"
	"github.com/google/uuid"
)

// MemoryStore implements ProductStore using an in-memory map.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]Product
	order    []string // IDs in insertion order
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]Product),
	}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// FindByID retrieves a product by its ID.
func (s *MemoryStore) FindByID(_ context.Context, id string) (*Product, error) {
	if err := validateUUID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	return &p, nil
}

// FindAll retrieves all products.
func (s *MemoryStore) FindAll(_ context.Context, offset, limit int32) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(offset, limit, func(Product) bool { return true }), nil
}

// FindByName retrieves the products whose name contains name, ignoring case.
func (s *MemoryStore) FindByName(_ context.Context, name string, offset, limit int32) ([]Product, error) {
	needle := strings.ToLower(name)
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(offset, limit, func(p Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}), nil
}

// Create stores a copy of product under a new ID.
func (s *MemoryStore) Create(_ context.Context, product Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product.ID = uuid.NewString()
	s.products[product.ID] = product
	s.order = append(s.order, product.ID)

	return &product, nil
}

// Update applies patch to the stored product.
func (s *MemoryStore) Update(_ context.Context, id string, patch ProductPatch) (*Product, error) {
	if err := validateUUID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.products[id]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	updated := patch.Apply(current)
	s.products[id] = updated
	return &updated, nil
}

// DeleteByID deletes a product by its ID.
func (s *MemoryStore) DeleteByID(_ context.Context, id string) (*Product, error) {
	if err := validateUUID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[id]
	if !exists {
		return nil, perrors.ErrProductNotFound
	}
	delete(s.products, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return &p, nil
}

// collect walks products in insertion order. Callers hold the read lock.
func (s *MemoryStore) collect(offset, limit int32, match func(Product) bool) []Product {
	list := make([]Product, 0)
	skipped := int32(0)
	for _, id := range s.order {
		p := s.products[id]
		if !match(p) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		list = append(list, p)
		if limit > 0 && int32(len(list)) == limit {
			break
		}
	}
	return list
}

func validateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", perrors.ErrInvalidID, id)
	}
	return nil
}
