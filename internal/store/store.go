// Package store provides an interface for product storage operations.
package store

import (
	"context"
)

// Product is a stored product document.
type Product struct {
	ID       string
	Code     float64
	Name     string
	Price    float64
	Category string
}

// ProductPatch lists the fields to change in a partial update. Nil fields are left untouched.
type ProductPatch struct {
	Code     *float64
	Name     *string
	Price    *float64
	Category *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Code == nil && p.Name == nil && p.Price == nil && p.Category == nil
}

// Apply returns a copy of product with the patch fields set.
func (p ProductPatch) Apply(product Product) Product {
	if p.Code != nil {
		product.Code = *p.Code
	}
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	return product
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
// A limit of 0 means no limit. Lists come back in insertion order.
type ProductStore interface {
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID
	// and an error wrapping ErrInvalidID if id is malformed.
	FindByID(ctx context.Context, id string) (*Product, error)

	// FindAll returns all available products.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context, offset, limit int32) ([]Product, error)

	// FindByName returns the products whose name contains name, ignoring case.
	// Returns an empty slice if nothing matches.
	FindByName(ctx context.Context, name string, offset, limit int32) ([]Product, error)

	// Create adds a new product and returns it with its assigned ID.
	Create(ctx context.Context, product Product) (*Product, error)

	// Update applies patch to the product and returns the updated product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id string, patch ProductPatch) (*Product, error)

	// DeleteByID removes a product by its ID and returns the removed product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id string) (*Product, error)
}
