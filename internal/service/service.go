// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/produce/internal/store"
	"github.com/abgdnv/produce/pkg/messaging"
	"github.com/abgdnv/produce/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id string) (*ProductDto, error)

	// FindAll returns all available products.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context, offset, limit int32) ([]ProductDto, error)

	// FindByName returns the products whose name contains name, ignoring case.
	// Returns an empty slice if nothing matches.
	FindByName(ctx context.Context, name string, offset, limit int32) ([]ProductDto, error)

	// Create adds a new product to the system.
	// Returns error if the product cannot be created.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// UpdatePrice changes the price of a product and leaves every other field as it is.
	// Returns ErrProductNotFound if no product exists with the given ID.
	UpdatePrice(ctx context.Context, id string, price float64) (*ProductDto, error)

	// Patch applies the non-nil fields of patch to a product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Patch(ctx context.Context, id string, patch ProductPatchDto) (*ProductDto, error)

	// DeleteByID removes a product by its ID and returns what was removed.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id string) (*ProductDto, error)
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	logger     *slog.Logger
	now        func() time.Time

	productsCreated metric.Int64Counter
}

// NewService creates a new instance of ProductService with the provided repository.
// Every successful write is announced through publisher.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	meter := otel.Meter("product-service")
	productsCreated, err := meter.Int64Counter("products_created", metric.WithDescription("Total number of created products"))
	if err != nil {
		panic(fmt.Sprintf("failed to create products_created counter: %v", err))
	}
	return &Service{
		repository:      repo,
		publisher:       publisher,
		logger:          logger.With("component", "service"),
		now:             time.Now,
		productsCreated: productsCreated,
	}
}

// ProductCreateDto represents the data transfer object for creating a new product.
// A zero value counts as missing.
type ProductCreateDto struct {
	Code     float64 `json:"code"     validate:"required"`
	Name     string  `json:"name"     validate:"required"`
	Price    float64 `json:"price"    validate:"required"`
	Category string  `json:"category" validate:"required"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID       string  `json:"id"`
	Code     float64 `json:"code"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

// PriceUpdateDto represents the data transfer object for updating a product price.
type PriceUpdateDto struct {
	Price float64 `json:"price" validate:"required"`
}

// ProductPatchDto carries the fields of a partial update. Absent fields stay nil.
type ProductPatchDto struct {
	Code     *float64 `json:"code,omitempty"`
	Name     *string  `json:"name,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Category *string  `json:"category,omitempty"`
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repository.Ping(ctx)
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) FindByID(ctx context.Context, id string) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}

	return toDto(product), nil
}

// FindAll retrieves a list of all products and returns them as ProductDTOs.
// Returns an empty slice if no products exist or error if the retrieval fails.
func (s *Service) FindAll(ctx context.Context, offset, limit int32) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toDtos(products), nil
}

// FindByName retrieves the products matching name and returns them as ProductDTOs.
func (s *Service) FindByName(ctx context.Context, name string, offset, limit int32) ([]ProductDto, error) {
	products, err := s.repository.FindByName(ctx, name, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products by name %q: %w", name, err)
	}
	return toDtos(products), nil
}

// Create creates a new product and returns it as a ProductDto.
// Returns an error if the product cannot be created.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	p, err := s.repository.Create(ctx, store.Product{
		Code:     product.Code,
		Name:     product.Name,
		Price:    product.Price,
		Category: product.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.productsCreated.Add(ctx, 1)
	s.publish(ctx, events.Created, p)
	return toDto(p), nil
}

// UpdatePrice sets the price of a product and returns the updated product as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) UpdatePrice(ctx context.Context, id string, price float64) (*ProductDto, error) {
	updated, err := s.repository.Update(ctx, id, store.ProductPatch{Price: &price})
	if err != nil {
		return nil, fmt.Errorf("failed to update price for product with ID %s: %w", id, err)
	}

	s.publish(ctx, events.Updated, updated)
	return toDto(updated), nil
}

// Patch applies a partial update and returns the updated product as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) Patch(ctx context.Context, id string, patch ProductPatchDto) (*ProductDto, error) {
	storePatch := store.ProductPatch{
		Code:     patch.Code,
		Name:     patch.Name,
		Price:    patch.Price,
		Category: patch.Category,
	}
	updated, err := s.repository.Update(ctx, id, storePatch)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %s: %w", id, err)
	}

	if !storePatch.IsEmpty() {
		s.publish(ctx, events.Updated, updated)
	}
	return toDto(updated), nil
}

// DeleteByID deletes a product by its ID and returns the deleted product.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) DeleteByID(ctx context.Context, id string) (*ProductDto, error) {
	deleted, err := s.repository.DeleteByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete product with ID %s: %w", id, err)
	}

	s.publish(ctx, events.Deleted, deleted)
	return toDto(deleted), nil
}

// publish announces a change. The write already happened, so a failure is only logged.
func (s *Service) publish(ctx context.Context, kind events.Kind, p *store.Product) {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.ProductEvent{
		Carrier:    carrier,
		Kind:       kind,
		ID:         p.ID,
		Code:       p.Code,
		Name:       p.Name,
		Price:      p.Price,
		Category:   p.Category,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish product event", "subject", event.Subject(), "ID", p.ID, "error", err)
	}
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:       product.ID,
		Code:     product.Code,
		Name:     product.Name,
		Price:    product.Price,
		Category: product.Category,
	}
}

func toDtos(products []store.Product) []ProductDto {
	productDTOs := make([]ProductDto, len(products))
	for i, item := range products {
		productDTOs[i] = *toDto(&item)
	}
	return productDTOs
}
