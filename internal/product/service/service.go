// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	perrors "github.com/abgdnv/gostore/internal/product/errors"
	"github.com/abgdnv/gostore/internal/product/events"
	"github.com/abgdnv/gostore/internal/product/store"
	"github.com/abgdnv/gostore/pkg/messaging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// Create adds a new product to the system.
	// Returns ErrProductInsertion if a product with the same name exists.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*ProductDto, error)

	// Query returns the products whose price is within the filter bounds.
	// Returns an empty slice if nothing matches, ErrInvalidPriceRange if min > max.
	Query(ctx context.Context, filter PriceFilter) ([]ProductDto, error)

	// Update applies a partial update and refreshes updated_at.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id uuid.UUID, product ProductUpdateDto) (*ProductDto, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	now        func() time.Time

	createdCounter metric.Int64Counter
	updatedCounter metric.Int64Counter
	deletedCounter metric.Int64Counter
}

// NewService creates a new instance of ProductService with the provided repository and event publisher.
func NewService(repo store.ProductStore, publisher messaging.Publisher) *Service {
	meter := otel.Meter("product-service")
	return &Service{
		repository:     repo,
		publisher:      publisher,
		now:            time.Now,
		createdCounter: mustCounter(meter, "products_created", "Total number of created products"),
		updatedCounter: mustCounter(meter, "products_updated", "Total number of updated products"),
		deletedCounter: mustCounter(meter, "products_deleted", "Total number of deleted products"),
	}
}

func mustCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Sprintf("failed to create %s counter: %v", name, err))
	}
	return counter
}

// ProductCreateDto represents the data transfer object for creating a new product.
// Every field is mandatory; pointers tell a missing value apart from a zero one.
type ProductCreateDto struct {
	Name     string           `json:"name"     validate:"required,max=100"`
	Quantity *int64           `json:"quantity" validate:"required,min=0"`
	Price    *decimal.Decimal `json:"price"    validate:"required,gte=0"`
	Status   *bool            `json:"status"   validate:"required"`
}

// ProductUpdateDto represents a partial update. Absent fields are left unchanged.
type ProductUpdateDto struct {
	Quantity *int64           `json:"quantity,omitempty" validate:"omitempty,min=0"`
	Price    *decimal.Decimal `json:"price,omitempty"    validate:"omitempty,gte=0"`
	Status   *bool            `json:"status,omitempty"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Status    bool            `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PriceFilter holds the optional inclusive price bounds of a query.
type PriceFilter struct {
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// Create creates a new product and returns it as a ProductDto.
// Returns ErrProductInsertion if the name is already taken.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	p, err := s.repository.Create(ctx, store.NewProduct{
		Name:     product.Name,
		Quantity: *product.Quantity,
		Price:    *product.Price,
		Status:   *product.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product %q: %w", product.Name, err)
	}

	s.publish(ctx, events.ProductCreatedEvent{Carrier: carrier(ctx), Product: toSnapshot(p)})
	s.createdCounter.Add(ctx, 1)

	return toDto(p), nil
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}

	return toDto(product), nil
}

// Query retrieves the products within the price bounds and returns them as ProductDTOs.
// Returns an empty slice if nothing matches or error if the retrieval fails.
func (s *Service) Query(ctx context.Context, filter PriceFilter) ([]ProductDto, error) {
	// bounds are range checked first so that comparing them stays cheap
	for _, bound := range []*decimal.Decimal{filter.MinPrice, filter.MaxPrice} {
		if bound == nil {
			continue
		}
		if _, err := store.ToDecimal128(*bound); err != nil {
			return nil, fmt.Errorf("failed to query products: %w", err)
		}
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, fmt.Errorf("failed to query products: %w", perrors.ErrInvalidPriceRange)
	}
	products, err := s.repository.Query(ctx, store.PriceRange{Min: filter.MinPrice, Max: filter.MaxPrice})
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	productDTOs := make([]ProductDto, len(products))

	for i, item := range products {
		productDTOs[i] = *toDto(&item)
	}

	return productDTOs, nil
}

// Update applies the supplied fields, refreshes updated_at and returns the updated product as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) Update(ctx context.Context, id uuid.UUID, product ProductUpdateDto) (*ProductDto, error) {
	updated, err := s.repository.Update(ctx, id, store.ProductUpdate{
		Quantity: product.Quantity,
		Price:    product.Price,
		Status:   product.Status,
	}, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %s: %w", id, err)
	}

	s.publish(ctx, events.ProductUpdatedEvent{Carrier: carrier(ctx), Product: toSnapshot(updated)})
	s.updatedCounter.Add(ctx, 1)

	return toDto(updated), nil
}

// DeleteByID deletes a product by its ID.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if err := s.repository.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product with ID %s: %w", id, err)
	}

	s.publish(ctx, events.ProductDeletedEvent{Carrier: carrier(ctx), ProductID: id, DeletedAt: s.now().UTC()})
	s.deletedCounter.Add(ctx, 1)

	return nil
}

// publish sends the event; a broker failure never fails the request that caused it.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish product event", "subject", event.Subject(), "error", err)
	}
}

// carrier captures the trace context so consumers can continue the trace.
func carrier(ctx context.Context) map[string]string {
	c := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, c)
	return c
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:        product.ID,
		Name:      product.Name,
		Quantity:  product.Quantity,
		Price:     product.Price,
		Status:    product.Status,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}

func toSnapshot(product *store.Product) events.ProductSnapshot {
	return events.ProductSnapshot{
		ID:        product.ID,
		Name:      product.Name,
		Quantity:  product.Quantity,
		Price:     product.Price,
		Status:    product.Status,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}
