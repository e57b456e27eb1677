// Package store provides an interface for product storage operations.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a persisted product.
type Product struct {
	ID        uuid.UUID
	Name      string
	Quantity  int64
	Price     decimal.Decimal
	Status    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct holds the fields supplied when a product is created.
type NewProduct struct {
	Name     string
	Quantity int64
	Price    decimal.Decimal
	Status   bool
}

// ProductUpdate holds the fields of a partial update. Nil fields are left unchanged.
type ProductUpdate struct {
	Quantity *int64
	Price    *decimal.Decimal
	Status   *bool
}

// PriceRange is an inclusive price interval. A nil bound leaves that side open.
type PriceRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations.
type ProductStore interface {
	// Create adds a new product and returns it with its generated ID and timestamps.
	// Returns ErrProductInsertion if the name is already taken.
	Create(ctx context.Context, product NewProduct) (*Product, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// Query returns the products whose price lies within the range.
	// Returns an empty slice if nothing matches.
	Query(ctx context.Context, priceRange PriceRange) ([]Product, error)

	// Update applies the supplied fields and sets updated_at, returning the product after the update.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id uuid.UUID, update ProductUpdate, updatedAt time.Time) (*Product, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// Ping checks that the underlying store is reachable.
	Ping(ctx context.Context) error
}
