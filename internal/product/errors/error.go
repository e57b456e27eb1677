// Package errors provides custom error types for product-related operations.
package errors

import "errors"

// ErrProductNotFound is returned when no product exists for the given ID.
var ErrProductNotFound = errors.New("product not found")

// ErrProductInsertion is returned when a product cannot be inserted, e.g. its name is already taken.
var ErrProductInsertion = errors.New("product insertion failed")

// ErrInvalidPrice is returned when a price cannot be stored without losing precision.
var ErrInvalidPrice = errors.New("invalid price")

// ErrInvalidPriceRange is returned when the lower price bound is greater than the upper one.
var ErrInvalidPriceRange = errors.New("min_price must not be greater than max_price")

// ErrStoreUnavailable is returned while the store circuit breaker is open.
var ErrStoreUnavailable = errors.New("product store unavailable")
