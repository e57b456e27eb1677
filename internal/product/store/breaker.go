package store

import (
	"context"
	"errors"
	"time"

	perrors "github.com/abgdnv/gostore/internal/product/errors"
	"github.com/abgdnv/gostore/pkg/config"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

var _ ProductStore = (*BreakerStore)(nil)

// BreakerStore wraps a ProductStore with a circuit breaker.
// Only infrastructure failures trip the breaker; domain errors pass through as successes.
type BreakerStore struct {
	next ProductStore
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerStore creates a BreakerStore around next.
func NewBreakerStore(next ProductStore, cfg config.CircuitBreakerConfig) *BreakerStore {
	st := gobreaker.Settings{
		Name:        "product-store-cb",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(total > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: isSuccessful,
	}
	return &BreakerStore{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](st),
	}
}

// isSuccessful reports whether err should count as a healthy store call.
func isSuccessful(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, perrors.ErrProductNotFound),
		errors.Is(err, perrors.ErrProductInsertion),
		errors.Is(err, perrors.ErrInvalidPrice),
		errors.Is(err, context.Canceled):
		return true
	default:
		return false
	}
}

// execute runs fn through the breaker and translates an open breaker into ErrStoreUnavailable.
func execute[T any](b *BreakerStore, fn func() (T, error)) (T, error) {
	var zero T
	res, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, errors.Join(perrors.ErrStoreUnavailable, err)
		}
		return zero, err
	}
	return res.(T), nil
}

func (b *BreakerStore) Create(ctx context.Context, product NewProduct) (*Product, error) {
	return execute(b, func() (*Product, error) {
		return b.next.Create(ctx, product)
	})
}

func (b *BreakerStore) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return execute(b, func() (*Product, error) {
		return b.next.FindByID(ctx, id)
	})
}

func (b *BreakerStore) Query(ctx context.Context, priceRange PriceRange) ([]Product, error) {
	return execute(b, func() ([]Product, error) {
		return b.next.Query(ctx, priceRange)
	})
}

func (b *BreakerStore) Update(ctx context.Context, id uuid.UUID, update ProductUpdate, updatedAt time.Time) (*Product, error) {
	return execute(b, func() (*Product, error) {
		return b.next.Update(ctx, id, update, updatedAt)
	})
}

func (b *BreakerStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := execute(b, func() (struct{}, error) {
		return struct{}{}, b.next.DeleteByID(ctx, id)
	})
	return err
}

// Ping bypasses the breaker so readiness reflects the real store state.
func (b *BreakerStore) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}

// State returns the current breaker state.
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}
