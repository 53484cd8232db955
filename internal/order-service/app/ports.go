package app

import (
	"context"
	"errors"

	"github.com/jcmexdev/order-management/internal/order-service/domain"
)

// ErrOrderNotFound is returned by repositories when no order exists for the
// given ID.
var ErrOrderNotFound = errors.New("order not found")

// Repository is the port for order persistence. The service depends on this
// abstraction, not on a concrete store, so the in-memory adapter can be
// swapped for a database-backed one.
type Repository interface {
	// Get loads the order or returns ErrOrderNotFound. Implementations must
	// return a snapshot the caller may mutate freely.
	Get(ctx context.Context, id string) (*domain.Order, error)

	// Save persists the aggregate, replacing any previous state.
	Save(ctx context.Context, order *domain.Order) error
}
