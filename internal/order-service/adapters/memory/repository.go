// Package memory provides an in-memory implementation of app.Repository,
// used for local development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/jcmexdev/order-management/internal/order-service/app"
	"github.com/jcmexdev/order-management/internal/order-service/domain"
)

// Ensure the adapter implements the port at compile time.
var _ app.Repository = (*Repository)(nil)

// Repository stores orders in a map. Every Get and Save deep-copies the
// aggregate so callers never share mutable state with the store.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

// NewRepository returns an empty in-memory store.
func NewRepository() *Repository {
	return &Repository{orders: make(map[string]*domain.Order)}
}

// Get returns an isolated snapshot or app.ErrOrderNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, app.ErrOrderNotFound
	}
	return order.Clone(), nil
}

// Save stores a snapshot of the aggregate, replacing any previous state.
func (r *Repository) Save(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order.Clone()
	return nil
}
