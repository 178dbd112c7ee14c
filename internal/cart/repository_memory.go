package cart

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository backs tests.
type InMemoryRepository struct {
	mu    sync.Mutex
	carts map[string][]Line
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{carts: make(map[string][]Line)}
}

func (r *InMemoryRepository) Get(_ context.Context, userID string) (*Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := append([]Line(nil), r.carts[userID]...)
	if items == nil {
		items = []Line{}
	}
	return &Cart{UserID: userID, Items: items, UpdatedAt: time.Now().UTC()}, nil
}

func (r *InMemoryRepository) Save(_ context.Context, cart *Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[cart.UserID] = append([]Line(nil), cart.Items...)
	return nil
}

func (r *InMemoryRepository) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[userID] = []Line{}
	return nil
}

func (r *InMemoryRepository) Create(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[userID]; !ok {
		r.carts[userID] = []Line{}
	}
	return nil
}
