package cart

import "context"

// Repository persists carts. Get on a user without a cart row returns
// an empty cart, not an error; registration pre-creates the row but a
// missing one must not break the flow.
type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Clear(ctx context.Context, userID string) error
	Create(ctx context.Context, userID string) error
}
