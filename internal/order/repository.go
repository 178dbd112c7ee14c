package order

import "context"

// Repository persists orders. Create is the fulfillment transaction:
// it verifies stock against the full consumption list, decrements the
// ledger, records the stock movements, stores the order with its items
// and clears the user's cart, all atomically. On any shortfall it
// changes nothing and returns InsufficientStockError with every
// shortfall listed.
type Repository interface {
	// clearCartFor is the user whose cart the transaction empties;
	// empty string skips the cart step.
	Create(ctx context.Context, order *Order, consumption []IngredientNeed, clearCartFor string) error

	Get(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) error

	// JournalUsage records the order's ingredient usage once; repeated
	// calls for the same order are no-ops. Returns whether this call
	// actually wrote the journal.
	JournalUsage(ctx context.Context, orderID int64, usage []IngredientNeed) (bool, error)
	Usage(ctx context.Context, orderID int64) ([]IngredientNeed, error)
}
