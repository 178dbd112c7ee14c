package ingredient

import "context"

// Repository defines the ledger's storage operations. AdjustStock is
// the ONLY way stock changes outside an order reservation; it must
// check and apply the delta atomically.
type Repository interface {
	Get(ctx context.Context, id int64) (*Ingredient, error)
	List(ctx context.Context) ([]Ingredient, error)
	Create(ctx context.Context, ing *Ingredient) error
	Update(ctx context.Context, ing *Ingredient) error
	Delete(ctx context.Context, id int64) error

	// AdjustStock applies delta inside one transaction, failing with a
	// ValidationError when the result would go negative, and records
	// the movement row.
	AdjustStock(ctx context.Context, id int64, m *StockMovement) (*StockMovement, error)

	Movements(ctx context.Context, ingredientID int64) ([]StockMovement, error)

	// InUse reports whether any recipe line references the ingredient.
	InUse(ctx context.Context, id int64) (bool, error)
}
