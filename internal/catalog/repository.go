package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines storage for rolls, sets and the BOM graph.
// Every BOM mutation recomputes the derived costs it invalidates in
// the same transaction as the write, so a partial failure can never
// leave a stale cost_price behind.
type Repository interface {
	GetRoll(ctx context.Context, id int64) (*Roll, error)
	ListRolls(ctx context.Context) ([]Roll, error)
	CreateRoll(ctx context.Context, roll *Roll) error
	UpdateRoll(ctx context.Context, roll *Roll) error
	DeleteRoll(ctx context.Context, id int64) error

	// Recipe returns the roll's lines with ingredient data joined in.
	Recipe(ctx context.Context, rollID int64) ([]RecipeLine, error)
	AddRecipeLine(ctx context.Context, line *RecipeLine) error
	UpdateRecipeLine(ctx context.Context, rollID, ingredientID int64, amount decimal.Decimal) error
	RemoveRecipeLine(ctx context.Context, rollID, ingredientID int64) error

	GetSet(ctx context.Context, id int64) (*Set, error)
	ListSets(ctx context.Context) ([]Set, error)
	CreateSet(ctx context.Context, set *Set) error
	UpdateSet(ctx context.Context, set *Set) error
	DeleteSet(ctx context.Context, id int64) error

	// Composition returns the set's rolls with their figures joined in.
	Composition(ctx context.Context, setID int64) ([]SetItem, error)
	AddSetItem(ctx context.Context, item *SetItem) error
	UpdateSetItem(ctx context.Context, setID, rollID int64, quantity int) error
	RemoveSetItem(ctx context.Context, setID, rollID int64) error

	// RecomputeRoll refreshes one roll's cost from its recipe and
	// cascades into every containing set, atomically. Callers use it
	// when an input outside the BOM (an ingredient's unit cost)
	// changes.
	RecomputeRoll(ctx context.Context, rollID int64) error

	// RollsUsingIngredient lists the rolls whose recipes reference the
	// ingredient.
	RollsUsingIngredient(ctx context.Context, ingredientID int64) ([]int64, error)

	// SetsContainingRoll backs the roll deletion guard.
	SetsContainingRoll(ctx context.Context, rollID int64) ([]int64, error)
}
