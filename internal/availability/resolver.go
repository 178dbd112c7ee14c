// Package availability answers "can this item be made right now" by
// walking the recipe graph against current ledger stock. It is strictly
// read-only: reservations happen inside the order transaction, which
// re-checks under row locks.
package availability

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/anteyko-labs/sushi-flutter/internal/catalog"
	"github.com/anteyko-labs/sushi-flutter/internal/core"
)

// CatalogReader is the slice of the catalog repository the resolver
// needs. Recipe lines arrive with ingredient stock joined in, so one
// query per roll is enough.
type CatalogReader interface {
	Recipe(ctx context.Context, rollID int64) ([]catalog.RecipeLine, error)
	Composition(ctx context.Context, setID int64) ([]catalog.SetItem, error)
}

type Resolver struct {
	catalog CatalogReader
}

func NewResolver(cat CatalogReader) *Resolver {
	return &Resolver{catalog: cat}
}

// RollAvailable reports whether quantity rolls can be made, with every
// ingredient shortfall enumerated, not just the first. A roll with no
// recipe lines consumes nothing and is always available.
func (r *Resolver) RollAvailable(ctx context.Context, rollID int64, quantity int) (bool, []core.Shortfall, error) {
	if quantity <= 0 {
		return false, nil, core.Invalid("quantity must be positive")
	}

	lines, err := r.catalog.Recipe(ctx, rollID)
	if err != nil {
		return false, nil, err
	}

	need := make(map[int64]decimal.Decimal, len(lines))
	meta := make(map[int64]catalog.RecipeLine, len(lines))
	accumulateNeeds(need, meta, lines, quantity)

	return resolve(need, meta)
}

// SetAvailable expands the set into its rolls and aggregates ingredient
// needs across them, so an ingredient shared by two rolls is checked
// against the combined demand.
func (r *Resolver) SetAvailable(ctx context.Context, setID int64, quantity int) (bool, []core.Shortfall, error) {
	if quantity <= 0 {
		return false, nil, core.Invalid("quantity must be positive")
	}

	items, err := r.catalog.Composition(ctx, setID)
	if err != nil {
		return false, nil, err
	}

	need := make(map[int64]decimal.Decimal)
	meta := make(map[int64]catalog.RecipeLine)
	for _, it := range items {
		lines, err := r.catalog.Recipe(ctx, it.RollID)
		if err != nil {
			return false, nil, err
		}
		accumulateNeeds(need, meta, lines, it.Quantity*quantity)
	}

	return resolve(need, meta)
}

func accumulateNeeds(need map[int64]decimal.Decimal, meta map[int64]catalog.RecipeLine, lines []catalog.RecipeLine, quantity int) {
	q := decimal.NewFromInt(int64(quantity))
	for _, l := range lines {
		need[l.IngredientID] = need[l.IngredientID].Add(l.AmountPerRoll.Mul(q))
		meta[l.IngredientID] = l
	}
}

// IngredientAvailable checks one ingredient's stock against a required
// amount. Roll and set checks reduce to this over their aggregated
// recipe lines.
func IngredientAvailable(id int64, name string, stock, need decimal.Decimal) (bool, *core.Shortfall) {
	if stock.GreaterThanOrEqual(need) {
		return true, nil
	}
	return false, &core.Shortfall{
		IngredientID:   id,
		IngredientName: name,
		Have:           stock,
		Need:           need,
	}
}

func resolve(need map[int64]decimal.Decimal, meta map[int64]catalog.RecipeLine) (bool, []core.Shortfall, error) {
	var shortfalls []core.Shortfall
	for id, n := range need {
		l := meta[id]
		if ok, sf := IngredientAvailable(id, l.IngredientName, l.StockQuantity, n); !ok {
			shortfalls = append(shortfalls, *sf)
		}
	}
	// deterministic order keeps API responses stable
	sort.Slice(shortfalls, func(i, j int) bool {
		return shortfalls[i].IngredientID < shortfalls[j].IngredientID
	})
	return len(shortfalls) == 0, shortfalls, nil
}
