package ingredient

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anteyko-labs/sushi-flutter/internal/core"
)

// InMemoryRepository backs tests and local development.
type InMemoryRepository struct {
	mu        sync.Mutex
	items     map[int64]*Ingredient
	movements []StockMovement
	nextID    int64

	// recipeRefs lets tests mark an ingredient as referenced by a recipe.
	recipeRefs map[int64]bool
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		items:      make(map[int64]*Ingredient),
		recipeRefs: make(map[int64]bool),
		nextID:     1,
	}
}

func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ing, ok := r.items[id]
	if !ok {
		return nil, core.NotFound("ingredient", id)
	}
	cp := *ing
	return &cp, nil
}

func (r *InMemoryRepository) List(_ context.Context) ([]Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]Ingredient, 0, len(r.items))
	for _, ing := range r.items {
		list = append(list, *ing)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *InMemoryRepository) Create(_ context.Context, ing *Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ing.ID = r.nextID
	r.nextID++
	ing.CreatedAt = time.Now().UTC()
	ing.UpdatedAt = ing.CreatedAt
	cp := *ing
	r.items[ing.ID] = &cp
	return nil
}

func (r *InMemoryRepository) Update(_ context.Context, ing *Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[ing.ID]
	if !ok {
		return core.NotFound("ingredient", ing.ID)
	}
	stored.Name = ing.Name
	stored.Unit = ing.Unit
	stored.CostPerUnit = ing.CostPerUnit
	stored.PricePerUnit = ing.PricePerUnit
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return core.NotFound("ingredient", id)
	}
	delete(r.items, id)
	return nil
}

func (r *InMemoryRepository) AdjustStock(_ context.Context, id int64, m *StockMovement) (*StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ing, ok := r.items[id]
	if !ok {
		return nil, core.NotFound("ingredient", id)
	}

	after := ing.StockQuantity.Add(m.Delta)
	if after.IsNegative() {
		return nil, core.Invalid("stock of ingredient %d cannot go below zero (have %s, delta %s)",
			id, ing.StockQuantity, m.Delta)
	}

	m.ID = uuid.New().String()
	m.IngredientID = id
	m.StockBefore = ing.StockQuantity
	m.StockAfter = after
	m.CreatedAt = time.Now().UTC()

	ing.StockQuantity = after
	ing.UpdatedAt = m.CreatedAt
	r.movements = append(r.movements, *m)
	return m, nil
}

func (r *InMemoryRepository) Movements(_ context.Context, ingredientID int64) ([]StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []StockMovement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].IngredientID == ingredientID {
			list = append(list, r.movements[i])
		}
	}
	return list, nil
}

func (r *InMemoryRepository) InUse(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recipeRefs[id], nil
}

// MarkInUse flags an ingredient as referenced by a recipe line.
func (r *InMemoryRepository) MarkInUse(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recipeRefs[id] = true
}

// Stock returns the current quantity, for test assertions.
func (r *InMemoryRepository) Stock(id int64) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ing, ok := r.items[id]; ok {
		return ing.StockQuantity
	}
	return decimal.Zero
}
