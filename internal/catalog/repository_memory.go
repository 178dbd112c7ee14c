package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/anteyko-labs/sushi-flutter/internal/core"
	"github.com/anteyko-labs/sushi-flutter/internal/ingredient"
)

// InMemoryRepository backs tests. It joins ingredient data from the
// ingredient in-memory repository the same way the postgres queries do,
// so recipe lines always see current costs and stock. BOM mutations
// recompute the derived costs before returning, matching the postgres
// repository's transactional contract.
type InMemoryRepository struct {
	mu          sync.Mutex
	ingredients *ingredient.InMemoryRepository

	rolls    map[int64]*Roll
	recipes  map[int64][]RecipeLine // keyed by roll id
	sets     map[int64]*Set
	setItems map[int64][]SetItem // keyed by set id

	nextRollID int64
	nextSetID  int64
}

func NewInMemoryRepository(ings *ingredient.InMemoryRepository) *InMemoryRepository {
	return &InMemoryRepository{
		ingredients: ings,
		rolls:       make(map[int64]*Roll),
		recipes:     make(map[int64][]RecipeLine),
		sets:        make(map[int64]*Set),
		setItems:    make(map[int64][]SetItem),
		nextRollID:  1,
		nextSetID:   1,
	}
}

func (r *InMemoryRepository) GetRoll(_ context.Context, id int64) (*Roll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roll, ok := r.rolls[id]
	if !ok {
		return nil, core.NotFound("roll", id)
	}
	cp := *roll
	return &cp, nil
}

func (r *InMemoryRepository) ListRolls(_ context.Context) ([]Roll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]Roll, 0, len(r.rolls))
	for _, roll := range r.rolls {
		list = append(list, *roll)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *InMemoryRepository) CreateRoll(_ context.Context, roll *Roll) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	roll.ID = r.nextRollID
	r.nextRollID++
	roll.CreatedAt = time.Now().UTC()
	roll.UpdatedAt = roll.CreatedAt
	cp := *roll
	r.rolls[roll.ID] = &cp
	return nil
}

func (r *InMemoryRepository) UpdateRoll(_ context.Context, roll *Roll) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.rolls[roll.ID]
	if !ok {
		return core.NotFound("roll", roll.ID)
	}
	stored.Name = roll.Name
	stored.Description = roll.Description
	stored.SalePrice = roll.SalePrice
	stored.ImageURL = roll.ImageURL
	stored.IsPopular = roll.IsPopular
	stored.IsNew = roll.IsNew
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) DeleteRoll(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rolls[id]; !ok {
		return core.NotFound("roll", id)
	}
	delete(r.rolls, id)
	delete(r.recipes, id)
	return nil
}

func (r *InMemoryRepository) Recipe(ctx context.Context, rollID int64) ([]RecipeLine, error) {
	r.mu.Lock()
	lines := append([]RecipeLine(nil), r.recipes[rollID]...)
	r.mu.Unlock()

	// join live ingredient data
	for i := range lines {
		ing, err := r.ingredients.Get(ctx, lines[i].IngredientID)
		if err != nil {
			return nil, err
		}
		lines[i].IngredientName = ing.Name
		lines[i].Unit = ing.Unit
		lines[i].CostPerUnit = ing.CostPerUnit
		lines[i].StockQuantity = ing.StockQuantity
	}
	return lines, nil
}

func (r *InMemoryRepository) AddRecipeLine(ctx context.Context, line *RecipeLine) error {
	if _, err := r.ingredients.Get(ctx, line.IngredientID); err != nil {
		return err
	}

	r.mu.Lock()
	if _, ok := r.rolls[line.RollID]; !ok {
		r.mu.Unlock()
		return core.NotFound("roll", line.RollID)
	}
	for _, l := range r.recipes[line.RollID] {
		if l.IngredientID == line.IngredientID {
			r.mu.Unlock()
			return core.Invalid("ingredient %d is already in the recipe of roll %d",
				line.IngredientID, line.RollID)
		}
	}
	r.recipes[line.RollID] = append(r.recipes[line.RollID], *line)
	r.mu.Unlock()

	return r.RecomputeRoll(ctx, line.RollID)
}

func (r *InMemoryRepository) UpdateRecipeLine(ctx context.Context, rollID, ingredientID int64, amount decimal.Decimal) error {
	r.mu.Lock()
	lines := r.recipes[rollID]
	for i := range lines {
		if lines[i].IngredientID == ingredientID {
			lines[i].AmountPerRoll = amount
			r.mu.Unlock()
			return r.RecomputeRoll(ctx, rollID)
		}
	}
	r.mu.Unlock()
	return core.NotFound("recipe line", ingredientID)
}

func (r *InMemoryRepository) RemoveRecipeLine(ctx context.Context, rollID, ingredientID int64) error {
	r.mu.Lock()
	lines := r.recipes[rollID]
	for i := range lines {
		if lines[i].IngredientID == ingredientID {
			r.recipes[rollID] = append(lines[:i], lines[i+1:]...)
			r.mu.Unlock()
			return r.RecomputeRoll(ctx, rollID)
		}
	}
	r.mu.Unlock()
	return core.NotFound("recipe line", ingredientID)
}

// RecomputeRoll mirrors the postgres cascade: roll cost from the live
// recipe, then every containing set.
func (r *InMemoryRepository) RecomputeRoll(ctx context.Context, rollID int64) error {
	lines, err := r.Recipe(ctx, rollID)
	if err != nil {
		return err
	}
	cost := RecipeCost(lines)

	r.mu.Lock()
	roll, ok := r.rolls[rollID]
	if !ok {
		r.mu.Unlock()
		return core.NotFound("roll", rollID)
	}
	roll.CostPrice = cost
	roll.UpdatedAt = time.Now().UTC()
	r.mu.Unlock()

	setIDs, err := r.SetsContainingRoll(ctx, rollID)
	if err != nil {
		return err
	}
	for _, setID := range setIDs {
		if err := r.recomputeSet(ctx, setID); err != nil {
			return err
		}
	}
	return nil
}

func (r *InMemoryRepository) recomputeSet(ctx context.Context, setID int64) error {
	items, err := r.Composition(ctx, setID)
	if err != nil {
		return err
	}
	cost := CompositionCost(items)

	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sets[setID]
	if !ok {
		return core.NotFound("set", setID)
	}
	set.CostPrice = cost
	set.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) RollsUsingIngredient(_ context.Context, ingredientID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []int64
	for rollID, lines := range r.recipes {
		for _, l := range lines {
			if l.IngredientID == ingredientID {
				ids = append(ids, rollID)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *InMemoryRepository) GetSet(_ context.Context, id int64) (*Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[id]
	if !ok {
		return nil, core.NotFound("set", id)
	}
	cp := *set
	return &cp, nil
}

func (r *InMemoryRepository) ListSets(_ context.Context) ([]Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]Set, 0, len(r.sets))
	for _, s := range r.sets {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *InMemoryRepository) CreateSet(_ context.Context, set *Set) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set.ID = r.nextSetID
	r.nextSetID++
	set.CreatedAt = time.Now().UTC()
	set.UpdatedAt = set.CreatedAt
	cp := *set
	r.sets[set.ID] = &cp
	return nil
}

func (r *InMemoryRepository) UpdateSet(_ context.Context, set *Set) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sets[set.ID]
	if !ok {
		return core.NotFound("set", set.ID)
	}
	stored.Name = set.Name
	stored.Description = set.Description
	stored.SetPrice = set.SetPrice
	stored.ImageURL = set.ImageURL
	stored.IsPopular = set.IsPopular
	stored.IsNew = set.IsNew
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) DeleteSet(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sets[id]; !ok {
		return core.NotFound("set", id)
	}
	delete(r.sets, id)
	delete(r.setItems, id)
	return nil
}

func (r *InMemoryRepository) Composition(_ context.Context, setID int64) ([]SetItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := append([]SetItem(nil), r.setItems[setID]...)
	for i := range items {
		if roll, ok := r.rolls[items[i].RollID]; ok {
			items[i].RollName = roll.Name
			items[i].RollCostPrice = roll.CostPrice
			items[i].RollSalePrice = roll.SalePrice
		}
	}
	return items, nil
}

func (r *InMemoryRepository) AddSetItem(ctx context.Context, item *SetItem) error {
	r.mu.Lock()
	if _, ok := r.sets[item.SetID]; !ok {
		r.mu.Unlock()
		return core.NotFound("set", item.SetID)
	}
	if _, ok := r.rolls[item.RollID]; !ok {
		r.mu.Unlock()
		return core.NotFound("roll", item.RollID)
	}
	for _, it := range r.setItems[item.SetID] {
		if it.RollID == item.RollID {
			r.mu.Unlock()
			return core.Invalid("roll %d is already in set %d", item.RollID, item.SetID)
		}
	}
	r.setItems[item.SetID] = append(r.setItems[item.SetID], *item)
	r.mu.Unlock()

	return r.recomputeSet(ctx, item.SetID)
}

func (r *InMemoryRepository) UpdateSetItem(ctx context.Context, setID, rollID int64, quantity int) error {
	r.mu.Lock()
	items := r.setItems[setID]
	for i := range items {
		if items[i].RollID == rollID {
			items[i].Quantity = quantity
			r.mu.Unlock()
			return r.recomputeSet(ctx, setID)
		}
	}
	r.mu.Unlock()
	return core.NotFound("set composition line", rollID)
}

func (r *InMemoryRepository) RemoveSetItem(ctx context.Context, setID, rollID int64) error {
	r.mu.Lock()
	items := r.setItems[setID]
	for i := range items {
		if items[i].RollID == rollID {
			r.setItems[setID] = append(items[:i], items[i+1:]...)
			r.mu.Unlock()
			return r.recomputeSet(ctx, setID)
		}
	}
	r.mu.Unlock()
	return core.NotFound("set composition line", rollID)
}

func (r *InMemoryRepository) SetsContainingRoll(_ context.Context, rollID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []int64
	for setID, items := range r.setItems {
		for _, it := range items {
			if it.RollID == rollID {
				ids = append(ids, setID)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
