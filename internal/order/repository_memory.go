package order

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/anteyko-labs/sushi-flutter/internal/cart"
	"github.com/anteyko-labs/sushi-flutter/internal/core"
	"github.com/anteyko-labs/sushi-flutter/internal/ingredient"
)

// InMemoryRepository backs tests. A single mutex around Create gives
// the same all-or-nothing contract the postgres transaction does.
type InMemoryRepository struct {
	mu     sync.Mutex
	ings   *ingredient.InMemoryRepository
	carts  cart.Repository
	orders map[int64]*Order
	usage  map[int64][]IngredientNeed
	nextID int64
}

func NewInMemoryRepository(ings *ingredient.InMemoryRepository, carts cart.Repository) *InMemoryRepository {
	return &InMemoryRepository{
		ings:   ings,
		carts:  carts,
		orders: make(map[int64]*Order),
		usage:  make(map[int64][]IngredientNeed),
		nextID: 1,
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, o *Order, consumption []IngredientNeed, clearCartFor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sort.Slice(consumption, func(i, j int) bool {
		return consumption[i].IngredientID < consumption[j].IngredientID
	})

	var shortfalls []core.Shortfall
	for _, need := range consumption {
		if _, err := r.ings.Get(ctx, need.IngredientID); err != nil {
			return err
		}
		stock := r.ings.Stock(need.IngredientID)
		if stock.LessThan(need.Amount) {
			shortfalls = append(shortfalls, core.Shortfall{
				IngredientID:   need.IngredientID,
				IngredientName: need.Name,
				Have:           stock,
				Need:           need.Amount,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &core.InsufficientStockError{Shortfalls: shortfalls}
	}

	now := time.Now().UTC()
	o.ID = r.nextID
	r.nextID++
	o.Status = StatusAccepted
	o.CreatedAt = now
	o.UpdatedAt = now

	for _, need := range consumption {
		if _, err := r.ings.AdjustStock(ctx, need.IngredientID, &ingredient.StockMovement{
			Delta:   need.Amount.Neg(),
			Reason:  ingredient.ReasonReservation,
			Comment: fmt.Sprintf("заказ #%d", o.ID),
		}); err != nil {
			return err
		}
	}

	for i := range o.Items {
		o.Items[i].ID = int64(i + 1)
		o.Items[i].OrderID = o.ID
	}
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	r.orders[o.ID] = &cp

	if clearCartFor != "" && r.carts != nil {
		if err := r.carts.Clear(ctx, clearCartFor); err != nil {
			return err
		}
	}
	return nil
}

func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, core.NotFound("order", id)
	}
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	return &cp, nil
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID string) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []Order
	for _, o := range r.orders {
		if o.UserID == userID {
			list = append(list, *o)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (r *InMemoryRepository) ListAll(_ context.Context) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		list = append(list, *o)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return core.NotFound("order", id)
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) JournalUsage(_ context.Context, orderID int64, usage []IngredientNeed) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.usage[orderID]; ok {
		return false, nil
	}
	r.usage[orderID] = append([]IngredientNeed(nil), usage...)
	return true, nil
}

func (r *InMemoryRepository) Usage(_ context.Context, orderID int64) ([]IngredientNeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]IngredientNeed(nil), r.usage[orderID]...), nil
}
