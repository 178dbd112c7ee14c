package order

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anteyko-labs/sushi-flutter/internal/availability"
	"github.com/anteyko-labs/sushi-flutter/internal/cart"
	"github.com/anteyko-labs/sushi-flutter/internal/catalog"
	"github.com/anteyko-labs/sushi-flutter/internal/core"
	"github.com/anteyko-labs/sushi-flutter/internal/events"
	"github.com/anteyko-labs/sushi-flutter/internal/ingredient"
)

const userID = "2f0c5f6e-9d39-4a59-b2d1-000000000001"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	svc     *Service
	carts   *cart.Service
	catalog *catalog.Service
	ings    *ingredient.InMemoryRepository
	repo    *InMemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ings := ingredient.NewInMemoryRepository()
	catRepo := catalog.NewInMemoryRepository(ings)
	cartRepo := cart.NewInMemoryRepository()
	resolver := availability.NewResolver(catRepo)
	carts := cart.NewService(cartRepo, catRepo, resolver)
	repo := NewInMemoryRepository(ings, cartRepo)
	return &fixture{
		svc:     NewService(repo, catRepo, carts, nil, events.Nop{}),
		carts:   carts,
		catalog: catalog.NewService(catRepo, nil),
		ings:    ings,
		repo:    repo,
	}
}

func (f *fixture) ingredient(t *testing.T, name, stock string) int64 {
	t.Helper()
	ing := &ingredient.Ingredient{Name: name, Unit: "г", StockQuantity: d(stock), CostPerUnit: d("0.5")}
	require.NoError(t, f.ings.Create(context.Background(), ing))
	return ing.ID
}

func (f *fixture) roll(t *testing.T, name, price string, recipe map[int64]string) int64 {
	t.Helper()
	ctx := context.Background()
	roll := &catalog.Roll{Name: name, SalePrice: d(price)}
	require.NoError(t, f.catalog.CreateRoll(ctx, roll))
	for ingID, amount := range recipe {
		require.NoError(t, f.catalog.AddRecipeLine(ctx, &catalog.RecipeLine{
			RollID: roll.ID, IngredientID: ingID, AmountPerRoll: d(amount),
		}))
	}
	return roll.ID
}

func (f *fixture) set(t *testing.T, name, price string, rolls map[int64]int) int64 {
	t.Helper()
	ctx := context.Background()
	set := &catalog.Set{Name: name, SetPrice: d(price)}
	require.NoError(t, f.catalog.CreateSet(ctx, set))
	for rollID, qty := range rolls {
		require.NoError(t, f.catalog.AddSetItem(ctx, &catalog.SetItem{
			SetID: set.ID, RollID: rollID, Quantity: qty,
		}))
	}
	return set.ID
}

func delivery() CreateRequest {
	return CreateRequest{
		Phone:           "+996700112233",
		DeliveryAddress: "Бишкек, Чуй 128",
		PaymentMethod:   "cash",
	}
}

func TestCreateDecrementsStockAndSnapshotsPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "100")
	roll := f.roll(t, "Калифорния", "400", map[int64]string{rice: "30"})

	req := delivery()
	req.Items = []ItemRequest{{ItemType: cart.ItemRoll, ItemID: roll, Quantity: 2}}
	order, err := f.svc.Create(ctx, userID, req)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, order.Status)
	assert.True(t, d("800").Equal(order.TotalPrice))
	require.Len(t, order.Items, 1)
	assert.True(t, d("400").Equal(order.Items[0].UnitPrice))
	assert.True(t, d("40").Equal(f.ings.Stock(rice)), "2 rolls × 30г must leave 40г")
}

func TestCreateFailureChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "100")
	nori := f.ingredient(t, "Нори", "1")
	roll := f.roll(t, "Филадельфия", "450", map[int64]string{rice: "30", nori: "2"})

	req := delivery()
	req.Items = []ItemRequest{{ItemType: cart.ItemRoll, ItemID: roll, Quantity: 1}}
	_, err := f.svc.Create(ctx, userID, req)

	var ins *core.InsufficientStockError
	require.ErrorAs(t, err, &ins)
	require.Len(t, ins.Shortfalls, 1)
	assert.Equal(t, nori, ins.Shortfalls[0].IngredientID)

	// nothing moved, even for the ingredient that had enough
	assert.True(t, d("100").Equal(f.ings.Stock(rice)))
	assert.True(t, d("1").Equal(f.ings.Stock(nori)))

	orders, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateListsEveryShortfall(t *testing.T) {
	f := newFixture(t)
	rice := f.ingredient(t, "Рис", "10")
	nori := f.ingredient(t, "Нори", "0")
	roll := f.roll(t, "Филадельфия", "450", map[int64]string{rice: "30", nori: "2"})

	req := delivery()
	req.Items = []ItemRequest{{ItemType: cart.ItemRoll, ItemID: roll, Quantity: 1}}
	_, err := f.svc.Create(context.Background(), userID, req)

	var ins *core.InsufficientStockError
	require.ErrorAs(t, err, &ins)
	assert.Len(t, ins.Shortfalls, 2)
}

// Exhausting stock order by order: with 100г of rice and a 50г recipe,
// two orders fit and the third names the exact shortfall.
func TestCreateExhaustsStockExactly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "100")
	roll := f.roll(t, "Калифорния", "400", map[int64]string{rice: "50"})

	req := delivery()
	req.Items = []ItemRequest{{ItemType: cart.ItemRoll, ItemID: roll, Quantity: 1}}

	_, err := f.svc.Create(ctx, userID, req)
	require.NoError(t, err)
	assert.True(t, d("50").Equal(f.ings.Stock(rice)))

	_, err = f.svc.Create(ctx, userID, req)
	require.NoError(t, err)
	assert.True(t, f.ings.Stock(rice).IsZero())

	_, err = f.svc.Create(ctx, userID, req)
	var ins *core.InsufficientStockError
	require.ErrorAs(t, err, &ins)
	require.Len(t, ins.Shortfalls, 1)
	assert.Equal(t, "Рис: out of stock", ins.Shortfalls[0].String())
}

func TestCreateFromCartClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "100")
	roll := f.roll(t, "Калифорния", "400", map[int64]string{rice: "30"})

	_, err := f.carts.Add(ctx, userID, cart.ItemRoll, roll, 2)
	require.NoError(t, err)

	order, err := f.svc.Create(ctx, userID, delivery())
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	stored, err := f.carts.Raw(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
}

func TestExplicitItemsWinOverCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "1000")
	inCart := f.roll(t, "Калифорния", "400", map[int64]string{rice: "30"})
	explicit := f.roll(t, "Филадельфия", "450", map[int64]string{rice: "30"})

	_, err := f.carts.Add(ctx, userID, cart.ItemRoll, inCart, 5)
	require.NoError(t, err)

	req := delivery()
	req.Items = []ItemRequest{{ItemType: cart.ItemRoll, ItemID: explicit, Quantity: 1}}
	order, err := f.svc.Create(ctx, userID, req)
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, explicit, order.Items[0].ItemID)

	stored, err := f.carts.Raw(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1, "cart is left untouched")
}

func TestEmptyOrderRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), userID, delivery())
	assert.ErrorIs(t, err, core.ErrEmptyOrder)
}

func TestOrderWithOnlyFreeItemsRejected(t *testing.T) {
	f := newFixture(t)
	rice := f.ingredient(t, "Рис", "100")
	roll := f.roll(t, "Калифорния", "400", map[int64]string{rice: "30"})

	req := delivery()
	req.Items = []ItemRequest{{ItemType: cart.ItemLoyaltyRoll, ItemID: roll, Quantity: 1}}
	_, err := f.svc.Create(context.Background(), userID, req)
	assert.ErrorIs(t, err, core.ErrNoPaidItems)
}

func TestLoyaltyRollConsumesIngredientsButCostsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "100")
	roll := f.roll(t, "Калифорния", "400", map[int64]string{rice: "30"})

	req := delivery()
	req.Items = []ItemRequest{
		{ItemType: cart.ItemRoll, ItemID: roll, Quantity: 1},
		{ItemType: cart.ItemLoyaltyRoll, ItemID: roll, Quantity: 1},
	}
	order, err := f.svc.Create(ctx, userID, req)
	require.NoError(t, err)

	assert.True(t, d("400").Equal(order.TotalPrice), "free roll adds nothing to the total")
	assert.True(t, d("40").Equal(f.ings.Stock(rice)), "free roll still consumes 30г")
}

func TestTotalOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "1000")
	roll := f.roll(t, "Калифорния", "400", map[int64]string{rice: "30"})

	req := delivery()
	req.Items = []ItemRequest{{ItemType: cart.ItemRoll, ItemID: roll, Quantity: 1}}
	req.Total = d("350")
	order, err := f.svc.Create(ctx, userID, req)
	require.NoError(t, err)
	assert.True(t, d("350").Equal(order.TotalPrice))

	req.Total = d("-1")
	_, err = f.svc.Create(ctx, userID, req)
	assert.ErrorIs(t, err, core.ErrNegativeTotal)
}

func TestSetExpandsToRecipes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "200")
	first := f.roll(t, "Калифорния", "400", map[int64]string{rice: "30"})
	second := f.roll(t, "Филадельфия", "450", map[int64]string{rice: "40"})
	set := f.set(t, "Сет Токио", "800", map[int64]int{first: 1, second: 2})

	req := delivery()
	req.Items = []ItemRequest{{ItemType: cart.ItemSet, ItemID: set, Quantity: 1}}
	order, err := f.svc.Create(ctx, userID, req)
	require.NoError(t, err)

	assert.True(t, d("800").Equal(order.TotalPrice))
	// 30 + 2×40 = 110 consumed
	assert.True(t, d("90").Equal(f.ings.Stock(rice)))
}

func TestPriceSnapshotSurvivesCatalogChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "1000")
	rollID := f.roll(t, "Калифорния", "400", map[int64]string{rice: "30"})

	req := delivery()
	req.Items = []ItemRequest{{ItemType: cart.ItemRoll, ItemID: rollID, Quantity: 1}}
	order, err := f.svc.Create(ctx, userID, req)
	require.NoError(t, err)

	roll, err := f.catalog.GetRoll(ctx, rollID)
	require.NoError(t, err)
	roll.SalePrice = d("999")
	require.NoError(t, f.catalog.UpdateRoll(ctx, roll))

	reloaded, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, d("400").Equal(reloaded.Items[0].UnitPrice))
	assert.True(t, d("400").Equal(reloaded.TotalPrice))
}

// Two concurrent orders race for stock that covers only one of them:
// exactly one must win and stock must never go negative.
func TestConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "50")
	roll := f.roll(t, "Калифорния", "400", map[int64]string{rice: "50"})

	req := delivery()
	req.Items = []ItemRequest{{ItemType: cart.ItemRoll, ItemID: roll, Quantity: 1}}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(ctx, userID, req)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			var ins *core.InsufficientStockError
			require.ErrorAs(t, err, &ins)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.False(t, f.ings.Stock(rice).IsNegative())
	assert.True(t, f.ings.Stock(rice).IsZero())
}

func TestReservationWritesMovementRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "100")
	roll := f.roll(t, "Калифорния", "400", map[int64]string{rice: "30"})

	req := delivery()
	req.Items = []ItemRequest{{ItemType: cart.ItemRoll, ItemID: roll, Quantity: 2}}
	_, err := f.svc.Create(ctx, userID, req)
	require.NoError(t, err)

	movements, err := f.ings.Movements(ctx, rice)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, ingredient.ReasonReservation, movements[0].Reason)
	assert.True(t, d("-60").Equal(movements[0].Delta))
}
