package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anteyko-labs/sushi-flutter/internal/availability"
	"github.com/anteyko-labs/sushi-flutter/internal/catalog"
	"github.com/anteyko-labs/sushi-flutter/internal/core"
	"github.com/anteyko-labs/sushi-flutter/internal/ingredient"
)

const userID = "2f0c5f6e-9d39-4a59-b2d1-000000000001"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	svc     *Service
	catalog *catalog.Service
	ings    *ingredient.InMemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ings := ingredient.NewInMemoryRepository()
	catRepo := catalog.NewInMemoryRepository(ings)
	resolver := availability.NewResolver(catRepo)
	return &fixture{
		svc:     NewService(NewInMemoryRepository(), catRepo, resolver),
		catalog: catalog.NewService(catRepo, nil),
		ings:    ings,
	}
}

// rollWithStock creates a roll whose recipe allows exactly maxServings
// portions from current stock.
func (f *fixture) rollWithStock(t *testing.T, name string, price string, maxServings int) int64 {
	t.Helper()
	ctx := context.Background()

	ing := &ingredient.Ingredient{
		Name:          "Рис для " + name,
		Unit:          "г",
		StockQuantity: decimal.NewFromInt(int64(50 * maxServings)),
		CostPerUnit:   d("0.5"),
	}
	require.NoError(t, f.ings.Create(ctx, ing))

	roll := &catalog.Roll{Name: name, SalePrice: d(price)}
	require.NoError(t, f.catalog.CreateRoll(ctx, roll))
	require.NoError(t, f.catalog.AddRecipeLine(ctx, &catalog.RecipeLine{
		RollID: roll.ID, IngredientID: ing.ID, AmountPerRoll: d("50"),
	}))
	return roll.ID
}

func TestAddMergesSameItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roll := f.rollWithStock(t, "Калифорния", "400", 10)

	_, err := f.svc.Add(ctx, userID, ItemRoll, roll, 1)
	require.NoError(t, err)
	cart, err := f.svc.Add(ctx, userID, ItemRoll, roll, 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestAddChecksAvailabilityAtResultingQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roll := f.rollWithStock(t, "Калифорния", "400", 2)

	_, err := f.svc.Add(ctx, userID, ItemRoll, roll, 2)
	require.NoError(t, err)

	// stock covers 2 portions; the third is over the line
	_, err = f.svc.Add(ctx, userID, ItemRoll, roll, 1)
	var ins *core.InsufficientStockError
	require.ErrorAs(t, err, &ins)
	require.Len(t, ins.Shortfalls, 1)
	assert.True(t, d("150").Equal(ins.Shortfalls[0].Need))

	cart, err := f.svc.Raw(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity, "rejected add must not change the cart")
}

func TestAddUnknownItemTypeRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Add(context.Background(), userID, "pizza", 1, 1)
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAddUnknownRollRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Add(context.Background(), userID, ItemRoll, 999, 1)
	assert.True(t, core.IsNotFound(err))
}

func TestRemoveDropsLineByItemID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.rollWithStock(t, "Калифорния", "400", 10)
	second := f.rollWithStock(t, "Филадельфия", "450", 10)

	_, err := f.svc.Add(ctx, userID, ItemRoll, first, 1)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, userID, ItemRoll, second, 1)
	require.NoError(t, err)

	cart, err := f.svc.Remove(ctx, userID, first)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, second, cart.Items[0].ItemID)
}

func TestRemoveMissingItem(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Remove(context.Background(), userID, 42)
	assert.True(t, core.IsNotFound(err))
}

func TestGetEnrichesWithCurrentPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roll := f.rollWithStock(t, "Калифорния", "400", 10)

	_, err := f.svc.Add(ctx, userID, ItemRoll, roll, 2)
	require.NoError(t, err)

	view, err := f.svc.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Калифорния", view.Items[0].Name)
	assert.True(t, d("400").Equal(view.Items[0].UnitPrice))
	assert.True(t, d("800").Equal(view.Total))
}

func TestGetSkipsItemsDeletedFromCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roll := f.rollWithStock(t, "Калифорния", "400", 10)

	_, err := f.svc.Add(ctx, userID, ItemRoll, roll, 1)
	require.NoError(t, err)
	require.NoError(t, f.catalog.DeleteRoll(ctx, roll))

	view, err := f.svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())

	raw, err := f.svc.Raw(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, raw.Items, 1, "stored cart keeps the line")
}

func TestLoyaltyRollIsFree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roll := f.rollWithStock(t, "Калифорния", "400", 10)

	_, err := f.svc.Add(ctx, userID, ItemLoyaltyRoll, roll, 1)
	require.NoError(t, err)

	view, err := f.svc.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.True(t, view.Items[0].UnitPrice.IsZero())
	assert.True(t, view.Total.IsZero())
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roll := f.rollWithStock(t, "Калифорния", "400", 10)
	otherUser := "2f0c5f6e-9d39-4a59-b2d1-000000000002"

	_, err := f.svc.Add(ctx, userID, ItemRoll, roll, 1)
	require.NoError(t, err)

	other, err := f.svc.Raw(ctx, otherUser)
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roll := f.rollWithStock(t, "Калифорния", "400", 10)

	_, err := f.svc.Add(ctx, userID, ItemRoll, roll, 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.Clear(ctx, userID))

	raw, err := f.svc.Raw(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, raw.Items)
}
