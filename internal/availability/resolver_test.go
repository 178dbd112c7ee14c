package availability

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anteyko-labs/sushi-flutter/internal/catalog"
	"github.com/anteyko-labs/sushi-flutter/internal/ingredient"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type world struct {
	resolver *Resolver
	catalog  *catalog.Service
	ings     *ingredient.InMemoryRepository
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ings := ingredient.NewInMemoryRepository()
	repo := catalog.NewInMemoryRepository(ings)
	return &world{
		resolver: NewResolver(repo),
		catalog:  catalog.NewService(repo, nil),
		ings:     ings,
	}
}

func (w *world) ingredient(t *testing.T, name, stock string) int64 {
	t.Helper()
	ing := &ingredient.Ingredient{Name: name, Unit: "г", StockQuantity: d(stock)}
	require.NoError(t, w.ings.Create(context.Background(), ing))
	return ing.ID
}

func (w *world) roll(t *testing.T, name string, recipe map[int64]string) int64 {
	t.Helper()
	ctx := context.Background()
	roll := &catalog.Roll{Name: name, SalePrice: d("450")}
	require.NoError(t, w.catalog.CreateRoll(ctx, roll))
	for ingID, amount := range recipe {
		require.NoError(t, w.catalog.AddRecipeLine(ctx, &catalog.RecipeLine{
			RollID: roll.ID, IngredientID: ingID, AmountPerRoll: d(amount),
		}))
	}
	return roll.ID
}

func (w *world) set(t *testing.T, name string, rolls map[int64]int) int64 {
	t.Helper()
	ctx := context.Background()
	set := &catalog.Set{Name: name, SetPrice: d("900")}
	require.NoError(t, w.catalog.CreateSet(ctx, set))
	for rollID, qty := range rolls {
		require.NoError(t, w.catalog.AddSetItem(ctx, &catalog.SetItem{
			SetID: set.ID, RollID: rollID, Quantity: qty,
		}))
	}
	return set.ID
}

func TestRollAvailableWhenStockCovers(t *testing.T) {
	w := newWorld(t)
	rice := w.ingredient(t, "Рис", "100")
	roll := w.roll(t, "Калифорния", map[int64]string{rice: "50"})

	ok, shortfalls, err := w.resolver.RollAvailable(context.Background(), roll, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, shortfalls)
}

func TestRollUnavailableListsEveryShortfall(t *testing.T) {
	w := newWorld(t)
	rice := w.ingredient(t, "Рис", "10")
	nori := w.ingredient(t, "Нори", "0")
	salmon := w.ingredient(t, "Лосось", "500")
	roll := w.roll(t, "Филадельфия", map[int64]string{
		rice: "50", nori: "1", salmon: "40",
	})

	ok, shortfalls, err := w.resolver.RollAvailable(context.Background(), roll, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, shortfalls, 2)

	assert.Equal(t, "Рис: have 10, need 50", shortfalls[0].String())
	assert.Equal(t, "Нори: out of stock", shortfalls[1].String())
}

func TestRollWithoutRecipeIsAlwaysAvailable(t *testing.T) {
	w := newWorld(t)
	roll := w.roll(t, "Загадка", nil)

	ok, shortfalls, err := w.resolver.RollAvailable(context.Background(), roll, 100)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, shortfalls)
}

func TestQuantityScalesNeeds(t *testing.T) {
	w := newWorld(t)
	rice := w.ingredient(t, "Рис", "100")
	roll := w.roll(t, "Калифорния", map[int64]string{rice: "50"})
	ctx := context.Background()

	ok, _, err := w.resolver.RollAvailable(ctx, roll, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, shortfalls, err := w.resolver.RollAvailable(ctx, roll, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, shortfalls, 1)
	assert.True(t, d("150").Equal(shortfalls[0].Need))
}

func TestSetAggregatesSharedIngredientAcrossRolls(t *testing.T) {
	w := newWorld(t)
	// each roll alone fits in 100г of rice, together they do not
	rice := w.ingredient(t, "Рис", "100")
	first := w.roll(t, "Филадельфия", map[int64]string{rice: "60"})
	second := w.roll(t, "Калифорния", map[int64]string{rice: "60"})
	set := w.set(t, "Сет Токио", map[int64]int{first: 1, second: 1})
	ctx := context.Background()

	for _, roll := range []int64{first, second} {
		ok, _, err := w.resolver.RollAvailable(ctx, roll, 1)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, shortfalls, err := w.resolver.SetAvailable(ctx, set, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, shortfalls, 1)
	assert.True(t, d("120").Equal(shortfalls[0].Need))
}

func TestSetQuantityMultipliesItemQuantities(t *testing.T) {
	w := newWorld(t)
	rice := w.ingredient(t, "Рис", "200")
	roll := w.roll(t, "Калифорния", map[int64]string{rice: "50"})
	set := w.set(t, "Сет Токио", map[int64]int{roll: 2})
	ctx := context.Background()

	ok, _, err := w.resolver.SetAvailable(ctx, set, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, shortfalls, err := w.resolver.SetAvailable(ctx, set, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, shortfalls, 1)
	assert.True(t, d("300").Equal(shortfalls[0].Need))
}

func TestResolverDoesNotTouchStock(t *testing.T) {
	w := newWorld(t)
	rice := w.ingredient(t, "Рис", "100")
	roll := w.roll(t, "Калифорния", map[int64]string{rice: "50"})

	_, _, err := w.resolver.RollAvailable(context.Background(), roll, 1)
	require.NoError(t, err)

	assert.True(t, d("100").Equal(w.ings.Stock(rice)))
}

func TestRejectsNonPositiveQuantity(t *testing.T) {
	w := newWorld(t)
	roll := w.roll(t, "Калифорния", nil)

	_, _, err := w.resolver.RollAvailable(context.Background(), roll, 0)
	assert.Error(t, err)
}

func TestIngredientAvailable(t *testing.T) {
	ok, sf := IngredientAvailable(1, "Рис", d("100"), d("100"))
	assert.True(t, ok)
	assert.Nil(t, sf)

	ok, sf = IngredientAvailable(1, "Рис", d("10"), d("50"))
	require.False(t, ok)
	assert.Equal(t, "Рис: have 10, need 50", sf.String())

	ok, sf = IngredientAvailable(2, "Нори", d("0"), d("1"))
	require.False(t, ok)
	assert.Equal(t, "Нори: out of stock", sf.String())
}
