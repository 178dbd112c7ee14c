package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anteyko-labs/sushi-flutter/internal/core"
	"github.com/anteyko-labs/sushi-flutter/internal/events"
	"github.com/anteyko-labs/sushi-flutter/internal/ingredient"
)

type fixture struct {
	svc  *Service
	ings *ingredient.InMemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ings := ingredient.NewInMemoryRepository()
	return &fixture{
		svc:  NewService(NewInMemoryRepository(ings), nil),
		ings: ings,
	}
}

func (f *fixture) ingredient(t *testing.T, name string, costPerUnit string) int64 {
	t.Helper()
	ing := &ingredient.Ingredient{
		Name:          name,
		Unit:          "г",
		StockQuantity: d("1000"),
		CostPerUnit:   d(costPerUnit),
	}
	require.NoError(t, f.ings.Create(context.Background(), ing))
	return ing.ID
}

func (f *fixture) roll(t *testing.T, name string, salePrice string) *Roll {
	t.Helper()
	roll := &Roll{Name: name, SalePrice: d(salePrice)}
	require.NoError(t, f.svc.CreateRoll(context.Background(), roll))
	return roll
}

func (f *fixture) set(t *testing.T, name string, setPrice string) *Set {
	t.Helper()
	set := &Set{Name: name, SetPrice: d(setPrice)}
	require.NoError(t, f.svc.CreateSet(context.Background(), set))
	return set
}

func (f *fixture) rollCost(t *testing.T, id int64) decimal.Decimal {
	t.Helper()
	roll, err := f.svc.GetRoll(context.Background(), id)
	require.NoError(t, err)
	return roll.CostPrice
}

func (f *fixture) setCost(t *testing.T, id int64) decimal.Decimal {
	t.Helper()
	set, err := f.svc.GetSet(context.Background(), id)
	require.NoError(t, err)
	return set.CostPrice
}

func TestAddRecipeLineRecomputesRollCost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "0.5")
	roll := f.roll(t, "Филадельфия", "450")

	err := f.svc.AddRecipeLine(ctx, &RecipeLine{
		RollID: roll.ID, IngredientID: rice, AmountPerRoll: d("100"),
	})
	require.NoError(t, err)

	assert.True(t, d("50").Equal(f.rollCost(t, roll.ID)))
}

func TestUpdateRecipeLineAffectsOnlyThatRoll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "0.5")
	first := f.roll(t, "Филадельфия", "450")
	second := f.roll(t, "Калифорния", "400")

	for _, r := range []*Roll{first, second} {
		require.NoError(t, f.svc.AddRecipeLine(ctx, &RecipeLine{
			RollID: r.ID, IngredientID: rice, AmountPerRoll: d("100"),
		}))
	}

	require.NoError(t, f.svc.UpdateRecipeLine(ctx, first.ID, rice, d("200")))

	assert.True(t, d("100").Equal(f.rollCost(t, first.ID)))
	assert.True(t, d("50").Equal(f.rollCost(t, second.ID)), "unrelated roll cost must not move")
}

func TestRecipeChangeCascadesIntoContainingSets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "0.5")
	inside := f.roll(t, "Филадельфия", "450")
	outside := f.roll(t, "Калифорния", "400")

	require.NoError(t, f.svc.AddRecipeLine(ctx, &RecipeLine{
		RollID: inside.ID, IngredientID: rice, AmountPerRoll: d("100"),
	}))
	require.NoError(t, f.svc.AddRecipeLine(ctx, &RecipeLine{
		RollID: outside.ID, IngredientID: rice, AmountPerRoll: d("100"),
	}))

	withRoll := f.set(t, "Сет Токио", "900")
	withoutRoll := f.set(t, "Сет Осака", "800")
	require.NoError(t, f.svc.AddSetItem(ctx, &SetItem{SetID: withRoll.ID, RollID: inside.ID, Quantity: 2}))
	require.NoError(t, f.svc.AddSetItem(ctx, &SetItem{SetID: withoutRoll.ID, RollID: outside.ID, Quantity: 1}))

	// 100г → 300г doubles nothing else: only the containing set moves
	require.NoError(t, f.svc.UpdateRecipeLine(ctx, inside.ID, rice, d("300")))

	assert.True(t, d("150").Equal(f.rollCost(t, inside.ID)))
	assert.True(t, d("300").Equal(f.setCost(t, withRoll.ID)))
	assert.True(t, d("50").Equal(f.setCost(t, withoutRoll.ID)), "set without the roll must not move")
}

func TestRemovingLastRecipeLineZeroesCost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "0.5")
	roll := f.roll(t, "Филадельфия", "450")

	require.NoError(t, f.svc.AddRecipeLine(ctx, &RecipeLine{
		RollID: roll.ID, IngredientID: rice, AmountPerRoll: d("100"),
	}))
	require.NoError(t, f.svc.RemoveRecipeLine(ctx, roll.ID, rice))

	assert.True(t, f.rollCost(t, roll.ID).IsZero())
}

func TestDuplicateRecipeLineRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "0.5")
	roll := f.roll(t, "Филадельфия", "450")

	require.NoError(t, f.svc.AddRecipeLine(ctx, &RecipeLine{
		RollID: roll.ID, IngredientID: rice, AmountPerRoll: d("100"),
	}))

	err := f.svc.AddRecipeLine(ctx, &RecipeLine{
		RollID: roll.ID, IngredientID: rice, AmountPerRoll: d("50"),
	})
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRecipeLineRequiresPositiveAmount(t *testing.T) {
	f := newFixture(t)
	rice := f.ingredient(t, "Рис", "0.5")
	roll := f.roll(t, "Филадельфия", "450")

	err := f.svc.AddRecipeLine(context.Background(), &RecipeLine{
		RollID: roll.ID, IngredientID: rice, AmountPerRoll: decimal.Zero,
	})
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteRollRefusedWhileInSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roll := f.roll(t, "Филадельфия", "450")
	set := f.set(t, "Сет Токио", "900")
	require.NoError(t, f.svc.AddSetItem(ctx, &SetItem{SetID: set.ID, RollID: roll.ID, Quantity: 1}))

	err := f.svc.DeleteRoll(ctx, roll.ID)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)

	require.NoError(t, f.svc.RemoveSetItem(ctx, set.ID, roll.ID))
	assert.NoError(t, f.svc.DeleteRoll(ctx, roll.ID))
}

func TestCompositionChangeRecomputesSetCost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "0.5")
	roll := f.roll(t, "Филадельфия", "450")
	require.NoError(t, f.svc.AddRecipeLine(ctx, &RecipeLine{
		RollID: roll.ID, IngredientID: rice, AmountPerRoll: d("100"),
	}))

	set := f.set(t, "Сет Токио", "900")
	require.NoError(t, f.svc.AddSetItem(ctx, &SetItem{SetID: set.ID, RollID: roll.ID, Quantity: 2}))
	assert.True(t, d("100").Equal(f.setCost(t, set.ID)))

	require.NoError(t, f.svc.UpdateSetItem(ctx, set.ID, roll.ID, 3))
	assert.True(t, d("150").Equal(f.setCost(t, set.ID)))

	require.NoError(t, f.svc.RemoveSetItem(ctx, set.ID, roll.ID))
	assert.True(t, f.setCost(t, set.ID).IsZero())
}

func TestIngredientCostChangePropagatesOnRecompute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "0.5")
	roll := f.roll(t, "Филадельфия", "450")
	require.NoError(t, f.svc.AddRecipeLine(ctx, &RecipeLine{
		RollID: roll.ID, IngredientID: rice, AmountPerRoll: d("100"),
	}))

	ing, err := f.ings.Get(ctx, rice)
	require.NoError(t, err)
	ing.CostPerUnit = d("1")
	require.NoError(t, f.ings.Update(ctx, ing))

	require.NoError(t, f.svc.RecomputeRollCost(ctx, roll.ID))
	assert.True(t, d("100").Equal(f.rollCost(t, roll.ID)))
}

func TestIngredientUpdateCascadesIntoRollAndSetCosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "0.5")
	nori := f.ingredient(t, "Нори", "2")

	roll := f.roll(t, "Филадельфия", "450")
	require.NoError(t, f.svc.AddRecipeLine(ctx, &RecipeLine{
		RollID: roll.ID, IngredientID: rice, AmountPerRoll: d("100"),
	}))
	other := f.roll(t, "Калифорния", "400")
	require.NoError(t, f.svc.AddRecipeLine(ctx, &RecipeLine{
		RollID: other.ID, IngredientID: nori, AmountPerRoll: d("10"),
	}))
	set := f.set(t, "Сет Токио", "900")
	require.NoError(t, f.svc.AddSetItem(ctx, &SetItem{SetID: set.ID, RollID: roll.ID, Quantity: 2}))

	ingSvc := ingredient.NewService(f.ings, events.Nop{}, f.svc)
	ing, err := ingSvc.Get(ctx, rice)
	require.NoError(t, err)
	ing.CostPerUnit = d("1")
	require.NoError(t, ingSvc.Update(ctx, ing))

	assert.True(t, d("100").Equal(f.rollCost(t, roll.ID)), "roll cost follows the new unit cost")
	assert.True(t, d("200").Equal(f.setCost(t, set.ID)), "containing set cost cascades")
	assert.True(t, d("20").Equal(f.rollCost(t, other.ID)), "unrelated roll untouched")
}

// Cost recompute belongs to the repository mutation itself, so a BOM
// write can never land without its derived costs.
func TestRepositoryRecipeMutationRecomputesCosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Рис", "0.5")
	roll := f.roll(t, "Филадельфия", "450")
	set := f.set(t, "Сет Токио", "900")

	repo := f.svc.repo
	require.NoError(t, repo.AddRecipeLine(ctx, &RecipeLine{
		RollID: roll.ID, IngredientID: rice, AmountPerRoll: d("100"),
	}))
	assert.True(t, d("50").Equal(f.rollCost(t, roll.ID)))

	require.NoError(t, repo.AddSetItem(ctx, &SetItem{SetID: set.ID, RollID: roll.ID, Quantity: 2}))
	assert.True(t, d("100").Equal(f.setCost(t, set.ID)))

	require.NoError(t, repo.UpdateRecipeLine(ctx, roll.ID, rice, d("200")))
	assert.True(t, d("100").Equal(f.rollCost(t, roll.ID)))
	assert.True(t, d("200").Equal(f.setCost(t, set.ID)), "set recomputed with the roll")
}
