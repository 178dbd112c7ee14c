package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anteyko-labs/sushi-flutter/internal/cart"
	"github.com/anteyko-labs/sushi-flutter/internal/core"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{StatusAccepted, StatusCooking, true},
		{StatusCooking, StatusReady, true},
		{StatusReady, StatusDone, true}, // synonyms, same rank
		{StatusDone, StatusReady, true},
		{StatusReady, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusAccepted, StatusDelivered, true}, // skipping forward is fine
		{StatusCooking, StatusAccepted, false},
		{StatusDelivered, StatusShipped, false},
		{StatusReady, StatusCooking, false},
		{"Отменён", StatusAccepted, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func placedOrder(t *testing.T, f *fixture) int64 {
	t.Helper()
	rice := f.ingredient(t, "Рис", "1000")
	roll := f.roll(t, "Калифорния", "400", map[int64]string{rice: "30"})

	req := delivery()
	req.Items = []ItemRequest{{ItemType: cart.ItemRoll, ItemID: roll, Quantity: 2}}
	order, err := f.svc.Create(context.Background(), userID, req)
	require.NoError(t, err)
	return order.ID
}

func TestUpdateStatusForward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := placedOrder(t, f)

	order, err := f.svc.UpdateStatus(ctx, id, StatusCooking)
	require.NoError(t, err)
	assert.Equal(t, StatusCooking, order.Status)
}

func TestUpdateStatusBackwardRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := placedOrder(t, f)

	_, err := f.svc.UpdateStatus(ctx, id, StatusShipped)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, id, StatusCooking)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)

	order, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, order.Status)
}

func TestUpdateStatusUnknownRejected(t *testing.T) {
	f := newFixture(t)
	id := placedOrder(t, f)

	_, err := f.svc.UpdateStatus(context.Background(), id, "Потерян")
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestReadyJournalsUsageOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := placedOrder(t, f)

	_, err := f.svc.UpdateStatus(ctx, id, StatusReady)
	require.NoError(t, err)

	usage, err := f.svc.Usage(ctx, id)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.True(t, d("60").Equal(usage[0].Amount), "2 rolls × 30г")

	// the synonym status must not journal a second time
	_, err = f.svc.UpdateStatus(ctx, id, StatusDone)
	require.NoError(t, err)

	usage, err = f.svc.Usage(ctx, id)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.True(t, d("60").Equal(usage[0].Amount))
}

func TestEarlierStatusesDoNotJournal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := placedOrder(t, f)

	_, err := f.svc.UpdateStatus(ctx, id, StatusCooking)
	require.NoError(t, err)

	usage, err := f.svc.Usage(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, usage)
}
