package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-preorder/models"
)

func submitFor(t *testing.T, env *Env, userID string, entries ...models.CartEntry) *SubmitResult {
	t.Helper()
	res, err := Submit(context.Background(), env, userID, testMenu, entries, testCatalog)
	require.NoError(t, err)
	return res
}

func TestListOrdersTotalsAndGrouping(t *testing.T) {
	env, _, _ := newTestEnv()
	ctx := context.Background()

	first := submitFor(t, env, "u1",
		models.CartEntry{ProductID: "pa", Quantity: 2},
		models.CartEntry{ProductID: "pb", Quantity: 1},
	)
	submitFor(t, env, "u2", models.CartEntry{ProductID: "pb", Quantity: 3})

	require.NoError(t, SettlePayment(ctx, env, first.Order.ID))

	summaries, err := ListOrders(ctx, env, "2025-01-06")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Unpaid orders come first.
	assert.False(t, summaries[0].Payment)
	assert.Equal(t, "u2", summaries[0].UserID)
	assert.Equal(t, 3, summaries[0].Quantity)
	assert.Equal(t, int64(3*12000), summaries[0].Amount)

	assert.True(t, summaries[1].Payment)
	assert.Equal(t, "u1", summaries[1].UserID)
	assert.Equal(t, 3, summaries[1].Quantity)
	assert.Equal(t, int64(2*15000+12000), summaries[1].Amount)
	assert.Len(t, summaries[1].Items, 2)
}

func TestListOrdersEmptyDate(t *testing.T) {
	env, hs, _ := newTestEnv()

	summaries, err := ListOrders(context.Background(), env, "2025-01-06")
	require.NoError(t, err)
	assert.Empty(t, summaries)
	// No order ids means no item lookup either.
	assert.Zero(t, hs.count("list", "order_items"))
}

func TestSettlePayment(t *testing.T) {
	env, _, _ := newTestEnv()
	ctx := context.Background()

	res := submitFor(t, env, "u1", models.CartEntry{ProductID: "pa", Quantity: 1})
	require.NoError(t, SettlePayment(ctx, env, res.Order.ID))

	summaries, err := ListOrders(ctx, env, "2025-01-06")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Payment)

	assert.Error(t, SettlePayment(ctx, env, ""))
}

func TestUpcomingItemsAggregation(t *testing.T) {
	env, _, _ := newTestEnv()
	ctx := context.Background()

	submitFor(t, env, "u1",
		models.CartEntry{ProductID: "pa", Quantity: 2, Note: "pedas"},
		models.CartEntry{ProductID: "pb", Quantity: 1},
	)
	submitFor(t, env, "u2",
		models.CartEntry{ProductID: "pa", Quantity: 1, Note: "tanpa sambal"},
	)

	items, err := UpcomingItems(ctx, env, "2025-01-06")
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Sorted by product name.
	assert.Equal(t, "Ayam Geprek", items[0].ProductName)
	assert.Equal(t, 3, items[0].Quantity)
	assert.ElementsMatch(t, []string{"pedas", "tanpa sambal"}, items[0].Notes)

	assert.Equal(t, "Bakso", items[1].ProductName)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Empty(t, items[1].Notes)
}

func TestUpcomingItemsCutoff(t *testing.T) {
	env, _, _ := newTestEnv()
	ctx := context.Background()

	submitFor(t, env, "u1", models.CartEntry{ProductID: "pa", Quantity: 2})

	items, err := UpcomingItems(ctx, env, "2025-01-07")
	require.NoError(t, err)
	assert.Empty(t, items, "orders before the cutoff are excluded")
}

func TestStats(t *testing.T) {
	env, _, _ := newTestEnv()
	ctx := context.Background()

	first := submitFor(t, env, "u1",
		models.CartEntry{ProductID: "pa", Quantity: 2},
	)
	submitFor(t, env, "u2", models.CartEntry{ProductID: "pb", Quantity: 3})
	require.NoError(t, SettlePayment(ctx, env, first.Order.ID))

	stats, err := Stats(ctx, env, "2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.OrdersCount)
	assert.Equal(t, 1, stats.PaidCount)
	assert.Equal(t, 5, stats.ItemCount)
	assert.Equal(t, int64(2*15000+3*12000), stats.Revenue)

	empty, err := Stats(ctx, env, "2025-02-01")
	require.NoError(t, err)
	assert.Zero(t, empty.OrdersCount)
}
