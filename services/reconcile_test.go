package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-preorder/config"
	"food-preorder/models"
	"food-preorder/store"
)

// hookStore wraps a Store to record every call and let a test inject
// failures at exact points in the submission flow.
type hookStore struct {
	inner  store.Store
	calls  []string
	before func(op, collection string) error
}

func (s *hookStore) record(op, collection string) error {
	s.calls = append(s.calls, op+":"+collection)
	if s.before != nil {
		return s.before(op, collection)
	}
	return nil
}

func (s *hookStore) List(ctx context.Context, collection string, queries ...store.Query) (*store.DocumentList, error) {
	if err := s.record("list", collection); err != nil {
		return nil, err
	}
	return s.inner.List(ctx, collection, queries...)
}

func (s *hookStore) Create(ctx context.Context, collection, id string, data map[string]any) (*store.Document, error) {
	if err := s.record("create", collection); err != nil {
		return nil, err
	}
	return s.inner.Create(ctx, collection, id, data)
}

func (s *hookStore) Update(ctx context.Context, collection, id string, data map[string]any) (*store.Document, error) {
	if err := s.record("update", collection); err != nil {
		return nil, err
	}
	return s.inner.Update(ctx, collection, id, data)
}

func (s *hookStore) Delete(ctx context.Context, collection, id string) error {
	if err := s.record("delete", collection); err != nil {
		return err
	}
	return s.inner.Delete(ctx, collection, id)
}

func (s *hookStore) count(op, collection string) int {
	n := 0
	for _, c := range s.calls {
		if c == op+":"+collection {
			n++
		}
	}
	return n
}

var testCols = config.Collections{
	Products:   "products",
	Menus:      "menus",
	Orders:     "orders",
	OrderItems: "order_items",
}

func newTestEnv() (*Env, *hookStore, *store.Memory) {
	mem := store.NewMemory()
	mem.AddUnique("orders", "userId", "menuDate")
	hs := &hookStore{inner: mem}
	return &Env{Store: hs, Cols: testCols}, hs, mem
}

var (
	testMenu = &models.Menu{
		ID:          "m1",
		ServingDate: "2025-01-06",
		ProductIDs:  []string{"pa", "pb"},
		Published:   true,
	}
	testCatalog = []models.Product{
		{ID: "pa", Name: "Ayam Geprek", Price: 15000, Active: true},
		{ID: "pb", Name: "Bakso", Price: 12000, Active: true},
	}
)

func countDocs(t *testing.T, mem *store.Memory, collection string) int {
	t.Helper()
	res, err := mem.List(context.Background(), collection, store.Limit(100))
	require.NoError(t, err)
	return res.Total
}

func TestSubmitCreatesOrderAndItems(t *testing.T) {
	env, hs, mem := newTestEnv()

	res, err := Submit(context.Background(), env, "u1", testMenu, []models.CartEntry{
		{ProductID: "pa", Quantity: 2},
		{ProductID: "pb", Quantity: 0},
	}, testCatalog)
	require.NoError(t, err)

	assert.True(t, res.NewOrder)
	assert.Equal(t, "u1", res.Order.UserID)
	assert.Equal(t, "2025-01-06", res.Order.MenuDate)
	assert.False(t, res.Order.Payment, "new orders start unpaid")

	require.Len(t, res.Items, 1, "zero-quantity entries create nothing")
	item := res.Items["pa"]
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, int64(15000), item.UnitPrice, "price snapshotted from catalog")
	assert.Equal(t, "Ayam Geprek", item.ProductName)

	assert.Equal(t, 1, countDocs(t, mem, "orders"))
	assert.Equal(t, 1, countDocs(t, mem, "order_items"))
	assert.Zero(t, hs.count("delete", "orders"))
}

func TestSubmitIdempotentResubmission(t *testing.T) {
	env, hs, mem := newTestEnv()
	entries := []models.CartEntry{{ProductID: "pa", Quantity: 2, Note: "pedas"}}

	first, err := Submit(context.Background(), env, "u1", testMenu, entries, testCatalog)
	require.NoError(t, err)
	require.True(t, first.NewOrder)

	hs.calls = nil
	second, err := Submit(context.Background(), env, "u1", testMenu, entries, testCatalog)
	require.NoError(t, err)

	assert.False(t, second.NewOrder)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, 1, countDocs(t, mem, "orders"))
	assert.Equal(t, 1, countDocs(t, mem, "order_items"))
	assert.Zero(t, hs.count("create", "orders"))
	assert.Zero(t, hs.count("create", "order_items"))
	assert.Zero(t, hs.count("update", "order_items"), "matching state needs no write")
}

func TestSubmitUpdatesAndExtendsExistingOrder(t *testing.T) {
	env, _, mem := newTestEnv()
	ctx := context.Background()

	first, err := Submit(ctx, env, "u1", testMenu, []models.CartEntry{
		{ProductID: "pa", Quantity: 2},
	}, testCatalog)
	require.NoError(t, err)

	second, err := Submit(ctx, env, "u1", testMenu, []models.CartEntry{
		{ProductID: "pa", Quantity: 3, Note: "tanpa sambal"},
		{ProductID: "pb", Quantity: 1},
	}, testCatalog)
	require.NoError(t, err)

	assert.False(t, second.NewOrder)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	require.Len(t, second.Items, 2)

	updated := second.Items["pa"]
	assert.Equal(t, first.Items["pa"].ID, updated.ID, "existing item updated in place")
	assert.Equal(t, 3, updated.Quantity)
	assert.Equal(t, "tanpa sambal", updated.Note)

	assert.Equal(t, 1, second.Items["pb"].Quantity)
	assert.Equal(t, int64(12000), second.Items["pb"].UnitPrice)

	assert.Equal(t, 1, countDocs(t, mem, "orders"))
	assert.Equal(t, 2, countDocs(t, mem, "order_items"))
}

func TestSubmitZeroQuantityLeavesItemUntouched(t *testing.T) {
	env, _, mem := newTestEnv()
	ctx := context.Background()

	_, err := Submit(ctx, env, "u1", testMenu, []models.CartEntry{
		{ProductID: "pa", Quantity: 2},
		{ProductID: "pb", Quantity: 1},
	}, testCatalog)
	require.NoError(t, err)

	// Dropping pa to zero must not delete or zero its stored item.
	res, err := Submit(ctx, env, "u1", testMenu, []models.CartEntry{
		{ProductID: "pa", Quantity: 0},
		{ProductID: "pb", Quantity: 1},
	}, testCatalog)
	require.NoError(t, err)

	assert.Equal(t, 2, countDocs(t, mem, "order_items"))
	assert.Equal(t, 2, res.Items["pa"].Quantity, "result reflects the stored state")
}

func TestSubmitValidation(t *testing.T) {
	unpublished := *testMenu
	unpublished.Published = false

	tests := []struct {
		name    string
		env     func() (*Env, *hookStore)
		menu    *models.Menu
		entries []models.CartEntry
		wantErr error
	}{
		{
			name: "missing setup",
			env: func() (*Env, *hookStore) {
				hs := &hookStore{inner: store.NewMemory()}
				return &Env{Store: hs, Cols: config.Collections{Orders: "orders"}}, hs
			},
			menu:    testMenu,
			entries: []models.CartEntry{{ProductID: "pa", Quantity: 1}},
			wantErr: ErrMissingSetup,
		},
		{
			name:    "nil menu",
			menu:    nil,
			entries: []models.CartEntry{{ProductID: "pa", Quantity: 1}},
			wantErr: ErrNoActiveMenu,
		},
		{
			name:    "unpublished menu",
			menu:    &unpublished,
			entries: []models.CartEntry{{ProductID: "pa", Quantity: 1}},
			wantErr: ErrNoActiveMenu,
		},
		{
			name:    "all quantities zero",
			menu:    testMenu,
			entries: []models.CartEntry{{ProductID: "pa"}, {ProductID: "pb"}},
			wantErr: ErrEmptySelection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env *Env
			var hs *hookStore
			if tt.env != nil {
				env, hs = tt.env()
			} else {
				env, hs, _ = newTestEnv()
			}

			_, err := Submit(context.Background(), env, "u1", tt.menu, tt.entries, testCatalog)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, hs.calls, "validation failures must not reach the store")
		})
	}
}

func TestSubmitRollsBackNewOrderOnItemFailure(t *testing.T) {
	env, hs, mem := newTestEnv()
	boom := errors.New("write refused")

	// First item create succeeds, second fails.
	itemCreates := 0
	hs.before = func(op, collection string) error {
		if op == "create" && collection == "order_items" {
			itemCreates++
			if itemCreates == 2 {
				return boom
			}
		}
		return nil
	}

	_, err := Submit(context.Background(), env, "u1", testMenu, []models.CartEntry{
		{ProductID: "pa", Quantity: 2},
		{ProductID: "pb", Quantity: 1},
	}, testCatalog)
	require.ErrorIs(t, err, boom)

	assert.Zero(t, countDocs(t, mem, "orders"), "new order rolled back")
	assert.Zero(t, countDocs(t, mem, "order_items"), "created item rolled back")
	assert.Equal(t, 1, hs.count("delete", "orders"))
	assert.Equal(t, 1, hs.count("delete", "order_items"))
}

func TestSubmitKeepsExistingOrderOnFailure(t *testing.T) {
	env, hs, mem := newTestEnv()
	ctx := context.Background()

	_, err := Submit(ctx, env, "u1", testMenu, []models.CartEntry{
		{ProductID: "pa", Quantity: 2},
	}, testCatalog)
	require.NoError(t, err)

	boom := errors.New("write refused")
	hs.before = func(op, collection string) error {
		if op == "update" && collection == "order_items" {
			return boom
		}
		return nil
	}

	// pb gets created, then the pa update fails; only pb is undone.
	_, err = Submit(ctx, env, "u1", testMenu, []models.CartEntry{
		{ProductID: "pb", Quantity: 1},
		{ProductID: "pa", Quantity: 5},
	}, testCatalog)
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 1, countDocs(t, mem, "orders"), "pre-existing order survives")
	assert.Equal(t, 1, countDocs(t, mem, "order_items"), "pre-existing item survives")
	assert.Zero(t, hs.count("delete", "orders"))

	res, err := mem.List(ctx, "order_items")
	require.NoError(t, err)
	assert.Equal(t, "pa", res.Documents[0].Data["productId"])
	assert.Equal(t, float64(2), res.Documents[0].Data["quantity"], "failed update left the old value")
}

func TestSubmitAdoptsWinnerOnCreateConflict(t *testing.T) {
	env, hs, mem := newTestEnv()
	ctx := context.Background()

	// A concurrent submission lands between our lookup and our create.
	raced := false
	hs.before = func(op, collection string) error {
		if op == "create" && collection == "orders" && !raced {
			raced = true
			_, err := mem.Create(ctx, "orders", "winner", map[string]any{
				"userId": "u1", "menuDate": "2025-01-06", "payment": false,
			})
			require.NoError(t, err)
		}
		return nil
	}

	res, err := Submit(ctx, env, "u1", testMenu, []models.CartEntry{
		{ProductID: "pa", Quantity: 1},
	}, testCatalog)
	require.NoError(t, err)

	assert.False(t, res.NewOrder, "the winner's order is adopted, not created")
	assert.Equal(t, "winner", res.Order.ID)
	assert.Equal(t, 1, countDocs(t, mem, "orders"))
	assert.Equal(t, "winner", res.Items["pa"].OrderID)
}

func TestSubmitCompensationFailureStaysSilent(t *testing.T) {
	env, hs, _ := newTestEnv()
	boom := errors.New("write refused")

	hs.before = func(op, collection string) error {
		if op == "create" && collection == "order_items" {
			return boom
		}
		if op == "delete" {
			return fmt.Errorf("delete also refused")
		}
		return nil
	}

	_, err := Submit(context.Background(), env, "u1", testMenu, []models.CartEntry{
		{ProductID: "pa", Quantity: 1},
	}, testCatalog)

	// The caller sees only the original failure.
	require.ErrorIs(t, err, boom)
	assert.NotContains(t, err.Error(), "delete also refused")
}
