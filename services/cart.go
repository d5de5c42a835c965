package services

import (
	"context"
	"fmt"

	"food-preorder/models"
	"food-preorder/store"
)

// LoadCart builds the editable cart for one user and menu: every menu
// product defaults to quantity zero, then any persisted order for the
// serving date overlays its quantities and notes. Items from a
// previous order whose product is no longer on the menu land in
// Cart.Saved for display only.
//
// A remote failure degrades instead of blocking: the zero-quantity
// defaults come back together with the error, and the user can still
// place a fresh order.
func LoadCart(ctx context.Context, env *Env, userID string, menu *models.Menu) (*models.Cart, error) {
	cart := &models.Cart{Saved: map[string]models.OrderItem{}}
	if menu == nil {
		return cart, nil
	}

	cart.MenuDate = menu.ServingDate
	onMenu := make(map[string]bool, len(menu.ProductIDs))
	for _, pid := range menu.ProductIDs {
		cart.Entries = append(cart.Entries, models.CartEntry{ProductID: pid})
		onMenu[pid] = true
	}

	if !env.ready() {
		return cart, ErrMissingSetup
	}

	orders, err := env.Store.List(ctx, env.Cols.Orders,
		store.Equal("userId", userID),
		store.Equal("menuDate", menu.ServingDate),
		store.Limit(1),
	)
	if err != nil {
		return cart, fmt.Errorf("look up existing order: %w", err)
	}
	if len(orders.Documents) == 0 {
		return cart, nil
	}

	order, err := orderFromDoc(orders.Documents[0])
	if err != nil {
		return cart, err
	}
	cart.OrderID = order.ID

	items, err := env.Store.List(ctx, env.Cols.OrderItems,
		store.Equal("orderId", order.ID),
		store.Limit(100),
	)
	if err != nil {
		return cart, fmt.Errorf("load order items: %w", err)
	}

	byProduct := make(map[string]models.OrderItem, len(items.Documents))
	for _, doc := range items.Documents {
		item, err := itemFromDoc(doc)
		if err != nil {
			return cart, err
		}
		byProduct[item.ProductID] = item
	}

	for i := range cart.Entries {
		if item, ok := byProduct[cart.Entries[i].ProductID]; ok {
			cart.Entries[i].Quantity = item.Quantity
			cart.Entries[i].Note = item.Note
		}
	}
	for pid, item := range byProduct {
		if !onMenu[pid] {
			cart.Saved[pid] = item
		}
	}
	return cart, nil
}
