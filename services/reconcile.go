package services

import (
	"context"
	"errors"
	"fmt"

	"food-preorder/models"
	"food-preorder/store"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// SubmitResult reports a completed submission: the order that now owns
// the items, the full product-to-item map (pre-existing, updated, and
// newly created merged together), and whether this run created the
// order.
type SubmitResult struct {
	Order    models.Order
	Items    map[string]models.OrderItem
	NewOrder bool
}

// compensation is one reversal step recorded after a forward write
// succeeds. Reversals run in reverse order; their failures are logged,
// never surfaced.
type compensation struct {
	what string
	undo func(context.Context) error
}

// Submit converges the persisted order state for (userID, serving
// date) to the cart's desired entries.
//
// The store offers no cross-document transaction, so the run is an
// explicit saga: locate or create the order, then create or update one
// item at a time in entry order. A failure part way triggers
// best-effort deletion of everything this run created; documents that
// existed before the run are never deleted. Entries with quantity zero
// are skipped entirely: an existing line item is never deleted or
// zeroed by omission.
//
// Name and price are snapshotted from the catalog at write time. A
// conflict on order creation means a concurrent submission won the
// lookup-or-create race; the winner's order is adopted.
func Submit(ctx context.Context, env *Env, userID string, menu *models.Menu, entries []models.CartEntry, catalog []models.Product) (*SubmitResult, error) {
	if !env.ready() {
		return nil, ErrMissingSetup
	}
	if menu == nil || !menu.Published {
		return nil, ErrNoActiveMenu
	}

	var desired []models.CartEntry
	for _, e := range entries {
		if e.Quantity > 0 {
			desired = append(desired, e)
		}
	}
	if len(desired) == 0 {
		return nil, ErrEmptySelection
	}

	products := make(map[string]models.Product, len(catalog))
	for _, p := range catalog {
		products[p.ID] = p
	}

	var undo []compensation
	res, err := submit(ctx, env, userID, menu.ServingDate, desired, products, &undo)
	if err != nil {
		compensate(ctx, undo)
		return nil, err
	}
	return res, nil
}

func submit(ctx context.Context, env *Env, userID, menuDate string, desired []models.CartEntry, products map[string]models.Product, undo *[]compensation) (*SubmitResult, error) {
	order, isNew, err := findOrCreateOrder(ctx, env, userID, menuDate, undo)
	if err != nil {
		return nil, err
	}

	existing := map[string]models.OrderItem{}
	if !isNew {
		list, err := env.Store.List(ctx, env.Cols.OrderItems,
			store.Equal("orderId", order.ID),
			store.Limit(100),
		)
		if err != nil {
			return nil, fmt.Errorf("load existing items: %w", err)
		}
		for _, doc := range list.Documents {
			item, err := itemFromDoc(doc)
			if err != nil {
				return nil, err
			}
			existing[item.ProductID] = item
		}
	}

	final := make(map[string]models.OrderItem, len(existing)+len(desired))
	for pid, item := range existing {
		final[pid] = item
	}

	for _, entry := range desired {
		// Missing catalog entries snapshot an empty name and zero
		// price rather than failing the whole order.
		product := products[entry.ProductID]
		current, ok := existing[entry.ProductID]

		switch {
		case !ok:
			item := models.OrderItem{
				OrderID:     order.ID,
				ProductID:   entry.ProductID,
				Quantity:    entry.Quantity,
				UnitPrice:   product.Price,
				ProductName: product.Name,
				Note:        entry.Note,
			}
			data, err := store.Encode(item)
			if err != nil {
				return nil, err
			}
			doc, err := env.Store.Create(ctx, env.Cols.OrderItems, store.NewID(), data)
			if err != nil {
				return nil, fmt.Errorf("create order item: %w", err)
			}
			item.ID = doc.ID
			item.UpdatedAt = doc.UpdatedAt
			docID := doc.ID
			*undo = append(*undo, compensation{
				what: "order item " + docID,
				undo: func(ctx context.Context) error {
					return env.Store.Delete(ctx, env.Cols.OrderItems, docID)
				},
			})
			final[entry.ProductID] = item

		case current.Quantity != entry.Quantity || current.Note != entry.Note:
			// Update in place, refreshing the snapshot: this write is
			// the new "write time". No compensation is recorded; the
			// previous value cannot be restored reliably and a
			// half-updated order is still a valid order.
			updated := current
			updated.Quantity = entry.Quantity
			updated.Note = entry.Note
			updated.UnitPrice = product.Price
			updated.ProductName = product.Name
			data, err := store.Encode(updated)
			if err != nil {
				return nil, err
			}
			doc, err := env.Store.Update(ctx, env.Cols.OrderItems, current.ID, data)
			if err != nil {
				return nil, fmt.Errorf("update order item: %w", err)
			}
			updated.UpdatedAt = doc.UpdatedAt
			final[entry.ProductID] = updated

		default:
			// Already matches the desired state.
		}
	}

	return &SubmitResult{Order: *order, Items: final, NewOrder: isNew}, nil
}

func findOrCreateOrder(ctx context.Context, env *Env, userID, menuDate string, undo *[]compensation) (*models.Order, bool, error) {
	lookup := func() (*models.Order, error) {
		res, err := env.Store.List(ctx, env.Cols.Orders,
			store.Equal("userId", userID),
			store.Equal("menuDate", menuDate),
			store.Limit(1),
		)
		if err != nil {
			return nil, err
		}
		if len(res.Documents) == 0 {
			return nil, nil
		}
		order, err := orderFromDoc(res.Documents[0])
		if err != nil {
			return nil, err
		}
		return &order, nil
	}

	order, err := lookup()
	if err != nil {
		return nil, false, fmt.Errorf("look up existing order: %w", err)
	}
	if order != nil {
		return order, false, nil
	}

	fresh := models.Order{UserID: userID, MenuDate: menuDate, Payment: false}
	data, err := store.Encode(fresh)
	if err != nil {
		return nil, false, err
	}
	doc, err := env.Store.Create(ctx, env.Cols.Orders, store.NewID(), data)
	if errors.Is(err, store.ErrConflict) {
		// A concurrent submission won the race between our lookup and
		// our create. Adopt its order.
		winner, lerr := lookup()
		if lerr != nil {
			return nil, false, fmt.Errorf("look up order after conflict: %w", lerr)
		}
		if winner == nil {
			return nil, false, fmt.Errorf("create order: %w", err)
		}
		return winner, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("create order: %w", err)
	}

	fresh.ID = doc.ID
	fresh.UpdatedAt = doc.UpdatedAt
	docID := doc.ID
	*undo = append(*undo, compensation{
		what: "order " + docID,
		undo: func(ctx context.Context) error {
			return env.Store.Delete(ctx, env.Cols.Orders, docID)
		},
	})
	return &fresh, true, nil
}

// compensate reverses this run's writes, newest first. Failures are
// collected and logged; the caller's original error stays the only one
// the user sees.
func compensate(ctx context.Context, undo []compensation) {
	var errs error
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i].undo(ctx); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", undo[i].what, err))
		}
	}
	if errs != nil {
		logrus.WithError(errs).Warn("order compensation incomplete")
	}
}
