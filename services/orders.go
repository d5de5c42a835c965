package services

import (
	"context"
	"fmt"
	"sort"

	"food-preorder/models"
	"food-preorder/store"
)

// ListOrders returns every order for a serving date with its items and
// totals, unpaid first and most recently touched on top within each
// group, matching how the payment page works through them.
func ListOrders(ctx context.Context, env *Env, menuDate string) ([]models.OrderSummary, error) {
	if !env.ready() {
		return nil, ErrMissingSetup
	}
	res, err := env.Store.List(ctx, env.Cols.Orders,
		store.Equal("menuDate", menuDate),
		store.OrderAsc("payment"),
		store.OrderDesc(store.AttrUpdatedAt),
		store.Limit(200),
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(res.Documents) == 0 {
		return nil, nil
	}

	summaries := make([]models.OrderSummary, 0, len(res.Documents))
	index := make(map[string]int, len(res.Documents))
	ids := make([]string, 0, len(res.Documents))
	for _, doc := range res.Documents {
		order, err := orderFromDoc(doc)
		if err != nil {
			return nil, err
		}
		index[order.ID] = len(summaries)
		ids = append(ids, order.ID)
		summaries = append(summaries, models.OrderSummary{Order: order})
	}

	items, err := env.Store.List(ctx, env.Cols.OrderItems,
		store.Equal("orderId", anyValues(ids)...),
		store.Limit(500),
	)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	for _, doc := range items.Documents {
		item, err := itemFromDoc(doc)
		if err != nil {
			return nil, err
		}
		i, ok := index[item.OrderID]
		if !ok {
			continue
		}
		summaries[i].Items = append(summaries[i].Items, item)
		summaries[i].Quantity += item.Quantity
		summaries[i].Amount += int64(item.Quantity) * item.UnitPrice
	}
	return summaries, nil
}

// SettlePayment marks one order as paid.
func SettlePayment(ctx context.Context, env *Env, orderID string) error {
	if orderID == "" {
		return fmt.Errorf("order identifier missing")
	}
	if !env.ready() {
		return ErrMissingSetup
	}
	if _, err := env.Store.Update(ctx, env.Cols.Orders, orderID, map[string]any{"payment": true}); err != nil {
		return fmt.Errorf("settle payment: %w", err)
	}
	return nil
}

// UpcomingItems aggregates what the kitchen must prepare from fromDate
// onward: per-product totals across all orders with serving date >=
// fromDate, sorted by product name, with every non-empty note kept.
func UpcomingItems(ctx context.Context, env *Env, fromDate string) ([]models.ItemSummary, error) {
	if !env.ready() {
		return nil, ErrMissingSetup
	}
	orders, err := env.Store.List(ctx, env.Cols.Orders,
		store.GreaterEqual("menuDate", fromDate),
		store.Limit(200),
	)
	if err != nil {
		return nil, fmt.Errorf("list upcoming orders: %w", err)
	}
	if len(orders.Documents) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(orders.Documents))
	for _, doc := range orders.Documents {
		ids = append(ids, doc.ID)
	}
	items, err := env.Store.List(ctx, env.Cols.OrderItems,
		store.Equal("orderId", anyValues(ids)...),
		store.Limit(500),
	)
	if err != nil {
		return nil, fmt.Errorf("load upcoming items: %w", err)
	}

	byProduct := map[string]*models.ItemSummary{}
	for _, doc := range items.Documents {
		item, err := itemFromDoc(doc)
		if err != nil {
			return nil, err
		}
		sum, ok := byProduct[item.ProductID]
		if !ok {
			sum = &models.ItemSummary{ProductID: item.ProductID, ProductName: item.ProductName}
			byProduct[item.ProductID] = sum
		}
		sum.Quantity += item.Quantity
		if item.Note != "" {
			sum.Notes = append(sum.Notes, item.Note)
		}
	}

	out := make([]models.ItemSummary, 0, len(byProduct))
	for _, sum := range byProduct {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductName < out[j].ProductName })
	return out, nil
}

// Stats totals one serving date: order and paid counts, units ordered,
// and revenue from the snapshotted unit prices.
func Stats(ctx context.Context, env *Env, menuDate string) (models.DailyStats, error) {
	summaries, err := ListOrders(ctx, env, menuDate)
	if err != nil {
		return models.DailyStats{}, err
	}
	var stats models.DailyStats
	for _, s := range summaries {
		stats.OrdersCount++
		if s.Payment {
			stats.PaidCount++
		}
		stats.ItemCount += s.Quantity
		stats.Revenue += s.Amount
	}
	return stats, nil
}

func orderFromDoc(doc store.Document) (models.Order, error) {
	var o models.Order
	if err := store.Decode(doc, &o); err != nil {
		return o, err
	}
	o.ID = doc.ID
	o.UpdatedAt = doc.UpdatedAt
	return o, nil
}

func itemFromDoc(doc store.Document) (models.OrderItem, error) {
	var item models.OrderItem
	if err := store.Decode(doc, &item); err != nil {
		return item, err
	}
	item.ID = doc.ID
	item.UpdatedAt = doc.UpdatedAt
	return item, nil
}
