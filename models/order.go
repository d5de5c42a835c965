package models

import "time"

// Order is a customer's per-day purchase header. At most one order per
// (user, serving date); the store layer enforces it where it can and
// the submission flow recovers from conflicts where it cannot.
type Order struct {
	ID        string    `json:"-"`
	UserID    string    `json:"userId"`
	MenuDate  string    `json:"menuDate"` // serving date, YYYY-MM-DD
	Payment   bool      `json:"payment"`
	UpdatedAt time.Time `json:"-"`
}

// OrderItem is one product line within an order. Name and price are
// copied from the catalog at write time so the amount charged survives
// later catalog edits.
type OrderItem struct {
	ID          string    `json:"-"`
	OrderID     string    `json:"orderId"`
	ProductID   string    `json:"productId"`
	Quantity    int       `json:"quantity"`
	UnitPrice   int64     `json:"unitPrice"`
	ProductName string    `json:"productName"`
	Note        string    `json:"note"`
	UpdatedAt   time.Time `json:"-"`
}

// OrderSummary is an order with its items and running totals, the way
// the back office lists it.
type OrderSummary struct {
	Order
	Items    []OrderItem
	Quantity int
	Amount   int64
}

// ItemSummary groups order items per product across orders, for
// kitchen preparation.
type ItemSummary struct {
	ProductID   string
	ProductName string
	Quantity    int
	Notes       []string
}

// DailyStats summarizes one serving date for payment reconciliation.
type DailyStats struct {
	OrdersCount int
	PaidCount   int
	ItemCount   int
	Revenue     int64
}
