package models

// Product is a catalog entry managed by administrators. The ordering
// flow treats the catalog as read-only and snapshots name and price
// onto order items at write time.
type Product struct {
	ID     string `json:"-"`
	Name   string `json:"name"`
	Price  int64  `json:"price"` // whole rupiah
	Active bool   `json:"active"`
}
