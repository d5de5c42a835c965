package models

// Menu is the admin-curated set of products offered on one serving
// date. Customers can only order from a published menu.
type Menu struct {
	ID          string   `json:"-"`
	ServingDate string   `json:"servingDate"` // YYYY-MM-DD, no time component
	ProductIDs  []string `json:"productIds"`
	Published   bool     `json:"published"`
}
