package models

// CartEntry is the desired quantity and note for one product.
type CartEntry struct {
	ProductID string
	Quantity  int
	Note      string
}

// Cart is the editable desired state for one user's order on the
// active serving date. It lives only in the session that loaded it and
// is never persisted; submission reconciles it against the store.
type Cart struct {
	MenuDate string
	OrderID  string               // existing order for this date, if any
	Entries  []CartEntry          // one per menu product, in menu order
	Saved    map[string]OrderItem // previously ordered items no longer on the menu
}
