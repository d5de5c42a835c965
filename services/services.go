// Package services implements the ordering client's behavior: the cart
// loader and order submission flow the customer page runs, and the
// catalog, menu, and payment administration behind the admin pages.
// Presentation stays elsewhere; everything here returns data and
// errors for a UI to render.
package services

import (
	"errors"

	"food-preorder/config"
	"food-preorder/store"
)

// Env carries what every service call needs: the document store and
// the collection identifiers it targets.
type Env struct {
	Store store.Store
	Cols  config.Collections
}

var (
	// ErrMissingSetup: one or more collection identifiers are not
	// configured. No remote call is attempted.
	ErrMissingSetup = errors.New("ordering is not configured: set the database and collection identifiers")

	// ErrNoActiveMenu: no published menu to order from.
	ErrNoActiveMenu = errors.New("no published menu is available yet")

	// ErrEmptySelection: every desired quantity was zero.
	ErrEmptySelection = errors.New("select at least one product with a quantity above zero")
)

func (e *Env) ready() bool {
	return e != nil && e.Store != nil && e.Cols.Ready()
}

func anyValues(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
