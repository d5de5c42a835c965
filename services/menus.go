package services

import (
	"context"
	"fmt"
	"time"

	"food-preorder/models"
	"food-preorder/store"

	"github.com/sirupsen/logrus"
)

const menuDateLayout = "2006-01-02"

// ListMenus returns every menu ordered by serving date.
func ListMenus(ctx context.Context, env *Env) ([]models.Menu, error) {
	if !env.ready() {
		return nil, ErrMissingSetup
	}
	res, err := env.Store.List(ctx, env.Cols.Menus,
		store.OrderAsc("servingDate"),
		store.Limit(100),
	)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	menus := make([]models.Menu, 0, len(res.Documents))
	for _, doc := range res.Documents {
		m, err := menuFromDoc(doc)
		if err != nil {
			return nil, err
		}
		menus = append(menus, m)
	}
	return menus, nil
}

// ActiveMenu returns the published menu customers order from, or nil
// when none is published. With several menus published at once the
// earliest serving date wins and the overlap is logged; publishing is
// meant to be exclusive.
func ActiveMenu(ctx context.Context, env *Env) (*models.Menu, error) {
	if !env.ready() {
		return nil, ErrMissingSetup
	}
	res, err := env.Store.List(ctx, env.Cols.Menus,
		store.Equal("published", true),
		store.OrderAsc("servingDate"),
		store.Limit(2),
	)
	if err != nil {
		return nil, fmt.Errorf("find active menu: %w", err)
	}
	if len(res.Documents) == 0 {
		return nil, nil
	}
	if res.Total > 1 {
		logrus.WithField("published", res.Total).Warn("multiple menus published, using earliest serving date")
	}
	menu, err := menuFromDoc(res.Documents[0])
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

// MenuForDate returns the menu serving the given date, or nil when
// none exists.
func MenuForDate(ctx context.Context, env *Env, servingDate string) (*models.Menu, error) {
	if !env.ready() {
		return nil, ErrMissingSetup
	}
	res, err := env.Store.List(ctx, env.Cols.Menus,
		store.Equal("servingDate", servingDate),
		store.Limit(1),
	)
	if err != nil {
		return nil, fmt.Errorf("find menu for date: %w", err)
	}
	if len(res.Documents) == 0 {
		return nil, nil
	}
	menu, err := menuFromDoc(res.Documents[0])
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

// CreateMenu adds a menu for a future (or today's) serving date with at
// least one product. New menus start unpublished.
func CreateMenu(ctx context.Context, env *Env, servingDate string, productIDs []string) (models.Menu, error) {
	if err := validateMenu(servingDate, productIDs); err != nil {
		return models.Menu{}, err
	}
	// The serving date format sorts lexicographically, so a plain
	// string compare against today is a date compare.
	if servingDate < time.Now().Format(menuDateLayout) {
		return models.Menu{}, fmt.Errorf("serving date must not be in the past")
	}
	if !env.ready() {
		return models.Menu{}, ErrMissingSetup
	}
	m := models.Menu{ServingDate: servingDate, ProductIDs: productIDs, Published: false}
	data, err := store.Encode(m)
	if err != nil {
		return models.Menu{}, err
	}
	doc, err := env.Store.Create(ctx, env.Cols.Menus, store.NewID(), data)
	if err != nil {
		return models.Menu{}, fmt.Errorf("create menu: %w", err)
	}
	m.ID = doc.ID
	return m, nil
}

// UpdateMenu rewrites a menu's serving date, product list, and
// published flag. Past dates are allowed here so an old menu can still
// be unpublished or corrected.
func UpdateMenu(ctx context.Context, env *Env, id, servingDate string, productIDs []string, published bool) (models.Menu, error) {
	if id == "" {
		return models.Menu{}, fmt.Errorf("menu identifier missing")
	}
	if err := validateMenu(servingDate, productIDs); err != nil {
		return models.Menu{}, err
	}
	if !env.ready() {
		return models.Menu{}, ErrMissingSetup
	}
	m := models.Menu{ID: id, ServingDate: servingDate, ProductIDs: productIDs, Published: published}
	data, err := store.Encode(m)
	if err != nil {
		return models.Menu{}, err
	}
	if _, err := env.Store.Update(ctx, env.Cols.Menus, id, data); err != nil {
		return models.Menu{}, fmt.Errorf("update menu: %w", err)
	}
	return m, nil
}

func validateMenu(servingDate string, productIDs []string) error {
	if _, err := time.Parse(menuDateLayout, servingDate); err != nil {
		return fmt.Errorf("serving date must look like %s", menuDateLayout)
	}
	if len(productIDs) == 0 {
		return fmt.Errorf("a menu needs at least one product")
	}
	return nil
}

func menuFromDoc(doc store.Document) (models.Menu, error) {
	var m models.Menu
	if err := store.Decode(doc, &m); err != nil {
		return m, err
	}
	m.ID = doc.ID
	return m, nil
}
