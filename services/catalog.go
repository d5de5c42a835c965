package services

import (
	"context"
	"fmt"
	"strings"

	"food-preorder/models"
	"food-preorder/store"
)

// ListProducts returns the catalog ordered by name, the way the menu
// page shows it.
func ListProducts(ctx context.Context, env *Env) ([]models.Product, error) {
	return listProducts(ctx, env, store.OrderAsc("name"))
}

// ListProductsByCreated returns the catalog oldest first, the way the
// admin page shows it.
func ListProductsByCreated(ctx context.Context, env *Env) ([]models.Product, error) {
	return listProducts(ctx, env, store.OrderAsc(store.AttrCreatedAt))
}

func listProducts(ctx context.Context, env *Env, order store.Query) ([]models.Product, error) {
	if !env.ready() {
		return nil, ErrMissingSetup
	}
	res, err := env.Store.List(ctx, env.Cols.Products, order, store.Limit(100))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products := make([]models.Product, 0, len(res.Documents))
	for _, doc := range res.Documents {
		p, err := productFromDoc(doc)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func CreateProduct(ctx context.Context, env *Env, name string, price int64, active bool) (models.Product, error) {
	p := models.Product{Name: strings.TrimSpace(name), Price: price, Active: active}
	if err := validateProduct(p); err != nil {
		return models.Product{}, err
	}
	if !env.ready() {
		return models.Product{}, ErrMissingSetup
	}
	data, err := store.Encode(p)
	if err != nil {
		return models.Product{}, err
	}
	doc, err := env.Store.Create(ctx, env.Cols.Products, store.NewID(), data)
	if err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}
	p.ID = doc.ID
	return p, nil
}

func UpdateProduct(ctx context.Context, env *Env, id, name string, price int64, active bool) (models.Product, error) {
	if id == "" {
		return models.Product{}, fmt.Errorf("product identifier missing")
	}
	p := models.Product{ID: id, Name: strings.TrimSpace(name), Price: price, Active: active}
	if err := validateProduct(p); err != nil {
		return models.Product{}, err
	}
	if !env.ready() {
		return models.Product{}, ErrMissingSetup
	}
	data, err := store.Encode(p)
	if err != nil {
		return models.Product{}, err
	}
	if _, err := env.Store.Update(ctx, env.Cols.Products, id, data); err != nil {
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func validateProduct(p models.Product) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("price must be >= 0")
	}
	return nil
}

func productFromDoc(doc store.Document) (models.Product, error) {
	var p models.Product
	if err := store.Decode(doc, &p); err != nil {
		return p, err
	}
	p.ID = doc.ID
	return p, nil
}
