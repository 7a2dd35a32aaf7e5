// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/models"
)

// DefaultCatalogue is installed by SeedProducts on an empty store.
var DefaultCatalogue = []models.Product{
	{ID: "1", Name: "T-Shirt", Price: models.MoneyFromFloat(8.50), Sizes: []string{"S", "M", "L", "XL"}},
	{ID: "2", Name: "Hoodie", Price: models.MoneyFromFloat(24.90), Sizes: []string{"S", "M", "L", "XL"}},
	{ID: "3", Name: "Jeans", Price: models.MoneyFromFloat(29.99), Sizes: []string{"28", "30", "32", "34", "36"}},
	{ID: "4", Name: "Cap", Price: models.MoneyFromFloat(12.00), Sizes: []string{"One Size"}},
	{ID: "5", Name: "Sneaker", Price: models.MoneyFromFloat(49.00), Sizes: []string{"38", "39", "40", "41", "42", "43", "44"}},
}

// PutProduct inserts or replaces a catalogue entry.
func (s *Store) PutProduct(ctx context.Context, p *models.Product) error {
	if err := s.Put(ctx, Products, p.ID, p); err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

// GetProduct loads a catalogue entry.
func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.Get(ctx, Products, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns the catalogue ordered by id, numerically where ids
// are numbers.
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.List(ctx, Products, Query{}, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	sortProducts(products)
	return products, nil
}

// SeedProducts installs catalogue when the product collection is empty and
// reports how many entries were written.
func (s *Store) SeedProducts(ctx context.Context, catalogue []models.Product) (int, error) {
	n, err := s.Count(ctx, Products, nil)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i := range catalogue {
		if err := s.PutProduct(ctx, &catalogue[i]); err != nil {
			return i, err
		}
	}
	logging.Info().Int("products", len(catalogue)).Msg("Seeded product catalogue")
	return len(catalogue), nil
}

func sortProducts(p []models.Product) {
	less := func(a, b string) bool {
		ai, aerr := strconv.Atoi(a)
		bi, berr := strconv.Atoi(b)
		if aerr == nil && berr == nil {
			return ai < bi
		}
		return a < b
	}
	sort.SliceStable(p, func(i, j int) bool { return less(p[i].ID, p[j].ID) })
}
