package database

import (
	"context"
	"fmt"

	"grocery/internal/models"
	"grocery/internal/repositories"

	"go.uber.org/zap"
)

const placeholderImage = "/images/products/placeholder.jpg"

func catalog() []models.Product {
	return []models.Product{
		{Name: "Fresh Bananas", Description: "Sweet and ripe bananas, perfect for snacking or baking", Price: 120, Category: "fruits", Unit: "dozen", Stock: 150, Featured: true},
		{Name: "Organic Tomatoes", Description: "Locally grown organic tomatoes", Price: 80, Category: "vegetables", Unit: "kg", Stock: 200, Discount: 10},
		{Name: "Green Spinach", Description: "Fresh and crispy spinach leaves", Price: 60, Category: "vegetables", Unit: "bundle", Stock: 100},
		{Name: "Fresh Milk", Description: "Farm-fresh whole milk, pasteurized", Price: 110, Category: "dairy", Unit: "l", Stock: 50, Featured: true},
		{Name: "Farm Eggs", Description: "Free-range eggs from local farms", Price: 180, Category: "dairy", Unit: "dozen", Stock: 100},
		{Name: "Whole Wheat Bread", Description: "Freshly baked whole wheat loaf", Price: 90, Category: "bakery", Unit: "pcs", Stock: 40, Discount: 5},
		{Name: "Orange Juice", Description: "Cold-pressed orange juice", Price: 250, Category: "beverages", Unit: "l", Stock: 30},
		{Name: "Potato Chips", Description: "Crunchy salted potato chips", Price: 50, Category: "snacks", Unit: "pcs", Stock: 120},
		{Name: "Dish Soap", Description: "Lemon scented dishwashing liquid", Price: 150, Category: "household", Unit: "ml", Stock: 60},
		{Name: "Herbal Shampoo", Description: "Gentle herbal shampoo for daily use", Price: 320, Category: "personal_care", Unit: "ml", Stock: 45, Discount: 15},
	}
}

// SeedProducts fills an empty catalog with the starter grocery range.
func SeedProducts(ctx context.Context, repo repositories.ProductRepository, logger *zap.Logger) error {
	existing, err := repo.GetAll(ctx, models.ProductFilter{})
	if err != nil {
		return fmt.Errorf("failed to inspect catalog: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("catalog already populated, skipping seed", zap.Int("products", len(existing)))
		return nil
	}

	products := catalog()
	for i := range products {
		products[i].ImageURL = placeholderImage
		if err := repo.Create(ctx, &products[i]); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", products[i].Name, err)
		}
		logger.Debug("seeded product", zap.String("product_id", products[i].ID), zap.String("name", products[i].Name))
	}
	logger.Info("catalog seeded", zap.Int("products", len(products)))
	return nil
}
