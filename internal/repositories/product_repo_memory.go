package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"grocery/internal/apperrors"
	"grocery/internal/models"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
// MemoryOrderRepository reserves stock through the same lock.
type MemoryProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// GetAll returns the products matching filter, newest first.
func (r *MemoryProductRepository) GetAll(_ context.Context, filter models.ProductFilter) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		switch {
		case filter.Category != "" && p.Category != strings.ToLower(filter.Category):
			continue
		case search != "" && !strings.Contains(strings.ToLower(p.Name), search):
			continue
		case filter.Featured && !p.Featured:
			continue
		case filter.Discounted && p.Discount <= 0:
			continue
		}
		productList = append(productList, p)
	}
	sort.Slice(productList, func(i, j int) bool {
		return productList[i].CreatedAt.After(productList[j].CreatedAt)
	})
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product with ID %s not found", id)
	}
	return &product, nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MemoryProductRepository) Update(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return apperrors.NotFound("product with ID %s not found for update", product.ID)
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	if !ok {
		return apperrors.NotFound("product with ID %s not found for deletion", id)
	}
	delete(r.products, id)
	return nil
}

// reserveLocked decrements stock for every item or for none. Caller holds r.mu.
func (r *MemoryProductRepository) reserveLocked(items []models.OrderItem) error {
	remaining := make(map[string]int, len(items))
	for _, item := range items {
		product, ok := r.products[item.ProductID]
		if !ok {
			return apperrors.NotFound("product with ID %s not found", item.ProductID)
		}
		left, seen := remaining[item.ProductID]
		if !seen {
			left = product.Stock
		}
		if left < item.Quantity {
			return apperrors.OutOfStock("insufficient stock for product %s (requested: %d, available: %d)", product.Name, item.Quantity, left)
		}
		remaining[item.ProductID] = left - item.Quantity
	}
	for id, left := range remaining {
		product := r.products[id]
		product.Stock = left
		r.products[id] = product
	}
	return nil
}

// releaseLocked returns stock for items. Products deleted since checkout are skipped.
func (r *MemoryProductRepository) releaseLocked(items []models.OrderItem) {
	for _, item := range items {
		product, ok := r.products[item.ProductID]
		if !ok {
			continue
		}
		product.Stock += item.Quantity
		r.products[item.ProductID] = product
	}
}
