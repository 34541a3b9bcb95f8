package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"grocery/internal/apperrors"
	"grocery/internal/models"

	"github.com/google/uuid"
)

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
// Lock order is orders first, then products.
type MemoryOrderRepository struct {
	orders   map[string]models.Order
	products *MemoryProductRepository
	mu       sync.RWMutex
}

// NewMemoryOrderRepository creates an order store that reserves stock in products.
func NewMemoryOrderRepository(products *MemoryProductRepository) *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:   make(map[string]models.Order),
		products: products,
	}
}

// copyOrder detaches the item slice so callers cannot mutate stored state.
func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

func newestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// GetAll returns all orders, newest first.
func (r *MemoryOrderRepository) GetAll(_ context.Context) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, copyOrder(order))
	}
	newestFirst(orderList)
	return orderList, nil
}

// ListByUser returns the orders of one user, newest first.
func (r *MemoryOrderRepository) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for _, order := range r.orders {
		if order.UserID != nil && *order.UserID == userID {
			orderList = append(orderList, copyOrder(order))
		}
	}
	newestFirst(orderList)
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MemoryOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order with ID %s not found", id)
	}
	order = copyOrder(order)
	return &order, nil
}

// Create reserves stock and stores the order under both locks.
func (r *MemoryOrderRepository) Create(_ context.Context, order *models.Order) error {
	if err := order.CheckTotal(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products.mu.Lock()
	defer r.products.mu.Unlock()

	if err := r.products.reserveLocked(order.Items); err != nil {
		return err
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	r.orders[order.ID] = copyOrder(*order)
	return nil
}

// UpdateStatus applies a transition and releases stock on cancellation.
func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, id string, status models.OrderStatus, at time.Time) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order with ID %s not found for status update", id)
	}
	order := copyOrder(stored)
	if err := order.ApplyStatus(status, at); err != nil {
		return nil, err
	}
	if status == models.StatusCancelled {
		r.products.mu.Lock()
		r.products.releaseLocked(order.Items)
		r.products.mu.Unlock()
	}
	r.orders[id] = order

	order = copyOrder(order)
	return &order, nil
}

// MarkPaid transitions an unpaid pending order to paid exactly once.
func (r *MemoryOrderRepository) MarkPaid(_ context.Context, id string, at time.Time) (*models.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, false, apperrors.NotFound("order with ID %s not found", id)
	}
	order := copyOrder(stored)
	changed, err := order.ApplyPayment(at)
	if err != nil {
		return nil, false, err
	}
	if changed {
		r.orders[id] = order
	}

	order = copyOrder(order)
	return &order, changed, nil
}
