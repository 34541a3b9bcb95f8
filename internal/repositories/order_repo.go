package repositories

import (
	"context"
	"time"

	"grocery/internal/models"
)

// OrderRepository defines the interface for order data access.
// Orders are never deleted; they only move through the status machine.
type OrderRepository interface {
	GetAll(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// Create persists the order and decrements stock for every item in one
	// atomic step. It fails with OutOfStockError without persisting anything
	// when any item cannot be covered.
	Create(ctx context.Context, order *models.Order) error
	// UpdateStatus applies an administrative transition against the stored
	// state. Cancelling returns the order's items to stock.
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus, at time.Time) (*models.Order, error)
	// MarkPaid moves an unpaid pending order to paid/processing. It reports
	// false, without error, when the order was already paid.
	MarkPaid(ctx context.Context, id string, at time.Time) (*models.Order, bool, error)
}
