package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grocery/internal/apperrors"
	"grocery/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

func itemsInLineOrder(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// GetAll retrieves all orders, newest first.
func (r *GORMOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items", itemsInLineOrder).Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

// ListByUser retrieves the orders placed by a user, newest first.
func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items", itemsInLineOrder).
		Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return r.getByID(r.db.WithContext(ctx), id)
}

func (r *GORMOrderRepository) getByID(db *gorm.DB, id string) (*models.Order, error) {
	var order models.Order
	if err := db.Preload("Items", itemsInLineOrder).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// Create decrements stock with a conditional update per item and inserts the
// order in the same transaction. A concurrent checkout that took the last
// unit leaves the condition unmatched and the whole transaction rolls back.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := order.CheckTotal(); err != nil {
		return err
	}
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to reserve stock for product %s: %w", item.ProductID, res.Error)
			}
			if res.RowsAffected == 1 {
				continue
			}

			var count int64
			if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check product %s: %w", item.ProductID, err)
			}
			if count == 0 {
				return apperrors.NotFound("product with ID %s not found", item.ProductID)
			}
			return apperrors.OutOfStock("insufficient stock for product %s (requested: %d)", item.Name, item.Quantity)
		}

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
}

// UpdateStatus applies the transition only if the stored status is still the
// one it was validated against.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, at time.Time) (*models.Order, error) {
	var updated *models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := r.getByID(tx, id)
		if err != nil {
			return err
		}
		from := order.Status
		if err := order.ApplyStatus(status, at); err != nil {
			return err
		}

		res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", id, from).Updates(map[string]interface{}{
			"status":       order.Status,
			"is_delivered": order.IsDelivered,
			"delivered_at": order.DeliveredAt,
			"is_paid":      order.IsPaid,
			"paid_at":      order.PaidAt,
			"updated_at":   at,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to update order %s status: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.InvalidState("order %s was modified concurrently", id)
		}

		if status == models.StatusCancelled {
			for _, item := range order.Items {
				err := tx.Unscoped().Model(&models.Product{}).Where("id = ?", item.ProductID).
					UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error
				if err != nil {
					return fmt.Errorf("failed to release stock for product %s: %w", item.ProductID, err)
				}
			}
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkPaid is a compare-and-swap on (is_paid = false, status = pending).
func (r *GORMOrderRepository) MarkPaid(ctx context.Context, id string, at time.Time) (*models.Order, bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND is_paid = ? AND status = ?", id, false, models.StatusPending).
		Updates(map[string]interface{}{
			"is_paid":    true,
			"paid_at":    at,
			"status":     models.StatusProcessing,
			"updated_at": at,
		})
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to mark order %s paid: %w", id, res.Error)
	}

	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if res.RowsAffected == 1 {
		return order, true, nil
	}
	if order.IsPaid {
		return order, false, nil
	}
	return nil, false, apperrors.InvalidState("order %s is %s and cannot accept payment", id, order.Status)
}
