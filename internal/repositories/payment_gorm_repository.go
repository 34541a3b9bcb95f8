package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grocery/internal/apperrors"
	"grocery/internal/models"

	"gorm.io/gorm"
)

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{db: db}
}

func (r *GORMPaymentRepository) Create(ctx context.Context, ref *models.PaymentReference) error {
	if err := r.db.WithContext(ctx).Create(ref).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Conflict("payment reference %s already exists", ref.PaymentIndex)
		}
		return fmt.Errorf("failed to create payment reference: %w", err)
	}
	return nil
}

func (r *GORMPaymentRepository) GetByIndex(ctx context.Context, paymentIndex string) (*models.PaymentReference, error) {
	var ref models.PaymentReference
	if err := r.db.WithContext(ctx).First(&ref, "payment_index = ?", paymentIndex).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("payment reference %s not found", paymentIndex)
		}
		return nil, fmt.Errorf("failed to get payment reference %s: %w", paymentIndex, err)
	}
	return &ref, nil
}

func (r *GORMPaymentRepository) UpdateStatus(ctx context.Context, paymentIndex, status string) error {
	res := r.db.WithContext(ctx).Model(&models.PaymentReference{}).
		Where("payment_index = ? AND consumed_at IS NULL", paymentIndex).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update payment reference %s: %w", paymentIndex, res.Error)
	}
	return nil
}

func (r *GORMPaymentRepository) Consume(ctx context.Context, paymentIndex, status, transactionID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PaymentReference{}).
		Where("payment_index = ? AND consumed_at IS NULL", paymentIndex).
		Updates(map[string]interface{}{
			"status":         status,
			"transaction_id": transactionID,
			"consumed_at":    at,
			"updated_at":     at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to consume payment reference %s: %w", paymentIndex, res.Error)
	}
	return res.RowsAffected == 1, nil
}
