package repositories

import (
	"context"
	"time"

	"grocery/internal/models"
)

// PaymentRepository stores gateway payment references.
type PaymentRepository interface {
	Create(ctx context.Context, ref *models.PaymentReference) error
	GetByIndex(ctx context.Context, paymentIndex string) (*models.PaymentReference, error)
	// UpdateStatus records the last status the gateway reported.
	UpdateStatus(ctx context.Context, paymentIndex, status string) error
	// Consume marks the reference as applied. It reports false when another
	// caller consumed it first.
	Consume(ctx context.Context, paymentIndex, status, transactionID string, at time.Time) (bool, error)
}
