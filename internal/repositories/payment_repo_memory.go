package repositories

import (
	"context"
	"sync"
	"time"

	"grocery/internal/apperrors"
	"grocery/internal/models"
)

// MemoryPaymentRepository is an in-memory implementation of PaymentRepository.
type MemoryPaymentRepository struct {
	refs map[string]models.PaymentReference
	mu   sync.RWMutex
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		refs: make(map[string]models.PaymentReference),
	}
}

func (r *MemoryPaymentRepository) Create(_ context.Context, ref *models.PaymentReference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.refs[ref.PaymentIndex]; ok {
		return apperrors.Conflict("payment reference %s already exists", ref.PaymentIndex)
	}
	now := time.Now()
	ref.CreatedAt = now
	ref.UpdatedAt = now
	r.refs[ref.PaymentIndex] = *ref
	return nil
}

func (r *MemoryPaymentRepository) GetByIndex(_ context.Context, paymentIndex string) (*models.PaymentReference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, ok := r.refs[paymentIndex]
	if !ok {
		return nil, apperrors.NotFound("payment reference %s not found", paymentIndex)
	}
	return &ref, nil
}

func (r *MemoryPaymentRepository) UpdateStatus(_ context.Context, paymentIndex, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, ok := r.refs[paymentIndex]
	if !ok || ref.Consumed() {
		return nil
	}
	ref.Status = status
	ref.UpdatedAt = time.Now()
	r.refs[paymentIndex] = ref
	return nil
}

func (r *MemoryPaymentRepository) Consume(_ context.Context, paymentIndex, status, transactionID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, ok := r.refs[paymentIndex]
	if !ok || ref.Consumed() {
		return false, nil
	}
	ref.Status = status
	ref.TransactionID = transactionID
	ref.ConsumedAt = &at
	ref.UpdatedAt = at
	r.refs[paymentIndex] = ref
	return true, nil
}
