package services

import (
	"context"
	"fmt"
	"time"

	"grocery/internal/apperrors"
	"grocery/internal/models"
	"grocery/internal/repositories"
	"grocery/pkg/khalti"

	"go.uber.org/zap"
)

// paisaPerUnit converts order totals into the gateway's minor unit.
const paisaPerUnit = 100

// PaymentGateway is the subset of the gateway client the service needs.
type PaymentGateway interface {
	Initiate(ctx context.Context, req khalti.InitiateRequest) (*khalti.InitiateResponse, error)
	Lookup(ctx context.Context, paymentIndex string) (*khalti.LookupResponse, error)
}

// PaymentConfig holds the URLs handed to the gateway and the call timeout.
type PaymentConfig struct {
	ReturnURL  string
	WebsiteURL string
	Timeout    time.Duration
}

type InitiatePaymentRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	// Amount is optional; when sent it must equal the order total.
	Amount *int64 `json:"amount"`
}

type InitiatePaymentResult struct {
	OrderID      string     `json:"orderId"`
	PaymentIndex string     `json:"paymentIndex"`
	PaymentURL   string     `json:"paymentUrl"`
	Amount       int64      `json:"amount"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

type VerifyPaymentRequest struct {
	PaymentIndex string `json:"paymentIndex" validate:"required"`
	OrderID      string `json:"orderId"`
}

type VerifyPaymentResult struct {
	OrderID       string             `json:"orderId"`
	IsPaid        bool               `json:"isPaid"`
	PaidAt        *time.Time         `json:"paidAt"`
	Status        models.OrderStatus `json:"status"`
	PaymentStatus string             `json:"paymentStatus"`
}

func newVerifyResult(order *models.Order, paymentStatus string) *VerifyPaymentResult {
	return &VerifyPaymentResult{
		OrderID:       order.ID,
		IsPaid:        order.IsPaid,
		PaidAt:        order.PaidAt,
		Status:        order.Status,
		PaymentStatus: paymentStatus,
	}
}

// PaymentService coordinates orders with the payment gateway.
type PaymentService struct {
	orderRepo   repositories.OrderRepository
	paymentRepo repositories.PaymentRepository
	gateway     PaymentGateway
	publisher   EventPublisher
	cfg         PaymentConfig
	logger      *zap.Logger
	now         func() time.Time
}

func NewPaymentService(
	orderRepo repositories.OrderRepository,
	paymentRepo repositories.PaymentRepository,
	gateway PaymentGateway,
	publisher EventPublisher,
	cfg PaymentConfig,
	logger *zap.Logger,
) *PaymentService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &PaymentService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		publisher:   publisher,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// InitiatePayment opens a gateway session for a pending gateway-wallet order.
// The amount charged is always the persisted order total.
func (s *PaymentService) InitiatePayment(ctx context.Context, principal models.Principal, req InitiatePaymentRequest) (*InitiatePaymentResult, error) {
	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !principal.CanView(order) {
		return nil, apperrors.Forbidden("order %s belongs to another user", order.ID)
	}
	if order.PaymentMethod != models.PaymentGatewayWallet {
		return nil, apperrors.Validation("order %s is not paid through the payment gateway", order.ID)
	}
	if order.IsPaid {
		return nil, apperrors.InvalidState("order %s is already paid", order.ID)
	}
	if order.Status != models.StatusPending {
		return nil, apperrors.InvalidState("order %s is %s and cannot accept payment", order.ID, order.Status)
	}
	if req.Amount != nil && *req.Amount != order.TotalPrice {
		return nil, apperrors.Validation("amount mismatch: expected %d, received %d", order.TotalPrice, *req.Amount)
	}

	gatewayReq := khalti.InitiateRequest{
		ReturnURL:         s.cfg.ReturnURL,
		WebsiteURL:        s.cfg.WebsiteURL,
		Amount:            order.TotalPrice * paisaPerUnit,
		PurchaseOrderID:   order.ID,
		PurchaseOrderName: fmt.Sprintf("Order %s", order.ID),
		CustomerInfo: &khalti.CustomerInfo{
			Name:  order.ShippingAddress.FullName,
			Email: order.ShippingAddress.Email,
			Phone: order.ShippingAddress.Phone,
		},
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	resp, err := s.gateway.Initiate(callCtx, gatewayReq)
	if err != nil {
		s.logger.Warn("payment initiation failed", zap.String("order_id", order.ID), zap.Error(err))
		return nil, apperrors.Gateway(err, "payment gateway could not initiate payment for order %s", order.ID)
	}

	ref := &models.PaymentReference{
		PaymentIndex: resp.PaymentIndex,
		OrderID:      order.ID,
		Amount:       gatewayReq.Amount,
		Status:       khalti.StatusInitiated,
		PaymentURL:   resp.PaymentURL,
	}
	if expiry := resp.Expiry(); !expiry.IsZero() {
		ref.ExpiresAt = &expiry
	}
	if err := s.paymentRepo.Create(ctx, ref); err != nil {
		s.logger.Error("failed to store payment reference",
			zap.String("order_id", order.ID),
			zap.String("payment_index", resp.PaymentIndex),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("payment initiated",
		zap.String("order_id", order.ID),
		zap.String("payment_index", ref.PaymentIndex),
		zap.Int64("amount", ref.Amount))

	return &InitiatePaymentResult{
		OrderID:      order.ID,
		PaymentIndex: ref.PaymentIndex,
		PaymentURL:   ref.PaymentURL,
		Amount:       order.TotalPrice,
		ExpiresAt:    ref.ExpiresAt,
	}, nil
}

// VerifyPayment confirms a payment with the gateway's lookup endpoint and
// marks the order paid at most once. Repeated calls for a consumed reference
// return the current order state without contacting the gateway.
func (s *PaymentService) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*VerifyPaymentResult, error) {
	if req.PaymentIndex == "" {
		return nil, apperrors.Validation("paymentIndex is required")
	}
	ref, err := s.paymentRepo.GetByIndex(ctx, req.PaymentIndex)
	if err != nil {
		return nil, err
	}
	if req.OrderID != "" && req.OrderID != ref.OrderID {
		return nil, apperrors.Validation("payment %s does not belong to order %s", ref.PaymentIndex, req.OrderID)
	}

	order, err := s.orderRepo.GetByID(ctx, ref.OrderID)
	if err != nil {
		return nil, err
	}
	if ref.Consumed() {
		return newVerifyResult(order, ref.Status), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	lookup, err := s.gateway.Lookup(callCtx, ref.PaymentIndex)
	if err != nil {
		s.logger.Warn("payment lookup failed",
			zap.String("order_id", order.ID),
			zap.String("payment_index", ref.PaymentIndex),
			zap.Error(err))
		return nil, apperrors.Gateway(err, "payment gateway could not verify payment %s", ref.PaymentIndex)
	}
	if lookup.PaymentIndex != "" && lookup.PaymentIndex != ref.PaymentIndex {
		return nil, apperrors.Gateway(nil, "payment gateway answered for %s instead of %s", lookup.PaymentIndex, ref.PaymentIndex)
	}

	if !lookup.Completed() {
		if err := s.paymentRepo.UpdateStatus(ctx, ref.PaymentIndex, lookup.Status); err != nil {
			return nil, err
		}
		s.logger.Info("payment not completed",
			zap.String("order_id", order.ID),
			zap.String("payment_index", ref.PaymentIndex),
			zap.String("payment_status", lookup.Status))
		return newVerifyResult(order, lookup.Status), nil
	}

	if order.IsPaid {
		return s.recordDuplicatePayment(ctx, order, ref, lookup)
	}

	if expected := order.TotalPrice * paisaPerUnit; lookup.TotalAmount != expected {
		s.logger.Error("payment amount mismatch",
			zap.String("order_id", order.ID),
			zap.String("payment_index", ref.PaymentIndex),
			zap.Int64("expected", expected),
			zap.Int64("received", lookup.TotalAmount))
		return nil, apperrors.Gateway(nil, "payment %s amount mismatch: expected %d, received %d", ref.PaymentIndex, expected, lookup.TotalAmount)
	}

	at := s.now()
	paid, changed, err := s.orderRepo.MarkPaid(ctx, order.ID, at)
	if err != nil {
		s.logger.Error("completed payment could not be applied",
			zap.String("order_id", order.ID),
			zap.String("payment_index", ref.PaymentIndex),
			zap.Error(err))
		return nil, err
	}

	// The order is already settled here, so a lost race or storage failure
	// while consuming the reference is only logged.
	if _, err := s.paymentRepo.Consume(ctx, ref.PaymentIndex, lookup.Status, lookup.TransactionID, at); err != nil {
		s.logger.Warn("failed to consume payment reference", zap.String("payment_index", ref.PaymentIndex), zap.Error(err))
	}

	if changed {
		s.logger.Info("payment verified",
			zap.String("order_id", paid.ID),
			zap.String("payment_index", ref.PaymentIndex),
			zap.String("transaction_id", lookup.TransactionID))
		publishOrderEvent(s.publisher, s.logger, EventOrderPaid, paid)
	}
	return newVerifyResult(paid, lookup.Status), nil
}

// recordDuplicatePayment consumes a second completed reference for an order
// that another payment already settled. The order is left untouched; the
// customer was charged twice and the log line is what support refunds from.
func (s *PaymentService) recordDuplicatePayment(ctx context.Context, order *models.Order, ref *models.PaymentReference, lookup *khalti.LookupResponse) (*VerifyPaymentResult, error) {
	s.logger.Warn("completed payment for an already settled order, refund required",
		zap.String("order_id", order.ID),
		zap.String("payment_index", ref.PaymentIndex),
		zap.String("transaction_id", lookup.TransactionID),
		zap.Int64("amount", lookup.TotalAmount))
	if _, err := s.paymentRepo.Consume(ctx, ref.PaymentIndex, lookup.Status, lookup.TransactionID, s.now()); err != nil {
		s.logger.Warn("failed to consume payment reference", zap.String("payment_index", ref.PaymentIndex), zap.Error(err))
	}
	return newVerifyResult(order, lookup.Status), nil
}
