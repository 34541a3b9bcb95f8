package services

import (
	"context"
	"time"

	"grocery/internal/apperrors"
	"grocery/internal/models"
	"grocery/internal/repositories"

	"go.uber.org/zap"
)

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	publisher   EventPublisher
	pricing     PricingPolicy
	logger      *zap.Logger
	now         func() time.Time
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	publisher EventPublisher,
	pricing PricingPolicy,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		pricing:     pricing,
		logger:      logger,
		now:         time.Now,
	}
}

// QuoteCart prices a cart against the current catalog without placing an order.
func (s *OrderService) QuoteCart(ctx context.Context, lines []OrderLineRequest) (Quote, error) {
	catalog := make(map[string]models.Product, len(lines))
	for _, line := range lines {
		if _, seen := catalog[line.ProductID]; seen {
			continue
		}
		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return Quote{}, err
		}
		catalog[product.ID] = *product
	}
	return ComputeQuote(lines, catalog, s.pricing)
}

// CreateOrder recomputes the order from the catalog, rejects any declared
// amount that differs, and persists it as pending while taking stock.
// The owner comes from principal; guests place orders without one.
func (s *OrderService) CreateOrder(ctx context.Context, principal models.Principal, req CreateOrderRequest) (*models.Order, error) {
	if !req.PaymentMethod.Valid() {
		return nil, apperrors.Validation("unsupported payment method %q", req.PaymentMethod)
	}

	quote, err := s.QuoteCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if err := quote.Verify(req); err != nil {
		s.logger.Info("order rejected", zap.Error(err))
		return nil, err
	}

	order := &models.Order{
		Items:           quote.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      quote.ItemsPrice,
		ShippingPrice:   quote.ShippingPrice,
		TaxPrice:        quote.TaxPrice,
		TotalPrice:      quote.TotalPrice,
		Status:          models.StatusPending,
	}
	if !principal.IsGuest() {
		userID := principal.UserID
		order.UserID = &userID
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.Int64("total_price", order.TotalPrice),
		zap.Int("items", len(order.Items)))
	publishOrderEvent(s.publisher, s.logger, EventOrderCreated, order)

	return order, nil
}

// GetOrder returns an order the principal is allowed to see.
func (s *OrderService) GetOrder(ctx context.Context, principal models.Principal, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanView(order) {
		return nil, apperrors.Forbidden("order %s belongs to another user", id)
	}
	return order, nil
}

// ListOrders returns every order for administrators and the principal's own
// orders otherwise.
func (s *OrderService) ListOrders(ctx context.Context, principal models.Principal) ([]models.Order, error) {
	if principal.IsGuest() {
		return nil, apperrors.Unauthorized("authentication required to list orders")
	}
	if principal.IsAdmin() {
		return s.orderRepo.GetAll(ctx)
	}
	return s.orderRepo.ListByUser(ctx, principal.UserID)
}

// UpdateOrderStatus applies an administrative status change. Cancelling
// returns the order's stock to the catalog.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, principal models.Principal, id string, status models.OrderStatus) (*models.Order, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.Forbidden("only administrators can change order status")
	}
	if !status.Valid() {
		return nil, apperrors.Validation("unknown order status %q", status)
	}

	order, err := s.orderRepo.UpdateStatus(ctx, id, status, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
		zap.String("admin_id", principal.UserID))
	publishOrderEvent(s.publisher, s.logger, EventOrderStatusChanged, order)

	return order, nil
}
