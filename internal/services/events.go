package services

import (
	"encoding/json"
	"time"

	"grocery/internal/models"

	"go.uber.org/zap"
)

// Routing keys of order lifecycle events.
const (
	EventOrderCreated       = "order.created"
	EventOrderPaid          = "order.paid"
	EventOrderStatusChanged = "order.status_changed"
)

// EventPublisher delivers order events to the message bus.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderEvent is the body of every order event.
type OrderEvent struct {
	OrderID       string               `json:"orderId"`
	UserID        *string              `json:"userId,omitempty"`
	Status        models.OrderStatus   `json:"status"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	TotalPrice    int64                `json:"totalPrice"`
	IsPaid        bool                 `json:"isPaid"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

func newOrderEvent(order *models.Order) OrderEvent {
	return OrderEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		TotalPrice:    order.TotalPrice,
		IsPaid:        order.IsPaid,
		OccurredAt:    time.Now().UTC(),
	}
}

// publishOrderEvent never fails the caller; the order is already committed.
func publishOrderEvent(publisher EventPublisher, logger *zap.Logger, routingKey string, order *models.Order) {
	if publisher == nil {
		return
	}
	body, err := json.Marshal(newOrderEvent(order))
	if err != nil {
		logger.Error("failed to marshal order event", zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	if err := publisher.Publish(routingKey, body); err != nil {
		logger.Warn("failed to publish order event",
			zap.String("routing_key", routingKey),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
}
