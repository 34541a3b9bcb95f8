package models

import (
	"time"

	"grocery/internal/apperrors"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition validates an administrative move of o to status to.
func (o *Order) CheckTransition(to OrderStatus) error {
	if !to.Valid() {
		return apperrors.Validation("unknown order status %q", to)
	}
	if o.Status.Terminal() {
		return apperrors.InvalidState("order %s is %s and can no longer change", o.ID, o.Status)
	}
	if !CanTransition(o.Status, to) {
		return apperrors.InvalidState("order %s cannot move from %s to %s", o.ID, o.Status, to)
	}
	if to == StatusProcessing && o.PaymentMethod == PaymentGatewayWallet && !o.IsPaid {
		return apperrors.InvalidState("order %s is awaiting gateway payment verification", o.ID)
	}
	return nil
}

// ApplyStatus moves o to status to, stamping the delivery fields. Cash on
// delivery orders are settled when they are delivered.
func (o *Order) ApplyStatus(to OrderStatus, at time.Time) error {
	if err := o.CheckTransition(to); err != nil {
		return err
	}
	o.Status = to
	o.UpdatedAt = at
	if to == StatusDelivered {
		o.IsDelivered = true
		o.DeliveredAt = &at
		if o.PaymentMethod == PaymentCashOnDelivery && !o.IsPaid {
			o.IsPaid = true
			o.PaidAt = &at
		}
	}
	return nil
}

// ApplyPayment marks a pending order paid and moves it to processing.
// An order that is already paid is left untouched and reports false.
func (o *Order) ApplyPayment(at time.Time) (bool, error) {
	if o.IsPaid {
		return false, nil
	}
	if o.Status != StatusPending {
		return false, apperrors.InvalidState("order %s is %s and cannot accept payment", o.ID, o.Status)
	}
	o.IsPaid = true
	o.PaidAt = &at
	o.Status = StatusProcessing
	o.UpdatedAt = at
	return true, nil
}
