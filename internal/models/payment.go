package models

import "time"

// PaymentReference correlates a gateway payment session with an order.
// ConsumedAt is set once, when a completed payment has been applied.
type PaymentReference struct {
	PaymentIndex  string     `json:"paymentIndex" gorm:"primaryKey;type:varchar(64)"`
	OrderID       string     `json:"orderId" gorm:"type:varchar(36);index;not null"`
	Amount        int64      `json:"amount"`
	Status        string     `json:"status" gorm:"type:varchar(32)"`
	PaymentURL    string     `json:"paymentUrl"`
	TransactionID string     `json:"transactionId"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	ConsumedAt    *time.Time `json:"consumedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (r *PaymentReference) Consumed() bool {
	return r.ConsumedAt != nil
}
