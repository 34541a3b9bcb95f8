package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User represents a user of the store.
type User struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string         `json:"username" gorm:"uniqueIndex;type:varchar(100)"`
	Email     string         `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	Role      Role           `json:"role" gorm:"type:varchar(16);not null;default:customer"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Principal is the identity behind a request. The zero value is a guest.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsGuest() bool {
	return p.UserID == ""
}

// CanView reports whether p may read the order. Guest orders are addressed by
// their opaque identifier alone.
func (p Principal) CanView(o *Order) bool {
	if p.IsAdmin() || o.UserID == nil {
		return true
	}
	return !p.IsGuest() && *o.UserID == p.UserID
}
