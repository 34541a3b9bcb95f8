package models

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a product in the store. Prices are whole currency units.
type Product struct {
	ID          string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null" validate:"required,min=3,max=100"`
	Description string         `json:"description" validate:"omitempty,max=500"`
	Price       int64          `json:"price" gorm:"not null" validate:"required,gt=0"`
	Stock       int            `json:"stock" gorm:"not null" validate:"gte=0"`
	Category    string         `json:"category" gorm:"type:varchar(32);index" validate:"required,oneof=fruits vegetables dairy bakery beverages snacks household personal_care"`
	Unit        string         `json:"unit" gorm:"type:varchar(16)" validate:"omitempty,oneof=kg g l ml pcs dozen bundle"`
	ImageURL    string         `json:"imageUrl"`
	Featured    bool           `json:"featured"`
	Discount    int            `json:"discount" validate:"gte=0,lte=100"` // percentage
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// EffectivePrice is the unit price charged at checkout after the discount.
func (p Product) EffectivePrice() int64 {
	if p.Discount <= 0 {
		return p.Price
	}
	if p.Discount >= 100 {
		return 0
	}
	return p.Price * int64(100-p.Discount) / 100
}

// ProductFilter narrows catalog listings. Zero values match everything.
type ProductFilter struct {
	Category   string
	Search     string
	Featured   bool
	Discounted bool
}
