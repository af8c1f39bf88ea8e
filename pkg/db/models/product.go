package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog entry referenced by order items. Weight is the
// per-unit shipping weight in kilograms and is the only field the
// allocation engine reads.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Weight    decimal.Decimal `gorm:"column:weight;type:numeric(10,3);not null;default:0"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
