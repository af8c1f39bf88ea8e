package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Campaign represents one group-purchase event with a single shared
// shipping cost distributed across its orders.
type Campaign struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2);not null;default:0"`
	IsClosed     bool            `gorm:"column:is_closed;not null;default:false"`
	Orders       []Order         `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
