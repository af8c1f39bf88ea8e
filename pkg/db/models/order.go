package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is one buyer's set of purchased items within a campaign.
// CreatedAt doubles as the consolidation tie-break: the earliest order
// for a (campaign, user) pair survives a merge.
type Order struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CampaignID  uuid.UUID       `gorm:"column:campaign_id;type:uuid;not null;index"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	ShippingFee decimal.Decimal `gorm:"column:shipping_fee;type:numeric(12,2);not null;default:0"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	IsPaid      bool            `gorm:"column:is_paid;not null;default:false"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
