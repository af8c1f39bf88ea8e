package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem captures one product line within an order. UnitPrice is the
// price snapshot taken when the order was placed, not the product's
// current price.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
