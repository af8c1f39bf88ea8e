package shipping

import (
	"context"

	"github.com/colmena-app/colmena-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository loads a campaign's order graph and writes back fees.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// FindCampaignForUpdate locks the campaign row for the duration of
	// the enclosing transaction and preloads orders (created_at ASC),
	// their items, and item products.
	FindCampaignForUpdate(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error)
	UpdateOrderShipping(ctx context.Context, orderID uuid.UUID, fee, total decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipping repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCampaignForUpdate(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Orders", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Orders.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Orders.Items.Product").
		Where("id = ?", campaignID).
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *repository) UpdateOrderShipping(ctx context.Context, orderID uuid.UUID, fee, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"shipping_fee": fee,
			"total":        total,
		}).Error
}
