package integrity

import (
	"context"

	"github.com/colmena-app/colmena-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository provides the read-only campaign view the validator audits.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCampaignWithOrders(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an integrity repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCampaignWithOrders(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).
		Preload("Orders", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", campaignID).
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}
