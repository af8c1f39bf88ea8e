package cron

import (
	"context"

	"github.com/colmena-app/colmena-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CampaignSource lists campaign ids straight from the database for the
// reconcile job.
type CampaignSource struct {
	db *gorm.DB
}

// NewCampaignSource builds a campaign source bound to the provided DB.
func NewCampaignSource(db *gorm.DB) *CampaignSource {
	return &CampaignSource{db: db}
}

// ListCampaignIDs returns every campaign id, oldest first.
func (s *CampaignSource) ListCampaignIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
