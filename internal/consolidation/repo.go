package consolidation

import (
	"context"
	"time"

	"github.com/colmena-app/colmena-backend/pkg/db/models"
	pkgerrors "github.com/colmena-app/colmena-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes the persistence surface the consolidator needs:
// duplicate discovery, item transfer/merge, and guarded order deletion.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// FindCampaignForUpdate locks the campaign row so distribution and
	// consolidation cannot interleave on the same campaign.
	FindCampaignForUpdate(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error)
	ListDuplicateUserIDs(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error)
	FindOrdersByCampaignUser(ctx context.Context, campaignID, userID uuid.UUID) ([]models.Order, error)
	UpdateOrderItem(ctx context.Context, itemID uuid.UUID, quantity int, subtotal decimal.Decimal) error
	ReassignOrderItem(ctx context.Context, itemID, newOrderID uuid.UUID) error
	DeleteOrderItem(ctx context.Context, itemID uuid.UUID) error
	// DeleteOrderIfUnchanged deletes an order only when its updated_at
	// still matches; a stale timestamp means a concurrent mutation and
	// yields a Conflict error.
	DeleteOrderIfUnchanged(ctx context.Context, orderID uuid.UUID, updatedAt time.Time) error
	UpdateOrderSubtotal(ctx context.Context, orderID uuid.UUID, subtotal decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a consolidation repository bound to the provided DB.
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
		Where("id = ?", campaignID).
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *repository) ListDuplicateUserIDs(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("campaign_id = ?", campaignID).
		Group("user_id").
		Having("COUNT(*) > 1").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (r *repository) FindOrdersByCampaignUser(ctx context.Context, campaignID, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateOrderItem(ctx context.Context, itemID uuid.UUID, quantity int, subtotal decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"quantity": quantity,
			"subtotal": subtotal,
		}).Error
}

func (r *repository) ReassignOrderItem(ctx context.Context, itemID, newOrderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Update("order_id", newOrderID).Error
}

func (r *repository) DeleteOrderItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.OrderItem{}, "id = ?", itemID).Error
}

func (r *repository) DeleteOrderIfUnchanged(ctx context.Context, orderID uuid.UUID, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Delete(&models.Order{}, "id = ? AND updated_at = ?", orderID, updatedAt)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict,
			"order was modified concurrently, aborting consolidation")
	}
	return nil
}

func (r *repository) UpdateOrderSubtotal(ctx context.Context, orderID uuid.UUID, subtotal decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("subtotal", subtotal).Error
}
