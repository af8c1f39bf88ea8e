package consolidation

import (
	"context"
	"fmt"

	"github.com/colmena-app/colmena-backend/pkg/db"
	"github.com/colmena-app/colmena-backend/pkg/db/models"
	"github.com/colmena-app/colmena-backend/pkg/logger"
	"github.com/colmena-app/colmena-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service merges duplicate orders (same user, same campaign) into one
// canonical order per user.
type Service interface {
	ConsolidateCampaign(ctx context.Context, campaignID uuid.UUID) (int, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds an order consolidation service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("consolidation repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// ConsolidateCampaign merges every duplicate order group in the campaign
// and returns the number of groups merged. The earliest-created order in
// a group survives; items from the rest transfer to it, with quantities
// for the same product summed. Duplicate rows for one product inside the
// survivor itself are folded first. When prices drifted between duplicate
// orders, the earliest order's unit price wins: merged quantities are
// re-priced at the surviving item's recorded price.
//
// Shipping fees and totals are not touched here; callers run the
// shipping distributor afterwards.
func (s *service) ConsolidateCampaign(ctx context.Context, campaignID uuid.UUID) (int, error) {
	merged := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindCampaignForUpdate(ctx, campaignID); err != nil {
			return db.TranslateError(err, fmt.Sprintf("campaign %s not found", campaignID))
		}

		userIDs, err := repo.ListDuplicateUserIDs(ctx, campaignID)
		if err != nil {
			return db.TranslateError(err, "")
		}

		for _, userID := range userIDs {
			if err := s.mergeGroup(ctx, repo, campaignID, userID); err != nil {
				return err
			}
			merged++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"campaign_id":   campaignID.String(),
		"merged_groups": merged,
	})
	s.logg.Info(logCtx, "campaign orders consolidated")
	return merged, nil
}

func (s *service) mergeGroup(ctx context.Context, repo Repository, campaignID, userID uuid.UUID) error {
	orders, err := repo.FindOrdersByCampaignUser(ctx, campaignID, userID)
	if err != nil {
		return db.TranslateError(err, "")
	}
	if len(orders) < 2 {
		return nil
	}

	survivor := orders[0]
	byProduct := make(map[uuid.UUID]*models.OrderItem, len(survivor.Items))
	for i := range survivor.Items {
		item := &survivor.Items[i]
		existing, ok := byProduct[item.ProductID]
		if !ok {
			byProduct[item.ProductID] = item
			continue
		}

		// the survivor itself may hold several rows for one product;
		// fold them into the earliest row so the subtotal below sums
		// the item set that actually remains attached
		existing.Quantity += item.Quantity
		existing.Subtotal = money.Round(existing.UnitPrice.Mul(decimal.NewFromInt(int64(existing.Quantity))))
		if err := repo.UpdateOrderItem(ctx, existing.ID, existing.Quantity, existing.Subtotal); err != nil {
			return db.TranslateError(err, "")
		}
		if err := repo.DeleteOrderItem(ctx, item.ID); err != nil {
			return db.TranslateError(err, "")
		}
	}

	for _, removable := range orders[1:] {
		for _, item := range removable.Items {
			existing, ok := byProduct[item.ProductID]
			if !ok {
				if err := repo.ReassignOrderItem(ctx, item.ID, survivor.ID); err != nil {
					return db.TranslateError(err, "")
				}
				transferred := item
				transferred.OrderID = survivor.ID
				byProduct[item.ProductID] = &transferred
				continue
			}

			existing.Quantity += item.Quantity
			existing.Subtotal = money.Round(existing.UnitPrice.Mul(decimal.NewFromInt(int64(existing.Quantity))))
			if err := repo.UpdateOrderItem(ctx, existing.ID, existing.Quantity, existing.Subtotal); err != nil {
				return db.TranslateError(err, "")
			}
			if err := repo.DeleteOrderItem(ctx, item.ID); err != nil {
				return db.TranslateError(err, "")
			}
		}

		if err := repo.DeleteOrderIfUnchanged(ctx, removable.ID, removable.UpdatedAt); err != nil {
			return err
		}
	}

	subtotal := decimal.Zero
	for _, item := range byProduct {
		subtotal = subtotal.Add(item.Subtotal)
	}
	if err := repo.UpdateOrderSubtotal(ctx, survivor.ID, money.Round(subtotal)); err != nil {
		return db.TranslateError(err, "")
	}
	return nil
}
