package shipping

import (
	"context"
	"fmt"

	"github.com/colmena-app/colmena-backend/pkg/db"
	"github.com/colmena-app/colmena-backend/pkg/logger"
	"github.com/colmena-app/colmena-backend/pkg/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service distributes a campaign's shipping cost across its orders in
// proportion to order weight.
type Service interface {
	DistributeShipping(ctx context.Context, campaignID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds a shipping distribution service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// DistributeShipping recomputes every order's shipping fee and total for
// one campaign inside a single transaction. The campaign row is locked
// so consolidation cannot interleave. Re-running on an unchanged
// campaign writes identical values.
func (s *service) DistributeShipping(ctx context.Context, campaignID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		campaign, err := repo.FindCampaignForUpdate(ctx, campaignID)
		if err != nil {
			return db.TranslateError(err, fmt.Sprintf("campaign %s not found", campaignID))
		}

		shares := make([]money.Share, 0, len(campaign.Orders))
		for _, order := range campaign.Orders {
			weight, err := OrderWeight(order)
			if err != nil {
				return err
			}
			shares = append(shares, money.Share{OrderID: order.ID, Weight: weight})
		}

		allocations, err := money.Distribute(campaign.ShippingCost, shares)
		if err != nil {
			return err
		}

		for i, allocation := range allocations {
			order := campaign.Orders[i]
			if order.ID != allocation.OrderID {
				return fmt.Errorf("allocation order mismatch: %s vs %s", order.ID, allocation.OrderID)
			}
			total := money.Round(order.Subtotal.Add(allocation.Amount))
			if err := repo.UpdateOrderShipping(ctx, order.ID, allocation.Amount, total); err != nil {
				return db.TranslateError(err, "order not found")
			}
		}

		logCtx := s.logg.WithFields(ctx, map[string]any{
			"campaign_id": campaignID.String(),
			"orders":      len(campaign.Orders),
			"shipping":    campaign.ShippingCost.String(),
		})
		s.logg.Info(logCtx, "shipping cost distributed")
		return nil
	})
}
