package integrity

import (
	"context"
	"fmt"

	"github.com/colmena-app/colmena-backend/pkg/db"
	"github.com/colmena-app/colmena-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// epsilon absorbs one minor unit of legitimate rounding per aggregate.
var epsilon = decimal.New(1, -2)

// Report is the outcome of auditing one campaign's books. A failed
// check is a result, not an error; the raw aggregates are carried for
// diagnostics.
type Report struct {
	CampaignID   uuid.UUID       `json:"campaign_id"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	FeeSum       decimal.Decimal `json:"fee_sum"`
	SubtotalSum  decimal.Decimal `json:"subtotal_sum"`
	TotalSum     decimal.Decimal `json:"total_sum"`
	PaidSum      decimal.Decimal `json:"paid_sum"`
	UnpaidSum    decimal.Decimal `json:"unpaid_sum"`

	ShippingMatch      bool `json:"shipping_match"`
	TotalMatch         bool `json:"total_match"`
	PaidPartitionMatch bool `json:"paid_partition_match"`
}

// Passed reports whether all three checks held.
func (r *Report) Passed() bool {
	return r != nil && r.ShippingMatch && r.TotalMatch && r.PaidPartitionMatch
}

// Service audits campaign totals after mutations.
type Service interface {
	ValidateCampaign(ctx context.Context, campaignID uuid.UUID) (*Report, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds an integrity validation service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("integrity repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// ValidateCampaign runs the three arithmetic checks against one
// campaign: fees sum to the shipping cost, totals decompose into
// subtotals plus shipping, and paid/unpaid totals partition the whole.
// Read-only; never mutates.
func (s *service) ValidateCampaign(ctx context.Context, campaignID uuid.UUID) (*Report, error) {
	campaign, err := s.repo.FindCampaignWithOrders(ctx, campaignID)
	if err != nil {
		return nil, db.TranslateError(err, fmt.Sprintf("campaign %s not found", campaignID))
	}

	report := &Report{
		CampaignID:   campaign.ID,
		ShippingCost: campaign.ShippingCost,
		FeeSum:       decimal.Zero,
		SubtotalSum:  decimal.Zero,
		TotalSum:     decimal.Zero,
		PaidSum:      decimal.Zero,
		UnpaidSum:    decimal.Zero,
	}

	for _, order := range campaign.Orders {
		report.FeeSum = report.FeeSum.Add(order.ShippingFee)
		report.SubtotalSum = report.SubtotalSum.Add(order.Subtotal)
		report.TotalSum = report.TotalSum.Add(order.Total)
		if order.IsPaid {
			report.PaidSum = report.PaidSum.Add(order.Total)
		} else {
			report.UnpaidSum = report.UnpaidSum.Add(order.Total)
		}
	}

	report.ShippingMatch = within(report.FeeSum.Sub(report.ShippingCost), epsilon)
	report.TotalMatch = within(report.TotalSum.Sub(report.SubtotalSum.Add(report.ShippingCost)), epsilon)
	report.PaidPartitionMatch = within(report.TotalSum.Sub(report.PaidSum.Add(report.UnpaidSum)), epsilon)

	if !report.Passed() {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"campaign_id":          campaignID.String(),
			"shipping_match":       report.ShippingMatch,
			"total_match":          report.TotalMatch,
			"paid_partition_match": report.PaidPartitionMatch,
			"fee_sum":              report.FeeSum.String(),
			"shipping_cost":        report.ShippingCost.String(),
		})
		s.logg.Warn(logCtx, "campaign failed integrity audit")
	}
	return report, nil
}

func within(diff, tolerance decimal.Decimal) bool {
	return diff.Abs().LessThan(tolerance)
}
