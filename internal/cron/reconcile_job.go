package cron

import (
	"context"
	"fmt"

	"github.com/colmena-app/colmena-backend/internal/integrity"
	"github.com/colmena-app/colmena-backend/pkg/logger"
	"github.com/colmena-app/colmena-backend/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// orderConsolidator merges duplicate orders within a campaign.
type orderConsolidator interface {
	ConsolidateCampaign(ctx context.Context, campaignID uuid.UUID) (int, error)
}

// shippingDistributor spreads the campaign shipping cost over orders.
type shippingDistributor interface {
	DistributeShipping(ctx context.Context, campaignID uuid.UUID) error
}

// campaignValidator audits a campaign's books.
type campaignValidator interface {
	ValidateCampaign(ctx context.Context, campaignID uuid.UUID) (*integrity.Report, error)
}

// campaignLister enumerates the campaigns a batch run covers.
type campaignLister interface {
	ListCampaignIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ReconcileSummary aggregates one batch run over all campaigns.
type ReconcileSummary struct {
	Processed    int
	Succeeded    int
	Failed       int
	MergedGroups int
	Violations   int
}

// ReconcileJobParams configure the campaign reconciliation job.
type ReconcileJobParams struct {
	Logger       *logger.Logger
	Campaigns    campaignLister
	Consolidator orderConsolidator
	Distributor  shippingDistributor
	Validator    campaignValidator
	Metrics      *metrics.JobMetrics
}

// NewReconcileJob builds the job that consolidates, redistributes, and
// audits every campaign.
func NewReconcileJob(params ReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Campaigns == nil {
		return nil, fmt.Errorf("campaign lister required")
	}
	if params.Consolidator == nil {
		return nil, fmt.Errorf("consolidator required")
	}
	if params.Distributor == nil {
		return nil, fmt.Errorf("distributor required")
	}
	if params.Validator == nil {
		return nil, fmt.Errorf("validator required")
	}
	return &reconcileJob{
		logg:         params.Logger,
		campaigns:    params.Campaigns,
		consolidator: params.Consolidator,
		distributor:  params.Distributor,
		validator:    params.Validator,
		metrics:      params.Metrics,
	}, nil
}

type reconcileJob struct {
	logg         *logger.Logger
	campaigns    campaignLister
	consolidator orderConsolidator
	distributor  shippingDistributor
	validator    campaignValidator
	metrics      *metrics.JobMetrics
}

func (j *reconcileJob) Name() string { return "campaign-reconcile" }

// Run processes every campaign independently: a failing campaign is
// recorded and skipped, never aborting the batch.
func (j *reconcileJob) Run(ctx context.Context) error {
	summary, err := j.runAll(ctx)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"processed":     summary.Processed,
		"succeeded":     summary.Succeeded,
		"failed":        summary.Failed,
		"merged_groups": summary.MergedGroups,
		"violations":    summary.Violations,
	})
	j.logg.Info(logCtx, "campaign reconciliation run complete")
	j.metrics.AddCampaignResults(summary.Succeeded, summary.Failed)
	return err
}

func (j *reconcileJob) runAll(ctx context.Context) (ReconcileSummary, error) {
	var summary ReconcileSummary

	campaignIDs, err := j.campaigns.ListCampaignIDs(ctx)
	if err != nil {
		return summary, fmt.Errorf("list campaigns: %w", err)
	}

	var errs []error
	for _, campaignID := range campaignIDs {
		summary.Processed++
		outcome, err := j.reconcileCampaign(ctx, campaignID)
		summary.MergedGroups += outcome.MergedGroups
		summary.Violations += outcome.Violations
		if err != nil {
			summary.Failed++
			campaignCtx := j.logg.WithCampaignID(ctx, campaignID.String())
			j.logg.Error(campaignCtx, "campaign reconciliation failed", err)
			errs = append(errs, fmt.Errorf("campaign %s: %w", campaignID, err))
			continue
		}
		summary.Succeeded++
	}
	return summary, multierr.Combine(errs...)
}

type campaignOutcome struct {
	MergedGroups int
	Violations   int
}

func (j *reconcileJob) reconcileCampaign(ctx context.Context, campaignID uuid.UUID) (campaignOutcome, error) {
	var outcome campaignOutcome

	merged, err := j.consolidator.ConsolidateCampaign(ctx, campaignID)
	if err != nil {
		return outcome, fmt.Errorf("consolidate: %w", err)
	}
	outcome.MergedGroups = merged

	if err := j.distributor.DistributeShipping(ctx, campaignID); err != nil {
		return outcome, fmt.Errorf("distribute shipping: %w", err)
	}

	report, err := j.validator.ValidateCampaign(ctx, campaignID)
	if err != nil {
		return outcome, fmt.Errorf("validate: %w", err)
	}
	if !report.Passed() {
		outcome.Violations = 1
	}
	return outcome, nil
}
