package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/colmena-app/colmena-backend/internal/integrity"
	"github.com/colmena-app/colmena-backend/pkg/logger"
	"github.com/google/uuid"
)

type fakeCampaignLister struct {
	ids []uuid.UUID
	err error
}

func (f *fakeCampaignLister) ListCampaignIDs(ctx context.Context) ([]uuid.UUID, error) {
	return f.ids, f.err
}

type fakeConsolidator struct {
	merged map[uuid.UUID]int
	errs   map[uuid.UUID]error
	calls  []uuid.UUID
}

func (f *fakeConsolidator) ConsolidateCampaign(ctx context.Context, campaignID uuid.UUID) (int, error) {
	f.calls = append(f.calls, campaignID)
	return f.merged[campaignID], f.errs[campaignID]
}

type fakeDistributor struct {
	errs  map[uuid.UUID]error
	calls []uuid.UUID
}

func (f *fakeDistributor) DistributeShipping(ctx context.Context, campaignID uuid.UUID) error {
	f.calls = append(f.calls, campaignID)
	return f.errs[campaignID]
}

type fakeValidator struct {
	reports map[uuid.UUID]*integrity.Report
	calls   []uuid.UUID
}

func (f *fakeValidator) ValidateCampaign(ctx context.Context, campaignID uuid.UUID) (*integrity.Report, error) {
	f.calls = append(f.calls, campaignID)
	if report, ok := f.reports[campaignID]; ok {
		return report, nil
	}
	return passingReport(campaignID), nil
}

func passingReport(campaignID uuid.UUID) *integrity.Report {
	return &integrity.Report{
		CampaignID:         campaignID,
		ShippingMatch:      true,
		TotalMatch:         true,
		PaidPartitionMatch: true,
	}
}

func jobLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "job-test", Output: io.Discard})
}

func newJob(t *testing.T, lister *fakeCampaignLister, cons *fakeConsolidator, dist *fakeDistributor, val *fakeValidator) *reconcileJob {
	t.Helper()
	job, err := NewReconcileJob(ReconcileJobParams{
		Logger:       jobLogger(),
		Campaigns:    lister,
		Consolidator: cons,
		Distributor:  dist,
		Validator:    val,
	})
	if err != nil {
		t.Fatalf("NewReconcileJob: %v", err)
	}
	return job.(*reconcileJob)
}

func TestReconcileJobProcessesAllCampaigns(t *testing.T) {
	campaignA := uuid.New()
	campaignB := uuid.New()
	lister := &fakeCampaignLister{ids: []uuid.UUID{campaignA, campaignB}}
	cons := &fakeConsolidator{merged: map[uuid.UUID]int{campaignA: 2}}
	dist := &fakeDistributor{}
	val := &fakeValidator{}

	job := newJob(t, lister, cons, dist, val)
	summary, err := job.runAll(context.Background())
	if err != nil {
		t.Fatalf("runAll: %v", err)
	}

	if summary.Processed != 2 || summary.Succeeded != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.MergedGroups != 2 {
		t.Fatalf("merged groups = %d, want 2", summary.MergedGroups)
	}
	if len(cons.calls) != 2 || len(dist.calls) != 2 || len(val.calls) != 2 {
		t.Fatalf("every stage should run for every campaign")
	}
	// consolidation precedes distribution for each campaign
	if cons.calls[0] != campaignA || dist.calls[0] != campaignA {
		t.Fatalf("stages ran out of campaign order")
	}
}

func TestReconcileJobIsolatesCampaignFailures(t *testing.T) {
	broken := uuid.New()
	healthy := uuid.New()
	lister := &fakeCampaignLister{ids: []uuid.UUID{broken, healthy}}
	cons := &fakeConsolidator{errs: map[uuid.UUID]error{broken: errors.New("db down")}}
	dist := &fakeDistributor{}
	val := &fakeValidator{}

	job := newJob(t, lister, cons, dist, val)
	summary, err := job.runAll(context.Background())
	if err == nil {
		t.Fatalf("expected combined error for the broken campaign")
	}

	if summary.Failed != 1 || summary.Succeeded != 1 || summary.Processed != 2 {
		t.Fatalf("one failure must not abort the batch; summary %+v", summary)
	}
	if len(dist.calls) != 1 || dist.calls[0] != healthy {
		t.Fatalf("distribution should still run for the healthy campaign")
	}
}

func TestReconcileJobCountsViolations(t *testing.T) {
	campaignID := uuid.New()
	lister := &fakeCampaignLister{ids: []uuid.UUID{campaignID}}
	val := &fakeValidator{reports: map[uuid.UUID]*integrity.Report{
		campaignID: {CampaignID: campaignID, ShippingMatch: false, TotalMatch: true, PaidPartitionMatch: true},
	}}

	job := newJob(t, lister, &fakeConsolidator{}, &fakeDistributor{}, val)
	summary, err := job.runAll(context.Background())
	if err != nil {
		t.Fatalf("runAll: %v", err)
	}
	if summary.Violations != 1 {
		t.Fatalf("violations = %d, want 1", summary.Violations)
	}
	// an audit violation is a result, not a campaign failure
	if summary.Failed != 0 || summary.Succeeded != 1 {
		t.Fatalf("violation should not count as failure; summary %+v", summary)
	}
}

func TestReconcileJobListFailure(t *testing.T) {
	lister := &fakeCampaignLister{err: errors.New("connection refused")}
	job := newJob(t, lister, &fakeConsolidator{}, &fakeDistributor{}, &fakeValidator{})
	if _, err := job.runAll(context.Background()); err == nil {
		t.Fatalf("expected error when listing campaigns fails")
	}
}
