package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records metadata for reconciliation jobs.
type JobMetrics struct {
	duration           *prometheus.HistogramVec
	success            *prometheus.CounterVec
	failure            *prometheus.CounterVec
	campaignsSucceeded prometheus.Counter
	campaignsFailed    prometheus.Counter
}

// NewJobMetrics registers the job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of reconciliation jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed job executions.",
	}, []string{"job"})
	campaignsSucceeded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_campaigns_succeeded_total",
		Help: "Campaigns reconciled without error.",
	})
	campaignsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_campaigns_failed_total",
		Help: "Campaigns whose reconciliation failed.",
	})
	reg.MustRegister(duration, success, failure, campaignsSucceeded, campaignsFailed)
	return &JobMetrics{
		duration:           duration,
		success:            success,
		failure:            failure,
		campaignsSucceeded: campaignsSucceeded,
		campaignsFailed:    campaignsFailed,
	}
}

// ObserveDuration records the duration for the named job.
func (j *JobMetrics) ObserveDuration(job string, duration time.Duration) {
	if j == nil || j.duration == nil {
		return
	}
	j.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (j *JobMetrics) IncSuccess(job string) {
	if j == nil || j.success == nil {
		return
	}
	j.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (j *JobMetrics) IncFailure(job string) {
	if j == nil || j.failure == nil {
		return
	}
	j.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// AddCampaignResults records the per-campaign outcomes of a batch run.
func (j *JobMetrics) AddCampaignResults(succeeded, failed int) {
	if j == nil || j.campaignsSucceeded == nil {
		return
	}
	j.campaignsSucceeded.Add(float64(succeeded))
	j.campaignsFailed.Add(float64(failed))
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
