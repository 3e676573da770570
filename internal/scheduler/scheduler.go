package scheduler

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"galleryapi/internal/service"
)

// runTimeout bounds one cleanup invocation triggered by the scheduler.
const runTimeout = 10 * time.Minute

// Scheduler owns the in-process cron loop that fires the daily cleanup job.
// It replaces the external timer trigger with an embedded one; the HTTP
// trigger endpoint stays available for out-of-process schedulers.
type Scheduler struct {
	cron *cron.Cron
	runs *prometheus.CounterVec
}

// New creates a Scheduler using standard 5-field cron expressions evaluated in loc.
func New(reg prometheus.Registerer, loc *time.Location) (*Scheduler, error) {
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_cleanup_runs_total",
			Help: "Total number of scheduled cleanup runs by outcome.",
		},
		[]string{"outcome"},
	)
	if err := reg.Register(runs); err != nil {
		return nil, err
	}

	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
		runs: runs,
	}, nil
}

// ScheduleCleanup registers job to run at the given cron spec.
func (s *Scheduler) ScheduleCleanup(spec string, job service.CleanupRunner) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() {
		s.runCleanup(job)
	})
}

func (s *Scheduler) runCleanup(job service.CleanupRunner) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	summary := job.Run(ctx)

	outcome := "success"
	if !summary.Success {
		outcome = "failure"
	}
	s.runs.WithLabelValues(outcome).Inc()
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and returns a context that is done once in-flight jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
