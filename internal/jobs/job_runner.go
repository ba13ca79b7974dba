package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sharenet-backend/internal/config"
	"sharenet-backend/internal/logger"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	now      func() time.Time
}

// RequestMaintainer is the part of the request service the jobs drive.
type RequestMaintainer interface {
	ExpireStale(ctx context.Context, cutoff string) (int, error)
	RemindOverdue(ctx context.Context, today string) (int, error)
}

type AvailabilityReconciler interface {
	ReconcileAvailability(ctx context.Context) (int, error)
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Requests  RequestMaintainer
	Resources AvailabilityReconciler
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Config returns the configuration the jobs were built with.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	start := time.Now()
	jobFunc()
	logger.Info("Job completed", "job", jobName, "duration_ms", time.Since(start).Milliseconds())
}

func (jr *JobRunner) jobs() map[string]func() {
	return map[string]func(){
		"expire-stale-requests":  jr.ExpireStaleRequests,
		"send-overdue-reminders": jr.SendOverdueReminders,
		"reconcile-availability": jr.ReconcileAvailability,
		"all":                    jr.RunAll,
	}
}

// JobNames lists the names accepted by RunByName.
func (jr *JobRunner) JobNames() []string {
	names := make([]string, 0, 4)
	for name := range jr.jobs() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunByName runs one job, or all of them for "all", synchronously.
func (jr *JobRunner) RunByName(name string) error {
	job, ok := jr.jobs()[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	job()
	return nil
}

// RunAll runs every job once, expiring before reconciling so the repair pass
// sees the released resources.
func (jr *JobRunner) RunAll() {
	jr.ExpireStaleRequests()
	jr.SendOverdueReminders()
	jr.ReconcileAvailability()
}
