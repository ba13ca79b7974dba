package jobs

import (
	"context"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/logger"
)

// ExpireStaleRequests cancels pending requests whose pickup date passed more
// than expire_after_days ago without an answer from the owner.
func (jr *JobRunner) ExpireStaleRequests() {
	jr.runWithRecovery("ExpireStaleRequests", func() {
		ctx := context.Background()
		days := jr.config.Lifecycle.ExpireAfterDays
		cutoff := jr.now().AddDate(0, 0, -days).Format(domain.DateLayout)

		expired, err := jr.services.Requests.ExpireStale(ctx, cutoff)
		if err != nil {
			// Requests that did expire are committed; err lists the rest.
			logger.Error("Failed to expire some stale requests", "error", err, "expired", expired, "cutoff", cutoff)
			return
		}
		logger.Info("Expired stale requests", "count", expired, "cutoff", cutoff)
	})
}

// ReconcileAvailability repairs resources whose stored availability drifted
// from what their active requests imply.
func (jr *JobRunner) ReconcileAvailability() {
	jr.runWithRecovery("ReconcileAvailability", func() {
		fixed, err := jr.services.Resources.ReconcileAvailability(context.Background())
		if err != nil {
			logger.Error("Availability reconciliation incomplete", "error", err, "fixed", fixed)
			return
		}
		if fixed > 0 {
			logger.Warn("Repaired resource availability drift", "count", fixed)
			return
		}
		logger.Info("Resource availability consistent")
	})
}
