package jobs

import (
	"context"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/logger"
)

// SendOverdueReminders notifies borrowers whose accepted loan passed its
// return date without being completed.
func (jr *JobRunner) SendOverdueReminders() {
	jr.runWithRecovery("SendOverdueReminders", func() {
		ctx := context.Background()
		today := jr.now().Format(domain.DateLayout)

		sent, err := jr.services.Requests.RemindOverdue(ctx, today)
		if err != nil {
			logger.Error("Failed to send overdue reminders", "error", err, "sent", sent)
			return
		}
		logger.Info("Sent overdue reminders", "count", sent, "today", today)
	})
}
