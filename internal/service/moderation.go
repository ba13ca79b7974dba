package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/logger"
	"sharenet-backend/internal/notify"
	"sharenet-backend/internal/repository"
)

type moderationService struct {
	tx       repository.Transactor
	reports  repository.ReportRepository
	notifier notify.Notifier
	now      func() time.Time
}

func NewModerationService(tx repository.Transactor, reports repository.ReportRepository, notifier notify.Notifier) ModerationService {
	return &moderationService{
		tx:       tx,
		reports:  reports,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SubmitReport lets the owner of a completed request report its borrower.
// Only one report may exist per request.
func (s *moderationService) SubmitReport(ctx context.Context, actor domain.Actor, requestID int32, reason, description string) (*domain.Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", domain.ErrInvalidInput)
	}

	var report domain.Report
	var outbox []domain.Notification
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		if err := ensureNotBanned(ctx, tx.Users(), actor); err != nil {
			return err
		}
		req, err := tx.Requests().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.OwnerID != actor.ID {
			return fmt.Errorf("%w: only the owner can report request %d", domain.ErrForbidden, requestID)
		}
		if req.Status != domain.RequestStatusCompleted {
			return fmt.Errorf("%w: only completed requests can be reported", domain.ErrInvalidState)
		}
		exists, err := tx.Reports().ExistsForRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: request %d has already been reported", domain.ErrConflict, requestID)
		}

		report = domain.Report{
			RequestID:      requestID,
			ReporterID:     actor.ID,
			ReportedUserID: req.RequesterID,
			Reason:         reason,
			Description:    strings.TrimSpace(description),
			Status:         domain.ReportStatusPending,
		}
		if err := tx.Reports().Create(ctx, &report); err != nil {
			return err
		}

		runner := newEffectRunner(ctx, tx, actor, s.now())
		runner.notify(requestID, domain.Notification{
			UserID:          actor.ID,
			Type:            domain.NotificationReportSubmitted,
			Title:           "Report Submitted",
			Message:         fmt.Sprintf("Your report about %s has been received and will be reviewed.", resourceName(req)),
			RelatedReportID: &report.ID,
		})
		outbox = runner.outbox
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Enqueue(outbox...)
	logger.InfoContext(ctx, "Report submitted", "reportID", report.ID, "requestID", requestID, "reporterID", actor.ID)
	return &report, nil
}

// ResolveReport moves a report to a resolution status. The resolver and time
// are recorded only when the report first leaves Pending.
func (s *moderationService) ResolveReport(ctx context.Context, actor domain.Actor, reportID int32, status domain.ReportStatus, adminNotes string) (*domain.Report, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	if !status.Valid() || status == domain.ReportStatusPending {
		return nil, fmt.Errorf("%w: status must be Reviewed, Dismissed or Action Taken", domain.ErrInvalidInput)
	}

	var report *domain.Report
	var outbox []domain.Notification
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		rp, err := tx.Reports().GetForUpdate(ctx, reportID)
		if err != nil {
			return err
		}

		now := s.now()
		if rp.Status == domain.ReportStatusPending {
			resolver := actor.ID
			rp.ResolvedBy = &resolver
			rp.ResolvedAt = &now
		}
		rp.Status = status
		if notes := strings.TrimSpace(adminNotes); notes != "" {
			rp.AdminNotes = notes
		}
		if err := tx.Reports().Update(ctx, rp); err != nil {
			return err
		}

		runner := newEffectRunner(ctx, tx, actor, now)
		runner.notify(rp.RequestID, domain.Notification{
			UserID:          rp.ReporterID,
			Type:            domain.NotificationReportResolved,
			Title:           "Report Updated",
			Message:         fmt.Sprintf("Your report has been marked as %s.", status),
			RelatedReportID: &rp.ID,
		})
		if status == domain.ReportStatusActionTaken || status == domain.ReportStatusDismissed {
			msg := "A report concerning one of your loans was reviewed and dismissed."
			if status == domain.ReportStatusActionTaken {
				msg = "A report concerning one of your loans was reviewed and action has been taken."
			}
			runner.notify(rp.RequestID, domain.Notification{
				UserID:          rp.ReportedUserID,
				Type:            domain.NotificationReportResolved,
				Title:           "Report Outcome",
				Message:         msg,
				RelatedReportID: &rp.ID,
			})
		}
		report = rp
		outbox = runner.outbox
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Enqueue(outbox...)
	return report, nil
}

func (s *moderationService) ListReports(ctx context.Context, status domain.ReportStatus, page, pageSize int32) ([]domain.Report, int32, error) {
	if status != "" && !status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown report status %q", domain.ErrInvalidInput, status)
	}
	return s.reports.List(ctx, status, page, pageSize)
}
