package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharenet-backend/internal/domain"
)

func newModerationService(f *fixture) *moderationService {
	svc := NewModerationService(f.store, memReports{f.store}, f.notes).(*moderationService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func (f *fixture) seedCompleted() domain.Request {
	return f.store.addRequest(domain.Request{
		ResourceID:  f.drill.ID,
		RequesterID: f.borrower.ID,
		OwnerID:     f.owner.ID,
		PickupDate:  "2026-04-10",
		ReturnDate:  "2026-04-12",
		Status:      domain.RequestStatusCompleted,
	})
}

func TestModerationService_SubmitReport(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerReportsCompletedLoan", func(t *testing.T) {
		f := newFixture(t)
		svc := newModerationService(f)
		req := f.seedCompleted()

		rp, err := svc.SubmitReport(ctx, actorOf(f.owner), req.ID, " damaged ", "returned with a cracked chuck")
		require.NoError(t, err)
		assert.Equal(t, domain.ReportStatusPending, rp.Status)
		assert.Equal(t, "damaged", rp.Reason)
		assert.Equal(t, f.owner.ID, rp.ReporterID)
		assert.Equal(t, f.borrower.ID, rp.ReportedUserID)
		assert.Nil(t, rp.ResolvedBy)

		notes := f.store.notificationsFor(f.owner.ID)
		require.Len(t, notes, 1)
		assert.Equal(t, domain.NotificationReportSubmitted, notes[0].Type)
		require.NotNil(t, notes[0].RelatedReportID)
		assert.Equal(t, rp.ID, *notes[0].RelatedReportID)

		_, err = svc.SubmitReport(ctx, actorOf(f.owner), req.ID, "again", "")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("BorrowerCannotReport", func(t *testing.T) {
		f := newFixture(t)
		svc := newModerationService(f)
		req := f.seedCompleted()
		_, err := svc.SubmitReport(ctx, actorOf(f.borrower), req.ID, "rude", "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("NotCompleted", func(t *testing.T) {
		f := newFixture(t)
		svc := newModerationService(f)
		req := f.seedPending(f.borrower)
		_, err := svc.SubmitReport(ctx, actorOf(f.owner), req.ID, "no show", "")
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("MissingReason", func(t *testing.T) {
		f := newFixture(t)
		svc := newModerationService(f)
		req := f.seedCompleted()
		_, err := svc.SubmitReport(ctx, actorOf(f.owner), req.ID, "  ", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("UnknownRequest", func(t *testing.T) {
		f := newFixture(t)
		svc := newModerationService(f)
		_, err := svc.SubmitReport(ctx, actorOf(f.owner), 9999, "damaged", "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestModerationService_ResolveReport(t *testing.T) {
	ctx := context.Background()

	submit := func(t *testing.T, f *fixture, svc *moderationService) *domain.Report {
		t.Helper()
		rp, err := svc.SubmitReport(ctx, actorOf(f.owner), f.seedCompleted().ID, "damaged", "")
		require.NoError(t, err)
		return rp
	}

	t.Run("ActionTakenNotifiesBothParties", func(t *testing.T) {
		f := newFixture(t)
		svc := newModerationService(f)
		rp := submit(t, f, svc)

		got, err := svc.ResolveReport(ctx, actorOf(f.admin), rp.ID, domain.ReportStatusActionTaken, "warned borrower")
		require.NoError(t, err)
		assert.Equal(t, domain.ReportStatusActionTaken, got.Status)
		assert.Equal(t, "warned borrower", got.AdminNotes)
		require.NotNil(t, got.ResolvedBy)
		assert.Equal(t, f.admin.ID, *got.ResolvedBy)
		require.NotNil(t, got.ResolvedAt)
		assert.True(t, fixedNow.Equal(*got.ResolvedAt))

		assert.Len(t, f.store.notificationsFor(f.owner.ID), 2)
		reported := f.store.notificationsFor(f.borrower.ID)
		require.Len(t, reported, 1)
		assert.Equal(t, domain.NotificationReportResolved, reported[0].Type)
	})

	t.Run("ReviewedNotifiesReporterOnly", func(t *testing.T) {
		f := newFixture(t)
		svc := newModerationService(f)
		rp := submit(t, f, svc)

		_, err := svc.ResolveReport(ctx, actorOf(f.admin), rp.ID, domain.ReportStatusReviewed, "")
		require.NoError(t, err)
		assert.Len(t, f.store.notificationsFor(f.owner.ID), 2)
		assert.Empty(t, f.store.notificationsFor(f.borrower.ID))
	})

	t.Run("ResolverStampedOnce", func(t *testing.T) {
		f := newFixture(t)
		svc := newModerationService(f)
		second := f.store.addUser(domain.User{Name: "Max", Email: "max@example.com", Role: domain.UserRoleAdmin})
		rp := submit(t, f, svc)

		_, err := svc.ResolveReport(ctx, actorOf(f.admin), rp.ID, domain.ReportStatusReviewed, "looking")
		require.NoError(t, err)
		svc.now = func() time.Time { return fixedNow.Add(48 * time.Hour) }
		got, err := svc.ResolveReport(ctx, actorOf(second), rp.ID, domain.ReportStatusDismissed, "")
		require.NoError(t, err)

		assert.Equal(t, domain.ReportStatusDismissed, got.Status)
		assert.Equal(t, "looking", got.AdminNotes)
		assert.Equal(t, f.admin.ID, *got.ResolvedBy)
		assert.True(t, fixedNow.Equal(*got.ResolvedAt))
	})

	t.Run("Validation", func(t *testing.T) {
		f := newFixture(t)
		svc := newModerationService(f)
		rp := submit(t, f, svc)

		_, err := svc.ResolveReport(ctx, actorOf(f.owner), rp.ID, domain.ReportStatusDismissed, "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		_, err = svc.ResolveReport(ctx, actorOf(f.admin), rp.ID, domain.ReportStatusPending, "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = svc.ResolveReport(ctx, actorOf(f.admin), 9999, domain.ReportStatusReviewed, "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestModerationService_ListReports(t *testing.T) {
	f := newFixture(t)
	svc := newModerationService(f)
	ctx := context.Background()
	_, err := svc.SubmitReport(ctx, actorOf(f.owner), f.seedCompleted().ID, "damaged", "")
	require.NoError(t, err)

	pending, total, err := svc.ListReports(ctx, domain.ReportStatusPending, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	assert.Len(t, pending, 1)

	_, _, err = svc.ListReports(ctx, "Closed", 1, 20)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
