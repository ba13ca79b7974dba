package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/repository/postgres"
)

// These tests run the request service against the PostgreSQL store so the
// statements and their order inside one unit of work are pinned down.

func newSQLRequestService(t *testing.T) (RequestService, sqlmock.Sqlmock, *recordingNotifier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := postgres.NewStore(db)
	notes := &recordingNotifier{}
	return NewRequestService(store, store.RequestRepository, notes), mock, notes
}

func pendingRequestRow(id, resourceID int32) *sqlmock.Rows {
	pickup := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "resource_id", "name", "requester_id", "owner_id", "pickup_date", "return_date",
		"pickup_method", "message_to_owner", "borrow_location", "status", "created_at", "updated_at"}).
		AddRow(id, resourceID, "Drill", 3, 4, pickup, pickup.AddDate(0, 0, 2), "pickup", "", "", "Pending", time.Now(), time.Now())
}

func reservedResourceRow(id int32) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner_id", "name", "description", "category", "location",
		"availability_status", "created_at", "updated_at", "deleted_at"}).
		AddRow(id, 4, "Drill", "", "tools", "", "Reserved", time.Now(), time.Now(), nil)
}

func TestRequestService_RejectLocksResourceBeforeRequest(t *testing.T) {
	svc, mock, notes := newSQLRequestService(t)
	owner := domain.Actor{ID: 4, Role: domain.UserRoleMember}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE rq.id = $1") + "$").
		WithArgs(int32(1)).
		WillReturnRows(pendingRequestRow(1, 7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM resources WHERE id = $1 FOR UPDATE")).
		WithArgs(int32(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE rq.id = $1 FOR UPDATE OF rq")).
		WithArgs(int32(1)).
		WillReturnRows(pendingRequestRow(1, 7))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET status = $1")).
		WithArgs(domain.RequestStatusRejected, sqlmock.AnyArg(), int32(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM resources WHERE id = $1 AND deleted_at IS NULL FOR UPDATE")).
		WithArgs(int32(7)).
		WillReturnRows(reservedResourceRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("rq.status = ANY($2) ORDER BY rq.id FOR UPDATE OF rq")).
		WithArgs(int32(7), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE resources SET availability_status=$1")).
		WithArgs(domain.AvailabilityAvailable, sqlmock.AnyArg(), int32(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`SAVEPOINT "notify_1"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO notifications")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(99))
	mock.ExpectExec(regexp.QuoteMeta(`RELEASE SAVEPOINT "notify_1"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	got, err := svc.Reject(context.Background(), owner, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, got.Status)
	require.Len(t, notes.all(), 1)
	assert.Equal(t, int32(3), notes.all()[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestService_ResourceLockFailureNeverTouchesRequestRow(t *testing.T) {
	svc, mock, notes := newSQLRequestService(t)
	owner := domain.Actor{ID: 4, Role: domain.UserRoleMember}
	lockTimeout := errors.New("canceling statement due to lock timeout")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE rq.id = $1") + "$").
		WithArgs(int32(1)).
		WillReturnRows(pendingRequestRow(1, 7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM resources WHERE id = $1 FOR UPDATE")).
		WithArgs(int32(7)).
		WillReturnError(lockTimeout)
	mock.ExpectRollback()

	_, err := svc.Accept(context.Background(), owner, 1)
	assert.ErrorIs(t, err, lockTimeout)
	assert.Empty(t, notes.all())
	assert.NoError(t, mock.ExpectationsWereMet())
}
