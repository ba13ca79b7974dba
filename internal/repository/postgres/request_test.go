package postgres_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewRequestRepository(db)
	now := time.Now().UTC()
	req := &domain.Request{
		ResourceID:   7,
		RequesterID:  3,
		OwnerID:      4,
		PickupDate:   "2026-05-01",
		ReturnDate:   "2026-05-04",
		PickupMethod: domain.PickupMethodPickup,
		Status:       domain.RequestStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectQuery("INSERT INTO requests").
		WithArgs(req.ResourceID, req.RequesterID, req.OwnerID, req.PickupDate, req.ReturnDate, req.PickupMethod, "", "", req.Status, now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))

	require.NoError(t, repo.Create(context.Background(), req))
	assert.Equal(t, int32(21), req.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_GetForUpdate_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF rq")).
		WithArgs(int32(99)).
		WillReturnError(sql.ErrNoRows)

	_, err = postgres.NewRequestRepository(db).GetForUpdate(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_UpdateStatus_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE requests SET status").
		WithArgs(domain.RequestStatusRejected, sqlmock.AnyArg(), int32(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = postgres.NewRequestRepository(db).UpdateStatus(context.Background(), 5, domain.RequestStatusRejected)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRequestRepository_ListActiveForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := requestRow(1, domain.RequestStatusPending)
	rows.AddRow(2, 7, "Drill", 5, 4, time.Now(), time.Now(), "meetup", "", "", "Accepted", time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("rq.status = ANY($2) ORDER BY rq.id FOR UPDATE OF rq")).
		WithArgs(int32(7), sqlmock.AnyArg()).
		WillReturnRows(rows)

	reqs, err := postgres.NewRequestRepository(db).ListActiveForUpdate(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, domain.RequestStatusAccepted, reqs[1].Status)
	assert.Equal(t, domain.PickupMethodMeetup, reqs[1].PickupMethod)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_List_Filters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM requests rq WHERE 1=1 AND rq.requester_id = $1 AND rq.status = ANY($2)")).
		WithArgs(int32(3), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY rq.created_at DESC LIMIT $3 OFFSET $4")).
		WithArgs(int32(3), sqlmock.AnyArg(), int32(20), int32(0)).
		WillReturnRows(requestRow(1, domain.RequestStatusPending))

	reqs, count, err := postgres.NewRequestRepository(db).List(context.Background(), domain.RequestFilter{
		RequesterID: 3,
		Statuses:    []domain.RequestStatus{domain.RequestStatusPending},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), count)
	assert.Len(t, reqs, 1)
	assert.Equal(t, "Drill", reqs[0].ResourceName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
