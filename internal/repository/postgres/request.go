package postgres

import (
	"context"
	"fmt"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/logger"
	"sharenet-backend/internal/repository"

	"github.com/lib/pq"
)

type requestRepository struct {
	db DBTX
}

func NewRequestRepository(db DBTX) repository.RequestRepository {
	return &requestRepository{db: db}
}

const requestSelect = `SELECT rq.id, rq.resource_id, COALESCE(rs.name, ''), rq.requester_id, rq.owner_id, rq.pickup_date, rq.return_date,
	rq.pickup_method, COALESCE(rq.message_to_owner, ''), COALESCE(rq.borrow_location, ''), rq.status, rq.created_at, rq.updated_at
	FROM requests rq JOIN resources rs ON rs.id = rq.resource_id`

func scanRequest(s scanner) (*domain.Request, error) {
	req := &domain.Request{}
	var pickup, ret time.Time
	if err := s.Scan(&req.ID, &req.ResourceID, &req.ResourceName, &req.RequesterID, &req.OwnerID, &pickup, &ret,
		&req.PickupMethod, &req.MessageToOwner, &req.BorrowLocation, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, err
	}
	req.PickupDate = pickup.Format(domain.DateLayout)
	req.ReturnDate = ret.Format(domain.DateLayout)
	return req, nil
}

func statusStrings(statuses []domain.RequestStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *requestRepository) Create(ctx context.Context, req *domain.Request) error {
	query := `INSERT INTO requests (resource_id, requester_id, owner_id, pickup_date, return_date, pickup_method, message_to_owner, borrow_location, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	logger.DatabaseCall("INSERT", "requests", "resourceID", req.ResourceID, "requesterID", req.RequesterID)
	err := r.db.QueryRowContext(ctx, query, req.ResourceID, req.RequesterID, req.OwnerID, req.PickupDate, req.ReturnDate,
		req.PickupMethod, req.MessageToOwner, req.BorrowLocation, req.Status, req.CreatedAt, req.UpdatedAt).Scan(&req.ID)
	logger.DatabaseResult("INSERT", 1, err, "requestID", req.ID)
	return err
}

func (r *requestRepository) GetByID(ctx context.Context, id int32) (*domain.Request, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx, requestSelect+` WHERE rq.id = $1`, id))
	if err != nil {
		return nil, mapError(err, "request", id)
	}
	return req, nil
}

func (r *requestRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Request, error) {
	logger.DatabaseCall("SELECT FOR UPDATE", "requests", "requestID", id)
	req, err := scanRequest(r.db.QueryRowContext(ctx, requestSelect+` WHERE rq.id = $1 FOR UPDATE OF rq`, id))
	if err != nil {
		return nil, mapError(err, "request", id)
	}
	return req, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id int32, status domain.RequestStatus) error {
	query := `UPDATE requests SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res, "request", id)
}

func (r *requestRepository) ListActiveForUpdate(ctx context.Context, resourceID int32) ([]domain.Request, error) {
	query := requestSelect + ` WHERE rq.resource_id = $1 AND rq.status = ANY($2) ORDER BY rq.id FOR UPDATE OF rq`
	rows, err := r.db.QueryContext(ctx, query, resourceID, pq.Array(statusStrings(domain.ActiveRequestStatuses)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *req)
	}
	return reqs, rows.Err()
}

func (r *requestRepository) List(ctx context.Context, f domain.RequestFilter) ([]domain.Request, int32, error) {
	limit, offset := pageOffset(f.Page, f.PageSize)

	where := ` WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if f.RequesterID != 0 {
		where += fmt.Sprintf(" AND rq.requester_id = $%d", argIdx)
		args = append(args, f.RequesterID)
		argIdx++
	}
	if f.OwnerID != 0 {
		where += fmt.Sprintf(" AND rq.owner_id = $%d", argIdx)
		args = append(args, f.OwnerID)
		argIdx++
	}
	if f.ResourceID != 0 {
		where += fmt.Sprintf(" AND rq.resource_id = $%d", argIdx)
		args = append(args, f.ResourceID)
		argIdx++
	}
	if len(f.Statuses) > 0 {
		where += fmt.Sprintf(" AND rq.status = ANY($%d)", argIdx)
		args = append(args, pq.Array(statusStrings(f.Statuses)))
		argIdx++
	}

	var count int32
	countQuery := `SELECT count(*) FROM requests rq` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := requestSelect + where + fmt.Sprintf(" ORDER BY rq.created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reqs []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		reqs = append(reqs, *req)
	}
	return reqs, count, rows.Err()
}

func (r *requestRepository) ListPendingPickupBefore(ctx context.Context, date string) ([]int32, error) {
	query := `SELECT id FROM requests WHERE status = $1 AND pickup_date < $2 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, domain.RequestStatusPending, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *requestRepository) ListAcceptedReturnBefore(ctx context.Context, date string) ([]domain.Request, error) {
	query := requestSelect + ` WHERE rq.status = $1 AND rq.return_date < $2 ORDER BY rq.id`
	rows, err := r.db.QueryContext(ctx, query, domain.RequestStatusAccepted, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *req)
	}
	return reqs, rows.Err()
}

func (r *requestRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "request", id)
}
