package postgres

import (
	"context"
	"fmt"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/repository"
)

type reportRepository struct {
	db DBTX
}

func NewReportRepository(db DBTX) repository.ReportRepository {
	return &reportRepository{db: db}
}

const reportColumns = `id, request_id, reporter_id, reported_user_id, reason, COALESCE(description, ''), status, COALESCE(admin_notes, ''), resolved_by, resolved_at, created_at, updated_at`

func scanReport(s scanner) (*domain.Report, error) {
	rp := &domain.Report{}
	if err := s.Scan(&rp.ID, &rp.RequestID, &rp.ReporterID, &rp.ReportedUserID, &rp.Reason, &rp.Description, &rp.Status, &rp.AdminNotes, &rp.ResolvedBy, &rp.ResolvedAt, &rp.CreatedAt, &rp.UpdatedAt); err != nil {
		return nil, err
	}
	return rp, nil
}

func (r *reportRepository) Create(ctx context.Context, rp *domain.Report) error {
	query := `INSERT INTO reports (request_id, reporter_id, reported_user_id, reason, description, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	now := time.Now().UTC()
	rp.CreatedAt = now
	rp.UpdatedAt = now
	err := r.db.QueryRowContext(ctx, query, rp.RequestID, rp.ReporterID, rp.ReportedUserID, rp.Reason, rp.Description, rp.Status, rp.CreatedAt, rp.UpdatedAt).Scan(&rp.ID)
	return mapError(err, "report for request", rp.RequestID)
}

func (r *reportRepository) GetByID(ctx context.Context, id int32) (*domain.Report, error) {
	rp, err := scanReport(r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "report", id)
	}
	return rp, nil
}

func (r *reportRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Report, error) {
	rp, err := scanReport(r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError(err, "report", id)
	}
	return rp, nil
}

func (r *reportRepository) ExistsForRequest(ctx context.Context, requestID int32) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM reports WHERE request_id = $1)`, requestID).Scan(&exists)
	return exists, err
}

func (r *reportRepository) Update(ctx context.Context, rp *domain.Report) error {
	query := `UPDATE reports SET status=$1, admin_notes=$2, resolved_by=$3, resolved_at=$4, updated_at=$5 WHERE id=$6`
	rp.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, rp.Status, rp.AdminNotes, rp.ResolvedBy, rp.ResolvedAt, rp.UpdatedAt, rp.ID)
	if err != nil {
		return err
	}
	return expectOne(res, "report", rp.ID)
}

func (r *reportRepository) List(ctx context.Context, status domain.ReportStatus, page, pageSize int32) ([]domain.Report, int32, error) {
	limit, offset := pageOffset(page, pageSize)

	where := ` FROM reports`
	args := []interface{}{}
	argIdx := 1
	if status != "" {
		where += fmt.Sprintf(" WHERE status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*)`+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + reportColumns + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		rp, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, *rp)
	}
	return reports, count, rows.Err()
}
