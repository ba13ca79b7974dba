package postgres

import (
	"context"
	"fmt"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/logger"
	"sharenet-backend/internal/repository"
)

type resourceRepository struct {
	db DBTX
}

func NewResourceRepository(db DBTX) repository.ResourceRepository {
	return &resourceRepository{db: db}
}

const resourceColumns = `id, owner_id, name, COALESCE(description, ''), COALESCE(category, ''), COALESCE(location, ''), availability_status, created_at, updated_at, deleted_at`

func scanResource(s scanner) (*domain.Resource, error) {
	res := &domain.Resource{}
	if err := s.Scan(&res.ID, &res.OwnerID, &res.Name, &res.Description, &res.Category, &res.Location, &res.AvailabilityStatus, &res.CreatedAt, &res.UpdatedAt, &res.DeletedAt); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *resourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	query := `INSERT INTO resources (owner_id, name, description, category, location, availability_status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	return r.db.QueryRowContext(ctx, query, res.OwnerID, res.Name, res.Description, res.Category, res.Location, res.AvailabilityStatus, res.CreatedAt, res.UpdatedAt).Scan(&res.ID)
}

func (r *resourceRepository) GetByID(ctx context.Context, id int32) (*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1 AND deleted_at IS NULL`
	res, err := scanResource(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "resource", id)
	}
	return res, nil
}

func (r *resourceRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	logger.DatabaseCall("SELECT FOR UPDATE", "resources", "resourceID", id)
	res, err := scanResource(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "resource", id)
	}
	return res, nil
}

// Lock leases the resource row without loading it. Soft-deleted rows are
// locked too so a delete cascade and a transition still queue on one row.
func (r *resourceRepository) Lock(ctx context.Context, id int32) error {
	logger.DatabaseCall("SELECT FOR UPDATE", "resources", "resourceID", id)
	var locked int32
	err := r.db.QueryRowContext(ctx, `SELECT id FROM resources WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	return mapError(err, "resource", id)
}

// Update writes the descriptive fields only. Availability changes go through
// SetAvailability, which only the lifecycle shell calls.
func (r *resourceRepository) Update(ctx context.Context, res *domain.Resource) error {
	query := `UPDATE resources SET name=$1, description=$2, category=$3, location=$4, updated_at=$5 WHERE id=$6 AND deleted_at IS NULL`
	res.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query, res.Name, res.Description, res.Category, res.Location, res.UpdatedAt, res.ID)
	if err != nil {
		return err
	}
	return expectOne(result, "resource", res.ID)
}

func (r *resourceRepository) SetAvailability(ctx context.Context, id int32, status domain.AvailabilityStatus) error {
	query := `UPDATE resources SET availability_status=$1, updated_at=$2 WHERE id=$3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(result, "resource", id)
}

func (r *resourceRepository) SoftDelete(ctx context.Context, id int32) error {
	query := `UPDATE resources SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(result, "resource", id)
}

func (r *resourceRepository) List(ctx context.Context, f domain.ResourceFilter) ([]domain.Resource, int32, error) {
	limit, offset := pageOffset(f.Page, f.PageSize)

	where := ` FROM resources WHERE deleted_at IS NULL`
	args := []interface{}{}
	argIdx := 1

	if f.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, f.Category)
		argIdx++
	}
	if f.Location != "" {
		where += fmt.Sprintf(" AND location ILIKE $%d", argIdx)
		args = append(args, "%"+f.Location+"%")
		argIdx++
	}
	if f.Availability != "" {
		where += fmt.Sprintf(" AND availability_status = $%d", argIdx)
		args = append(args, f.Availability)
		argIdx++
	}
	if f.OwnerID != 0 {
		where += fmt.Sprintf(" AND owner_id = $%d", argIdx)
		args = append(args, f.OwnerID)
		argIdx++
	}
	if f.Query != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+f.Query+"%")
		argIdx++
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, "SELECT count(*)"+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + resourceColumns + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, 0, err
		}
		resources = append(resources, *res)
	}
	return resources, count, rows.Err()
}

func (r *resourceRepository) ListIDs(ctx context.Context) ([]int32, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM resources WHERE deleted_at IS NULL ORDER BY id`)
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
