package postgres

import (
	"context"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/repository"
)

type reviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `INSERT INTO reviews (request_id, reviewer_id, reviewee_id, rating, comment, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	rv.CreatedAt = time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, rv.RequestID, rv.ReviewerID, rv.RevieweeID, rv.Rating, rv.Comment, rv.CreatedAt).Scan(&rv.ID)
	return mapError(err, "review", rv.RequestID)
}

func (r *reviewRepository) Exists(ctx context.Context, requestID, reviewerID int32) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reviews WHERE request_id = $1 AND reviewer_id = $2)`
	err := r.db.QueryRowContext(ctx, query, requestID, reviewerID).Scan(&exists)
	return exists, err
}

func (r *reviewRepository) ListByReviewee(ctx context.Context, revieweeID int32) ([]domain.Review, error) {
	query := `SELECT id, request_id, reviewer_id, reviewee_id, rating, COALESCE(comment, ''), created_at
	          FROM reviews WHERE reviewee_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, revieweeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.RequestID, &rv.ReviewerID, &rv.RevieweeID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
