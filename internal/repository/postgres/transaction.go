package postgres

import (
	"context"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/repository"
)

type transactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, request_id, borrower_id, lender_id, resource_id, borrow_date, return_date, status, actual_return_date, created_at, updated_at`

func scanTransaction(s scanner) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var borrow, ret time.Time
	if err := s.Scan(&t.ID, &t.RequestID, &t.BorrowerID, &t.LenderID, &t.ResourceID, &borrow, &ret, &t.Status, &t.ActualReturnDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.BorrowDate = borrow.Format(domain.DateLayout)
	t.ReturnDate = ret.Format(domain.DateLayout)
	return t, nil
}

func (r *transactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (request_id, borrower_id, lender_id, resource_id, borrow_date, return_date, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	err := r.db.QueryRowContext(ctx, query, t.RequestID, t.BorrowerID, t.LenderID, t.ResourceID, t.BorrowDate, t.ReturnDate, t.Status, t.CreatedAt, t.UpdatedAt).Scan(&t.ID)
	return mapError(err, "transaction for request", t.RequestID)
}

func (r *transactionRepository) GetByRequestID(ctx context.Context, requestID int32) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE request_id = $1`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, requestID))
	if err != nil {
		return nil, mapError(err, "transaction for request", requestID)
	}
	return t, nil
}

func (r *transactionRepository) Close(ctx context.Context, id int32, status domain.TransactionStatus, returnedAt *time.Time) error {
	query := `UPDATE transactions SET status = $1, actual_return_date = COALESCE($2, actual_return_date), updated_at = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, status, returnedAt, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res, "transaction", id)
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Transaction, int32, error) {
	limit, offset := pageOffset(page, pageSize)

	var count int32
	countQuery := `SELECT count(*) FROM transactions WHERE borrower_id = $1 OR lender_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE borrower_id = $1 OR lender_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, *t)
	}
	return txs, count, rows.Err()
}
