package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/logger"
	"sharenet-backend/internal/repository"

	"github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every repository can run
// either standalone or inside a unit of work.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.ResourceRepository
	repository.RequestRepository
	repository.TransactionRepository
	repository.NotificationRepository
	repository.ReportRepository
	repository.ReviewRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		UserRepository:         NewUserRepository(db),
		ResourceRepository:     NewResourceRepository(db),
		RequestRepository:      NewRequestRepository(db),
		TransactionRepository:  NewTransactionRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		ReportRepository:       NewReportRepository(db),
		ReviewRepository:       NewReviewRepository(db),
	}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithinTx runs fn inside one database transaction. Any error or panic from fn
// rolls back every write; otherwise the transaction commits.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	logger.DatabaseCall("BEGIN", "unit of work")
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil {
				logger.Error("Failed to roll back transaction", "error", rbErr, "cause", err)
			}
			logger.DatabaseResult("ROLLBACK", 0, nil)
			return
		}
		if err = sqlTx.Commit(); err != nil {
			err = fmt.Errorf("failed to commit transaction: %w", err)
			logger.DatabaseResult("COMMIT", 0, err)
			return
		}
		logger.DatabaseResult("COMMIT", 0, nil)
	}()

	return fn(newTxStore(sqlTx))
}

type txStore struct {
	tx *sql.Tx
}

func newTxStore(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Users() repository.UserRepository         { return NewUserRepository(t.tx) }
func (t *txStore) Resources() repository.ResourceRepository { return NewResourceRepository(t.tx) }
func (t *txStore) Requests() repository.RequestRepository   { return NewRequestRepository(t.tx) }
func (t *txStore) Transactions() repository.TransactionRepository {
	return NewTransactionRepository(t.tx)
}
func (t *txStore) Notifications() repository.NotificationRepository {
	return NewNotificationRepository(t.tx)
}
func (t *txStore) Reports() repository.ReportRepository { return NewReportRepository(t.tx) }
func (t *txStore) Reviews() repository.ReviewRepository { return NewReviewRepository(t.tx) }

// Isolate wraps fn in a savepoint. PostgreSQL aborts the whole transaction on
// the first failed statement, so without the savepoint a failed notification
// insert would doom the transition it belongs to.
func (t *txStore) Isolate(ctx context.Context, name string, fn func() error) error {
	ident := pq.QuoteIdentifier(name)
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+ident); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}
	if err := fn(); err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+ident); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back savepoint: %w", rbErr))
		}
		return err
	}
	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+ident); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

const uniqueViolation = "23505"

// mapError translates driver errors into the domain taxonomy.
func mapError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %v", domain.ErrNotFound, entity, id)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s already exists", domain.ErrConflict, entity)
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func pageOffset(page, pageSize int32) (int32, int32) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	if page <= 0 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}

func expectOne(res sql.Result, entity string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %v", domain.ErrNotFound, entity, id)
	}
	return nil
}
