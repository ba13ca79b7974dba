package repository

import (
	"context"
	"time"

	"sharenet-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, page, pageSize int32) ([]domain.User, int32, error)
	SetBanned(ctx context.Context, id int32, banned bool) error
}

type ResourceRepository interface {
	Create(ctx context.Context, resource *domain.Resource) error
	GetByID(ctx context.Context, id int32) (*domain.Resource, error)
	// GetForUpdate loads the resource and holds an exclusive lease on it until
	// the enclosing unit of work ends.
	GetForUpdate(ctx context.Context, id int32) (*domain.Resource, error)
	// Lock takes the same lease as GetForUpdate without loading the row and
	// also succeeds for soft-deleted resources. Transitions of existing
	// requests take it first so every writer of a resource queues on one row.
	Lock(ctx context.Context, id int32) error
	Update(ctx context.Context, resource *domain.Resource) error
	SetAvailability(ctx context.Context, id int32, status domain.AvailabilityStatus) error
	SoftDelete(ctx context.Context, id int32) error
	List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, int32, error)
	ListIDs(ctx context.Context) ([]int32, error)
}

type RequestRepository interface {
	Create(ctx context.Context, req *domain.Request) error
	GetByID(ctx context.Context, id int32) (*domain.Request, error)
	// GetForUpdate loads the request and holds an exclusive lease on it until
	// the enclosing unit of work ends. Every status transition starts here.
	GetForUpdate(ctx context.Context, id int32) (*domain.Request, error)
	UpdateStatus(ctx context.Context, id int32, status domain.RequestStatus) error
	// ListActiveForUpdate leases every non-terminal request of a resource.
	ListActiveForUpdate(ctx context.Context, resourceID int32) ([]domain.Request, error)
	List(ctx context.Context, filter domain.RequestFilter) ([]domain.Request, int32, error)
	ListPendingPickupBefore(ctx context.Context, date string) ([]int32, error)
	ListAcceptedReturnBefore(ctx context.Context, date string) ([]domain.Request, error)
	Delete(ctx context.Context, id int32) error
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByRequestID(ctx context.Context, requestID int32) (*domain.Transaction, error)
	Close(ctx context.Context, id int32, status domain.TransactionStatus, returnedAt *time.Time) error
	ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Transaction, int32, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int32, unreadOnly bool, limit, offset int32) ([]domain.Notification, int32, error)
	CountUnread(ctx context.Context, userID int32) (int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}

type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id int32) (*domain.Report, error)
	GetForUpdate(ctx context.Context, id int32) (*domain.Report, error)
	ExistsForRequest(ctx context.Context, requestID int32) (bool, error)
	Update(ctx context.Context, report *domain.Report) error
	List(ctx context.Context, status domain.ReportStatus, page, pageSize int32) ([]domain.Report, int32, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	Exists(ctx context.Context, requestID, reviewerID int32) (bool, error)
	ListByReviewee(ctx context.Context, revieweeID int32) ([]domain.Review, error)
}

// Tx is a unit of work. Repositories obtained from it share one database
// transaction.
type Tx interface {
	Users() UserRepository
	Resources() ResourceRepository
	Requests() RequestRepository
	Transactions() TransactionRepository
	Notifications() NotificationRepository
	Reports() ReportRepository
	Reviews() ReviewRepository
	// Isolate runs fn so that its failure is undone without aborting the
	// enclosing unit of work. The error from fn is returned to the caller.
	Isolate(ctx context.Context, name string, fn func() error) error
}

// Transactor opens units of work. fn's error rolls back every write made
// through tx; a nil return commits them.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
