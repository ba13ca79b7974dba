package service

import (
	"context"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/security"
)

// RequestService runs the borrow-request lifecycle. Every mutating call is one
// unit of work: the request row is leased, the transition is decided and all
// of its effects are written before the lease is released.
type RequestService interface {
	Submit(ctx context.Context, actor domain.Actor, in domain.SubmitInput) (*domain.Request, error)
	// UpdateStatus maps the requested target status to accept, reject, cancel
	// or complete.
	UpdateStatus(ctx context.Context, actor domain.Actor, requestID int32, status domain.RequestStatus) (*domain.Request, error)
	Accept(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error)
	Reject(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error)
	Cancel(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error)
	Complete(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error)
	Get(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error)
	// List returns the actor's requests as borrower (role "borrower") or as
	// owner (role "owner").
	List(ctx context.Context, actor domain.Actor, role string, statuses []domain.RequestStatus, page, pageSize int32) ([]domain.Request, int32, error)
	ExpireStale(ctx context.Context, cutoff string) (int, error)
	RemindOverdue(ctx context.Context, today string) (int, error)
}

type ResourceService interface {
	Create(ctx context.Context, actor domain.Actor, res *domain.Resource) error
	Get(ctx context.Context, id int32) (*domain.Resource, error)
	List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, int32, error)
	Update(ctx context.Context, actor domain.Actor, res *domain.Resource) (*domain.Resource, error)
	Delete(ctx context.Context, actor domain.Actor, id int32) error
	Donate(ctx context.Context, actor domain.Actor, id int32) (*domain.Resource, error)
	ReconcileAvailability(ctx context.Context) (int, error)
}

type ModerationService interface {
	SubmitReport(ctx context.Context, actor domain.Actor, requestID int32, reason, description string) (*domain.Report, error)
	ResolveReport(ctx context.Context, actor domain.Actor, reportID int32, status domain.ReportStatus, adminNotes string) (*domain.Report, error)
	ListReports(ctx context.Context, status domain.ReportStatus, page, pageSize int32) ([]domain.Report, int32, error)
}

type AdminService interface {
	ListUsers(ctx context.Context, page, pageSize int32) ([]domain.User, int32, error)
	SetBanned(ctx context.Context, actor domain.Actor, userID int32, banned bool) (*domain.User, error)
	ListRequests(ctx context.Context, filter domain.RequestFilter) ([]domain.Request, int32, error)
	DeleteRequest(ctx context.Context, actor domain.Actor, requestID int32) error
}

type AuthService interface {
	Register(ctx context.Context, name, email, password, location string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Logout(ctx context.Context, claims *security.UserClaims) error
	Me(ctx context.Context, userID int32) (*domain.User, error)
}

type NotificationService interface {
	List(ctx context.Context, userID int32, unreadOnly bool, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
	UnreadCount(ctx context.Context, userID int32) (int32, error)
}

type ReviewService interface {
	Create(ctx context.Context, actor domain.Actor, requestID, rating int32, comment string) (*domain.Review, error)
	ListForUser(ctx context.Context, userID int32) (*domain.ReviewSummary, error)
}

type TransactionService interface {
	ListMine(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Transaction, int32, error)
}
