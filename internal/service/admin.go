package service

import (
	"context"
	"fmt"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/logger"
	"sharenet-backend/internal/notify"
	"sharenet-backend/internal/repository"
	"sharenet-backend/internal/session"
)

type adminService struct {
	tx       repository.Transactor
	users    repository.UserRepository
	requests repository.RequestRepository
	sessions session.Store
	notifier notify.Notifier
	now      func() time.Time
}

func NewAdminService(
	tx repository.Transactor,
	users repository.UserRepository,
	requests repository.RequestRepository,
	sessions session.Store,
	notifier notify.Notifier,
) AdminService {
	return &adminService{
		tx:       tx,
		users:    users,
		requests: requests,
		sessions: sessions,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *adminService) ListUsers(ctx context.Context, page, pageSize int32) ([]domain.User, int32, error) {
	return s.users.List(ctx, page, pageSize)
}

// SetBanned bans or reinstates a user. A ban also revokes every token the
// user currently holds.
func (s *adminService) SetBanned(ctx context.Context, actor domain.Actor, userID int32, banned bool) (*domain.User, error) {
	logger.EnterMethod("adminService.SetBanned", "adminID", actor.ID, "userID", userID, "banned", banned)
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	if actor.ID == userID {
		return nil, fmt.Errorf("%w: administrators cannot ban themselves", domain.ErrInvalidInput)
	}

	var user *domain.User
	var outbox []domain.Notification
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u.IsBanned == banned {
			user = u
			return nil
		}
		if err := tx.Users().SetBanned(ctx, userID, banned); err != nil {
			return err
		}
		u.IsBanned = banned

		note := domain.Notification{
			UserID:  userID,
			Type:    domain.NotificationAccountReinstated,
			Title:   "Account Reinstated",
			Message: "Your account has been reinstated. You can borrow and lend again.",
		}
		if banned {
			note.Type = domain.NotificationAccountBanned
			note.Title = "Account Suspended"
			note.Message = "Your account has been suspended by an administrator."
		}
		runner := newEffectRunner(ctx, tx, actor, s.now())
		runner.notify(0, note)
		outbox = runner.outbox
		user = u
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("adminService.SetBanned", err, "userID", userID)
		return nil, err
	}

	if banned {
		if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
			logger.ErrorContext(ctx, "Failed to revoke sessions of banned user", "userID", userID, "error", err)
		}
	}
	s.notifier.Enqueue(outbox...)
	logger.ExitMethod("adminService.SetBanned", "userID", userID, "banned", banned)
	return user, nil
}

func (s *adminService) ListRequests(ctx context.Context, filter domain.RequestFilter) ([]domain.Request, int32, error) {
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, st)
		}
	}
	return s.requests.List(ctx, filter)
}

// DeleteRequest removes a finished request. Active requests must be
// cancelled first so the resource is released through the lifecycle.
func (s *adminService) DeleteRequest(ctx context.Context, actor domain.Actor, requestID int32) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		req, err := tx.Requests().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.Status.Terminal() {
			return fmt.Errorf("%w: request %d is %s, cancel it first", domain.ErrInvalidState, requestID, req.Status)
		}
		if err := tx.Requests().Delete(ctx, requestID); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Request deleted by administrator", "requestID", requestID, "adminID", actor.ID)
		return nil
	})
}
