package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/lifecycle"
	"sharenet-backend/internal/logger"
	"sharenet-backend/internal/notify"
	"sharenet-backend/internal/repository"
)

type requestService struct {
	tx       repository.Transactor
	requests repository.RequestRepository
	notifier notify.Notifier
	now      func() time.Time
}

func NewRequestService(tx repository.Transactor, requests repository.RequestRepository, notifier notify.Notifier) RequestService {
	return &requestService{
		tx:       tx,
		requests: requests,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *requestService) Submit(ctx context.Context, actor domain.Actor, in domain.SubmitInput) (*domain.Request, error) {
	logger.EnterMethod("requestService.Submit", "actorID", actor.ID, "resourceID", in.ResourceID)

	var created domain.Request
	var outbox []domain.Notification
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		if err := ensureNotBanned(ctx, tx.Users(), actor); err != nil {
			return err
		}
		res, err := tx.Resources().GetForUpdate(ctx, in.ResourceID)
		if err != nil {
			return err
		}

		now := s.now()
		out, err := lifecycle.Submit(*res, actor, in, now)
		if err != nil {
			return err
		}
		if err := tx.Requests().Create(ctx, &out.Request); err != nil {
			return err
		}

		runner := newEffectRunner(ctx, tx, actor, now)
		if err := runner.apply(out); err != nil {
			return err
		}
		created = out.Request
		outbox = runner.outbox
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("requestService.Submit", err, "actorID", actor.ID, "resourceID", in.ResourceID)
		return nil, err
	}

	s.notifier.Enqueue(outbox...)
	logger.ExitMethod("requestService.Submit", "requestID", created.ID)
	return &created, nil
}

func (s *requestService) UpdateStatus(ctx context.Context, actor domain.Actor, requestID int32, status domain.RequestStatus) (*domain.Request, error) {
	action, err := lifecycle.ActionForStatus(status)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, requestID, action)
}

func (s *requestService) Accept(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error) {
	return s.transition(ctx, actor, requestID, lifecycle.ActionAccept)
}

func (s *requestService) Reject(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error) {
	return s.transition(ctx, actor, requestID, lifecycle.ActionReject)
}

func (s *requestService) Cancel(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error) {
	return s.transition(ctx, actor, requestID, lifecycle.ActionCancel)
}

func (s *requestService) Complete(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error) {
	return s.transition(ctx, actor, requestID, lifecycle.ActionComplete)
}

func (s *requestService) transition(ctx context.Context, actor domain.Actor, requestID int32, action lifecycle.Action) (*domain.Request, error) {
	logger.EnterMethod("requestService.transition", "actorID", actor.ID, "requestID", requestID, "action", action)

	var result domain.Request
	var outbox []domain.Notification
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		runner := newEffectRunner(ctx, tx, actor, s.now())
		req, err := transitionLocked(runner, requestID, action)
		if err != nil {
			return err
		}
		result = *req
		outbox = runner.outbox
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("requestService.transition", err, "requestID", requestID, "action", action)
		return nil, err
	}

	s.notifier.Enqueue(outbox...)
	logger.ExitMethod("requestService.transition", "requestID", requestID, "status", result.Status)
	return &result, nil
}

// transitionLocked leases the request's resource and then the request itself,
// decides the transition and persists it through runner. Taking the resource
// first makes every transition of one resource queue on the same row, so two
// accepts of sibling requests serialize instead of deadlocking.
func transitionLocked(runner *effectRunner, requestID int32, action lifecycle.Action) (*domain.Request, error) {
	ctx, tx := runner.ctx, runner.tx

	peek, err := tx.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := tx.Resources().Lock(ctx, peek.ResourceID); err != nil {
		return nil, err
	}
	req, err := tx.Requests().GetForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}

	out, err := lifecycle.Apply(*req, action, runner.actor, runner.now)
	if err != nil {
		return nil, err
	}
	if err := runner.persist(out); err != nil {
		return nil, err
	}
	return &out.Request, nil
}

func (s *requestService) Get(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != req.RequesterID && actor.ID != req.OwnerID {
		return nil, fmt.Errorf("%w: not a party to request %d", domain.ErrForbidden, requestID)
	}
	return req, nil
}

func (s *requestService) List(ctx context.Context, actor domain.Actor, role string, statuses []domain.RequestStatus, page, pageSize int32) ([]domain.Request, int32, error) {
	for _, st := range statuses {
		if !st.Valid() {
			return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, st)
		}
	}
	filter := domain.RequestFilter{Statuses: statuses, Page: page, PageSize: pageSize}
	switch role {
	case "", "borrower":
		filter.RequesterID = actor.ID
	case "owner":
		filter.OwnerID = actor.ID
	default:
		return nil, 0, fmt.Errorf("%w: role must be borrower or owner", domain.ErrInvalidInput)
	}
	return s.requests.List(ctx, filter)
}

// ExpireStale cancels every pending request whose pickup date is before
// cutoff. Each request is expired in its own unit of work; one failure does
// not stop the rest.
func (s *requestService) ExpireStale(ctx context.Context, cutoff string) (int, error) {
	ids, err := s.requests.ListPendingPickupBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	var errs []error
	for _, id := range ids {
		_, err := s.transition(ctx, domain.SystemActor, id, lifecycle.ActionExpire)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, domain.ErrInvalidState):
			// Answered between listing and locking.
		default:
			errs = append(errs, fmt.Errorf("request %d: %w", id, err))
		}
	}
	return expired, errors.Join(errs...)
}

// RemindOverdue notifies borrowers whose accepted loan should have been
// returned before today.
func (s *requestService) RemindOverdue(ctx context.Context, today string) (int, error) {
	overdue, err := s.requests.ListAcceptedReturnBefore(ctx, today)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, req := range overdue {
		var outbox []domain.Notification
		err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
			runner := newEffectRunner(ctx, tx, domain.SystemActor, s.now())
			runner.notify(req.ID, domain.Notification{
				UserID:            req.RequesterID,
				Type:              domain.NotificationReturnOverdue,
				Title:             "Return Overdue",
				Message:           fmt.Sprintf("%s was due back on %s. Please return it to the owner.", resourceName(&req), req.ReturnDate),
				RelatedResourceID: &req.ResourceID,
			})
			outbox = runner.outbox
			return nil
		})
		if err != nil {
			logger.ErrorContext(ctx, "Failed to send overdue reminder", "requestID", req.ID, "error", err)
			continue
		}
		if len(outbox) > 0 {
			sent++
			s.notifier.Enqueue(outbox...)
		}
	}
	return sent, nil
}

func resourceName(req *domain.Request) string {
	if req.ResourceName != "" {
		return req.ResourceName
	}
	return fmt.Sprintf("Resource #%d", req.ResourceID)
}

type userGetter interface {
	GetByID(ctx context.Context, id int32) (*domain.User, error)
}

// ensureNotBanned rejects banned accounts. Scheduled jobs act as the system
// and are never banned.
func ensureNotBanned(ctx context.Context, users userGetter, actor domain.Actor) error {
	if actor.System {
		return nil
	}
	u, err := users.GetByID(ctx, actor.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: unknown user", domain.ErrUnauthenticated)
	}
	if err != nil {
		return err
	}
	if u.IsBanned {
		return fmt.Errorf("%w: account is banned", domain.ErrForbidden)
	}
	return nil
}
