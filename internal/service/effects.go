package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/lifecycle"
	"sharenet-backend/internal/logger"
	"sharenet-backend/internal/repository"
)

// effectRunner writes the effects of lifecycle outcomes inside one unit of
// work. Notifications that were stored are collected in outbox for delivery
// after commit.
type effectRunner struct {
	ctx    context.Context
	tx     repository.Tx
	actor  domain.Actor
	now    time.Time
	outbox []domain.Notification
	seq    int
}

func newEffectRunner(ctx context.Context, tx repository.Tx, actor domain.Actor, now time.Time) *effectRunner {
	return &effectRunner{ctx: ctx, tx: tx, actor: actor, now: now}
}

// persist stores out.Request's new status and applies its effects.
func (r *effectRunner) persist(out lifecycle.Outcome) error {
	if err := r.tx.Requests().UpdateStatus(r.ctx, out.Request.ID, out.Request.Status); err != nil {
		return err
	}
	return r.apply(out)
}

func (r *effectRunner) apply(out lifecycle.Outcome) error {
	for _, e := range out.Effects {
		var err error
		switch e := e.(type) {
		case lifecycle.HoldResource:
			err = r.tx.Resources().SetAvailability(r.ctx, e.ResourceID, domain.AvailabilityReserved)
		case lifecycle.ReleaseResource:
			err = r.release(e.ResourceID)
		case lifecycle.OpenTransaction:
			t := e.Transaction
			err = r.tx.Transactions().Create(r.ctx, &t)
		case lifecycle.CloseTransaction:
			err = r.closeTransaction(e)
		case lifecycle.RejectSiblings:
			err = r.rejectSiblings(e)
		case lifecycle.Notify:
			r.notify(out.Request.ID, e.Notification)
		default:
			err = fmt.Errorf("unhandled effect %T", e)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// release recomputes availability from the requests still holding the
// resource, which after a terminal transition is normally none.
func (r *effectRunner) release(resourceID int32) error {
	res, err := r.tx.Resources().GetForUpdate(r.ctx, resourceID)
	if errors.Is(err, domain.ErrNotFound) {
		// Soft-deleted listings keep whatever they had.
		return nil
	}
	if err != nil {
		return err
	}
	active, err := r.tx.Requests().ListActiveForUpdate(r.ctx, resourceID)
	if err != nil {
		return err
	}
	next := lifecycle.DeriveAvailability(res.AvailabilityStatus, statusesOf(active))
	if next == res.AvailabilityStatus {
		return nil
	}
	return r.tx.Resources().SetAvailability(r.ctx, resourceID, next)
}

func (r *effectRunner) closeTransaction(e lifecycle.CloseTransaction) error {
	t, err := r.tx.Transactions().GetByRequestID(r.ctx, e.RequestID)
	if errors.Is(err, domain.ErrNotFound) {
		if e.Required {
			logger.ErrorContext(r.ctx, "Consistency violation: accepted request has no transaction", "requestID", e.RequestID)
			return fmt.Errorf("%w: %w", domain.ErrFatal, err)
		}
		return nil
	}
	if err != nil {
		return err
	}
	return r.tx.Transactions().Close(r.ctx, t.ID, e.Status, e.ReturnedAt)
}

func (r *effectRunner) rejectSiblings(e lifecycle.RejectSiblings) error {
	siblings, err := r.tx.Requests().ListActiveForUpdate(r.ctx, e.ResourceID)
	if err != nil {
		return err
	}
	for _, sib := range siblings {
		if sib.ID == e.KeepRequestID || sib.Status != domain.RequestStatusPending {
			continue
		}
		out, err := lifecycle.Apply(sib, lifecycle.ActionSupersede, r.actor, r.now)
		if err != nil {
			return err
		}
		if err := r.persist(out); err != nil {
			return err
		}
		logger.InfoContext(r.ctx, "Sibling request rejected", "requestID", sib.ID, "acceptedRequestID", e.KeepRequestID)
	}
	return nil
}

// notify stores n in its own savepoint. A failed insert is logged and the
// transition carries on without it.
func (r *effectRunner) notify(requestID int32, n domain.Notification) {
	if n.RelatedRequestID == nil && requestID != 0 {
		id := requestID
		n.RelatedRequestID = &id
	}
	r.seq++
	name := fmt.Sprintf("notify_%d", r.seq)
	err := r.tx.Isolate(r.ctx, name, func() error {
		return r.tx.Notifications().Create(r.ctx, &n)
	})
	if err != nil {
		logger.ErrorContext(r.ctx, "Failed to store notification", "userID", n.UserID, "type", n.Type, "requestID", requestID, "error", err)
		return
	}
	r.outbox = append(r.outbox, n)
}

func statusesOf(reqs []domain.Request) []domain.RequestStatus {
	out := make([]domain.RequestStatus, len(reqs))
	for i, rq := range reqs {
		out[i] = rq.Status
	}
	return out
}
