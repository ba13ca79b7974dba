package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/lifecycle"
	"sharenet-backend/internal/logger"
	"sharenet-backend/internal/notify"
	"sharenet-backend/internal/repository"
)

type resourceService struct {
	tx        repository.Transactor
	resources repository.ResourceRepository
	notifier  notify.Notifier
	now       func() time.Time
}

func NewResourceService(tx repository.Transactor, resources repository.ResourceRepository, notifier notify.Notifier) ResourceService {
	return &resourceService{
		tx:        tx,
		resources: resources,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *resourceService) Create(ctx context.Context, actor domain.Actor, res *domain.Resource) error {
	if err := validateResource(res); err != nil {
		return err
	}
	res.OwnerID = actor.ID
	res.AvailabilityStatus = domain.AvailabilityAvailable
	res.DeletedAt = nil
	return s.resources.Create(ctx, res)
}

func (s *resourceService) Get(ctx context.Context, id int32) (*domain.Resource, error) {
	return s.resources.GetByID(ctx, id)
}

func (s *resourceService) List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, int32, error) {
	if filter.Availability != "" && !filter.Availability.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown availability %q", domain.ErrInvalidInput, filter.Availability)
	}
	return s.resources.List(ctx, filter)
}

// Update edits the listing's descriptive fields. Availability is owned by the
// request lifecycle and is ignored here.
func (s *resourceService) Update(ctx context.Context, actor domain.Actor, in *domain.Resource) (*domain.Resource, error) {
	if err := validateResource(in); err != nil {
		return nil, err
	}

	var updated *domain.Resource
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		res, err := tx.Resources().GetForUpdate(ctx, in.ID)
		if err != nil {
			return err
		}
		if !canManage(actor, res) {
			return fmt.Errorf("%w: not the owner of resource %d", domain.ErrForbidden, res.ID)
		}
		res.Name = in.Name
		res.Description = in.Description
		res.Category = in.Category
		res.Location = in.Location
		if err := tx.Resources().Update(ctx, res); err != nil {
			return err
		}
		updated = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes the listing after cancelling every active request for
// it through the lifecycle, all in one unit of work.
func (s *resourceService) Delete(ctx context.Context, actor domain.Actor, id int32) error {
	logger.EnterMethod("resourceService.Delete", "actorID", actor.ID, "resourceID", id)

	var outbox []domain.Notification
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		res, err := tx.Resources().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !canManage(actor, res) {
			return fmt.Errorf("%w: not the owner of resource %d", domain.ErrForbidden, id)
		}

		active, err := tx.Requests().ListActiveForUpdate(ctx, id)
		if err != nil {
			return err
		}
		runner := newEffectRunner(ctx, tx, actor, s.now())
		for _, req := range active {
			out, err := lifecycle.Apply(req, lifecycle.ActionCancel, actor, runner.now)
			if err != nil {
				return fmt.Errorf("cancel request %d: %w", req.ID, err)
			}
			if err := runner.persist(out); err != nil {
				return err
			}
		}
		outbox = runner.outbox
		return tx.Resources().SoftDelete(ctx, id)
	})
	if err != nil {
		logger.ExitMethodWithError("resourceService.Delete", err, "resourceID", id)
		return err
	}

	s.notifier.Enqueue(outbox...)
	logger.ExitMethod("resourceService.Delete", "resourceID", id, "notifications", len(outbox))
	return nil
}

// Donate marks an idle listing as given away. It can no longer be requested.
func (s *resourceService) Donate(ctx context.Context, actor domain.Actor, id int32) (*domain.Resource, error) {
	var donated *domain.Resource
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		res, err := tx.Resources().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !canManage(actor, res) {
			return fmt.Errorf("%w: not the owner of resource %d", domain.ErrForbidden, id)
		}
		if res.AvailabilityStatus == domain.AvailabilityDonated {
			return fmt.Errorf("%w: resource already donated", domain.ErrInvalidState)
		}
		active, err := tx.Requests().ListActiveForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if len(active) > 0 || res.AvailabilityStatus != domain.AvailabilityAvailable {
			return fmt.Errorf("%w: resource has active requests", domain.ErrConflict)
		}
		if err := tx.Resources().SetAvailability(ctx, id, domain.AvailabilityDonated); err != nil {
			return err
		}
		res.AvailabilityStatus = domain.AvailabilityDonated
		donated = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return donated, nil
}

// ReconcileAvailability repairs stored availability that drifted from what
// the active requests imply. It returns the number of resources fixed.
func (s *resourceService) ReconcileAvailability(ctx context.Context) (int, error) {
	ids, err := s.resources.ListIDs(ctx)
	if err != nil {
		return 0, err
	}

	fixed := 0
	var errs []error
	for _, id := range ids {
		changed := false
		err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
			res, err := tx.Resources().GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			active, err := tx.Requests().ListActiveForUpdate(ctx, id)
			if err != nil {
				return err
			}
			want := lifecycle.DeriveAvailability(res.AvailabilityStatus, statusesOf(active))
			if want == res.AvailabilityStatus {
				return nil
			}
			logger.WarnContext(ctx, "Repairing resource availability", "resourceID", id, "stored", res.AvailabilityStatus, "derived", want)
			changed = true
			return tx.Resources().SetAvailability(ctx, id, want)
		})
		switch {
		case err == nil:
			if changed {
				fixed++
			}
		case errors.Is(err, domain.ErrNotFound):
			// Deleted since listing.
		default:
			errs = append(errs, fmt.Errorf("resource %d: %w", id, err))
		}
	}
	return fixed, errors.Join(errs...)
}

func canManage(actor domain.Actor, res *domain.Resource) bool {
	return actor.IsAdmin() || actor.ID == res.OwnerID
}

func validateResource(res *domain.Resource) error {
	res.Name = strings.TrimSpace(res.Name)
	if res.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if len(res.Name) > 255 {
		return fmt.Errorf("%w: name is too long", domain.ErrInvalidInput)
	}
	res.Category = strings.TrimSpace(res.Category)
	res.Location = strings.TrimSpace(res.Location)
	return nil
}
