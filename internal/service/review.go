package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/notify"
	"sharenet-backend/internal/repository"
)

type reviewService struct {
	tx       repository.Transactor
	reviews  repository.ReviewRepository
	notifier notify.Notifier
	now      func() time.Time
}

func NewReviewService(tx repository.Transactor, reviews repository.ReviewRepository, notifier notify.Notifier) ReviewService {
	return &reviewService{
		tx:       tx,
		reviews:  reviews,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create records one party's review of the other after a completed loan.
func (s *reviewService) Create(ctx context.Context, actor domain.Actor, requestID, rating int32, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrInvalidInput)
	}

	var review domain.Review
	var outbox []domain.Notification
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		req, err := tx.Requests().GetByID(ctx, requestID)
		if err != nil {
			return err
		}

		var reviewee int32
		switch actor.ID {
		case req.RequesterID:
			reviewee = req.OwnerID
		case req.OwnerID:
			reviewee = req.RequesterID
		default:
			return fmt.Errorf("%w: not a party to request %d", domain.ErrForbidden, requestID)
		}
		if req.Status != domain.RequestStatusCompleted {
			return fmt.Errorf("%w: only completed loans can be reviewed", domain.ErrInvalidState)
		}

		exists, err := tx.Reviews().Exists(ctx, requestID, actor.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: already reviewed", domain.ErrConflict)
		}

		review = domain.Review{
			RequestID:  requestID,
			ReviewerID: actor.ID,
			RevieweeID: reviewee,
			Rating:     rating,
			Comment:    strings.TrimSpace(comment),
		}
		if err := tx.Reviews().Create(ctx, &review); err != nil {
			return err
		}

		runner := newEffectRunner(ctx, tx, actor, s.now())
		runner.notify(requestID, domain.Notification{
			UserID:  reviewee,
			Type:    domain.NotificationReviewReceived,
			Title:   "New Review",
			Message: fmt.Sprintf("You received a %d-star review for %s.", rating, resourceName(req)),
		})
		outbox = runner.outbox
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Enqueue(outbox...)
	return &review, nil
}

func (s *reviewService) ListForUser(ctx context.Context, userID int32) (*domain.ReviewSummary, error) {
	reviews, err := s.reviews.ListByReviewee(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &domain.ReviewSummary{UserID: userID, Count: int32(len(reviews)), Reviews: reviews}
	if len(reviews) > 0 {
		var total int32
		for _, rv := range reviews {
			total += rv.Rating
		}
		summary.AverageRating = float64(total) / float64(len(reviews))
	}
	if summary.Reviews == nil {
		summary.Reviews = []domain.Review{}
	}
	return summary, nil
}
