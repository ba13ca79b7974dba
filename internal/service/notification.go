package service

import (
	"context"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/repository"
)

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, userID int32, unreadOnly bool, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.repo.List(ctx, userID, unreadOnly, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID int32) (int32, error) {
	return s.repo.CountUnread(ctx, userID)
}
