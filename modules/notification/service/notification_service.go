package service

import (
	"context"
	"time"

	coreEntity "go-reminder-api/core/entity"
	"go-reminder-api/core/params"
	"go-reminder-api/modules/notification/entity"
	"go-reminder-api/modules/notification/repository"

	"github.com/google/uuid"
)

// NotificationService persists the delivery log written by the dispatcher
// and serves the in-app notification feed.
type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// Record stores one delivered notification. Called by the dispatcher after a
// successful push.
func (s *NotificationService) Record(ctx context.Context, userID uuid.UUID, title, message, kind string, data map[string]any) error {
	now := time.Now()
	notif := &entity.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Kind:    kind,
		Data:    entity.JSONB(data),
		IsRead:  false,
		BaseEntity: coreEntity.BaseEntity{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	return s.repo.Create(ctx, notif)
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, userID uuid.UUID, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	return s.repo.GetByUserID(ctx, userID, queryParams)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	return s.repo.MarkAsRead(ctx, userID, ids)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
