package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cashpoints_miniapp/internal/model"
	"cashpoints_miniapp/internal/repository"
	"cashpoints_miniapp/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const notificationHistoryLimit = 100

type NotificationService struct {
	repo      NotificationRepository
	notifiers []Notifier
}

func NewNotificationService(repo NotificationRepository, notifiers ...Notifier) *NotificationService {
	return &NotificationService{
		repo:      repo,
		notifiers: notifiers,
	}
}

// Publish stores the notification and pushes it to every live channel.
// Failures are logged and swallowed so the triggering operation is
// never rolled back over a notification.
func (s *NotificationService) Publish(ctx context.Context, telegramID int64, notificationType, title, message string) {
	n := &model.Notification{
		NotificationID: uuid.New(),
		UserID:         telegramID,
		Type:           notificationType,
		Title:          title,
		Message:        message,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.CreateNotification(ctx, n); err != nil {
		logger.Logger().Warn("failed to store notification",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
		return
	}

	for _, notifier := range s.notifiers {
		notifier.Notify(n)
	}
}

func (s *NotificationService) GetUserNotifications(ctx context.Context, telegramID int64) ([]*model.Notification, error) {
	notifications, err := s.repo.ListUserNotifications(ctx, telegramID, notificationHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, telegramID int64, notificationID uuid.UUID) error {
	err := s.repo.MarkNotificationRead(ctx, telegramID, notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, telegramID int64) error {
	if err := s.repo.MarkAllNotificationsRead(ctx, telegramID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
