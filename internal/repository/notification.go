package repository

import (
	"context"
	"fmt"
	"time"

	"cashpoints_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type notification struct {
	NotificationID uuid.UUID `db:"notification_id"`
	UserID         int64     `db:"user_id"`
	Type           string    `db:"type"`
	Title          string    `db:"title"`
	Message        string    `db:"message"`
	IsRead         bool      `db:"is_read"`
	ActionURL      *string   `db:"action_url"`
	CreatedAt      time.Time `db:"created_at"`
}

func (n *notification) toModel() *model.Notification {
	return &model.Notification{
		NotificationID: n.NotificationID,
		UserID:         n.UserID,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		IsRead:         n.IsRead,
		ActionURL:      n.ActionURL,
		CreatedAt:      n.CreatedAt,
	}
}

func (r *Repository) CreateNotification(ctx context.Context, n *model.Notification) error {
	query, args, err := squirrel.
		Insert("notifications").
		SetMap(map[string]interface{}{
			"notification_id": n.NotificationID,
			"user_id":         n.UserID,
			"type":            n.Type,
			"title":           n.Title,
			"message":         n.Message,
			"is_read":         n.IsRead,
			"action_url":      n.ActionURL,
			"created_at":      n.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build notification insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

func (r *Repository) ListUserNotifications(ctx context.Context, telegramID int64, limit int) ([]*model.Notification, error) {
	builder := squirrel.
		Select("notification_id", "user_id", "type", "title", "message",
			"is_read", "action_url", "created_at").
		From("notifications").
		Where(squirrel.Eq{"user_id": telegramID}).
		OrderBy("is_read", "created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []notification
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]*model.Notification, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

func (r *Repository) MarkNotificationRead(ctx context.Context, telegramID int64, notificationID uuid.UUID) error {
	query, args, err := squirrel.
		Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{
			"notification_id": notificationID,
			"user_id":         telegramID,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) MarkAllNotificationsRead(ctx context.Context, telegramID int64) error {
	query, args, err := squirrel.
		Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{
			"user_id": telegramID,
			"is_read": false,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return nil
}
