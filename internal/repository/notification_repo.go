package repository

import (
	"context"

	"taxflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=notification_repo.go -destination=mocks/notification_repo_mock.go -package=mocks

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// ListForUser returns the newest notifications first.
	ListForUser(ctx context.Context, workspaceID, userID uuid.UUID, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, workspaceID, userID uuid.UUID) (int64, error)
	// MarkRead returns ErrNotFound when the notification does not belong to the user.
	MarkRead(ctx context.Context, workspaceID, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, workspaceID, userID uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return GetDB(ctx, r.db).Create(n).Error
}

func (r *notificationRepository) ListForUser(ctx context.Context, workspaceID, userID uuid.UUID, limit int) ([]model.Notification, error) {
	var out []model.Notification
	err := GetDB(ctx, r.db).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, workspaceID, userID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("workspace_id = ? AND user_id = ? AND is_read = ?", workspaceID, userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, workspaceID, userID, id uuid.UUID) error {
	db := GetDB(ctx, r.db)

	var n model.Notification
	if err := db.Select("id", "is_read").
		First(&n, "id = ? AND workspace_id = ? AND user_id = ?", id, workspaceID, userID).Error; err != nil {
		return translate(err)
	}
	if n.IsRead {
		return nil
	}
	return db.Model(&model.Notification{}).Where("id = ?", id).Update("is_read", true).Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, workspaceID, userID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("workspace_id = ? AND user_id = ? AND is_read = ?", workspaceID, userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
