package repository

import (
	"context"
	"time"

	"taxflow/internal/model"
	"taxflow/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=audit_repo.go -destination=mocks/audit_repo_mock.go -package=mocks

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, workspaceID uuid.UUID, page, limit int) ([]model.AuditLog, int64, error)
	CountSince(ctx context.Context, workspaceID uuid.UUID, since time.Time) (int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, workspaceID uuid.UUID, page, limit int) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.AuditLog{}).Where("workspace_id = ?", workspaceID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params := pagination.New(page, limit)
	if err := db.Preload("User").
		Where("workspace_id = ?", workspaceID).
		Order("created_at desc").
		Offset(params.Offset).
		Limit(params.Limit).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func (r *auditRepository) CountSince(ctx context.Context, workspaceID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.AuditLog{}).
		Where("workspace_id = ? AND created_at >= ?", workspaceID, since).
		Count(&count).Error
	return count, err
}
