package repository

import (
	"context"
	"time"

	"taxflow/internal/approval"
	"taxflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=approval_repo.go -destination=mocks/approval_repo_mock.go -package=mocks

type ApprovalRepository interface {
	Create(ctx context.Context, req *model.ApprovalRequest) error
	FindByID(ctx context.Context, workspaceID, id uuid.UUID) (*model.ApprovalRequest, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, workspaceID, id uuid.UUID) (*model.ApprovalRequest, error)
	// ListPending returns pending requests, oldest first. A nil approverID
	// returns every pending request in the workspace.
	ListPending(ctx context.Context, workspaceID uuid.UUID, approverID *uuid.UUID) ([]model.ApprovalRequest, error)
	Update(ctx context.Context, req *model.ApprovalRequest) error
	// CountByStatus groups requests created at or after since. Zero since counts all.
	CountByStatus(ctx context.Context, workspaceID uuid.UUID, since time.Time) (map[string]int64, error)
	CountDecidedSince(ctx context.Context, workspaceID uuid.UUID, since time.Time) (int64, error)
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, req *model.ApprovalRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *approvalRepository) FindByID(ctx context.Context, workspaceID, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	err := GetDB(ctx, r.db).
		Preload("Requester").
		Preload("Approver").
		First(&req, "id = ? AND workspace_id = ?", id, workspaceID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *approvalRepository) FindByIDForUpdate(ctx context.Context, workspaceID, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	err := forUpdate(ctx, GetDB(ctx, r.db)).
		First(&req, "id = ? AND workspace_id = ?", id, workspaceID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *approvalRepository) ListPending(ctx context.Context, workspaceID uuid.UUID, approverID *uuid.UUID) ([]model.ApprovalRequest, error) {
	var requests []model.ApprovalRequest

	query := GetDB(ctx, r.db).
		Preload("Requester").
		Where("workspace_id = ? AND status = ?", workspaceID, string(approval.StatusPending))
	if approverID != nil {
		query = query.Where("approver_id = ?", *approverID)
	}
	if err := query.Order("requested_at ASC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *approvalRepository) Update(ctx context.Context, req *model.ApprovalRequest) error {
	return GetDB(ctx, r.db).Omit("Requester", "Approver").Save(req).Error
}

func (r *approvalRepository) CountByStatus(ctx context.Context, workspaceID uuid.UUID, since time.Time) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}

	query := GetDB(ctx, r.db).Model(&model.ApprovalRequest{}).
		Select("status, COUNT(*) AS count").
		Where("workspace_id = ?", workspaceID)
	if !since.IsZero() {
		query = query.Where("requested_at >= ?", since)
	}
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *approvalRepository) CountDecidedSince(ctx context.Context, workspaceID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.ApprovalRequest{}).
		Where("workspace_id = ? AND responded_at >= ?", workspaceID, since).
		Count(&count).Error
	return count, err
}
