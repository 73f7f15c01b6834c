package repository

import (
	"context"

	"taxflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=workspace_repo.go -destination=mocks/workspace_repo_mock.go -package=mocks

type WorkspaceRepository interface {
	Create(ctx context.Context, ws *model.Workspace) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Workspace, error)
}

type workspaceRepository struct {
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &workspaceRepository{db: db}
}

func (r *workspaceRepository) Create(ctx context.Context, ws *model.Workspace) error {
	return GetDB(ctx, r.db).Create(ws).Error
}

func (r *workspaceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Workspace, error) {
	var ws model.Workspace
	if err := GetDB(ctx, r.db).First(&ws, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &ws, nil
}
