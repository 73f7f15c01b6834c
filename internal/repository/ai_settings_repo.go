package repository

import (
	"context"

	"taxflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=ai_settings_repo.go -destination=mocks/ai_settings_repo_mock.go -package=mocks

type AISettingsRepository interface {
	FindByWorkspace(ctx context.Context, workspaceID uuid.UUID) (*model.AISettings, error)
	// FindOrCreate inserts s when the workspace has no row yet and returns the stored row.
	FindOrCreate(ctx context.Context, s *model.AISettings) (*model.AISettings, error)
	Save(ctx context.Context, s *model.AISettings) error
}

type aiSettingsRepository struct {
	db *gorm.DB
}

func NewAISettingsRepository(db *gorm.DB) AISettingsRepository {
	return &aiSettingsRepository{db: db}
}

func (r *aiSettingsRepository) FindByWorkspace(ctx context.Context, workspaceID uuid.UUID) (*model.AISettings, error) {
	var s model.AISettings
	if err := GetDB(ctx, r.db).First(&s, "workspace_id = ?", workspaceID).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *aiSettingsRepository) FindOrCreate(ctx context.Context, s *model.AISettings) (*model.AISettings, error) {
	db := GetDB(ctx, r.db)
	// concurrent first reads race on the unique workspace index
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(s).Error; err != nil {
		return nil, err
	}
	return r.FindByWorkspace(ctx, s.WorkspaceID)
}

func (r *aiSettingsRepository) Save(ctx context.Context, s *model.AISettings) error {
	return GetDB(ctx, r.db).Save(s).Error
}
