package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taxflow/internal/model"
	"taxflow/internal/repository"
	"taxflow/internal/token"
)

const maxAICallsLimit = 10000

// UpdateAISettingsRequest replaces the workspace settings. Omitted toggles are
// disabled, an empty preference means standard and a nil limit means the default.
type UpdateAISettingsRequest struct {
	AnomalyDetectionEnabled     bool   `json:"anomaly_detection_enabled"`
	PredictiveAnalyticsEnabled  bool   `json:"predictive_analytics_enabled"`
	SmartRecommendationsEnabled bool   `json:"smart_recommendations_enabled"`
	NaturalLanguageQueryEnabled bool   `json:"natural_language_query_enabled"`
	AutoCategorizationEnabled   bool   `json:"auto_categorization_enabled"`
	AIModelPreference           string `json:"ai_model_preference"`
	MaxAICallsPerDay            *int   `json:"max_ai_calls_per_day"`
}

type AISettingsResponse struct {
	WorkspaceID                 string `json:"workspace_id"`
	AnomalyDetectionEnabled     bool   `json:"anomaly_detection_enabled"`
	PredictiveAnalyticsEnabled  bool   `json:"predictive_analytics_enabled"`
	SmartRecommendationsEnabled bool   `json:"smart_recommendations_enabled"`
	NaturalLanguageQueryEnabled bool   `json:"natural_language_query_enabled"`
	AutoCategorizationEnabled   bool   `json:"auto_categorization_enabled"`
	AIModelPreference           string `json:"ai_model_preference"`
	MaxAICallsPerDay            int    `json:"max_ai_calls_per_day"`
	UpdatedAt                   string `json:"updated_at"`
}

type AISettingsService interface {
	// Get returns the workspace settings, creating the defaults on first read.
	Get(ctx context.Context, actor token.Principal) (AISettingsResponse, error)
	Update(ctx context.Context, actor token.Principal, req UpdateAISettingsRequest) (AISettingsResponse, error)
}

type aiSettingsService struct {
	repo      repository.AISettingsRepository
	txManager repository.TransactionManager
	audit     AuditService
}

func NewAISettingsService(repo repository.AISettingsRepository, txManager repository.TransactionManager, audit AuditService) AISettingsService {
	return &aiSettingsService{repo: repo, txManager: txManager, audit: audit}
}

func (s *aiSettingsService) Get(ctx context.Context, actor token.Principal) (AISettingsResponse, error) {
	defaults := model.DefaultAISettings(actor.WorkspaceID)
	settings, err := s.repo.FindOrCreate(ctx, &defaults)
	if err != nil {
		return AISettingsResponse{}, fmt.Errorf("failed to load ai settings: %w", err)
	}
	return toAISettingsResponse(settings), nil
}

func (s *aiSettingsService) Update(ctx context.Context, actor token.Principal, req UpdateAISettingsRequest) (AISettingsResponse, error) {
	preference := strings.ToLower(strings.TrimSpace(req.AIModelPreference))
	switch preference {
	case "":
		preference = model.AIModelStandard
	case model.AIModelStandard, model.AIModelAdvanced, model.AIModelCustom:
	default:
		return AISettingsResponse{}, fmt.Errorf("%w: ai_model_preference must be one of standard, advanced, custom", ErrInvalidInput)
	}

	maxCalls := model.DefaultMaxAICallsPerDay
	if req.MaxAICallsPerDay != nil {
		maxCalls = *req.MaxAICallsPerDay
	}
	if maxCalls < 0 || maxCalls > maxAICallsLimit {
		return AISettingsResponse{}, fmt.Errorf("%w: max_ai_calls_per_day must be between 0 and %d", ErrInvalidInput, maxAICallsLimit)
	}

	var settings *model.AISettings
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		defaults := model.DefaultAISettings(actor.WorkspaceID)
		current, findErr := s.repo.FindOrCreate(txCtx, &defaults)
		if findErr != nil {
			return fmt.Errorf("failed to load ai settings: %w", findErr)
		}

		current.AnomalyDetectionEnabled = req.AnomalyDetectionEnabled
		current.PredictiveAnalyticsEnabled = req.PredictiveAnalyticsEnabled
		current.SmartRecommendationsEnabled = req.SmartRecommendationsEnabled
		current.NaturalLanguageQueryEnabled = req.NaturalLanguageQueryEnabled
		current.AutoCategorizationEnabled = req.AutoCategorizationEnabled
		current.AIModelPreference = preference
		current.MaxAICallsPerDay = maxCalls
		if saveErr := s.repo.Save(txCtx, current); saveErr != nil {
			return fmt.Errorf("failed to save ai settings: %w", saveErr)
		}
		settings = current

		return s.audit.Record(txCtx, AuditEntry{
			WorkspaceID: actor.WorkspaceID,
			UserID:      userRef(actor.UserID),
			Action:      model.ActionUpdateAISettings,
			EntityID:    current.ID.String(),
			EntityName:  "ai_settings",
			Details:     toAISettingsResponse(current),
		})
	})
	if err != nil {
		return AISettingsResponse{}, err
	}

	return toAISettingsResponse(settings), nil
}

func toAISettingsResponse(s *model.AISettings) AISettingsResponse {
	return AISettingsResponse{
		WorkspaceID:                 s.WorkspaceID.String(),
		AnomalyDetectionEnabled:     s.AnomalyDetectionEnabled,
		PredictiveAnalyticsEnabled:  s.PredictiveAnalyticsEnabled,
		SmartRecommendationsEnabled: s.SmartRecommendationsEnabled,
		NaturalLanguageQueryEnabled: s.NaturalLanguageQueryEnabled,
		AutoCategorizationEnabled:   s.AutoCategorizationEnabled,
		AIModelPreference:           s.AIModelPreference,
		MaxAICallsPerDay:            s.MaxAICallsPerDay,
		UpdatedAt:                   s.UpdatedAt.Format(time.RFC3339),
	}
}
