package model

import (
	"time"

	"github.com/google/uuid"
)

// Model preferences
const (
	AIModelStandard = "standard"
	AIModelAdvanced = "advanced"
	AIModelCustom   = "custom"
)

// DefaultMaxAICallsPerDay applies when a workspace has not set a limit.
const DefaultMaxAICallsPerDay = 100

// AISettings holds workspace-level AI feature toggles. One row per workspace.
type AISettings struct {
	ID                          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID                 uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"workspace_id"`
	AnomalyDetectionEnabled     bool      `gorm:"not null;default:false" json:"anomaly_detection_enabled"`
	PredictiveAnalyticsEnabled  bool      `gorm:"not null;default:false" json:"predictive_analytics_enabled"`
	SmartRecommendationsEnabled bool      `gorm:"not null;default:false" json:"smart_recommendations_enabled"`
	NaturalLanguageQueryEnabled bool      `gorm:"not null;default:false" json:"natural_language_query_enabled"`
	AutoCategorizationEnabled   bool      `gorm:"not null;default:false" json:"auto_categorization_enabled"`
	AIModelPreference           string    `gorm:"type:varchar(20);not null;default:'standard'" json:"ai_model_preference"`
	MaxAICallsPerDay            int       `gorm:"not null;default:100" json:"max_ai_calls_per_day"`
	CreatedAt                   time.Time `json:"created_at"`
	UpdatedAt                   time.Time `json:"updated_at"`
}

// DefaultAISettings returns the settings a workspace starts with.
func DefaultAISettings(workspaceID uuid.UUID) AISettings {
	return AISettings{
		WorkspaceID:       workspaceID,
		AIModelPreference: AIModelStandard,
		MaxAICallsPerDay:  DefaultMaxAICallsPerDay,
	}
}
