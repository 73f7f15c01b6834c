package service

import (
	"context"
	"testing"

	"taxflow/internal/model"
	"taxflow/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newAISettingsFixture(t *testing.T) (AISettingsService, *mocks.MockAISettingsRepository, *mocks.MockAuditRepository) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAISettingsRepository(ctrl)
	audits := mocks.NewMockAuditRepository(ctrl)
	tx := mocks.NewMockTransactionManager(ctrl)
	expectTx(tx)
	return NewAISettingsService(repo, tx, NewAuditService(audits)), repo, audits
}

func storeAsIs(_ context.Context, s *model.AISettings) (*model.AISettings, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return s, nil
}

func TestAISettingsService_GetCreatesDefaults(t *testing.T) {
	svc, repo, _ := newAISettingsFixture(t)
	actor := newPrincipal(model.RoleAdmin)
	repo.EXPECT().FindOrCreate(gomock.Any(), gomock.Any()).DoAndReturn(storeAsIs)

	res, err := svc.Get(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, actor.WorkspaceID.String(), res.WorkspaceID)
	assert.Equal(t, "standard", res.AIModelPreference)
	assert.Equal(t, 100, res.MaxAICallsPerDay)
	assert.False(t, res.AnomalyDetectionEnabled)
	assert.False(t, res.AutoCategorizationEnabled)
}

func TestAISettingsService_Update(t *testing.T) {
	svc, repo, audits := newAISettingsFixture(t)
	actor := newPrincipal(model.RoleAdmin)
	limit := 250

	repo.EXPECT().FindOrCreate(gomock.Any(), gomock.Any()).DoAndReturn(storeAsIs)
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, s *model.AISettings) error {
			assert.True(t, s.AnomalyDetectionEnabled)
			assert.Equal(t, model.AIModelAdvanced, s.AIModelPreference)
			assert.Equal(t, 250, s.MaxAICallsPerDay)
			return nil
		})
	audits.EXPECT().Log(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, l *model.AuditLog) error {
			assert.Equal(t, model.ActionUpdateAISettings, l.Action)
			assert.Contains(t, l.Details, `"max_ai_calls_per_day":250`)
			return nil
		})

	res, err := svc.Update(context.Background(), actor, UpdateAISettingsRequest{
		AnomalyDetectionEnabled: true,
		AIModelPreference:       "Advanced",
		MaxAICallsPerDay:        &limit,
	})
	require.NoError(t, err)
	assert.Equal(t, "advanced", res.AIModelPreference)
	assert.True(t, res.AnomalyDetectionEnabled)
}

func TestAISettingsService_UpdateValidation(t *testing.T) {
	svc, _, _ := newAISettingsFixture(t)
	actor := newPrincipal(model.RoleAdmin)

	_, err := svc.Update(context.Background(), actor, UpdateAISettingsRequest{AIModelPreference: "gpt"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	for _, limit := range []int{-1, 10001} {
		l := limit
		_, err = svc.Update(context.Background(), actor, UpdateAISettingsRequest{MaxAICallsPerDay: &l})
		assert.ErrorIs(t, err, ErrInvalidInput, "limit %d", limit)
	}
}
