package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"taxflow/internal/model"
	"taxflow/internal/repository"
	"taxflow/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestNotificationService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockNotificationRepository(ctrl)
	svc := NewNotificationService(repo, mocks.NewMockUserRepository(ctrl), nil, nil, "", zap.NewNop())

	actor := newPrincipal(model.RoleStaff)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.EXPECT().ListForUser(gomock.Any(), actor.WorkspaceID, actor.UserID, NotificationListLimit).Return([]model.Notification{
		{ID: uuid.New(), Type: model.NotificationApprovalRequest, Priority: model.PriorityHigh, Title: "Approval Required: SO", CreatedAt: created},
	}, nil)

	res, err := svc.List(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "high", res[0].Priority)
	assert.Equal(t, "2026-01-02T03:04:05Z", res[0].CreatedAt)
	assert.False(t, res[0].IsRead)
}

func TestNotificationService_MarkRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockNotificationRepository(ctrl)
	svc := NewNotificationService(repo, mocks.NewMockUserRepository(ctrl), nil, nil, "", zap.NewNop())
	actor := newPrincipal(model.RoleStaff)

	known, unknown := uuid.New(), uuid.New()
	repo.EXPECT().MarkRead(gomock.Any(), actor.WorkspaceID, actor.UserID, known).Return(nil).Times(2)
	repo.EXPECT().MarkRead(gomock.Any(), actor.WorkspaceID, actor.UserID, unknown).Return(repository.ErrNotFound)

	// Marking twice is not an error.
	require.NoError(t, svc.MarkRead(context.Background(), actor, known))
	require.NoError(t, svc.MarkRead(context.Background(), actor, known))

	err := svc.MarkRead(context.Background(), actor, unknown)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationService_Counts(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockNotificationRepository(ctrl)
	svc := NewNotificationService(repo, mocks.NewMockUserRepository(ctrl), nil, nil, "", zap.NewNop())
	actor := newPrincipal(model.RoleStaff)

	repo.EXPECT().CountUnread(gomock.Any(), actor.WorkspaceID, actor.UserID).Return(int64(3), nil)
	repo.EXPECT().MarkAllRead(gomock.Any(), actor.WorkspaceID, actor.UserID).Return(int64(3), nil)

	n, err := svc.UnreadCount(context.Background(), actor)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	marked, err := svc.MarkAllRead(context.Background(), actor)
	require.NoError(t, err)
	assert.EqualValues(t, 3, marked)
}

func TestNotificationService_Notify(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockNotificationRepository(ctrl)
	svc := NewNotificationService(repo, mocks.NewMockUserRepository(ctrl), nil, nil, "", zap.NewNop())

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n *model.Notification) error {
			assert.Equal(t, model.PriorityMedium, n.Priority)
			return nil
		})

	n, err := svc.Notify(context.Background(), NewNotification{
		WorkspaceID: uuid.New(),
		UserID:      uuid.New(),
		Type:        model.NotificationSystemAlert,
		Title:       "Maintenance",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maintenance", n.Title)

	_, err = svc.Notify(context.Background(), NewNotification{Title: "nobody"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNotificationService_Deliver(t *testing.T) {
	ws := uuid.New()
	user := &model.User{ID: uuid.New(), WorkspaceID: ws, Email: "rina@example.com", FullName: "Rina"}

	t.Run("high priority is e-mailed with an absolute link", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		users := mocks.NewMockUserRepository(ctrl)
		users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
		pub, mailer := &fakePublisher{}, &fakeMailer{}
		svc := NewNotificationService(mocks.NewMockNotificationRepository(ctrl), users, pub, mailer, "https://erp.example.com/", zap.NewNop())

		svc.Deliver(context.Background(), &model.Notification{
			ID: uuid.New(), WorkspaceID: ws, UserID: user.ID,
			Type: model.NotificationApprovalRejected, Priority: model.PriorityHigh,
			Title: "PO Rejected", Message: "Your PO has been rejected.", Link: "/po/123",
		})

		require.Len(t, pub.ofType(EventNotificationCreated), 1)
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "rina@example.com", mailer.sent[0].To)
		assert.Contains(t, mailer.sent[0].Text, "https://erp.example.com/po/123")
	})

	t.Run("medium priority is only pushed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		pub, mailer := &fakePublisher{}, &fakeMailer{}
		svc := NewNotificationService(mocks.NewMockNotificationRepository(ctrl), mocks.NewMockUserRepository(ctrl), pub, mailer, "", zap.NewNop())

		svc.Deliver(context.Background(), &model.Notification{WorkspaceID: ws, UserID: user.ID, Priority: model.PriorityMedium})

		assert.Len(t, pub.ofType(EventNotificationCreated), 1)
		assert.Empty(t, mailer.sent)
	})

	t.Run("mail failures are swallowed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		users := mocks.NewMockUserRepository(ctrl)
		users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
		mailer := &fakeMailer{err: errors.New("rate limited")}
		svc := NewNotificationService(mocks.NewMockNotificationRepository(ctrl), users, nil, mailer, "", zap.NewNop())

		assert.NotPanics(t, func() {
			svc.Deliver(context.Background(), &model.Notification{WorkspaceID: ws, UserID: user.ID, Priority: model.PriorityUrgent, Title: "x"})
		})
		assert.Len(t, mailer.sent, 1)
	})

	t.Run("nil is ignored", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewNotificationService(mocks.NewMockNotificationRepository(ctrl), mocks.NewMockUserRepository(ctrl), nil, nil, "", zap.NewNop())
		svc.Deliver(context.Background(), nil)
	})
}
