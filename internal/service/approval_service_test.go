package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"taxflow/internal/approval"
	"taxflow/internal/model"
	"taxflow/internal/repository"
	"taxflow/internal/repository/mocks"
	"taxflow/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type approvalFixture struct {
	repo      *mocks.MockApprovalRepository
	users     *mocks.MockUserRepository
	notifRepo *mocks.MockNotificationRepository
	auditRepo *mocks.MockAuditRepository
	publisher *fakePublisher
	svc       *approvalService
}

func newApprovalFixture(t *testing.T) *approvalFixture {
	ctrl := gomock.NewController(t)
	f := &approvalFixture{
		repo:      mocks.NewMockApprovalRepository(ctrl),
		users:     mocks.NewMockUserRepository(ctrl),
		notifRepo: mocks.NewMockNotificationRepository(ctrl),
		auditRepo: mocks.NewMockAuditRepository(ctrl),
		publisher: &fakePublisher{},
	}
	tx := mocks.NewMockTransactionManager(ctrl)
	expectTx(tx)

	notifications := NewNotificationService(f.notifRepo, f.users, f.publisher, nil, "", zap.NewNop())
	f.svc = NewApprovalService(f.repo, f.users, tx, notifications, NewAuditService(f.auditRepo), f.publisher, zap.NewNop()).(*approvalService)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return f
}

func pendingRequest(ws, requester uuid.UUID, approver *uuid.UUID) *model.ApprovalRequest {
	return &model.ApprovalRequest{
		ID:           uuid.New(),
		WorkspaceID:  ws,
		DocumentType: model.DocumentInvoice,
		DocumentID:   uuid.New(),
		Status:       string(approval.StatusPending),
		RequestedBy:  requester,
		ApproverID:   approver,
	}
}

func TestApprovalService_Approve(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()

	actor := newPrincipal(model.RoleManager)
	requester := uuid.New()
	req := pendingRequest(actor.WorkspaceID, requester, &actor.UserID)

	f.repo.EXPECT().FindByIDForUpdate(gomock.Any(), actor.WorkspaceID, req.ID).Return(req, nil)
	f.repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *model.ApprovalRequest) error {
			assert.Equal(t, string(approval.StatusApproved), r.Status)
			assert.Equal(t, actor.UserID, *r.RespondedBy)
			require.NotNil(t, r.RespondedAt)
			return nil
		})
	f.notifRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n *model.Notification) error {
			assert.Equal(t, requester, n.UserID)
			assert.Equal(t, model.NotificationApprovalApproved, n.Type)
			assert.Equal(t, model.PriorityMedium, n.Priority)
			assert.Equal(t, "INVOICE Approved", n.Title)
			assert.Equal(t, "Your INVOICE has been approved.", n.Message)
			assert.Equal(t, "/invoice/"+req.DocumentID.String(), n.Link)
			return nil
		})
	f.auditRepo.EXPECT().Log(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, l *model.AuditLog) error {
			assert.Equal(t, model.ActionApproveRequest, l.Action)
			assert.Equal(t, req.ID.String(), l.EntityID)
			return nil
		})

	res, err := f.svc.Approve(ctx, actor, req.ID, "  looks good ")
	require.NoError(t, err)
	assert.Equal(t, "approved", res.Status)
	assert.Equal(t, "looks good", res.Comments)
	require.NotNil(t, res.RespondedAt)

	assert.Len(t, f.publisher.ofType(EventApprovalUpdated), 1)
	notices := f.publisher.ofType(EventNotificationCreated)
	require.Len(t, notices, 1)
	assert.Equal(t, requester, notices[0].UserID)
}

func TestApprovalService_Reject(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()

	actor := newPrincipal(model.RoleAdmin)
	req := pendingRequest(actor.WorkspaceID, uuid.New(), nil)

	f.repo.EXPECT().FindByIDForUpdate(gomock.Any(), actor.WorkspaceID, req.ID).Return(req, nil)
	f.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
	f.notifRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n *model.Notification) error {
			assert.Equal(t, model.NotificationApprovalRejected, n.Type)
			assert.Equal(t, model.PriorityHigh, n.Priority)
			assert.Equal(t, "Your INVOICE has been rejected. Reason: wrong amount", n.Message)
			return nil
		})
	f.auditRepo.EXPECT().Log(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, l *model.AuditLog) error {
			assert.Equal(t, model.ActionRejectRequest, l.Action)
			return nil
		})

	res, err := f.svc.Reject(ctx, actor, req.ID, "wrong amount")
	require.NoError(t, err)
	assert.Equal(t, "rejected", res.Status)
	assert.Equal(t, "wrong amount", res.Comments)
}

func TestApprovalService_RejectRequiresReason(t *testing.T) {
	f := newApprovalFixture(t)
	actor := newPrincipal(model.RoleAdmin)

	for _, reason := range []string{"", "   ", "\n"} {
		_, err := f.svc.Reject(context.Background(), actor, uuid.New(), reason)
		assert.ErrorIs(t, err, approval.ErrMissingReason)
	}
}

func TestApprovalService_DecideErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		f := newApprovalFixture(t)
		actor := newPrincipal(model.RoleAdmin)
		id := uuid.New()
		f.repo.EXPECT().FindByIDForUpdate(gomock.Any(), actor.WorkspaceID, id).Return(nil, repository.ErrNotFound)

		_, err := f.svc.Approve(ctx, actor, id, "")
		assert.ErrorIs(t, err, approval.ErrNotFound)
	})

	t.Run("already resolved", func(t *testing.T) {
		f := newApprovalFixture(t)
		actor := newPrincipal(model.RoleAdmin)
		req := pendingRequest(actor.WorkspaceID, uuid.New(), nil)
		req.Status = string(approval.StatusApproved)
		f.repo.EXPECT().FindByIDForUpdate(gomock.Any(), actor.WorkspaceID, req.ID).Return(req, nil)

		_, err := f.svc.Reject(ctx, actor, req.ID, "too late")
		assert.ErrorIs(t, err, approval.ErrInvalidTransition)
		assert.Contains(t, err.Error(), "approval request is already approved")
		assert.Empty(t, f.publisher.ofType(EventApprovalUpdated))
	})

	t.Run("not the approver", func(t *testing.T) {
		f := newApprovalFixture(t)
		owner := uuid.New()
		actor := staffIn(uuid.New())
		req := pendingRequest(actor.WorkspaceID, uuid.New(), &owner)
		f.repo.EXPECT().FindByIDForUpdate(gomock.Any(), actor.WorkspaceID, req.ID).Return(req, nil)

		_, err := f.svc.Approve(ctx, actor, req.ID, "")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newApprovalFixture(t)
		actor := newPrincipal(model.RoleAdmin)
		f.repo.EXPECT().FindByIDForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

		_, err := f.svc.Approve(ctx, actor, uuid.New(), "")
		require.Error(t, err)
		assert.False(t, errors.Is(err, approval.ErrNotFound))
	})
}

func TestApprovalService_ListPendingScope(t *testing.T) {
	ctx := context.Background()

	t.Run("privileged roles see the workspace", func(t *testing.T) {
		f := newApprovalFixture(t)
		actor := newPrincipal(model.RoleDireksi)
		rows := []model.ApprovalRequest{*pendingRequest(actor.WorkspaceID, uuid.New(), nil)}
		f.repo.EXPECT().ListPending(gomock.Any(), actor.WorkspaceID, (*uuid.UUID)(nil)).Return(rows, nil)

		res, err := f.svc.ListPending(ctx, actor)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "pending", res[0].Status)
	})

	t.Run("others see their own queue", func(t *testing.T) {
		f := newApprovalFixture(t)
		actor := newPrincipal(model.RoleSupervisor)
		f.repo.EXPECT().ListPending(gomock.Any(), actor.WorkspaceID, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ uuid.UUID, approverID *uuid.UUID) ([]model.ApprovalRequest, error) {
				require.NotNil(t, approverID)
				assert.Equal(t, actor.UserID, *approverID)
				return nil, nil
			})

		res, err := f.svc.ListPending(ctx, actor)
		require.NoError(t, err)
		assert.NotNil(t, res)
		assert.Empty(t, res)
	})
}

func TestApprovalService_ListedRequestsAreDecidable(t *testing.T) {
	ctx := context.Background()

	for _, role := range []string{model.RoleManager, model.RoleSupervisor} {
		t.Run(role, func(t *testing.T) {
			f := newApprovalFixture(t)
			actor := newPrincipal(role)
			other := uuid.New()
			assigned := pendingRequest(actor.WorkspaceID, uuid.New(), &actor.UserID)
			unassigned := pendingRequest(actor.WorkspaceID, uuid.New(), nil)
			foreign := pendingRequest(actor.WorkspaceID, uuid.New(), &other)

			f.repo.EXPECT().ListPending(gomock.Any(), actor.WorkspaceID, gomock.Any()).
				Return([]model.ApprovalRequest{*assigned, *unassigned, *foreign}, nil)

			listed, err := f.svc.ListPending(ctx, actor)
			require.NoError(t, err)
			require.Len(t, listed, 1)
			assert.Equal(t, assigned.ID.String(), listed[0].ID)

			for _, req := range []*model.ApprovalRequest{unassigned, foreign} {
				f.repo.EXPECT().FindByIDForUpdate(gomock.Any(), actor.WorkspaceID, req.ID).Return(req, nil)
				_, err := f.svc.Approve(ctx, actor, req.ID, "")
				assert.ErrorIs(t, err, ErrForbidden)
				assert.Equal(t, string(approval.StatusPending), req.Status)
			}
		})
	}

	t.Run("workspace-wide roles decide unassigned requests", func(t *testing.T) {
		actor := newPrincipal(model.RoleGM)
		assert.True(t, canDecide(actor, pendingRequest(actor.WorkspaceID, uuid.New(), nil)))
	})
}

func TestCanApprove(t *testing.T) {
	for _, role := range []string{model.RoleAdmin, model.RoleManager, model.RoleSupervisor, model.RoleGM, model.RoleDireksi} {
		assert.True(t, model.CanApprove(role), role)
	}
	assert.False(t, model.CanApprove(model.RoleStaff))
	assert.False(t, model.CanApprove(""))
}

func TestApprovalService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("notifies the approver", func(t *testing.T) {
		f := newApprovalFixture(t)
		actor := newPrincipal(model.RoleStaff)
		approver := &model.User{ID: uuid.New(), WorkspaceID: actor.WorkspaceID, FullName: "Budi", Role: model.RoleManager}
		docID := uuid.New()

		f.users.EXPECT().FindByID(gomock.Any(), approver.ID).Return(approver, nil)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, r *model.ApprovalRequest) error {
				assert.Equal(t, "PO", r.DocumentType)
				assert.Equal(t, string(approval.StatusPending), r.Status)
				assert.Equal(t, actor.UserID, r.RequestedBy)
				r.ID = uuid.New()
				return nil
			})
		f.notifRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, n *model.Notification) error {
				assert.Equal(t, approver.ID, n.UserID)
				assert.Equal(t, model.NotificationApprovalRequest, n.Type)
				assert.Equal(t, model.PriorityHigh, n.Priority)
				assert.Equal(t, "Approval Required: PO", n.Title)
				assert.Equal(t, "A new PO approval is waiting for your review.", n.Message)
				return nil
			})
		f.auditRepo.EXPECT().Log(gomock.Any(), gomock.Any()).Return(nil)

		res, err := f.svc.Create(ctx, actor, CreateApprovalRequestDTO{
			DocumentType: "po",
			DocumentID:   docID.String(),
			ApproverID:   approver.ID.String(),
		})
		require.NoError(t, err)
		assert.Equal(t, "pending", res.Status)
		assert.Equal(t, "Budi", res.ApproverName)
		assert.Len(t, f.publisher.ofType(EventNotificationCreated), 1)
	})

	t.Run("rejects unknown document types", func(t *testing.T) {
		f := newApprovalFixture(t)
		_, err := f.svc.Create(ctx, newPrincipal(model.RoleStaff), CreateApprovalRequestDTO{
			DocumentType: "RECEIPT",
			DocumentID:   uuid.New().String(),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects approvers who cannot decide", func(t *testing.T) {
		f := newApprovalFixture(t)
		actor := newPrincipal(model.RoleStaff)
		colleague := &model.User{ID: uuid.New(), WorkspaceID: actor.WorkspaceID, Role: model.RoleStaff}
		f.users.EXPECT().FindByID(gomock.Any(), colleague.ID).Return(colleague, nil)

		_, err := f.svc.Create(ctx, actor, CreateApprovalRequestDTO{
			DocumentType: "SO",
			DocumentID:   uuid.New().String(),
			ApproverID:   colleague.ID.String(),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), `approver role "staff" cannot decide approvals`)
	})

	t.Run("rejects approvers from another workspace", func(t *testing.T) {
		f := newApprovalFixture(t)
		outsider := &model.User{ID: uuid.New(), WorkspaceID: uuid.New()}
		f.users.EXPECT().FindByID(gomock.Any(), outsider.ID).Return(outsider, nil)

		_, err := f.svc.Create(ctx, newPrincipal(model.RoleStaff), CreateApprovalRequestDTO{
			DocumentType: "SO",
			DocumentID:   uuid.New().String(),
			ApproverID:   outsider.ID.String(),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestApprovalService_Get(t *testing.T) {
	f := newApprovalFixture(t)
	actor := token.Principal{UserID: uuid.New(), WorkspaceID: uuid.New(), Role: model.RoleStaff}
	id := uuid.New()
	f.repo.EXPECT().FindByID(gomock.Any(), actor.WorkspaceID, id).Return(nil, repository.ErrNotFound)

	_, err := f.svc.Get(context.Background(), actor, id)
	assert.ErrorIs(t, err, approval.ErrNotFound)
}
