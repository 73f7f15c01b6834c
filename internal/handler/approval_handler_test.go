package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"taxflow/internal/approval"
	"taxflow/internal/service"
	"taxflow/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newApprovalServer(t *testing.T) (*testServer, *mocks.MockApprovalService) {
	s := newTestServer(t)
	svc := mocks.NewMockApprovalService(s.ctrl)
	NewApprovalHandler(svc, s.guard).RegisterRoutes(s.router.Group(""))
	return s, svc
}

func TestApprovalHandler_ListPending(t *testing.T) {
	s, svc := newApprovalServer(t)
	bearer, p := s.login("manager")

	svc.EXPECT().ListPending(gomock.Any(), p).Return([]service.ApprovalRequestResponse{
		{ID: uuid.NewString(), DocumentType: "PO", Status: "pending", RequestedAt: "2026-03-01T00:00:00Z"},
	}, nil)

	w, env := s.do(http.MethodGet, "/notifications/approvals", bearer, "")
	require.Equal(t, http.StatusOK, w.Code)
	var items []service.ApprovalRequestResponse
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "pending", items[0].Status)
}

func TestApprovalHandler_Approve(t *testing.T) {
	s, svc := newApprovalServer(t)
	bearer, p := s.login("supervisor")
	id := uuid.New()

	svc.EXPECT().Approve(gomock.Any(), p, id, "ok").Return(service.ApprovalRequestResponse{ID: id.String(), Status: "approved"}, nil)
	svc.EXPECT().Approve(gomock.Any(), p, id, "").Return(service.ApprovalRequestResponse{}, fmt.Errorf("%w: approval request is already approved", approval.ErrInvalidTransition))

	w, env := s.do(http.MethodPost, "/notifications/approvals/"+id.String()+"/approve", bearer, `{"comments":"ok"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"status":"approved"`)

	// No body at all is an approve without comments.
	w, env = s.do(http.MethodPost, "/notifications/approvals/"+id.String()+"/approve", bearer, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, env.Error, "approval request is already approved")
}

func TestApprovalHandler_RejectErrors(t *testing.T) {
	s, svc := newApprovalServer(t)
	bearer, p := s.login("gm")
	missing, blank := uuid.New(), uuid.New()

	svc.EXPECT().Reject(gomock.Any(), p, missing, "nope").Return(service.ApprovalRequestResponse{}, approval.ErrNotFound)
	svc.EXPECT().Reject(gomock.Any(), p, blank, "").Return(service.ApprovalRequestResponse{}, approval.ErrMissingReason)

	w, _ := s.do(http.MethodPost, "/notifications/approvals/"+missing.String()+"/reject", bearer, `{"comments":"nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := s.do(http.MethodPost, "/notifications/approvals/"+blank.String()+"/reject", bearer, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, approval.ErrMissingReason.Error(), env.Error)

	w, _ = s.do(http.MethodPost, "/notifications/approvals/not-a-uuid/reject", bearer, `{"comments":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApprovalHandler_StaffCannotDecide(t *testing.T) {
	s, _ := newApprovalServer(t)
	bearer, _ := s.login("staff")

	w, _ := s.do(http.MethodPost, "/notifications/approvals/"+uuid.NewString()+"/approve", bearer, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApprovalHandler_InternalErrorsAreGeneric(t *testing.T) {
	s, svc := newApprovalServer(t)
	bearer, p := s.login("admin")
	svc.EXPECT().ListPending(gomock.Any(), p).Return(nil, fmt.Errorf("failed to fetch approval requests: dial tcp: refused"))

	w, env := s.do(http.MethodGet, "/notifications/approvals", bearer, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", env.Error)
}

func TestApprovalHandler_Create(t *testing.T) {
	s, svc := newApprovalServer(t)
	bearer, p := s.login("staff")
	docID := uuid.NewString()

	req := service.CreateApprovalRequestDTO{DocumentType: "SO", DocumentID: docID}
	svc.EXPECT().Create(gomock.Any(), p, req).Return(service.ApprovalRequestResponse{DocumentType: "SO", Status: "pending"}, nil)

	w, _ := s.do(http.MethodPost, "/notifications/approvals", bearer, fmt.Sprintf(`{"document_type":"SO","document_id":%q}`, docID))
	assert.Equal(t, http.StatusCreated, w.Code)

	w, _ = s.do(http.MethodPost, "/notifications/approvals", bearer, `{"document_type":"SO"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
