package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taxflow/internal/approval"
	"taxflow/internal/model"
	"taxflow/internal/repository"
	"taxflow/internal/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=approval_service.go -destination=mocks/approval_service_mock.go -package=mocks

// --- DTOs ---

type CreateApprovalRequestDTO struct {
	DocumentType string `json:"document_type" binding:"required"`
	DocumentID   string `json:"document_id" binding:"required"`
	Title        string `json:"title"`
	ApproverID   string `json:"approver_id"`
}

type DecisionDTO struct {
	Comments string `json:"comments"`
}

type ApprovalRequestResponse struct {
	ID            string  `json:"id"`
	DocumentType  string  `json:"document_type"`
	DocumentID    string  `json:"document_id"`
	Title         string  `json:"title,omitempty"`
	Status        string  `json:"status"`
	RequestedBy   string  `json:"requested_by"`
	RequesterName string  `json:"requester_name,omitempty"`
	ApproverID    *string `json:"approver_id"`
	ApproverName  string  `json:"approver_name,omitempty"`
	RespondedAt   *string `json:"responded_at"`
	Comments      string  `json:"comments,omitempty"`
	RequestedAt   string  `json:"requested_at"`
}

// --- Interface ---

type ApprovalService interface {
	Create(ctx context.Context, actor token.Principal, req CreateApprovalRequestDTO) (ApprovalRequestResponse, error)
	// ListPending returns the pending requests the actor may decide on.
	ListPending(ctx context.Context, actor token.Principal) ([]ApprovalRequestResponse, error)
	Get(ctx context.Context, actor token.Principal, id uuid.UUID) (ApprovalRequestResponse, error)
	Approve(ctx context.Context, actor token.Principal, id uuid.UUID, comments string) (ApprovalRequestResponse, error)
	Reject(ctx context.Context, actor token.Principal, id uuid.UUID, reason string) (ApprovalRequestResponse, error)
}

type approvalService struct {
	repo          repository.ApprovalRepository
	users         repository.UserRepository
	txManager     repository.TransactionManager
	notifications NotificationService
	audit         AuditService
	publisher     EventPublisher
	logger        *zap.Logger
	now           func() time.Time
}

func NewApprovalService(
	repo repository.ApprovalRepository,
	users repository.UserRepository,
	txManager repository.TransactionManager,
	notifications NotificationService,
	audit AuditService,
	publisher EventPublisher,
	logger *zap.Logger,
) ApprovalService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &approvalService{
		repo:          repo,
		users:         users,
		txManager:     txManager,
		notifications: notifications,
		audit:         audit,
		publisher:     publisher,
		logger:        logger,
		now:           time.Now,
	}
}

// Roles that may decide on any request in their workspace.
func canDecideAny(role string) bool {
	switch role {
	case model.RoleAdmin, model.RoleGM, model.RoleDireksi:
		return true
	}
	return false
}

// canDecide is the single scope rule for both ListPending and decide. Other
// roles only see and decide requests assigned to them.
func canDecide(actor token.Principal, req *model.ApprovalRequest) bool {
	if canDecideAny(actor.Role) {
		return true
	}
	return req.ApproverID != nil && *req.ApproverID == actor.UserID
}

func isDocumentType(t string) bool {
	for _, d := range model.DocumentTypes {
		if d == t {
			return true
		}
	}
	return false
}

// --- Implementation ---

func (s *approvalService) Create(ctx context.Context, actor token.Principal, req CreateApprovalRequestDTO) (ApprovalRequestResponse, error) {
	docType := strings.ToUpper(strings.TrimSpace(req.DocumentType))
	if !isDocumentType(docType) {
		return ApprovalRequestResponse{}, fmt.Errorf("%w: unknown document_type %q", ErrInvalidInput, req.DocumentType)
	}
	docID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		return ApprovalRequestResponse{}, fmt.Errorf("%w: invalid document_id", ErrInvalidInput)
	}

	var approver *model.User
	if req.ApproverID != "" {
		approverID, parseErr := uuid.Parse(req.ApproverID)
		if parseErr != nil {
			return ApprovalRequestResponse{}, fmt.Errorf("%w: invalid approver_id", ErrInvalidInput)
		}
		approver, err = s.users.FindByID(ctx, approverID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && approver.WorkspaceID != actor.WorkspaceID) {
			return ApprovalRequestResponse{}, fmt.Errorf("%w: approver does not exist", ErrInvalidInput)
		}
		if err != nil {
			return ApprovalRequestResponse{}, fmt.Errorf("failed to fetch approver: %w", err)
		}
		if !model.CanApprove(approver.Role) {
			return ApprovalRequestResponse{}, fmt.Errorf("%w: approver role %q cannot decide approvals", ErrInvalidInput, approver.Role)
		}
	}

	request := model.ApprovalRequest{
		WorkspaceID:  actor.WorkspaceID,
		DocumentType: docType,
		DocumentID:   docID,
		Title:        strings.TrimSpace(req.Title),
		Status:       string(approval.StatusPending),
		RequestedBy:  actor.UserID,
	}
	if approver != nil {
		request.ApproverID = &approver.ID
		request.Approver = approver
	}

	var notice *model.Notification
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, &request); createErr != nil {
			return fmt.Errorf("failed to create approval request: %w", createErr)
		}

		if approver != nil {
			n, notifyErr := s.notifications.Notify(txCtx, NewNotification{
				WorkspaceID: actor.WorkspaceID,
				UserID:      approver.ID,
				Type:        model.NotificationApprovalRequest,
				Priority:    model.PriorityHigh,
				Title:       fmt.Sprintf("Approval Required: %s", docType),
				Message:     fmt.Sprintf("A new %s approval is waiting for your review.", docType),
				Link:        fmt.Sprintf("/approvals/%s", request.ID),
			})
			if notifyErr != nil {
				return notifyErr
			}
			notice = n
		}

		return s.audit.Record(txCtx, AuditEntry{
			WorkspaceID: actor.WorkspaceID,
			UserID:      userRef(actor.UserID),
			Action:      model.ActionCreateApproval,
			EntityID:    request.ID.String(),
			EntityName:  docType,
			Details: map[string]interface{}{
				"document_type": docType,
				"document_id":   docID.String(),
			},
		})
	})
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	s.notifications.Deliver(ctx, notice)
	res := toApprovalResponse(request)
	s.publisher.PublishToWorkspace(actor.WorkspaceID, EventApprovalUpdated, res)
	return res, nil
}

func (s *approvalService) ListPending(ctx context.Context, actor token.Principal) ([]ApprovalRequestResponse, error) {
	var approverID *uuid.UUID
	if !canDecideAny(actor.Role) {
		approverID = userRef(actor.UserID)
	}

	rows, err := s.repo.ListPending(ctx, actor.WorkspaceID, approverID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch approval requests: %w", err)
	}

	res := make([]ApprovalRequestResponse, 0, len(rows))
	for i := range rows {
		if !canDecide(actor, &rows[i]) {
			continue
		}
		res = append(res, toApprovalResponse(rows[i]))
	}
	return res, nil
}

func (s *approvalService) Get(ctx context.Context, actor token.Principal, id uuid.UUID) (ApprovalRequestResponse, error) {
	req, err := s.repo.FindByID(ctx, actor.WorkspaceID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ApprovalRequestResponse{}, approval.ErrNotFound
	}
	if err != nil {
		return ApprovalRequestResponse{}, fmt.Errorf("failed to fetch approval request: %w", err)
	}
	return toApprovalResponse(*req), nil
}

func (s *approvalService) Approve(ctx context.Context, actor token.Principal, id uuid.UUID, comments string) (ApprovalRequestResponse, error) {
	return s.decide(ctx, actor, id, approval.ActionApprove, comments)
}

func (s *approvalService) Reject(ctx context.Context, actor token.Principal, id uuid.UUID, reason string) (ApprovalRequestResponse, error) {
	if strings.TrimSpace(reason) == "" {
		return ApprovalRequestResponse{}, approval.ErrMissingReason
	}
	return s.decide(ctx, actor, id, approval.ActionReject, reason)
}

func (s *approvalService) decide(ctx context.Context, actor token.Principal, id uuid.UUID, action approval.Action, comments string) (ApprovalRequestResponse, error) {
	var (
		req    *model.ApprovalRequest
		notice *model.Notification
	)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		req, findErr = s.repo.FindByIDForUpdate(txCtx, actor.WorkspaceID, id)
		if errors.Is(findErr, repository.ErrNotFound) {
			return approval.ErrNotFound
		}
		if findErr != nil {
			return fmt.Errorf("failed to fetch approval request: %w", findErr)
		}

		if !canDecide(actor, req) {
			return fmt.Errorf("%w: not the approver of this request", ErrForbidden)
		}

		decision, transErr := approval.Transition(approval.Status(req.Status), action, comments, s.now())
		if transErr != nil {
			return transErr
		}

		decidedAt := decision.DecidedAt
		req.Status = string(decision.To)
		req.Comments = decision.Comments
		req.RespondedBy = userRef(actor.UserID)
		req.RespondedAt = &decidedAt
		if saveErr := s.repo.Update(txCtx, req); saveErr != nil {
			return fmt.Errorf("failed to update approval request: %w", saveErr)
		}

		n, notifyErr := s.notifications.Notify(txCtx, decisionNotice(req))
		if notifyErr != nil {
			return notifyErr
		}
		notice = n

		auditAction := model.ActionApproveRequest
		if decision.To == approval.StatusRejected {
			auditAction = model.ActionRejectRequest
		}
		return s.audit.Record(txCtx, AuditEntry{
			WorkspaceID: actor.WorkspaceID,
			UserID:      userRef(actor.UserID),
			Action:      auditAction,
			EntityID:    req.ID.String(),
			EntityName:  req.DocumentType,
			Details: map[string]interface{}{
				"from":     string(decision.From),
				"to":       string(decision.To),
				"comments": decision.Comments,
			},
		})
	})
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	s.logger.Info("approval request decided",
		zap.String("approval_id", req.ID.String()),
		zap.String("status", req.Status),
		zap.String("user_id", actor.UserID.String()))

	s.notifications.Deliver(ctx, notice)
	res := toApprovalResponse(*req)
	s.publisher.PublishToWorkspace(actor.WorkspaceID, EventApprovalUpdated, res)
	return res, nil
}

func decisionNotice(req *model.ApprovalRequest) NewNotification {
	link := fmt.Sprintf("/%s/%s", strings.ToLower(req.DocumentType), req.DocumentID)
	if req.Status == string(approval.StatusApproved) {
		return NewNotification{
			WorkspaceID: req.WorkspaceID,
			UserID:      req.RequestedBy,
			Type:        model.NotificationApprovalApproved,
			Priority:    model.PriorityMedium,
			Title:       fmt.Sprintf("%s Approved", req.DocumentType),
			Message:     fmt.Sprintf("Your %s has been approved.", req.DocumentType),
			Link:        link,
		}
	}
	return NewNotification{
		WorkspaceID: req.WorkspaceID,
		UserID:      req.RequestedBy,
		Type:        model.NotificationApprovalRejected,
		Priority:    model.PriorityHigh,
		Title:       fmt.Sprintf("%s Rejected", req.DocumentType),
		Message:     fmt.Sprintf("Your %s has been rejected. Reason: %s", req.DocumentType, req.Comments),
		Link:        link,
	}
}

// --- Helpers ---

func toApprovalResponse(a model.ApprovalRequest) ApprovalRequestResponse {
	res := ApprovalRequestResponse{
		ID:           a.ID.String(),
		DocumentType: a.DocumentType,
		DocumentID:   a.DocumentID.String(),
		Title:        a.Title,
		Status:       a.Status,
		RequestedBy:  a.RequestedBy.String(),
		Comments:     a.Comments,
		RequestedAt:  a.RequestedAt.Format(time.RFC3339),
	}
	if a.Requester != nil {
		res.RequesterName = a.Requester.FullName
	}
	if a.ApproverID != nil {
		id := a.ApproverID.String()
		res.ApproverID = &id
	}
	if a.Approver != nil {
		res.ApproverName = a.Approver.FullName
	}
	if a.RespondedAt != nil {
		t := a.RespondedAt.Format(time.RFC3339)
		res.RespondedAt = &t
	}
	return res
}
