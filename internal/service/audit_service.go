package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taxflow/internal/model"
	"taxflow/internal/repository"
	"taxflow/internal/token"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// AuditEntry describes one change. UserID nil marks a system action.
type AuditEntry struct {
	WorkspaceID uuid.UUID
	UserID      *uuid.UUID
	Action      string
	EntityID    string
	EntityName  string
	Details     interface{}
}

type AuditService interface {
	// Record writes an entry using the transaction carried by ctx, if any.
	Record(ctx context.Context, entry AuditEntry) error
	GetAuditLogs(ctx context.Context, actor token.Principal, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) error {
	details := "{}"
	if entry.Details != nil {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		details = string(raw)
	}

	log := model.AuditLog{
		WorkspaceID: entry.WorkspaceID,
		UserID:      entry.UserID,
		Action:      entry.Action,
		EntityID:    entry.EntityID,
		EntityName:  entry.EntityName,
		Details:     details,
	}
	if err := s.repo.Log(ctx, &log); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *auditService) GetAuditLogs(ctx context.Context, actor token.Principal, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, actor.WorkspaceID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		name := "System"
		userID := ""
		if l.User != nil {
			name = l.User.FullName
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			UserName:   name,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		})
	}

	return res, total, nil
}

func userRef(id uuid.UUID) *uuid.UUID {
	return &id
}
