package service

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already exists")
	ErrForbidden          = errors.New("access denied")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
)

// Websocket event types
const (
	EventNotificationCreated = "notification.created"
	EventApprovalUpdated     = "approval.updated"
)

// EventPublisher pushes realtime events. Implementations must not block.
type EventPublisher interface {
	PublishToUser(workspaceID, userID uuid.UUID, eventType string, payload interface{})
	PublishToWorkspace(workspaceID uuid.UUID, eventType string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) PublishToUser(uuid.UUID, uuid.UUID, string, interface{}) {}
func (nopPublisher) PublishToWorkspace(uuid.UUID, string, interface{})       {}
