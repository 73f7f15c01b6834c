package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taxflow/internal/model"
	"taxflow/internal/notify"
	"taxflow/internal/repository"
	"taxflow/internal/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=notification_service.go -destination=mocks/notification_service_mock.go -package=mocks

// NotificationListLimit caps GET /notifications.
const NotificationListLimit = 50

type NotificationResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Priority  string `json:"priority"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Link      string `json:"link,omitempty"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// NewNotification is the input for Notify. Priority defaults to medium.
type NewNotification struct {
	WorkspaceID uuid.UUID
	UserID      uuid.UUID
	Type        string
	Priority    string
	Title       string
	Message     string
	Link        string
}

type NotificationService interface {
	List(ctx context.Context, actor token.Principal) ([]NotificationResponse, error)
	UnreadCount(ctx context.Context, actor token.Principal) (int64, error)
	MarkRead(ctx context.Context, actor token.Principal, id uuid.UUID) error
	MarkAllRead(ctx context.Context, actor token.Principal) (int64, error)
	// Notify stores a notification using the transaction in ctx, if any.
	// Nothing is pushed until Deliver is called.
	Notify(ctx context.Context, n NewNotification) (*model.Notification, error)
	// Deliver pushes a stored notification over websocket and, for high and
	// urgent priorities, e-mail. Failures are logged.
	Deliver(ctx context.Context, n *model.Notification)
}

type notificationService struct {
	repo       repository.NotificationRepository
	users      repository.UserRepository
	publisher  EventPublisher
	mailer     notify.Mailer
	appBaseURL string
	logger     *zap.Logger
}

func NewNotificationService(
	repo repository.NotificationRepository,
	users repository.UserRepository,
	publisher EventPublisher,
	mailer notify.Mailer,
	appBaseURL string,
	logger *zap.Logger,
) NotificationService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if mailer == nil {
		mailer = notify.NopMailer{}
	}
	return &notificationService{
		repo:       repo,
		users:      users,
		publisher:  publisher,
		mailer:     mailer,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		logger:     logger,
	}
}

func (s *notificationService) List(ctx context.Context, actor token.Principal) ([]NotificationResponse, error) {
	rows, err := s.repo.ListForUser(ctx, actor.WorkspaceID, actor.UserID, NotificationListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	res := make([]NotificationResponse, 0, len(rows))
	for _, n := range rows {
		res = append(res, toNotificationResponse(n))
	}
	return res, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, actor token.Principal) (int64, error) {
	count, err := s.repo.CountUnread(ctx, actor.WorkspaceID, actor.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor token.Principal, id uuid.UUID) error {
	err := s.repo.MarkRead(ctx, actor.WorkspaceID, actor.UserID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor token.Principal) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, actor.WorkspaceID, actor.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

func (s *notificationService) Notify(ctx context.Context, in NewNotification) (*model.Notification, error) {
	if in.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: notification recipient is required", ErrInvalidInput)
	}
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	n := &model.Notification{
		WorkspaceID: in.WorkspaceID,
		UserID:      in.UserID,
		Type:        in.Type,
		Priority:    priority,
		Title:       in.Title,
		Message:     in.Message,
		Link:        in.Link,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

func (s *notificationService) Deliver(ctx context.Context, n *model.Notification) {
	if n == nil {
		return
	}
	s.publisher.PublishToUser(n.WorkspaceID, n.UserID, EventNotificationCreated, toNotificationResponse(*n))

	if !s.mailer.Enabled() || (n.Priority != model.PriorityHigh && n.Priority != model.PriorityUrgent) {
		return
	}

	user, err := s.users.FindByID(ctx, n.UserID)
	if err != nil {
		s.logger.Warn("notification email skipped: recipient lookup failed",
			zap.String("user_id", n.UserID.String()), zap.Error(err))
		return
	}

	actionURL := ""
	if n.Link != "" && s.appBaseURL != "" {
		actionURL = s.appBaseURL + n.Link
	}
	msg, err := notify.RenderNotification(notify.NotificationEmail{
		To:        user.Email,
		FullName:  user.FullName,
		Title:     n.Title,
		Body:      n.Message,
		Priority:  n.Priority,
		Type:      n.Type,
		ActionURL: actionURL,
	})
	if err != nil {
		s.logger.Error("notification email render failed", zap.Error(err))
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("notification email failed",
			zap.String("notification_id", n.ID.String()), zap.Error(err))
	}
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID.String(),
		Type:      n.Type,
		Priority:  n.Priority,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}
