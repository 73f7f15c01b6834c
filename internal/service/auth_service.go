package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"taxflow/internal/model"
	"taxflow/internal/repository"
	"taxflow/internal/token"

	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=auth_service.go -destination=mocks/auth_service_mock.go -package=mocks

const minPasswordLength = 8

// --- DTOs ---

type SignupRequest struct {
	Email         string `json:"email" binding:"required"`
	Password      string `json:"password" binding:"required"`
	FullName      string `json:"full_name" binding:"required"`
	WorkspaceName string `json:"workspace_name" binding:"required"`
}

type LoginRequest struct {
	Email    string
	Password string
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	Role          string `json:"role"`
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// --- Interface ---

type AuthService interface {
	// Signup creates a workspace with the caller as its admin.
	Signup(ctx context.Context, req SignupRequest) (*TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Me(ctx context.Context, actor token.Principal) (*UserResponse, error)
}

type authService struct {
	users      repository.UserRepository
	workspaces repository.WorkspaceRepository
	txManager  repository.TransactionManager
	audit      AuditService
	tokens     *token.Manager
	bcryptCost int
}

func NewAuthService(
	users repository.UserRepository,
	workspaces repository.WorkspaceRepository,
	txManager repository.TransactionManager,
	audit AuditService,
	tokens *token.Manager,
	bcryptCost int,
) AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		users:      users,
		workspaces: workspaces,
		txManager:  txManager,
		audit:      audit,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

func (s *authService) Signup(ctx context.Context, req SignupRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	fullName := strings.TrimSpace(req.FullName)
	wsName := strings.TrimSpace(req.WorkspaceName)
	if fullName == "" || wsName == "" {
		return nil, fmt.Errorf("%w: full_name and workspace_name are required", ErrInvalidInput)
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	ws := model.Workspace{Name: wsName}
	user := model.User{
		Email:    email,
		FullName: fullName,
		Password: string(hashedPassword),
		Role:     model.RoleAdmin,
		IsActive: true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.workspaces.Create(txCtx, &ws); createErr != nil {
			return fmt.Errorf("failed to create workspace: %w", createErr)
		}

		user.WorkspaceID = ws.ID
		if createErr := s.users.Create(txCtx, &user); createErr != nil {
			if errors.Is(createErr, repository.ErrDuplicate) {
				return ErrEmailTaken
			}
			return fmt.Errorf("failed to create user: %w", createErr)
		}

		return s.audit.Record(txCtx, AuditEntry{
			WorkspaceID: ws.ID,
			UserID:      userRef(user.ID),
			Action:      model.ActionSignup,
			EntityID:    user.ID.String(),
			EntityName:  user.Email,
			Details:     map[string]interface{}{"workspace_name": ws.Name},
		})
	})
	if err != nil {
		return nil, err
	}

	return s.issue(&user)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, actor token.Principal) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	res := &UserResponse{
		ID:          user.ID.String(),
		Email:       user.Email,
		FullName:    user.FullName,
		Role:        user.Role,
		WorkspaceID: user.WorkspaceID.String(),
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}
	if ws, wsErr := s.workspaces.FindByID(ctx, user.WorkspaceID); wsErr == nil {
		res.WorkspaceName = ws.Name
	}
	return res, nil
}

func (s *authService) issue(user *model.User) (*TokenResponse, error) {
	accessToken, err := s.tokens.Issue(token.Principal{
		UserID:      user.ID,
		WorkspaceID: user.WorkspaceID,
		Role:        user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &TokenResponse{AccessToken: accessToken, TokenType: token.TypeBearer}, nil
}
