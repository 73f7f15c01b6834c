package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrMissingReason is returned by Reject for a blank reason. No request is sent.
var ErrMissingReason = errors.New("rejection reason is required")

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type SignupRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FullName      string `json:"full_name"`
	WorkspaceName string `json:"workspace_name"`
}

type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	Role          string `json:"role"`
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name"`
	CreatedAt     string `json:"created_at"`
}

type ApprovalRequest struct {
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

type CreateApprovalRequest struct {
	DocumentType string `json:"document_type"`
	DocumentID   string `json:"document_id"`
	Title        string `json:"title,omitempty"`
	ApproverID   string `json:"approver_id,omitempty"`
}

type Notification struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Priority  string `json:"priority"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Link      string `json:"link,omitempty"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// CalculateRequest mirrors the calculate endpoint body. Amounts are decimal strings.
type CalculateRequest struct {
	Amount         string `json:"amount"`
	IncludeTax     bool   `json:"include_tax,omitempty"`
	HasNPWP        *bool  `json:"has_npwp,omitempty"`
	TaxpayerStatus string `json:"taxpayer_status,omitempty"`
	ServiceType    string `json:"service_type,omitempty"`
}

type AISettings struct {
	WorkspaceID                 string `json:"workspace_id,omitempty"`
	AnomalyDetectionEnabled     bool   `json:"anomaly_detection_enabled"`
	PredictiveAnalyticsEnabled  bool   `json:"predictive_analytics_enabled"`
	SmartRecommendationsEnabled bool   `json:"smart_recommendations_enabled"`
	NaturalLanguageQueryEnabled bool   `json:"natural_language_query_enabled"`
	AutoCategorizationEnabled   bool   `json:"auto_categorization_enabled"`
	AIModelPreference           string `json:"ai_model_preference"`
	MaxAICallsPerDay            int    `json:"max_ai_calls_per_day"`
	UpdatedAt                   string `json:"updated_at,omitempty"`
}

// Login posts the password form and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	form := url.Values{"username": {email}, "password": {password}}
	req := request{
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}

	var tok TokenResponse
	if err := c.do(ctx, req, &tok); err != nil {
		return TokenResponse{}, err
	}
	c.SetToken(tok.AccessToken)
	return tok, nil
}

// Signup creates a workspace and keeps the returned token.
func (c *Client) Signup(ctx context.Context, in SignupRequest) (TokenResponse, error) {
	var tok TokenResponse
	if err := c.postJSON(ctx, "/auth/signup", in, &tok); err != nil {
		return TokenResponse{}, err
	}
	c.SetToken(tok.AccessToken)
	return tok, nil
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.get(ctx, "/auth/me", nil, &u)
	return u, err
}

// Calculate runs one calculation; out receives the kind-specific result.
func (c *Client) Calculate(ctx context.Context, kind string, in CalculateRequest, out interface{}) error {
	return c.postJSON(ctx, "/currency-tax/tax/"+url.PathEscape(strings.ToLower(kind))+"/calculate", in, out)
}

// PendingApprovals lists the pending requests the caller can see.
func (c *Client) PendingApprovals(ctx context.Context) ([]ApprovalRequest, error) {
	var items []ApprovalRequest
	if err := c.get(ctx, "/notifications/approvals", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) CreateApproval(ctx context.Context, in CreateApprovalRequest) (ApprovalRequest, error) {
	var out ApprovalRequest
	err := c.postJSON(ctx, "/notifications/approvals", in, &out)
	return out, err
}

func (c *Client) Approve(ctx context.Context, id, comments string) (ApprovalRequest, error) {
	return c.decide(ctx, id, "approve", comments)
}

// Reject fails fast with ErrMissingReason when reason is blank.
func (c *Client) Reject(ctx context.Context, id, reason string) (ApprovalRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return ApprovalRequest{}, ErrMissingReason
	}
	return c.decide(ctx, id, "reject", reason)
}

func (c *Client) decide(ctx context.Context, id, action, comments string) (ApprovalRequest, error) {
	var out ApprovalRequest
	path := fmt.Sprintf("/notifications/approvals/%s/%s", url.PathEscape(id), action)
	err := c.postJSON(ctx, path, map[string]string{"comments": comments}, &out)
	return out, err
}

func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var items []Notification
	if err := c.get(ctx, "/notifications", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		UnreadCount int64 `json:"unread_count"`
	}
	err := c.get(ctx, "/notifications/unread-count", nil, &out)
	return out.UnreadCount, err
}

func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.postJSON(ctx, "/notifications/"+url.PathEscape(id)+"/mark-read", nil, nil)
}

func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.postJSON(ctx, "/notifications/mark-all-read", nil, nil)
}

func (c *Client) AISettings(ctx context.Context) (AISettings, error) {
	var out AISettings
	err := c.get(ctx, "/ai/settings", nil, &out)
	return out, err
}

func (c *Client) UpdateAISettings(ctx context.Context, in AISettings) (AISettings, error) {
	req, err := jsonRequest(http.MethodPut, "/ai/settings", in)
	if err != nil {
		return AISettings{}, err
	}
	var out AISettings
	err = c.do(ctx, req, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	req, err := jsonRequest(http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}
