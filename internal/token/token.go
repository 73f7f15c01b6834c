// Package token issues and verifies the HS256 access tokens used by the API
// and the websocket endpoint.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TypeBearer is the token_type returned alongside every access token.
const TypeBearer = "bearer"

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by an access token. Subject holds the user id.
type Claims struct {
	WorkspaceID string `json:"workspace_id"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller extracted from a token.
type Principal struct {
	UserID      uuid.UUID
	WorkspaceID uuid.UUID
	Role        string
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for p that expires after the configured TTL.
func (m *Manager) Issue(p Principal) (string, error) {
	now := m.now()
	claims := Claims{
		WorkspaceID: p.WorkspaceID.String(),
		Role:        p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry and returns the principal.
func (m *Manager) Parse(raw string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	workspaceID, err := uuid.Parse(claims.WorkspaceID)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: bad workspace", ErrInvalidToken)
	}
	if claims.Role == "" {
		return Principal{}, fmt.Errorf("%w: role not found in token", ErrInvalidToken)
	}

	return Principal{UserID: userID, WorkspaceID: workspaceID, Role: claims.Role}, nil
}
