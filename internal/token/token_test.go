package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("secret", time.Hour)
	p := Principal{UserID: uuid.New(), WorkspaceID: uuid.New(), Role: "manager"}

	raw, err := m.Issue(p)
	require.NoError(t, err)

	got, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestParseRejects(t *testing.T) {
	m := NewManager("secret", time.Hour)
	p := Principal{UserID: uuid.New(), WorkspaceID: uuid.New(), Role: "admin"}

	t.Run("wrong secret", func(t *testing.T) {
		raw, err := NewManager("other", time.Hour).Issue(p)
		require.NoError(t, err)
		_, err = m.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewManager("secret", time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		raw, err := old.Issue(p)
		require.NoError(t, err)
		_, err = m.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing role", func(t *testing.T) {
		raw, err := m.Issue(Principal{UserID: p.UserID, WorkspaceID: p.WorkspaceID})
		require.NoError(t, err)
		_, err = m.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": p.UserID.String()}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
