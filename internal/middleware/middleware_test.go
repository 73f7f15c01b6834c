package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taxflow/internal/authz"
	"taxflow/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestGuard(t *testing.T) (*Guard, *token.Manager) {
	t.Helper()
	tokens := token.NewManager("middleware-secret", time.Hour)
	a, err := authz.NewDefaultAuthorizer()
	require.NoError(t, err)
	return NewGuard(tokens, a, zap.NewNop()), tokens
}

func issue(t *testing.T, tokens *token.Manager, role string) (string, token.Principal) {
	t.Helper()
	p := token.Principal{UserID: uuid.New(), WorkspaceID: uuid.New(), Role: role}
	raw, err := tokens.Issue(p)
	require.NoError(t, err)
	return raw, p
}

func TestAuthenticate(t *testing.T) {
	guard, tokens := newTestGuard(t)
	raw, p := issue(t, tokens, "manager")

	r := gin.New()
	r.GET("/me", guard.Authenticate(), func(c *gin.Context) {
		got, ok := GetPrincipal(c)
		require.True(t, ok)
		c.String(http.StatusOK, got.UserID.String())
	})

	cases := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"bearer", "Bearer " + raw, "", http.StatusOK},
		{"lowercase scheme", "bearer " + raw, "", http.StatusOK},
		{"cookie", "", raw, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", "", http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tc.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, p.UserID.String(), w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"status":"error"`)
			}
		})
	}
}

func TestAuthorizeDashboard(t *testing.T) {
	guard, tokens := newTestGuard(t)

	r := gin.New()
	r.GET("/dashboards/:role", guard.Authenticate(), guard.AuthorizeDashboard("role"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	do := func(role, dashboard string) int {
		raw, _ := issue(t, tokens, role)
		req := httptest.NewRequest(http.MethodGet, "/dashboards/"+dashboard, nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, do("manager", "manager"))
	assert.Equal(t, http.StatusNoContent, do("admin", "gm"))
	assert.Equal(t, http.StatusForbidden, do("manager", "direksi"))
	assert.Equal(t, http.StatusForbidden, do("staff", "staff"))
}

func TestAuthorizeWithoutPrincipal(t *testing.T) {
	guard, _ := newTestGuard(t)
	r := gin.New()
	r.GET("/x", guard.Authorize(authz.ObjectAudit, authz.ActionRead), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "/bad", entries[1].ContextMap()["path"])
	assert.EqualValues(t, 400, entries[1].ContextMap()["status"])
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.Len())
}
