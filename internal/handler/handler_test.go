package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taxflow/internal/authz"
	"taxflow/internal/middleware"
	"taxflow/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

type testServer struct {
	t      *testing.T
	ctrl   *gomock.Controller
	router *gin.Engine
	tokens *token.Manager
	guard  *middleware.Guard
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tokens := token.NewManager("handler-secret", time.Hour)
	a, err := authz.NewDefaultAuthorizer()
	require.NoError(t, err)
	return &testServer{
		t:      t,
		ctrl:   gomock.NewController(t),
		router: gin.New(),
		tokens: tokens,
		guard:  middleware.NewGuard(tokens, a, zap.NewNop()),
	}
}

func (s *testServer) login(role string) (string, token.Principal) {
	s.t.Helper()
	p := token.Principal{UserID: uuid.New(), WorkspaceID: uuid.New(), Role: role}
	raw, err := s.tokens.Issue(p)
	require.NoError(s.t, err)
	return raw, p
}

// do sends body as JSON unless contentType says otherwise. An empty bearer
// sends no Authorization header.
func (s *testServer) do(method, path, bearer, body string, contentType ...string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		ct := "application/json"
		if len(contentType) > 0 {
			ct = contentType[0]
		}
		req.Header.Set("Content-Type", ct)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}
