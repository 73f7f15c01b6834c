package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taxflow/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Hub, *token.Manager, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := token.NewManager("ws-secret", time.Hour)
	hub := NewHub(tokens, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", hub.ServeWs)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, tokens, srv
}

func dial(t *testing.T, srv *httptest.Server, tok string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitConnected(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Connected() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestServeWsRejectsMissingOrBadToken(t *testing.T) {
	_, _, srv := newTestServer(t)

	for _, q := range []string{"", "?token=bogus"} {
		resp, err := http.Get(srv.URL + "/ws" + q)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestPublishToUserOnlyReachesThatUser(t *testing.T) {
	hub, tokens, srv := newTestServer(t)

	ws := uuid.New()
	alice := token.Principal{UserID: uuid.New(), WorkspaceID: ws, Role: "manager"}
	bob := token.Principal{UserID: uuid.New(), WorkspaceID: ws, Role: "staff"}

	aliceTok, err := tokens.Issue(alice)
	require.NoError(t, err)
	bobTok, err := tokens.Issue(bob)
	require.NoError(t, err)

	aliceConn := dial(t, srv, aliceTok)
	bobConn := dial(t, srv, bobTok)
	waitConnected(t, hub, 2)

	hub.PublishToUser(ws, alice.UserID, "notification.created", map[string]string{"title": "hello"})

	_ = aliceConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := aliceConn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, "notification.created", ev.Type)

	_ = bobConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = bobConn.ReadMessage()
	assert.Error(t, err)
}

func TestPublishToWorkspaceSkipsOtherTenants(t *testing.T) {
	hub, tokens, srv := newTestServer(t)

	ws := uuid.New()
	inside, err := tokens.Issue(token.Principal{UserID: uuid.New(), WorkspaceID: ws, Role: "gm"})
	require.NoError(t, err)
	outside, err := tokens.Issue(token.Principal{UserID: uuid.New(), WorkspaceID: uuid.New(), Role: "gm"})
	require.NoError(t, err)

	in := dial(t, srv, inside)
	out := dial(t, srv, outside)
	waitConnected(t, hub, 2)

	hub.PublishToWorkspace(ws, "approval.updated", map[string]string{"status": "approved"})

	_ = in.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = in.ReadMessage()
	require.NoError(t, err)

	_ = out.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = out.ReadMessage()
	assert.Error(t, err)
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub, tokens, srv := newTestServer(t)

	tok, err := tokens.Issue(token.Principal{UserID: uuid.New(), WorkspaceID: uuid.New(), Role: "admin"})
	require.NoError(t, err)

	conn := dial(t, srv, tok)
	waitConnected(t, hub, 1)

	require.NoError(t, conn.Close())
	waitConnected(t, hub, 0)
}
