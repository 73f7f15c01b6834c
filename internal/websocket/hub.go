package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"taxflow/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

// Event is the envelope pushed to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

// Client represents a single connected WebSocket client
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	userID      uuid.UUID
	workspaceID uuid.UUID
}

type delivery struct {
	workspaceID uuid.UUID
	userID      uuid.UUID // uuid.Nil targets the whole workspace
	message     []byte
}

// Hub maintains the set of active clients and routes events to them. All
// mutation of the client set happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]struct{}
	deliver    chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	upgrader   websocket.Upgrader
	tokens     *token.Manager
	logger     *zap.Logger

	mu        sync.RWMutex
	connected int
}

// NewHub initializes a new WS Hub instance. An empty allowedOrigins list
// accepts every origin.
func NewHub(tokens *token.Manager, allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		clients:    make(map[*Client]struct{}),
		deliver:    make(chan delivery, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		tokens:     tokens,
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Run starts the core dispatch loop; it returns when ctx is cancelled and
// closes every client's send channel on the way out.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.setConnected(len(h.clients))
			h.logger.Debug("websocket client connected", zap.String("user_id", client.userID.String()))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Debug("websocket client disconnected", zap.String("user_id", client.userID.String()))
			}
		case d := <-h.deliver:
			for client := range h.clients {
				if client.workspaceID != d.workspaceID {
					continue
				}
				if d.userID != uuid.Nil && client.userID != d.userID {
					continue
				}
				select {
				case client.send <- d.message:
				default:
					// slow consumer
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.setConnected(len(h.clients))
}

func (h *Hub) setConnected(n int) {
	h.mu.Lock()
	h.connected = n
	h.mu.Unlock()
}

// Connected returns the number of registered clients.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connected
}

// PublishToUser queues an event for every connection of one user.
func (h *Hub) PublishToUser(workspaceID, userID uuid.UUID, eventType string, payload interface{}) {
	h.publish(workspaceID, userID, eventType, payload)
}

// PublishToWorkspace queues an event for every connection in a workspace.
func (h *Hub) PublishToWorkspace(workspaceID uuid.UUID, eventType string, payload interface{}) {
	h.publish(workspaceID, uuid.Nil, eventType, payload)
}

// publish never blocks the caller; events are dropped when the queue is full.
func (h *Hub) publish(workspaceID, userID uuid.UUID, eventType string, payload interface{}) {
	msg, err := json.Marshal(Event{Type: eventType, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		h.logger.Error("failed to encode websocket event", zap.String("type", eventType), zap.Error(err))
		return
	}
	select {
	case h.deliver <- delivery{workspaceID: workspaceID, userID: userID, message: msg}:
	default:
		h.logger.Warn("websocket queue full, dropping event", zap.String("type", eventType))
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump keeps the connection alive and detects disconnects. Client
// messages are ignored.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

// ServeWs authenticates the ?token= query parameter and upgrades the connection.
func (h *Hub) ServeWs(c *gin.Context) {
	raw := c.Query("token")
	if raw == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	principal, err := h.tokens.Parse(raw)
	if err != nil {
		h.logger.Debug("websocket connection rejected", zap.Error(err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:         h,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		userID:      principal.UserID,
		workspaceID: principal.WorkspaceID,
	}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
