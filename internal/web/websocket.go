package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/statuswatch/statuswatch/internal/metrics"
)

// WebSocket message types.
const (
	MessageTypeSnapshot  = "snapshot"
	MessageTypeHeartbeat = "heartbeat"
)

// WSMessage is the envelope pushed to subscribers.
type WSMessage struct {
	Type      string          `json:"type"`
	Snapshot  *StatusSnapshot `json:"snapshot,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// wsHub tracks subscribers and fans snapshots out to them.
type wsHub struct {
	server   *Server
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*wsConn]struct{}
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSHub(s *Server) *wsHub {
	h := &wsHub{
		server: s,
		conns:  make(map[*wsConn]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin allows requests without an Origin header, any origin when the
// allow list contains "*" or is empty, and listed origins otherwise.
func (h *wsHub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	allowed := h.server.opts.AllowedOrigins
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func (h *wsHub) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.server.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &wsConn{conn: conn}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	metrics.WebSocketConnections.Set(float64(n))

	h.server.logger.Info("websocket subscriber connected", zap.Int("subscribers", n))

	go h.heartbeat(c)
	h.readLoop(c)
}

// readLoop drains client frames until the connection drops. Subscribers are
// push-only; inbound content is discarded.
func (h *wsHub) readLoop(c *wsConn) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.server.logger.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
	}
}

func (h *wsHub) heartbeat(c *wsConn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		if err := c.send(&WSMessage{Type: MessageTypeHeartbeat, Timestamp: time.Now().UTC()}); err != nil {
			return
		}
	}
}

// broadcast pushes a snapshot to every subscriber, dropping dead ones.
func (h *wsHub) broadcast(snapshot *StatusSnapshot) {
	msg := &WSMessage{
		Type:      MessageTypeSnapshot,
		Snapshot:  snapshot,
		Timestamp: time.Now().UTC(),
	}

	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.send(msg); err != nil {
			h.drop(c)
		}
	}
}

func (h *wsHub) drop(c *wsConn) {
	h.mu.Lock()
	if _, ok := h.conns[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()

	_ = c.conn.Close()
	metrics.WebSocketConnections.Set(float64(n))
}

func (h *wsHub) closeAll() {
	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*wsConn]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.conn.Close()
	}
	metrics.WebSocketConnections.Set(0)
}

func (c *wsConn) send(msg *WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(msg)
}
