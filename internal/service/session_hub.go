package service

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"examcell_backend/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// 会话事件类型
const (
	EventTreeUpdated   = "tree_updated"
	EventImageUploaded = "image_uploaded"
	EventUploadFailed  = "upload_failed"
	EventSessionClosed = "session_closed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type SessionEvent struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	Data      interface{} `json:"data,omitempty"`
}

// EventPublisher 会话服务通过它向编辑器推送事件
type EventPublisher interface {
	Publish(evt SessionEvent)
}

type hubClient struct {
	hub       *SessionHub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	userID    uint
	limiter   *rate.Limiter
}

// SessionHub 按会话ID维护订阅连接
type SessionHub struct {
	mu      sync.RWMutex
	clients map[string]map[*hubClient]struct{}
	closed  bool
}

func NewSessionHub() *SessionHub {
	return &SessionHub{clients: make(map[string]map[*hubClient]struct{})}
}

func (h *SessionHub) register(c *hubClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	subs := h.clients[c.sessionID]
	if subs == nil {
		subs = make(map[*hubClient]struct{})
		h.clients[c.sessionID] = subs
	}
	subs[c] = struct{}{}
	return true
}

func (h *SessionHub) unregister(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.clients[c.sessionID]
	if _, ok := subs[c]; !ok {
		return
	}
	delete(subs, c)
	close(c.send)
	if len(subs) == 0 {
		delete(h.clients, c.sessionID)
	}
}

// Subscribers 当前订阅某会话的连接数
func (h *SessionHub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *SessionHub) Publish(evt SessionEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		logger.Log.Error("Session event marshal error", zap.Error(err), zap.String("type", evt.Type))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[evt.SessionID] {
		select {
		case c.send <- payload:
		default:
			// 慢连接直接丢弃该条事件
			logger.Log.Warn("Session event dropped", zap.String("sessionId", evt.SessionID), zap.Uint("userId", c.userID))
		}
	}
}

// Stop 关闭全部连接，之后的订阅请求会被拒绝
func (h *SessionHub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	count := 0
	for id, subs := range h.clients {
		for c := range subs {
			close(c.send)
			count++
		}
		delete(h.clients, id)
	}
	h.closed = true
	logger.Log.Info("SessionHub stopped", zap.Int("closedConnections", count))
}

func (c *hubClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("WebSocket unexpected close", zap.Error(err), zap.Uint("userId", c.userID))
			}
			return
		}
		// 客户端只读，收到的消息仅用于保活
		if !c.limiter.Allow() {
			logger.Log.Debug("WebSocket client flooding", zap.Uint("userId", c.userID))
		}
	}
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeSessionWs 升级连接并订阅指定会话的事件
func ServeSessionWs(hub *SessionHub, w http.ResponseWriter, r *http.Request, sessionID string, userID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Uint("userId", userID))
		return
	}
	client := &hubClient{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		sessionID: sessionID,
		userID:    userID,
		limiter:   rate.NewLimiter(rate.Limit(5), 10),
	}
	if !hub.register(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
