package api

import (
	"net/http"
	"strconv"
	"sync"

	"cashpoints_miniapp/internal/model"
	"cashpoints_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// NotificationHub keeps one websocket connection per user and pushes
// notifications to it as they are published. It satisfies
// service.Notifier.
type NotificationHub struct {
	clients map[int64]*wsClient
	mu      sync.RWMutex
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients: make(map[int64]*wsClient),
	}
}

func NewNotificationHubRoutes(handler *gin.RouterGroup, hub *NotificationHub) {
	h := handler.Group("/ws")

	h.GET("/:telegram_id", hub.handleWebSocket)
}

func (h *NotificationHub) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	userID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{conn: conn}

	h.mu.Lock()
	if old, ok := h.clients[userID]; ok {
		old.conn.Close()
	}
	h.clients[userID] = client
	h.mu.Unlock()

	go h.readLoop(userID, client)
}

// readLoop drains incoming frames so pings and close messages are
// processed; the hub never expects client payloads.
func (h *NotificationHub) readLoop(userID int64, client *wsClient) {
	log := logger.Logger()

	defer func() {
		client.conn.Close()
		h.mu.Lock()
		if h.clients[userID] == client {
			delete(h.clients, userID)
		}
		h.mu.Unlock()
	}()

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Info("websocket unexpected close",
					zap.Int64("telegram_id", userID),
					zap.Error(err))
			}
			return
		}
	}
}

func (h *NotificationHub) Notify(n *model.Notification) {
	log := logger.Logger()

	h.mu.RLock()
	client, ok := h.clients[n.UserID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	msg := Message{
		Type: "notification",
		Payload: map[string]any{
			"notification_id": n.NotificationID,
			"type":            n.Type,
			"title":           n.Title,
			"message":         n.Message,
			"created_at":      n.CreatedAt,
		},
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal notification", zap.Error(err))
		return
	}

	if err := client.send(payload); err != nil {
		log.Info("failed to push notification",
			zap.Int64("telegram_id", n.UserID),
			zap.Error(err))
	}
}
