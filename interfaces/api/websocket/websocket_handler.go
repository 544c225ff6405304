package websocket

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	websocketManager "eventphoto-api/infrastructure/websocket"
	"eventphoto-api/pkg/logger"
	"eventphoto-api/pkg/utils"
)

type WebSocketHandler struct {
	manager *websocketManager.Manager
}

func NewWebSocketHandler(manager *websocketManager.Manager) *WebSocketHandler {
	return &WebSocketHandler{manager: manager}
}

func (h *WebSocketHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	var userID string

	// Set by the optional auth middleware
	if user, ok := c.Locals("user").(*utils.UserContext); ok && user != nil {
		userID = user.ID
		logger.WebSocket("authenticated_connected", "Authenticated user connected", map[string]interface{}{"user_id": userID})
	} else {
		userID = "anonymous-" + uuid.NewString()
		logger.WebSocket("anonymous_connected", "Anonymous user connected", map[string]interface{}{"user_id": userID})
	}

	h.manager.Register(c, userID)
	defer h.manager.Unregister(c)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			logger.WebSocket("read_closed", "WebSocket connection closed", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
			return
		}

		if messageType == websocket.TextMessage {
			h.manager.HandleMessage(c, message)
		}
	}
}
