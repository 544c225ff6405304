package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"eventphoto-api/pkg/logger"
)

// Message types pushed to clients
const (
	MessageTypeBackfillProgress  = "backfill:progress"
	MessageTypeBackfillCompleted = "backfill:completed"
	MessageTypePong              = "pong"
)

// Frame opcodes, matching RFC 6455
const (
	TextMessage = 1
)

const sendBuffer = 32

// Connection is the part of a websocket connection the manager writes to
type Connection interface {
	WriteMessage(messageType int, data []byte) error
}

type Message struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

type client struct {
	conn   Connection
	userID string
	send   chan []byte
}

// Manager tracks connected clients and fans messages out to them
type Manager struct {
	mu      sync.RWMutex
	clients map[Connection]*client
}

func NewManager() *Manager {
	return &Manager{clients: make(map[Connection]*client)}
}

// Register starts a writer for conn. Call Unregister when the read loop ends.
func (m *Manager) Register(conn Connection, userID string) {
	c := &client{conn: conn, userID: userID, send: make(chan []byte, sendBuffer)}

	m.mu.Lock()
	m.clients[conn] = c
	total := len(m.clients)
	m.mu.Unlock()

	go m.writeLoop(c)

	logger.WebSocket("client_registered", "Client registered", map[string]interface{}{
		"user_id": userID,
		"clients": total,
	})
}

func (m *Manager) Unregister(conn Connection) {
	m.mu.Lock()
	c, ok := m.clients[conn]
	if ok {
		delete(m.clients, conn)
		close(c.send)
	}
	total := len(m.clients)
	m.mu.Unlock()

	if ok {
		logger.WebSocket("client_unregistered", "Client unregistered", map[string]interface{}{
			"user_id": c.userID,
			"clients": total,
		})
	}
}

// Broadcast sends a typed message to every client. Clients whose buffer is
// full miss the message.
func (m *Manager) Broadcast(messageType string, data map[string]interface{}) {
	payload, err := encode(messageType, data)
	if err != nil {
		logger.WebSocketError("broadcast_encode", "Failed to encode message", err, map[string]interface{}{"type": messageType})
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clients {
		select {
		case c.send <- payload:
		default:
			logger.Warn(logger.CategoryWebSocket, "broadcast_dropped", "Client buffer full, message dropped", map[string]interface{}{
				"user_id": c.userID,
				"type":    messageType,
			})
		}
	}
}

// HandleMessage answers client pings; other frames are ignored
func (m *Manager) HandleMessage(conn Connection, message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil || msg.Type != "ping" {
		return
	}

	payload, err := encode(MessageTypePong, nil)
	if err != nil {
		logger.WebSocketError("pong_encode", "Failed to encode message", err, nil)
		return
	}

	// Held across the send so Unregister cannot close c.send underneath it
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[conn]
	if !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) writeLoop(c *client) {
	for payload := range c.send {
		if err := c.conn.WriteMessage(TextMessage, payload); err != nil {
			logger.WebSocketError("write_message", "WebSocket write error", err, map[string]interface{}{"user_id": c.userID})
			m.Unregister(c.conn)
			// Drain so Unregister's close ends the loop
			for range c.send {
			}
			return
		}
	}
}

func encode(messageType string, data map[string]interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}
