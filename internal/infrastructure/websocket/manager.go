package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperrors "rxfirebase/pkg/errors"
	"rxfirebase/pkg/logger"
	"rxfirebase/pkg/stream"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message types sent to watchers.
const (
	MessageTypeValue = "value"
	MessageTypeError = "error"
)

type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// Client is one watching connection.
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Conn:   conn,
	}
}

// Manager tracks the open watch connections so they can be closed on
// shutdown.
type Manager struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*Client),
	}
}

func (m *Manager) register(client *Client) {
	m.mutex.Lock()
	m.clients[client.ID] = client
	m.mutex.Unlock()
	logger.Debug("Watch client registered: %s (user %s)", client.ID, client.UserID)
}

func (m *Manager) unregister(client *Client) {
	m.mutex.Lock()
	delete(m.clients, client.ID)
	m.mutex.Unlock()
	logger.Debug("Watch client unregistered: %s", client.ID)
}

// Count returns the number of open connections.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// CloseAll sends a close frame to every client. Their pumps then unsubscribe
// and return.
func (m *Manager) CloseAll() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, client := range m.clients {
		client.Conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		client.Conn.Close()
	}
}

// Pump subscribes to s and writes every value to the client until the
// stream terminates or the peer goes away, which unsubscribes. It returns
// when the connection is done and has been closed.
func Pump[T any](ctx context.Context, m *Manager, client *Client, s *stream.Stream[T]) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.register(client)
	defer m.unregister(client)
	defer client.Conn.Close()

	go client.readPump(cancel)

	sub := s.Subscribe(ctx)
	defer sub.Unsubscribe()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case v, ok := <-sub.Values():
			if !ok {
				client.finish(ctx, sub.Err())
				return
			}
			if err := client.write(WSMessage{Type: MessageTypeValue, Data: v}); err != nil {
				logger.Warn("Watch client %s: write failed: %v", client.ID, err)
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards incoming messages and calls done when the peer closes
// or stops answering pings.
func (c *Client) readPump(done context.CancelFunc) {
	defer done()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Watch client %s: %v", c.ID, err)
			}
			return
		}
	}
}

func (c *Client) write(message WSMessage) error {
	message.Timestamp = time.Now().Format(time.RFC3339)
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(websocket.TextMessage, payload)
}

// finish reports a stream failure, then closes the connection normally.
func (c *Client) finish(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		data := map[string]string{"error": err.Error()}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			data = map[string]string{"code": appErr.Code, "error": appErr.Message}
		}
		c.write(WSMessage{Type: MessageTypeError, Data: data})
	}
	c.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
