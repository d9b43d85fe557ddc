package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"errorhelper/internal/models"
)

const writeWait = 10 * time.Second

// Client is a websocket-backed Sender.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
	hook func(models.Outbound)
}

func NewClient(conn *websocket.Conn) *Client { return &Client{conn: conn} }

// SetSendHook replaces the websocket writer (used in tests).
func (c *Client) SetSendHook(fn func(models.Outbound)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

func (c *Client) Send(msg models.Outbound) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(msg)
		return nil
	}
	if c.conn == nil {
		return nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

// Serve reads inbound messages from conn until it closes and dispatches them
// to panel. A normal close returns nil.
func (b *Bridge) Serve(ctx context.Context, conn *websocket.Conn, panel *Panel) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var msg models.Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			panel.Post(notify(models.LevelError, "malformed_message"))
			continue
		}

		if err := b.Dispatch(ctx, panel, msg); err != nil && !errors.Is(err, ErrEmptyInput) {
			b.logger.Warn("rejected webview message",
				zap.String("panel", panel.ID),
				zap.String("command", msg.Command),
				zap.Error(err))
		}
	}
}
