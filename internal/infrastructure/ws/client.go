package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client wraps one feed connection. gorilla connections allow a single
// concurrent writer, so every write goes through the mutex.
type Client struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	RoomID string
}

func NewClient(conn *websocket.Conn, roomID string) *Client {
	return &Client{conn: conn, RoomID: roomID}
}

func (c *Client) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// WaitClosed blocks until the peer goes away, discarding anything it sends.
// The feed is one-directional; reads exist only to notice disconnects.
func (c *Client) WaitClosed() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
