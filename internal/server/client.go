package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// client is one connected renderer. Only readPump touches dragging.
type client struct {
	id       uuid.UUID
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	dragging map[string]bool
}

// readPump handles inbound messages until the connection fails
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log("[SERVER] Client %s read error: %v", c.id, err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		c.hub.handle(c, data)
	}
}

// writePump sends queued frames and keepalive pings. It exits when the
// hub closes the send channel or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.hub.log("[SERVER] Client %s write error: %v", c.id, err)
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
