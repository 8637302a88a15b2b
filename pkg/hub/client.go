package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

// Dashboard connection timing. A dashboard that answers no ping within
// idleTimeout is dropped; keepalive stays under it.
const (
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	keepalive    = idleTimeout * 9 / 10

	// Dashboards only watch results, so inbound frames stay small.
	maxInbound = 4 * 1024

	// Results queued per dashboard before the hub gives up on it.
	sendBuffer = 64
)

// Client is one dashboard watching navigation results.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient attaches conn to the hub. It returns nil once the hub has
// stopped; the caller then owns conn.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{hub: hub, conn: conn, send: make(chan Message, sendBuffer)}
	select {
	case hub.register <- c:
		return c
	case <-hub.done:
		return nil
	}
}

// Run streams results to the dashboard until either side hangs up.
func (c *Client) Run() {
	go c.deliver()
	c.watch()
}

// watch discards inbound frames and detaches the dashboard when the
// connection goes quiet or fails.
func (c *Client) watch() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	extend := func() { c.conn.SetReadDeadline(time.Now().Add(idleTimeout)) }
	c.conn.SetReadLimit(maxInbound)
	extend()
	c.conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// deliver is the connection's only writer.
func (c *Client) deliver() {
	ping := time.NewTicker(keepalive)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return c.conn.WriteMessage(kind, data)
	}

	for {
		var err error
		select {
		case result, open := <-c.send:
			if !open {
				// Dropped by the hub: stopped, or this dashboard fell behind.
				write(websocket.CloseMessage, nil)
				return
			}
			err = write(websocket.TextMessage, result.Data)
		case <-ping.C:
			err = write(websocket.PingMessage, nil)
		}
		if err != nil {
			return
		}
	}
}
