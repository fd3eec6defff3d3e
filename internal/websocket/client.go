package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

// Notifications are small and refetch-triggering, so a shallow buffer is
// enough; a client that cannot keep up just misses a broadcast and catches
// up on its next fetch.
const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Client is one connected UI session.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// Run registers the client with the hub and pumps messages until the
// connection dies, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump discards inbound frames; clients only listen. A read error means
// the connection closed.
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// Hub closed the channel — connection is done
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
