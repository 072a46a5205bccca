package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// control is the only message clients send: a change to their channel set.
type control struct {
	Action   string   `json:"action"`
	Channels []string `json:"channels"`
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	remote string
	send   chan []byte

	mu     sync.RWMutex
	subs   map[string]struct{}
	closed bool
}

func newClient(h *Hub, conn *websocket.Conn, remote string, channels []string) *client {
	c := &client{
		hub:    h,
		conn:   conn,
		remote: remote,
		send:   make(chan []byte, sendBufferSize),
		subs:   make(map[string]struct{}, len(channels)),
	}
	for _, ch := range channels {
		c.subs[ch] = struct{}{}
	}
	return c
}

// enqueue queues frame without blocking and reports whether it was accepted.
func (c *client) enqueue(frame []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// close stops the write loop. Safe to call more than once.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subs[channel]
	return ok
}

// apply updates the subscription set. Unknown actions are ignored.
func (c *client) apply(msg control) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range msg.Channels {
		switch msg.Action {
		case "subscribe":
			c.subs[ch] = struct{}{}
		case "unsubscribe":
			delete(c.subs, ch)
		}
	}
}

func (c *client) readLoop() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket closed unexpectedly",
					slog.String("remote", c.remote),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		var msg control
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		c.apply(msg)
	}
}

func (c *client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
