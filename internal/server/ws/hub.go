// Package ws pushes bus events (briefs, position changes, quotes) to
// dashboard clients over WebSocket. Frames are JSON envelopes keyed by bus
// channel.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// DefaultChannels are the bus channels forwarded to clients.
var DefaultChannels = []string{"briefs", "positions", "quotes"}

// envelope wraps every frame sent to clients.
type envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// Config carries the hub's channel set and the metadata reported in the
// hello frame.
type Config struct {
	Mode      string
	Channels  []string
	StartedAt time.Time
	// AllowedOrigins limits browser origins. Empty allows all.
	AllowedOrigins []string
}

// Hub relays bus messages to every connected client subscribed to the
// message's channel. Slow clients lose frames rather than stall the bus.
type Hub struct {
	bus       domain.SignalBus
	upgrader  websocket.Upgrader
	channels  []string
	mode      string
	startedAt time.Time
	logger    *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub reading from bus.
func NewHub(bus domain.SignalBus, cfg Config, logger *slog.Logger) *Hub {
	channels := cfg.Channels
	if len(channels) == 0 {
		channels = DefaultChannels
	}
	startedAt := cfg.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	return &Hub{
		bus:       bus,
		channels:  slices.Clone(channels),
		mode:      cfg.Mode,
		startedAt: startedAt,
		logger:    logger.With(slog.String("component", "ws_hub")),
		clients:   make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		return slices.ContainsFunc(allowed, func(o string) bool {
			return o == "*" || strings.EqualFold(o, origin)
		})
	}
}

// Run relays every configured channel until ctx is cancelled, then
// disconnects all clients. A channel whose subscription fails is logged and
// skipped; the others keep flowing.
func (h *Hub) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range h.channels {
		g.Go(func() error {
			h.relay(gctx, ch)
			return nil
		})
	}
	_ = g.Wait()

	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
	h.mu.Unlock()
	return ctx.Err()
}

func (h *Hub) relay(ctx context.Context, channel string) {
	msgs, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		h.logger.Error("bus subscribe failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	h.logger.Debug("relaying channel", slog.String("channel", channel))

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-msgs:
			if !ok {
				h.logger.Warn("bus subscription closed", slog.String("channel", channel))
				return
			}
			h.broadcast(channel, data)
		}
	}
}

// broadcast wraps data in an envelope and queues it on every subscribed
// client.
func (h *Hub) broadcast(channel string, data []byte) {
	if !json.Valid(data) {
		h.logger.Warn("dropping non-JSON bus message", slog.String("channel", channel))
		return
	}
	frame, err := json.Marshal(envelope{Channel: channel, Data: data})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.isSubscribed(channel) && !c.enqueue(frame) {
			h.logger.Warn("client send buffer full, frame dropped",
				slog.String("channel", channel),
				slog.String("remote", c.remote),
			)
		}
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades the request and registers the client.
// GET /ws?channels=briefs,positions
//
// Without a channels parameter the client receives every hub channel.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := newClient(h, conn, r.RemoteAddr, h.initialChannels(r.URL.Query().Get("channels")))
	if !h.add(c) {
		_ = conn.Close()
		return
	}
	c.enqueue(h.helloFrame())

	go c.writeLoop()
	go c.readLoop()
}

// initialChannels filters the comma separated request list down to channels
// the hub relays.
func (h *Hub) initialChannels(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return h.channels
	}
	var out []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if slices.Contains(h.channels, name) && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.logger.Info("client connected",
		slog.String("remote", c.remote),
		slog.Int("clients", len(h.clients)),
	)
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.close()
	h.logger.Info("client disconnected",
		slog.String("remote", c.remote),
		slog.Int("clients", len(h.clients)),
	)
}

// helloFrame lets clients mark the connection healthy before any event flows.
func (h *Hub) helloFrame() []byte {
	data, _ := json.Marshal(map[string]any{
		"mode":           h.mode,
		"channels":       h.channels,
		"uptime_seconds": max(0, int64(time.Since(h.startedAt).Seconds())),
	})
	frame, _ := json.Marshal(envelope{Channel: "hello", Data: data})
	return frame
}
