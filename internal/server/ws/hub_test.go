package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

type chanBus struct {
	mu   sync.Mutex
	subs map[string]chan []byte
}

func newChanBus(channels ...string) *chanBus {
	b := &chanBus{subs: map[string]chan []byte{}}
	for _, ch := range channels {
		b.subs[ch] = make(chan []byte, 8)
	}
	return b
}

func (b *chanBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	ch, ok := b.subs[channel]
	b.mu.Unlock()
	if !ok {
		return errors.New("unknown channel")
	}
	ch <- payload
	return nil
}

func (b *chanBus) Subscribe(_ context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.subs[channel]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	return ch, nil
}

func (b *chanBus) StreamAppend(context.Context, string, []byte) error { return nil }

func (b *chanBus) StreamRead(context.Context, string, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestHub_ForwardsBusMessages(t *testing.T) {
	bus := newChanBus(DefaultChannels...)
	hub := NewHub(bus, Config{Mode: "server"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readEnvelope(t, conn)
	assert.Equal(t, "hello", hello.Channel)
	assert.Contains(t, string(hello.Data), `"mode":"server"`)

	require.NoError(t, bus.Publish(ctx, "briefs", []byte(`{"type":"brief_generated"}`)))
	msg := readEnvelope(t, conn)
	assert.Equal(t, "briefs", msg.Channel)
	assert.JSONEq(t, `{"type":"brief_generated"}`, string(msg.Data))
}

func TestClient_Subscriptions(t *testing.T) {
	c := newClient(nil, nil, "test", []string{"briefs", "positions"})

	c.apply(control{Action: "unsubscribe", Channels: []string{"briefs"}})
	assert.False(t, c.isSubscribed("briefs"))
	assert.True(t, c.isSubscribed("positions"))

	c.apply(control{Action: "subscribe", Channels: []string{"quotes"}})
	assert.True(t, c.isSubscribed("quotes"))

	c.apply(control{Action: "noop", Channels: []string{"other"}})
	assert.False(t, c.isSubscribed("other"))
}

func TestClient_EnqueueAfterClose(t *testing.T) {
	c := newClient(nil, nil, "test", nil)
	assert.True(t, c.enqueue([]byte("a")))
	c.close()
	c.close()
	assert.False(t, c.enqueue([]byte("b")))
}

func TestHub_InitialChannels(t *testing.T) {
	hub := NewHub(newChanBus(), Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, DefaultChannels, hub.initialChannels(""))
	assert.Equal(t, []string{"positions", "briefs"}, hub.initialChannels("positions, briefs,positions,bogus"))
	assert.Empty(t, hub.initialChannels("bogus"))
}

func TestHub_QueryFiltersChannels(t *testing.T) {
	bus := newChanBus(DefaultChannels...)
	hub := NewHub(bus, Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"?channels=positions", nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "hello", readEnvelope(t, conn).Channel)
	assert.Equal(t, 1, hub.Clients())

	require.NoError(t, bus.Publish(ctx, "quotes", []byte(`{"symbol":"EQNR"}`)))
	require.NoError(t, bus.Publish(ctx, "positions", []byte(`{"type":"position_opened"}`)))

	msg := readEnvelope(t, conn)
	assert.Equal(t, "positions", msg.Channel)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://desk.example"})

	r := httptest.NewRequest("GET", "/ws", nil)
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://desk.example")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(r))

	assert.True(t, originChecker(nil)(r))
}
