package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

const (
	defaultStreamMaxLen int64 = 10000
	subscribeBuffer           = 64
	payloadField              = "payload"
)

// SignalBus carries brief and position events. Pub/Sub gives live fan-out
// to the WebSocket hub and chat relay; a capped stream per event family
// keeps history for replay.
type SignalBus struct {
	rdb    *redis.Client
	maxLen int64
}

// NewSignalBus creates a SignalBus. Streams are trimmed to roughly maxLen
// entries; a non-positive value uses 10000.
func NewSignalBus(c *Client, maxLen int64) *SignalBus {
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &SignalBus{rdb: c.rdb, maxLen: maxLen}
}

func (sb *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := sb.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe confirms the subscription with Redis before returning, so a
// message published after Subscribe returns is never missed. Glob patterns
// use PSUBSCRIBE. The channel closes when ctx is done.
func (sb *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	subscribe := sb.rdb.Subscribe
	if strings.ContainsAny(channel, "*?[") {
		subscribe = sb.rdb.PSubscribe
	}
	ps := subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, subscribeBuffer)
	go forward(ctx, ps, out)
	return out, nil
}

func forward(ctx context.Context, ps *redis.PubSub, out chan<- []byte) {
	defer close(out)
	defer ps.Close()

	in := ps.Channel(redis.WithChannelSize(subscribeBuffer))
	for {
		var msg *redis.Message
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			msg = m
		}
		select {
		case out <- []byte(msg.Payload):
		case <-ctx.Done():
			return
		}
	}
}

// StreamAppend adds payload to stream with approximate MAXLEN trimming.
func (sb *SignalBus) StreamAppend(ctx context.Context, stream string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: stream,
		MaxLen: sb.maxLen,
		Approx: true,
		Values: []any{payloadField, payload},
	}
	if err := sb.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: stream append %s: %w", stream, err)
	}
	return nil
}

// StreamRead returns up to count entries after lastID without blocking. "0"
// reads from the beginning. Entries without a payload field are skipped.
func (sb *SignalBus) StreamRead(ctx context.Context, stream string, lastID string, count int) ([]domain.StreamMessage, error) {
	streams, err := sb.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   int64(count),
		Block:   -1,
	}).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return []domain.StreamMessage{}, nil
	case err != nil:
		return nil, fmt.Errorf("redis: stream read %s: %w", stream, err)
	}

	out := []domain.StreamMessage{}
	for _, s := range streams {
		for _, m := range s.Messages {
			if p, ok := payloadOf(m.Values); ok {
				out = append(out, domain.StreamMessage{ID: m.ID, Payload: p})
			}
		}
	}
	return out, nil
}

func payloadOf(values map[string]any) ([]byte, bool) {
	switch v := values[payloadField].(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	}
	return nil, false
}

var _ domain.SignalBus = (*SignalBus)(nil)
