package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// Pub/Sub channels and their replay streams.
const (
	ChannelBriefs    = "briefs"
	ChannelPositions = "positions"
	ChannelQuotes    = "quotes"

	StreamBriefs    = "stream:briefs"
	StreamPositions = "stream:positions"
)

// Event is the envelope of every bus message.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// publish sends an event on channel and, when stream is set, appends it to
// the stream. Bus failures are logged and never fail the caller.
func publish(ctx context.Context, bus domain.SignalBus, logger *slog.Logger, channel, stream string, evt Event) {
	if bus == nil {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		logger.WarnContext(ctx, "marshal event failed",
			slog.String("type", evt.Type),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := bus.Publish(ctx, channel, payload); err != nil {
		logger.WarnContext(ctx, "publish event failed",
			slog.String("channel", channel),
			slog.String("type", evt.Type),
			slog.String("error", err.Error()),
		)
	}
	if stream == "" {
		return
	}
	if err := bus.StreamAppend(ctx, stream, payload); err != nil {
		logger.WarnContext(ctx, "stream append failed",
			slog.String("stream", stream),
			slog.String("type", evt.Type),
			slog.String("error", err.Error()),
		)
	}
}

// audit writes an audit entry, logging instead of failing.
func audit(ctx context.Context, store domain.AuditStore, logger *slog.Logger, event string, detail map[string]any) {
	if store == nil {
		return
	}
	if err := store.Log(ctx, event, detail); err != nil {
		logger.WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
