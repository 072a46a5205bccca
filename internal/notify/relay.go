package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

type positionEvent struct {
	Type string          `json:"type"`
	Data domain.Position `json:"data"`
}

// RelayPositions forwards position_opened and position_closed events from the
// bus channel to the chat senders until ctx is cancelled.
func (n *Notifier) RelayPositions(ctx context.Context, bus domain.SignalBus, channel string) error {
	ch, err := bus.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("notify: subscribe %s: %w", channel, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-ch:
			if !ok {
				return nil
			}
			n.relayOne(ctx, payload)
		}
	}
}

func (n *Notifier) relayOne(ctx context.Context, payload []byte) {
	var evt positionEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		n.logger.WarnContext(ctx, "undecodable position event", slog.String("error", err.Error()))
		return
	}
	p := evt.Data
	var title, msg string
	switch evt.Type {
	case EventPositionOpened:
		title = "Opened " + p.Symbol
		msg = fmt.Sprintf("%s %g @ %.2f, stop %.2f, target %.2f (%s)",
			p.Symbol, p.Quantity, p.EntryPrice, p.StopLoss, p.Target, p.Category)
	case EventPositionClosed:
		title = fmt.Sprintf("%s %s", p.Status, p.Symbol)
		msg = p.Symbol + " closed"
		if p.ExitPrice != nil {
			msg = fmt.Sprintf("%s exit @ %.2f", p.Symbol, *p.ExitPrice)
		}
		if p.RealizedPnL != nil {
			msg += fmt.Sprintf(", P&L %+.2f", *p.RealizedPnL)
		}
	default:
		return
	}
	if err := n.Notify(ctx, evt.Type, title, msg); err != nil {
		n.logger.WarnContext(ctx, "position notification failed",
			slog.String("symbol", p.Symbol),
			slog.String("error", err.Error()),
		)
	}
}
