// Package notify pushes briefs and position events to chat channels. Each
// event type can be switched on or off so operators only hear what they care
// about.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// Event types understood by the notifier.
const (
	EventBrief          = "brief"
	EventUrgentExit     = "urgent_exit"
	EventPositionOpened = "position_opened"
	EventPositionClosed = "position_closed"
)

// Sender is one delivery channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier fans a notification out to every Sender.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. Only events listed in events are
// forwarded by Notify; an empty list allows everything.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether event would be forwarded.
func (n *Notifier) Enabled(event string) bool {
	return len(n.events) == 0 || n.events[event]
}

// Notify sends title and message to all senders if event is enabled.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if !n.Enabled(event) {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// NotifyBrief sends the rendered brief and, separately, an urgent alert for
// every critical exit so that it is not buried in the daily digest.
func (n *Notifier) NotifyBrief(ctx context.Context, b domain.Brief, markdown string) error {
	var errs []error
	title := fmt.Sprintf("Daily brief %s", b.GeneratedAt.Format("2006-01-02"))
	if err := n.Notify(ctx, EventBrief, title, markdown); err != nil {
		errs = append(errs, err)
	}
	for _, x := range b.Exits {
		if x.Urgency < domain.UrgencyCritical {
			continue
		}
		msg := fmt.Sprintf("%s %s: %s", x.Recommendation, x.Symbol, x.Reason)
		if err := n.Notify(ctx, EventUrgentExit, "Exit now: "+x.Symbol, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dispatch delivers to every sender; one failing sender does not stop the
// rest.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// truncate cuts s to at most limit runes, marking the cut.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	const marker = "\n…"
	return string(r[:limit-len([]rune(marker))]) + marker
}
