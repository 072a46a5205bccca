package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/swingdesk/internal/domain"
	"github.com/alanyoungcy/swingdesk/internal/service"
)

// replayStreams maps the public stream name onto its bus key.
var replayStreams = map[string]string{
	"briefs":    service.StreamBriefs,
	"positions": service.StreamPositions,
}

// EventHandler replays bus history so a dashboard that was offline can
// catch up before switching to the live WebSocket feed.
type EventHandler struct {
	bus    domain.SignalBus
	logger *slog.Logger
}

func NewEventHandler(bus domain.SignalBus, logger *slog.Logger) *EventHandler {
	return &EventHandler{bus: bus, logger: logHandler(logger, "events")}
}

type replayedEvent struct {
	ID    string          `json:"id"`
	Event json.RawMessage `json:"event"`
}

// Replay returns stream entries after the given ID, oldest first. The last
// returned id is the cursor for the next call.
// GET /api/events/{stream}?after=0&limit=100
func (h *EventHandler) Replay(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "stream")
	key, ok := replayStreams[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown stream "+strconv.Quote(name))
		return
	}

	after := r.URL.Query().Get("after")
	if after == "" {
		after = "0"
	}
	limit := queryInt(r, "limit", 100, 1000)
	if limit == 0 {
		limit = 100
	}

	msgs, err := h.bus.StreamRead(r.Context(), key, after, limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "read event stream")
		return
	}

	events := make([]replayedEvent, 0, len(msgs))
	for _, m := range msgs {
		if !json.Valid(m.Payload) {
			continue
		}
		events = append(events, replayedEvent{ID: m.ID, Event: m.Payload})
	}
	resp := map[string]any{"stream": name, "events": events}
	if n := len(events); n > 0 {
		resp["next"] = events[n-1].ID
	}
	writeJSON(w, http.StatusOK, resp)
}
