package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// AuditHandler serves the audit log.
type AuditHandler struct {
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(audit domain.AuditStore, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: logHandler(logger, "audit")}
}

// ListAudit returns audit entries, newest first.
// GET /api/audit?event=position.&limit=50&offset=0
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	filter := domain.AuditFilter{
		ListOpts: parseListOpts(r),
		Event:    r.URL.Query().Get("event"),
	}
	entries, err := h.audit.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "list audit log")
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
