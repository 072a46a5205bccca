package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

const maxBodyBytes = 1 << 20

// writeJSON answers 500 instead when v cannot be encoded.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status, data = http.StatusInternalServerError, []byte(`{"error":"internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// statusFor maps domain sentinels onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPosition):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrLockHeld):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeServiceError answers with the status matching err. Server-side
// failures are logged and reported as "failed to <action>" without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, action string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "handler: "+action+" failed",
			slog.String("error", err.Error()),
		)
		writeError(w, status, "failed to "+action)
		return
	}
	writeError(w, status, err.Error())
}

// queryInt reads a non-negative integer query parameter. Missing or
// malformed values yield def; the result is capped at limit when limit > 0.
func queryInt(r *http.Request, name string, def, limit int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		v = def
	}
	if limit > 0 {
		v = min(v, limit)
	}
	return v
}

// parseListOpts reads limit (default 50, at most 500) and offset.
func parseListOpts(r *http.Request) domain.ListOpts {
	limit := queryInt(r, "limit", 50, 500)
	if limit == 0 {
		limit = 50
	}
	return domain.ListOpts{Limit: limit, Offset: queryInt(r, "offset", 0, 0)}
}

func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}
