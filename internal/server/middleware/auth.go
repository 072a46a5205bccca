package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// Auth guards every route except the public paths with a single shared key.
// The key is accepted as "Authorization: Bearer <key>", as X-API-Key, or,
// for /ws only, as the api_key query parameter since browsers cannot set
// headers on a WebSocket handshake. An empty apiKey disables the check.
func Auth(apiKey string, public ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		want := []byte(apiKey)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path, public) {
				next.ServeHTTP(w, r)
				return
			}
			got, ok := credential(r)
			switch {
			case !ok:
				w.Header().Set("WWW-Authenticate", `Bearer realm="swingdesk"`)
				writeJSONError(w, http.StatusUnauthorized, "missing API key")
			case subtle.ConstantTimeCompare([]byte(got), want) != 1:
				w.Header().Set("WWW-Authenticate", `Bearer realm="swingdesk", error="invalid_token"`)
				writeJSONError(w, http.StatusUnauthorized, "invalid API key")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func isPublic(path string, public []string) bool {
	for _, p := range public {
		if path == p {
			return true
		}
	}
	return false
}

func credential(r *http.Request) (string, bool) {
	if scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " "); found && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token, true
		}
	}
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key, true
	}
	if r.URL.Path == "/ws" {
		if key := r.URL.Query().Get("api_key"); key != "" {
			return key, true
		}
	}
	return "", false
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
