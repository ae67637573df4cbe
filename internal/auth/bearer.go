// Package auth guards the HTTP transport with a static bearer token
package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// Bearer checks "Authorization: Bearer <token>" against a configured token.
// An empty configured token disables the check.
type Bearer struct {
	token string
	log   *slog.Logger
}

func NewBearer(token string, logger *slog.Logger) *Bearer {
	return &Bearer{token: token, log: logger}
}

// Enabled reports whether a token is configured
func (b *Bearer) Enabled() bool {
	return b.token != ""
}

// IsAuthorized reports whether the request carries the configured token
func (b *Bearer) IsAuthorized(r *http.Request) bool {
	if !b.Enabled() {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(b.token)) == 1
}

// Middleware rejects unauthorized requests with 401
func (b *Bearer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !b.IsAuthorized(r) {
			b.log.Warn("unauthorized request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
