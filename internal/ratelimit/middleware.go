package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/bizdir/internal/logging"
)

// KeyFunc identifies the caller a request is counted against.
type KeyFunc func(r *http.Request) string

// CallerKey counts requests per API key, falling back to the client IP.
// Run it after RealIP so RemoteAddr holds the client address.
func CallerKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return "key:" + key
	}
	return "ip:" + r.RemoteAddr
}

// Middleware rejects requests over limit per window with 429.
// Limiter failures are logged and the request is let through.
func Middleware(l Limiter, scope string, limit int, window time.Duration, keyFn KeyFunc) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("%s:%s", scope, keyFn(r))

			ok, err := l.Allow(r.Context(), key, limit, window)
			if err != nil {
				logging.FromContext(r.Context()).Warn("rate limiter unavailable", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				w.Header().Set("Retry-After", retryAfter)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Too many requests. Please wait a moment and try again."}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
