package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kiranshivaraju/brandguard/internal/api/response"
	"github.com/kiranshivaraju/brandguard/internal/cache"
)

const (
	defaultRequestsPerMinute = 30
	window                   = 60 * time.Second
)

// RateLimit provides fixed-window per-client rate limiting via Redis.
type RateLimit struct {
	cache          cache.Cache
	requestsPerMin int
	now            func() time.Time
}

// NewRateLimit creates a new RateLimit middleware.
func NewRateLimit(c cache.Cache, requestsPerMin int) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{cache: c, requestsPerMin: requestsPerMin, now: time.Now}
}

// Limit counts requests per client IP and rejects the excess with 429.
// Redis errors let the request through.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := GetClientIP(r)
		count, err := rl.cache.IncrWithExpiry(r.Context(), cache.RateLimitKey(client), window)
		if err != nil {
			slog.Warn("rate limit check failed, allowing request", "client_ip", client, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := max(rl.requestsPerMin-int(count), 0)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(rl.now().Add(window).Unix(), 10))

		if count > int64(rl.requestsPerMin) {
			response.TooManyRequests(w, window, response.CodeRateLimited, "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
