package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/adhamj/settleup/pkg/response"
)

// RateLimiter throttles requests per authenticated user. Requests without an
// identity share a single bucket keyed by zero.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[int64]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewRateLimiter allows rps requests per second with the given burst per user.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[int64]*rate.Limiter),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

func (rl *RateLimiter) bucket(userID int64) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[userID]
	if !ok {
		b = rate.NewLimiter(rl.limit, rl.burst)
		rl.buckets[userID] = b
	}
	return b
}

// Handler wraps next with the per-user rate limit.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := GetUserID(r.Context())
		if !rl.bucket(userID).Allow() {
			response.Error(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Rate limit exceeded, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}
