package api

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a per-user token bucket guarding the routes that call the
// model. Requests without an authenticated user share a bucket per client
// address.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	refill   time.Duration
}

// NewRateLimiter allows burst requests per key and refills one token every
// refill interval.
func NewRateLimiter(burst int, refill time.Duration) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	if refill <= 0 {
		refill = time.Second
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(refill),
		burst:    burst,
		refill:   refill,
	}
}

// Allow reports whether a request for key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = l
	}
	rl.mu.Unlock()
	return l.Allow()
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := UserIDFromContext(r.Context())
		if err != nil {
			key = "addr:" + r.RemoteAddr
		}

		if !rl.Allow(key) {
			retry := int(math.Ceil(rl.refill.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			WriteProblem(w, r, http.StatusTooManyRequests, "Rate limit exceeded, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
