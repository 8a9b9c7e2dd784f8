// Rate limiting for the mind-introspection endpoints. Serving one agent
// detail walks that agent's Q-table and social memory under the simulation
// read lock, so a scraper looping over /agent/:id can stall the tick loop.
// The window here is sized for a human poking at a dashboard, not for API
// consumers doing bulk pulls.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter admits up to max requests per client within a trailing
// window. Denied requests are not recorded, so hammering a closed window
// never extends it.
type RateLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	seen   map[string][]time.Time
}

// NewRateLimiter creates a limiter and starts its background reaper.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		max:    max,
		window: window,
		seen:   make(map[string][]time.Time),
	}
	go rl.reap()
	return rl
}

// Allow records a request for the client and reports whether it landed
// within the limit.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	kept := pruneBefore(rl.seen[client], now.Add(-rl.window))
	if len(kept) >= rl.max {
		rl.seen[client] = kept
		return false
	}
	rl.seen[client] = append(kept, now)
	return true
}

// RetryAfter reports whole seconds until the client's oldest in-window
// request ages out and a slot opens.
func (rl *RateLimiter) RetryAfter(client string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	stamps := pruneBefore(rl.seen[client], time.Now().Add(-rl.window))
	if len(stamps) == 0 {
		return 0
	}
	wait := time.Until(stamps[0].Add(rl.window))
	if wait <= 0 {
		return 0
	}
	return int(wait.Seconds()) + 1
}

// pruneBefore drops timestamps at or before the cutoff. Stamps are
// append-ordered, so the survivors are a suffix.
func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}

// reap drops clients that have gone quiet so the map tracks current
// visitors, not every address that ever connected.
func (rl *RateLimiter) reap() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.window)
		for client, stamps := range rl.seen {
			if kept := pruneBefore(stamps, cutoff); len(kept) == 0 {
				delete(rl.seen, client)
			} else {
				rl.seen[client] = kept
			}
		}
		rl.mu.Unlock()
	}
}

// clientKey identifies the requester: the first X-Forwarded-For hop when a
// proxy is in front, otherwise the remote address without its port.
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			xff = xff[:i]
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware rejects over-limit requests with 429 and a
// Retry-After hint.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := clientKey(r)
		if !rl.Allow(client) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(client)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
