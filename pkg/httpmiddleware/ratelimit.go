package httpmiddleware

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client sliding window limiter.
type RateLimitConfig struct {
	// Max requests per Window.
	Max int
	// Window length of the sliding window.
	Window time.Duration
	// KeyFunc buckets requests; nil buckets by client IP.
	KeyFunc func(*http.Request) string
}

// bucket carries the counters of one client across two adjacent windows. The
// previous window's count is weighted by its remaining overlap with the
// sliding window, which smooths the boundary burst a fixed window allows.
type bucket struct {
	prev      float64
	prevStart time.Time
	curr      float64
	currStart time.Time
}

type limiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	buckets map[string]*bucket
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	return &limiter{cfg: cfg, buckets: make(map[string]*bucket)}
}

// take consumes one request from the key's budget. It reports the remaining
// budget, when the current window resets, and whether the request may pass.
func (l *limiter) take(key string, now time.Time) (remaining int, resetAt time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, found := l.buckets[key]
	if !found {
		b = &bucket{currStart: now}
		l.buckets[key] = b
	}

	if now.Sub(b.currStart) >= l.cfg.Window {
		b.prev, b.prevStart = b.curr, b.currStart
		b.curr = 0
		b.currStart = now.Truncate(l.cfg.Window)
		if now.Sub(b.prevStart) >= 2*l.cfg.Window {
			b.prev = 0
		}
	}

	overlap := 1 - now.Sub(b.currStart).Seconds()/l.cfg.Window.Seconds()
	if overlap < 0 {
		overlap = 0
	}
	weighted := b.prev*overlap + b.curr
	resetAt = b.currStart.Add(l.cfg.Window)

	if weighted >= float64(l.cfg.Max) {
		return 0, resetAt, false
	}
	b.curr++
	remaining = int(float64(l.cfg.Max) - weighted - 1)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, resetAt, true
}

// sweep drops buckets that have been idle for two full windows.
func (l *limiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if now.Sub(b.currStart) >= 2*l.cfg.Window {
			delete(l.buckets, key)
		}
	}
}

// RateLimit returns a sliding window rate limiting middleware. Rejected
// requests get 429 with a JSON body; every response carries X-RateLimit-Limit,
// X-RateLimit-Remaining and X-RateLimit-Reset.
//
// Idle buckets are never evicted; prefer RateLimitWithCleanup for servers
// with churning clients.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newLimiter(cfg).middleware()
}

// RateLimitWithCleanup is RateLimit plus a background sweeper that evicts
// idle buckets until ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * l.cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.sweep(now)
			}
		}
	}()
	return l.middleware()
}

func (l *limiter) middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, ok := l.take(l.cfg.KeyFunc(r), time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retry := time.Until(resetAt)
				if retry < 0 {
					retry = 0
				}
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"code":    http.StatusTooManyRequests,
					"message": "rate limit exceeded",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the caller's address, trusting proxy headers first.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
