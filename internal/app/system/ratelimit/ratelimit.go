// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"go.uber.org/zap"
)

// sweepEvery is how many Allow calls pass between purges of idle buckets.
const sweepEvery = 512

// Limiter counts hits per key in fixed windows. Safe for concurrent use.
type Limiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]bucket
	calls   int
}

type bucket struct {
	hits    int
	resetAt time.Time
}

// New returns a limiter allowing limit hits per key every period.
func New(limit int, period time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		buckets: make(map[string]bucket),
	}
}

// Allow records a hit for key and reports whether it fits in the window.
func (l *Limiter) Allow(key string) bool {
	ok, _ := l.take(key)
	return ok
}

// take is Allow plus the time left until the key's window resets.
func (l *Limiter) take(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = bucket{resetAt: now.Add(l.period)}
	}
	if b.hits >= l.limit {
		return false, b.resetAt.Sub(now)
	}
	b.hits++
	l.buckets[key] = b
	return true, b.resetAt.Sub(now)
}

// Remaining reports how many hits key has left in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || !l.now().Before(b.resetAt) {
		return l.limit
	}
	return max(l.limit-b.hits, 0)
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// sweep drops expired buckets. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, k)
		}
	}
}

// ClientIP returns the caller's address: the first X-Forwarded-For hop,
// then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Middleware limits requests per client IP. Rejected requests get 429 with
// a Retry-After hint and the standard error envelope.
func Middleware(l *Limiter, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			ok, wait := l.take(ip)
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				log.Info("rate limited", zap.String("ip", ip), zap.String("path", r.URL.Path))
				respond.Error(w, r, log, apperr.RateLimited("too many requests, slow down"), "")
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.Remaining(ip)))
			next.ServeHTTP(w, r)
		})
	}
}
