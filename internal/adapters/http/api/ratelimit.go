package api

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/podium/pkg/metrics"
)

const (
	// cleanupThreshold is the map size above which idle users are pruned.
	cleanupThreshold = 1000
	maxIdleAge       = 10 * time.Minute
)

type userEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter hands out one token bucket per user and prunes idle ones inline.
type UserRateLimiter struct {
	mu    sync.Mutex
	users map[string]*userEntry
	r     rate.Limit
	b     int
}

// NewUserRateLimiter creates a limiter allowing r events per second with burst b per user.
func NewUserRateLimiter(r rate.Limit, b int) *UserRateLimiter {
	return &UserRateLimiter{users: make(map[string]*userEntry), r: r, b: b}
}

// Allow reports whether key may proceed now.
func (l *UserRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if len(l.users) > cleanupThreshold {
		cutoff := now.Add(-maxIdleAge)
		for k, e := range l.users {
			if e.lastSeen.Before(cutoff) {
				delete(l.users, k)
			}
		}
	}
	e, ok := l.users[key]
	if !ok {
		e = &userEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.users[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// RateLimitMiddleware limits authenticated users; it must run after auth.Middleware.
func RateLimitMiddleware(l *UserRateLimiter, endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(endpoint + ":" + userID(r)) {
				metrics.RecordRateLimited(endpoint)
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate_limited", ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
