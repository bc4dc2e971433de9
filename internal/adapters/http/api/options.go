package api

import (
	"golang.org/x/time/rate"

	"github.com/okian/podium/pkg/logger"
)

const (
	defaultMaxLimit = 100
	defaultRate     = rate.Limit(5)
	defaultBurst    = 10
)

// Option configures the Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps the leaderboard ?limit parameter.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithRateLimit sets the per-user limit for votes and judge scores.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond > 0 && burst > 0 {
			s.limiter = NewUserRateLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
