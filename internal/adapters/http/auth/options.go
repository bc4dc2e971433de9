package auth

import "time"

// Option configures an HS256 token service.
type Option func(*HS256)

// WithTTL sets the lifetime of issued tokens.
func WithTTL(d time.Duration) Option {
	return func(h *HS256) {
		if d > 0 {
			h.ttl = d
		}
	}
}

// WithIssuer sets the iss claim written and required.
func WithIssuer(iss string) Option {
	return func(h *HS256) {
		if iss != "" {
			h.issuer = iss
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(h *HS256) {
		if now != nil {
			h.now = now
		}
	}
}
