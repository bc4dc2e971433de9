package realtime

import (
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/pkg/logger"
)

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithMailboxSize bounds each session's pending snapshots.
func WithMailboxSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.mailboxSize = n
		}
	}
}

// WithDeduper sets the deduper used to drop repeated snapshots.
func WithDeduper(d dedupe.Deduper) HubOption {
	return func(h *Hub) {
		if d != nil {
			h.deduper = d
		}
	}
}

// WithHubLogger sets the hub logger.
func WithHubLogger(l logger.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NATSOption configures the NATS publisher and relay.
type NATSOption func(*natsConfig)

type natsConfig struct {
	subject string
	logger  logger.Logger
}

// WithSubject sets the subject prefix; snapshots go to <prefix>.<eventID>.
func WithSubject(subject string) NATSOption {
	return func(c *natsConfig) {
		if subject != "" {
			c.subject = subject
		}
	}
}

// WithNATSLogger sets the logger used by the NATS adapters.
func WithNATSLogger(l logger.Logger) NATSOption {
	return func(c *natsConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
