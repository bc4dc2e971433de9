package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

const defaultSubject = "podium.leaderboard"

// Connect dials NATS with reconnects enabled.
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return nc, nil
}

func newNATSConfig(opts []NATSOption) natsConfig {
	c := natsConfig{subject: defaultSubject}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("nats")
	}
	return c
}

// NATSPublisher publishes snapshots so every instance can fan them out.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher creates a publisher on nc.
func NewNATSPublisher(nc *nats.Conn, opts ...NATSOption) (*NATSPublisher, error) {
	if nc == nil {
		return nil, ErrNoConnection
	}
	c := newNATSConfig(opts)
	return &NATSPublisher{conn: nc, subject: c.subject}, nil
}

// Name identifies the publisher as a delivery sink.
func (p *NATSPublisher) Name() string { return "nats" }

// Broadcast publishes snap on <prefix>.<eventID>.
func (p *NATSPublisher) Broadcast(_ context.Context, eventID, channel string, snap model.Snapshot) error { //nolint:gocritic // hugeParam: snapshots travel by value
	data, err := json.Marshal(model.Broadcast{EventID: eventID, Channel: channel, Snapshot: snap})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := p.conn.Publish(p.subject+"."+eventID, data); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// Relay feeds snapshots published by any instance into a local Broadcaster.
type Relay struct {
	conn   *nats.Conn
	sub    *nats.Subscription
	target Broadcaster
	cfg    natsConfig
}

// NewRelay creates a relay that delivers to target.
func NewRelay(nc *nats.Conn, target Broadcaster, opts ...NATSOption) (*Relay, error) {
	if nc == nil {
		return nil, ErrNoConnection
	}
	return &Relay{conn: nc, target: target, cfg: newNATSConfig(opts)}, nil
}

// Start subscribes to every event subject under the prefix.
func (r *Relay) Start(ctx context.Context) error {
	sub, err := r.conn.Subscribe(r.cfg.subject+".*", func(msg *nats.Msg) {
		r.handle(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.cfg.subject, err)
	}
	r.sub = sub
	r.cfg.logger.Info(ctx, "leaderboard relay started", logger.String("subject", sub.Subject))
	return nil
}

func (r *Relay) handle(ctx context.Context, msg *nats.Msg) {
	var b model.Broadcast
	if err := json.Unmarshal(msg.Data, &b); err != nil {
		metrics.RecordErrorByComponent("relay", "decode")
		r.cfg.logger.Warn(ctx, "dropping malformed snapshot", logger.String("subject", msg.Subject), logger.Error(err))
		return
	}
	if err := r.target.Broadcast(ctx, b.EventID, b.Channel, b.Snapshot); err != nil {
		metrics.RecordErrorByComponent("relay", "deliver")
		r.cfg.logger.Warn(ctx, "relay delivery failed", logger.String("eventID", b.EventID), logger.Error(err))
	}
}

// Stop drains the subscription.
func (r *Relay) Stop() error {
	if r.sub == nil {
		return nil
	}
	if err := r.sub.Drain(); err != nil {
		return fmt.Errorf("drain relay subscription: %w", err)
	}
	return nil
}
