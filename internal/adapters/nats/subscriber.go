package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/horizonmask/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber. Every API instance must see
// every event, so subscriptions are ephemeral fan-out rather than durable
// work queues.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

func (s *Subscriber) SubscribeHorizonUpdated(ctx context.Context, handler func(ctx context.Context, points []domain.BoundaryPoint) error) error {
	sub, err := s.js.Subscribe(SubjectHorizonUpdated, func(msg *nats.Msg) {
		var update HorizonUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			slog.Warn("bad horizon update", "error", err)
			return
		}
		if err := handler(ctx, update.Points); err != nil {
			slog.Warn("horizon update handler failed", "error", err)
		}
	},
		nats.DeliverNew(),
		nats.AckNone(),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) SubscribeMountStatus(ctx context.Context, handler func(ctx context.Context, pos domain.MountPosition) error) error {
	sub, err := s.conn.Subscribe(SubjectMountStatus, func(msg *nats.Msg) {
		var pos domain.MountPosition
		if err := json.Unmarshal(msg.Data, &pos); err != nil {
			return
		}
		_ = handler(ctx, pos)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
