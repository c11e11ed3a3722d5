package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/horizonmask/internal/core/domain"
)

// Subjects.
const (
	SubjectHorizonUpdated = "mount.horizon.updated"
	SubjectMountStatus    = "mount.status"
)

// HorizonUpdate is the payload of SubjectHorizonUpdated.
type HorizonUpdate struct {
	Points    []domain.BoundaryPoint `json:"points"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Only the latest horizon matters; keep one message per subject.
	cfg := nats.StreamConfig{
		Name:              "MOUNT_HORIZON",
		Subjects:          []string{"mount.horizon.>"},
		Retention:         nats.LimitsPolicy,
		MaxMsgsPerSubject: 1,
		MaxAge:            7 * 24 * time.Hour,
		Storage:           nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishHorizonUpdated(ctx context.Context, points []domain.BoundaryPoint) error {
	data, err := json.Marshal(HorizonUpdate{Points: points, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectHorizonUpdated, data, nats.Context(ctx))
	return err
}

// PublishMountStatus uses core NATS: positions are superseded every second
// and need no persistence.
func (p *Publisher) PublishMountStatus(ctx context.Context, pos domain.MountPosition) error {
	data, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectMountStatus, data)
}

// Healthy reports whether the connection is up.
func (p *Publisher) Healthy() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection with reconnects enabled.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
