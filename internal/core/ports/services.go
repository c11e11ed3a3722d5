package ports

import (
	"context"

	"github.com/samirrijal/horizonmask/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishHorizonUpdated(ctx context.Context, points []domain.BoundaryPoint) error
	PublishMountStatus(ctx context.Context, pos domain.MountPosition) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeHorizonUpdated(ctx context.Context, handler func(ctx context.Context, points []domain.BoundaryPoint) error) error
	SubscribeMountStatus(ctx context.Context, handler func(ctx context.Context, pos domain.MountPosition) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// MountController talks to the mount's own controller.
type MountController interface {
	Status(ctx context.Context) (domain.MountPosition, error)
	PushHorizon(ctx context.Context, points []domain.BoundaryPoint) error
	ReadHorizon(ctx context.Context) ([]domain.BoundaryPoint, error)
}

// SyncScheduler queues a durable push of the horizon limit to the mount.
type SyncScheduler interface {
	ScheduleMountSync(ctx context.Context, points []domain.BoundaryPoint) error
}
