package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/ports"
)

// ErrNoPosition is returned when no recent mount position is known.
var ErrNoPosition = errors.New("mount position not available")

const (
	statusCacheKey = "mount:status"
	statusTTL      = 5 // seconds
)

// StatusService tracks the live mount position.
type StatusService struct {
	cache      ports.CacheService
	controller ports.MountController
	publisher  ports.EventPublisher
}

// NewStatusService creates a new StatusService. Any dependency may be nil;
// with neither cache nor controller every read fails with ErrNoPosition.
func NewStatusService(cache ports.CacheService, controller ports.MountController, publisher ports.EventPublisher) *StatusService {
	return &StatusService{cache: cache, controller: controller, publisher: publisher}
}

// Position returns the latest relayed position, falling back to asking the
// controller directly.
func (s *StatusService) Position(ctx context.Context) (domain.MountPosition, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, statusCacheKey); err == nil {
			var pos domain.MountPosition
			if err := msgpack.Unmarshal(data, &pos); err == nil {
				return pos, nil
			}
		}
	}
	if s.controller == nil {
		return domain.MountPosition{}, ErrNoPosition
	}
	pos, err := s.controller.Status(ctx)
	if err != nil {
		return domain.MountPosition{}, fmt.Errorf("%w: %w", ErrNoPosition, err)
	}
	return pos, nil
}

// Poll reads the controller once and records the result.
func (s *StatusService) Poll(ctx context.Context) (domain.MountPosition, error) {
	if s.controller == nil {
		return domain.MountPosition{}, ErrNoPosition
	}
	pos, err := s.controller.Status(ctx)
	if err != nil {
		return domain.MountPosition{}, fmt.Errorf("poll mount status: %w", err)
	}
	if pos.Time.IsZero() {
		pos.Time = time.Now().UTC()
	}
	return pos, s.Record(ctx, pos)
}

// Record caches pos briefly and broadcasts it.
func (s *StatusService) Record(ctx context.Context, pos domain.MountPosition) error {
	if s.cache != nil {
		data, err := msgpack.Marshal(pos)
		if err != nil {
			return fmt.Errorf("encode mount status: %w", err)
		}
		if err := s.cache.Set(ctx, statusCacheKey, data, statusTTL); err != nil {
			return fmt.Errorf("cache mount status: %w", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishMountStatus(ctx, pos); err != nil {
			return fmt.Errorf("publish mount status: %w", err)
		}
	}
	return nil
}
