package usecases

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/mask"
	"github.com/samirrijal/horizonmask/internal/core/ports"
	"github.com/samirrijal/horizonmask/internal/pkg/angle"
)

const horizonCacheKey = "horizon:points"

// HorizonService owns the horizon-limit point set.
type HorizonService struct {
	repo      ports.HorizonRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	scheduler ports.SyncScheduler
}

// NewHorizonService creates a new HorizonService. cache, publisher and
// scheduler may be nil.
func NewHorizonService(
	repo ports.HorizonRepository,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	scheduler ports.SyncScheduler,
) *HorizonService {
	return &HorizonService{repo: repo, cache: cache, publisher: publisher, scheduler: scheduler}
}

// Points returns the stored set, ascending by azimuth.
func (s *HorizonService) Points(ctx context.Context) ([]domain.BoundaryPoint, error) {
	ctx, span := tracer().Start(ctx, "HorizonService.Points")
	defer span.End()

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, horizonCacheKey); err == nil {
			var points []domain.BoundaryPoint
			if err := msgpack.Unmarshal(data, &points); err == nil {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return points, nil
			}
		}
	}

	points, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fail(span, fmt.Errorf("get horizon points: %w", err))
	}
	if points == nil {
		points = []domain.BoundaryPoint{}
	}

	if s.cache != nil {
		if data, err := msgpack.Marshal(points); err == nil {
			_ = s.cache.Set(ctx, horizonCacheKey, data, 600)
		}
	}
	return points, nil
}

// Save validates and stores a full replacement set. Nothing is written when
// any point is invalid. The stored, sorted set is returned.
func (s *HorizonService) Save(ctx context.Context, points []domain.BoundaryPoint) ([]domain.BoundaryPoint, error) {
	ctx, span := tracer().Start(ctx, "HorizonService.Save")
	defer span.End()
	span.SetAttributes(attribute.Int("horizon.points", len(points)))

	if err := domain.ValidatePoints(points); err != nil {
		return nil, fail(span, err)
	}
	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b domain.BoundaryPoint) int { return cmp.Compare(a.Az, b.Az) })

	if err := s.repo.Replace(ctx, sorted); err != nil {
		return nil, fail(span, fmt.Errorf("replace horizon points: %w", err))
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, horizonCacheKey)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishHorizonUpdated(ctx, sorted); err != nil {
			slog.WarnContext(ctx, "publish horizon update failed", "error", err)
		}
	}
	if s.scheduler != nil {
		if err := s.scheduler.ScheduleMountSync(ctx, sorted); err != nil {
			slog.WarnContext(ctx, "schedule mount sync failed", "error", err)
		}
	}
	return sorted, nil
}

// Settings wraps the set in the settings payload shape.
func (s *HorizonService) Settings(ctx context.Context) (domain.Settings, error) {
	points, err := s.Points(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	return domain.Settings{HorizonLimitPoints: points}, nil
}

// LimitAt returns the minimum altitude at az. ok is false when no limit is
// configured.
func (s *HorizonService) LimitAt(ctx context.Context, az float64) (limit float64, ok bool, err error) {
	if math.IsNaN(az) || math.IsInf(az, 0) {
		return 0, false, &domain.ValidationError{Index: -1, Point: domain.BoundaryPoint{Az: az}, Reason: "azimuth is not a finite number"}
	}
	points, err := s.Points(ctx)
	if err != nil {
		return 0, false, err
	}
	limit, ok = mask.AltitudeAt(points, angle.Normalize(az))
	return limit, ok, nil
}

// Check tests whether the mount may point at (alt, az).
func (s *HorizonService) Check(ctx context.Context, alt, az float64) (domain.LimitCheck, error) {
	if math.IsNaN(alt) || math.IsInf(alt, 0) {
		return domain.LimitCheck{}, &domain.ValidationError{Index: -1, Point: domain.BoundaryPoint{Alt: alt, Az: az}, Reason: "altitude is not a finite number"}
	}
	limit, ok, err := s.LimitAt(ctx, az)
	if err != nil {
		return domain.LimitCheck{}, err
	}
	return domain.LimitCheck{
		Alt:     alt,
		Az:      angle.Normalize(az),
		Limit:   limit,
		Allowed: !ok || alt >= limit,
	}, nil
}

// Curve returns the interpolated limit sampled every degree.
func (s *HorizonService) Curve(ctx context.Context) ([]domain.BoundaryPoint, error) {
	points, err := s.Points(ctx)
	if err != nil {
		return nil, err
	}
	return mask.Curve(points), nil
}
