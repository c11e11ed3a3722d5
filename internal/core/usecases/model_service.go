package usecases

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/ports"
)

const modelCacheKey = "model:points"

// ModelService exposes the pointing-model sync points. Read-only.
type ModelService struct {
	repo  ports.ModelRepository
	cache ports.CacheService
}

// NewModelService creates a new ModelService.
func NewModelService(repo ports.ModelRepository, cache ports.CacheService) *ModelService {
	return &ModelService{repo: repo, cache: cache}
}

// Points returns the sync points, ascending by azimuth.
func (s *ModelService) Points(ctx context.Context) ([]domain.BoundaryPoint, error) {
	ctx, span := tracer().Start(ctx, "ModelService.Points")
	defer span.End()

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, modelCacheKey); err == nil {
			var points []domain.BoundaryPoint
			if err := msgpack.Unmarshal(data, &points); err == nil {
				return points, nil
			}
		}
	}

	points, err := s.repo.List(ctx)
	if err != nil {
		return nil, fail(span, fmt.Errorf("list model points: %w", err))
	}
	if points == nil {
		points = []domain.BoundaryPoint{}
	}

	// The model changes only on recalibration.
	if s.cache != nil {
		if data, err := msgpack.Marshal(points); err == nil {
			_ = s.cache.Set(ctx, modelCacheKey, data, 300)
		}
	}
	return points, nil
}
