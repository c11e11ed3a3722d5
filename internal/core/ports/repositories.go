package ports

import (
	"context"

	"github.com/samirrijal/horizonmask/internal/core/domain"
)

// HorizonRepository persists the horizon-limit point set.
type HorizonRepository interface {
	// Get returns the stored set in ascending azimuth order. An empty slice
	// means no limit has been configured yet.
	Get(ctx context.Context) ([]domain.BoundaryPoint, error)
	// Replace stores points as the new set in one transaction.
	Replace(ctx context.Context, points []domain.BoundaryPoint) error
}

// ModelRepository reads the sync points the pointing model was calibrated
// against.
type ModelRepository interface {
	List(ctx context.Context) ([]domain.BoundaryPoint, error)
}
