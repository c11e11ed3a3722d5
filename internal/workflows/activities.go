package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/ports"
	"github.com/samirrijal/horizonmask/internal/pkg/metrics"
)

// MountSyncActivities holds the activity implementations for the mount sync
// workflow.
type MountSyncActivities struct {
	Controller ports.MountController
}

// PushHorizon writes the limit to the mount controller.
func (a *MountSyncActivities) PushHorizon(ctx context.Context, points []domain.BoundaryPoint) error {
	if err := a.Controller.PushHorizon(ctx, points); err != nil {
		return fmt.Errorf("push horizon: %w", err)
	}
	return nil
}

// ReadHorizon reads back what the controller now enforces.
func (a *MountSyncActivities) ReadHorizon(ctx context.Context) ([]domain.BoundaryPoint, error) {
	points, err := a.Controller.ReadHorizon(ctx)
	if err != nil {
		return nil, fmt.Errorf("read horizon: %w", err)
	}
	return points, nil
}

// RecordSyncResult logs and counts the outcome of one sync.
func (a *MountSyncActivities) RecordSyncResult(ctx context.Context, result SyncResult) error {
	metrics.MountSyncs.WithLabelValues(result.Outcome).Inc()
	slog.InfoContext(ctx, "mount horizon sync finished",
		"outcome", result.Outcome,
		"points", result.Points,
		"attempts", result.Attempts,
	)
	return nil
}
