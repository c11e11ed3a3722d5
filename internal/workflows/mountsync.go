package workflows

import (
	"math"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/horizonmask/internal/core/domain"
)

const (
	// MountSyncWorkflowID is shared by all syncs so newer requests join the
	// running execution instead of racing it.
	MountSyncWorkflowID = "mount-horizon-sync"
	// HorizonSignal carries a MountSyncInput into a running sync.
	HorizonSignal = "horizon"

	maxVerifyAttempts = 3
	verifyBackoff     = 2 * time.Second
	pointTolerance    = 1e-6
)

// Sync outcomes.
const (
	OutcomeSynced   = "synced"
	OutcomeMismatch = "mismatch"
)

// MountSyncInput is the input of the mount sync workflow.
type MountSyncInput struct {
	Points      []domain.BoundaryPoint
	RequestedAt time.Time
}

// SyncResult is recorded after each sync.
type SyncResult struct {
	Outcome  string
	Points   int
	Attempts int
}

// MountSyncWorkflow pushes the horizon limit to the mount controller, reads
// it back and verifies it. Requests signalled while a sync runs are
// coalesced: only the newest set is pushed next.
func MountSyncWorkflow(ctx workflow.Context, input MountSyncInput) error {
	logger := workflow.GetLogger(ctx)
	signals := workflow.GetSignalChannel(ctx, HorizonSignal)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	latest := input
	for {
		latest = drain(signals, latest)
		logger.Info("Syncing horizon to mount", "points", len(latest.Points))
		if err := syncOnce(ctx, latest.Points); err != nil {
			return err
		}
		var next MountSyncInput
		if !signals.ReceiveAsync(&next) {
			return nil
		}
		latest = newer(latest, next)
	}
}

func drain(ch workflow.ReceiveChannel, latest MountSyncInput) MountSyncInput {
	var next MountSyncInput
	for ch.ReceiveAsync(&next) {
		latest = newer(latest, next)
		next = MountSyncInput{}
	}
	return latest
}

func newer(a, b MountSyncInput) MountSyncInput {
	if b.RequestedAt.Before(a.RequestedAt) {
		return a
	}
	return b
}

func syncOnce(ctx workflow.Context, points []domain.BoundaryPoint) error {
	for attempt := 1; ; attempt++ {
		if err := workflow.ExecuteActivity(ctx, "PushHorizon", points).Get(ctx, nil); err != nil {
			return err
		}
		var got []domain.BoundaryPoint
		if err := workflow.ExecuteActivity(ctx, "ReadHorizon").Get(ctx, &got); err != nil {
			return err
		}
		if SamePoints(points, got) {
			_ = workflow.ExecuteActivity(ctx, "RecordSyncResult",
				SyncResult{Outcome: OutcomeSynced, Points: len(points), Attempts: attempt}).Get(ctx, nil)
			return nil
		}
		if attempt >= maxVerifyAttempts {
			_ = workflow.ExecuteActivity(ctx, "RecordSyncResult",
				SyncResult{Outcome: OutcomeMismatch, Points: len(points), Attempts: attempt}).Get(ctx, nil)
			return temporal.NewNonRetryableApplicationError(
				"mount controller did not retain the horizon limit", "HorizonMismatch", nil)
		}
		workflow.GetLogger(ctx).Warn("horizon read-back mismatch, pushing again", "attempt", attempt)
		if err := workflow.Sleep(ctx, verifyBackoff); err != nil {
			return err
		}
	}
}

// SamePoints compares two sets point by point within a small tolerance;
// controllers may store fixed-point values.
func SamePoints(a, b []domain.BoundaryPoint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i].Alt-b[i].Alt) > pointTolerance || math.Abs(a[i].Az-b[i].Az) > pointTolerance {
			return false
		}
	}
	return true
}
