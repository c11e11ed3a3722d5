// Package temporaladapter starts durable workflows on Temporal.
package temporaladapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/workflows"
)

// starter is the part of client.Client the scheduler needs.
type starter interface {
	SignalWithStartWorkflow(ctx context.Context, workflowID string, signalName string, signalArg interface{},
		options client.StartWorkflowOptions, workflow interface{}, workflowArgs ...interface{}) (client.WorkflowRun, error)
}

// Scheduler implements ports.SyncScheduler.
type Scheduler struct {
	client    starter
	taskQueue string
	now       func() time.Time
}

// NewScheduler creates a scheduler submitting to taskQueue.
func NewScheduler(c client.Client, taskQueue string) *Scheduler {
	return newScheduler(c, taskQueue)
}

func newScheduler(c starter, taskQueue string) *Scheduler {
	return &Scheduler{client: c, taskQueue: taskQueue, now: time.Now}
}

// ScheduleMountSync hands points to the running sync workflow, starting one
// if none is running.
func (s *Scheduler) ScheduleMountSync(ctx context.Context, points []domain.BoundaryPoint) error {
	input := workflows.MountSyncInput{Points: points, RequestedAt: s.now().UTC()}
	opts := client.StartWorkflowOptions{
		ID:                       workflows.MountSyncWorkflowID,
		TaskQueue:                s.taskQueue,
		WorkflowExecutionTimeout: time.Hour,
	}
	_, err := s.client.SignalWithStartWorkflow(ctx, workflows.MountSyncWorkflowID, workflows.HorizonSignal, input,
		opts, workflows.MountSyncWorkflow, input)
	if err != nil {
		return fmt.Errorf("signal mount sync: %w", err)
	}
	return nil
}

// Dial connects to Temporal. The SDK logs through the default slog logger.
func Dial(hostPort, namespace string) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		return nil, fmt.Errorf("temporal client: %w", err)
	}
	return c, nil
}
