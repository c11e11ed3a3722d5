package main

import (
	"log"
	"log/slog"

	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/horizonmask/internal/adapters/mountctl"
	temporaladapter "github.com/samirrijal/horizonmask/internal/adapters/temporal"
	"github.com/samirrijal/horizonmask/internal/pkg/config"
	"github.com/samirrijal/horizonmask/internal/pkg/logging"
	"github.com/samirrijal/horizonmask/internal/workflows"
)

func main() {
	cfg, err := config.Load("horizonmask-mountsync")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)

	c, err := temporaladapter.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.MountSyncWorkflow)
	w.RegisterActivity(&workflows.MountSyncActivities{
		Controller: mountctl.New(cfg.Mount.ControllerURL, cfg.Mount.Timeout),
	})

	slog.Info("mount sync worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
