// Command statusrelay polls the mount controller for its position, caches
// the latest snapshot in valkey and publishes it on mount.status.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/horizonmask/internal/adapters/mountctl"
	natsadapter "github.com/samirrijal/horizonmask/internal/adapters/nats"
	"github.com/samirrijal/horizonmask/internal/adapters/valkey"
	"github.com/samirrijal/horizonmask/internal/core/usecases"
	"github.com/samirrijal/horizonmask/internal/pkg/config"
	"github.com/samirrijal/horizonmask/internal/pkg/logging"
	"github.com/samirrijal/horizonmask/internal/pkg/metrics"
)

func main() {
	cfg, err := config.Load("horizonmask-statusrelay")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	controller := mountctl.New(cfg.Mount.ControllerURL, cfg.Mount.Timeout)
	status := usecases.NewStatusService(cache, controller, pub)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/metrics", metrics.Handler())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return relay(ctx, status, cfg.Mount.PollInterval)
	})
	g.Go(func() error {
		return app.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
	})
	g.Go(func() error {
		<-ctx.Done()
		return app.ShutdownWithTimeout(5 * time.Second)
	})

	slog.Info("status relay started", "controller", cfg.Mount.ControllerURL, "interval", cfg.Mount.PollInterval)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("status relay stopped", "error", err)
		return
	}
	slog.Info("status relay stopped")
}

// relay polls until ctx is done. A failed poll is logged and counted; the
// next tick tries again.
func relay(ctx context.Context, status *usecases.StatusService, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failures := 0
	for {
		pollCtx, cancel := context.WithTimeout(ctx, interval)
		_, err := status.Poll(pollCtx)
		cancel()
		if err != nil {
			metrics.StatusPolls.WithLabelValues("error").Inc()
			failures++
			// First failure of a streak, then every 60th.
			if failures == 1 || failures%60 == 0 {
				slog.Warn("mount status poll failed", "error", err, "consecutive", failures)
			}
		} else {
			metrics.StatusPolls.WithLabelValues("ok").Inc()
			if failures > 0 {
				slog.Info("mount status poll recovered", "after", failures)
			}
			failures = 0
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
