package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gogpu/gg"

	"github.com/samirrijal/horizonmask/internal/adapters/http"
	"github.com/samirrijal/horizonmask/internal/adapters/mountctl"
	natsadapter "github.com/samirrijal/horizonmask/internal/adapters/nats"
	"github.com/samirrijal/horizonmask/internal/adapters/postgres"
	"github.com/samirrijal/horizonmask/internal/adapters/render"
	temporaladapter "github.com/samirrijal/horizonmask/internal/adapters/temporal"
	"github.com/samirrijal/horizonmask/internal/adapters/valkey"
	"github.com/samirrijal/horizonmask/internal/core/editor"
	"github.com/samirrijal/horizonmask/internal/core/mask"
	"github.com/samirrijal/horizonmask/internal/core/ports"
	"github.com/samirrijal/horizonmask/internal/core/usecases"
	"github.com/samirrijal/horizonmask/internal/pkg/config"
	"github.com/samirrijal/horizonmask/internal/pkg/logging"
	"github.com/samirrijal/horizonmask/internal/pkg/metrics"
	"github.com/samirrijal/horizonmask/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("horizonmask-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	gg.SetLogger(logger.With("component", "render"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry init failed", "error", err)
	} else {
		defer telemetry.Shutdown(shutdownTracer)
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(),
		postgres.WithApplicationName("horizonmask-api"),
		postgres.WithSlowQueryLog(200*time.Millisecond),
	)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	// Cache
	var cachePort ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cachePort = cache
	}

	// NATS
	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
	}

	// Temporal
	var scheduler ports.SyncScheduler
	if cfg.Temporal.Enabled {
		tc, err := temporaladapter.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
		if err != nil {
			slog.Warn("temporal unavailable, mount sync disabled", "error", err)
		} else {
			defer tc.Close()
			scheduler = temporaladapter.NewScheduler(tc, cfg.Temporal.TaskQueue)
		}
	}

	controller := mountctl.New(cfg.Mount.ControllerURL, cfg.Mount.Timeout)

	// Use cases
	horizonSvc := usecases.NewHorizonService(postgres.NewHorizonRepo(db), cachePort, publisher, scheduler)
	modelSvc := usecases.NewModelService(postgres.NewModelRepo(db), cachePort)
	statusSvc := usecases.NewStatusService(cachePort, controller, nil)

	hub := http.NewHub(statusSvc, 5*time.Second)

	// Remote edits and relayed positions
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats subscriber unavailable, sessions will not see remote edits", "error", err)
	} else {
		defer sub.Close()
		if err := sub.SubscribeHorizonUpdated(ctx, hub.HorizonUpdated); err != nil {
			slog.Warn("subscribe horizon updates", "error", err)
		}
		if err := sub.SubscribeMountStatus(ctx, hub.StatusUpdated); err != nil {
			slog.Warn("subscribe mount status", "error", err)
		}
	}

	deps := &http.Dependencies{
		Horizon:  horizonSvc,
		Models:   modelSvc,
		Status:   statusSvc,
		Renderer: render.New(render.DefaultTheme(), cfg.Editor.FrameCache, time.Minute),
		Hub:      hub,
		Editor:   editorConfig(cfg.Editor),
		NATS:     nc,
		DB:       db,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    256 * 1024,
		AppName:      "horizonmask API",
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Editor sockets are hijacked and outside fiber's shutdown. Sessions
	// must stop and flush before the deferred store closes run.
	if err := hub.Close(shutdownCtx); err != nil {
		slog.Error("editor sessions did not stop", "error", err)
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func editorConfig(c config.EditorConfig) editor.Config {
	cfg := editor.Config{
		Canvas:       mask.Options{Size: c.CanvasSize, Margin: c.CanvasMargin},
		SaveDelay:    c.SaveDelay,
		RetryDelay:   c.RetryDelay,
		PollInterval: c.PollInterval,
	}
	if c.FrameRate > 0 {
		cfg.TickInterval = time.Second / time.Duration(c.FrameRate)
	}
	return cfg
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		}
	}
}
