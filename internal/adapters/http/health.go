package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyTimeout = 3 * time.Second

// HealthHandler reports liveness and the number of open editor sessions.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"uptime":   time.Since(startedAt).Round(time.Second).String(),
			"version":  "dev",
			"sessions": deps.Hub.Count(),
		})
	}
}

// dependency is one readiness check. A nil run means it is not configured
// on this instance.
type dependency struct {
	name      string
	mandatory bool // must be configured
	advisory  bool // failures are reported but do not fail readiness
	run       func(ctx context.Context) error
}

var errDisconnected = errors.New("disconnected")

func (deps *Dependencies) dependencies() []dependency {
	ps := []dependency{{name: "database", mandatory: true}}
	if deps.DB != nil {
		ps[0].run = deps.DB.Ping
	}

	broker := dependency{name: "nats"}
	if deps.NATS != nil {
		broker.run = func(context.Context) error {
			if !deps.NATS.Healthy() {
				return errDisconnected
			}
			return nil
		}
	}

	cache := dependency{name: "cache"}
	if deps.Cache != nil {
		cache.run = deps.Cache.Ping
	}

	// Relay freshness is advisory.
	relay := dependency{name: "mount_status", advisory: true}
	if deps.Hub != nil {
		relay.run = func(context.Context) error {
			age, ok := deps.Hub.RelayAge()
			if !ok {
				return errors.New("no position relayed yet")
			}
			if age > deps.Hub.maxAge {
				return errors.New("stale by " + age.Round(time.Millisecond).String())
			}
			return nil
		}
	}

	return append(ps, broker, cache, relay)
}

// ReadyHandler checks every configured dependency. The database is mandatory;
// optional dependencies only fail readiness once configured.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		checks := make(map[string]string)
		ready := true
		for _, p := range deps.dependencies() {
			if p.run == nil {
				checks[p.name] = "not configured"
				ready = ready && !p.mandatory
				continue
			}
			if err := p.run(ctx); err != nil {
				checks[p.name] = "error: " + err.Error()
				ready = ready && p.advisory
				continue
			}
			checks[p.name] = "ok"
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": checks,
			})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
