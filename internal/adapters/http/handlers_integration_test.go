//go:build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	handler "github.com/samirrijal/horizonmask/internal/adapters/http"
	"github.com/samirrijal/horizonmask/internal/adapters/postgres"
	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/usecases"
	"github.com/samirrijal/horizonmask/internal/pkg/config"
)

// setupTestDB connects to the database named by the horizonmask-test config.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("horizonmask-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Skipf("database not reachable: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

// setupTestDeps creates dependencies with real repos, no cache or broker.
func setupTestDeps(db *postgres.DB) *handler.Dependencies {
	status := usecases.NewStatusService(nil, nil, nil)
	return &handler.Dependencies{
		Horizon: usecases.NewHorizonService(postgres.NewHorizonRepo(db), nil, nil, nil),
		Models:  usecases.NewModelService(postgres.NewModelRepo(db), nil),
		Status:  status,
		Hub:     handler.NewHub(status, 0),
		DB:      db,
	}
}

func TestHorizonLimit_Integration_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	app := setupApp(setupTestDeps(db))

	req := httptest.NewRequest("POST", "/v1/horizon-limit",
		strings.NewReader(`{"points":[{"alt":15,"az":200},{"alt":5,"az":20}]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/horizon-limit", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	var result handler.PointsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := []domain.BoundaryPoint{{Alt: 5, Az: 20}, {Alt: 15, Az: 200}}
	if len(result.Points) != len(want) {
		t.Fatalf("expected %v, got %v", want, result.Points)
	}
	for i := range want {
		if result.Points[i] != want[i] {
			t.Errorf("point %d: expected %v, got %v", i, want[i], result.Points[i])
		}
	}
}

func TestHorizonLimit_Integration_InvalidKeepsStored(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	repo := postgres.NewHorizonRepo(db)
	ctx := context.Background()
	if err := repo.Replace(ctx, []domain.BoundaryPoint{{Alt: 12, Az: 0}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	app := setupApp(setupTestDeps(db))

	req := httptest.NewRequest("POST", "/v1/horizon-limit", strings.NewReader(`{"points":[{"alt":-1,"az":0}]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	stored, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored) != 1 || stored[0].Alt != 12 {
		t.Errorf("stored set changed: %v", stored)
	}
}

func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	app := setupApp(setupTestDeps(setupTestDB(t)))
	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 with database only, got %d", resp.StatusCode)
	}
}
