package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/usecases"
)

func TestStatusService_Position_NoSources(t *testing.T) {
	svc := usecases.NewStatusService(nil, nil, nil)
	if _, err := svc.Position(context.Background()); !errors.Is(err, usecases.ErrNoPosition) {
		t.Errorf("expected ErrNoPosition, got %v", err)
	}
}

func TestStatusService_PollRecordsAndPublishes(t *testing.T) {
	ctrl := &mockController{
		statusFn: func(ctx context.Context) (domain.MountPosition, error) {
			return domain.MountPosition{Alt: 45, Az: 120}, nil
		},
	}
	cache := newMemCache()
	pub := &mockPublisher{}
	svc := usecases.NewStatusService(cache, ctrl, pub)

	pos, err := svc.Poll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos.Time.IsZero() {
		t.Error("poll should stamp the time")
	}
	if len(pub.status) != 1 {
		t.Errorf("expected 1 publish, got %d", len(pub.status))
	}
	if cache.ttl["mount:status"] != 5 {
		t.Errorf("expected 5s ttl, got %d", cache.ttl["mount:status"])
	}

	// A second reader is served from the cache.
	reader := usecases.NewStatusService(cache, nil, nil)
	got, err := reader.Position(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Alt != 45 || got.Az != 120 || !got.Time.Equal(pos.Time) {
		t.Errorf("got %+v, want %+v", got, pos)
	}
}

func TestStatusService_Position_FallsBackToController(t *testing.T) {
	ctrl := &mockController{
		statusFn: func(ctx context.Context) (domain.MountPosition, error) {
			return domain.MountPosition{Alt: 1, Az: 2, Time: time.Unix(0, 0)}, nil
		},
	}
	svc := usecases.NewStatusService(newMemCache(), ctrl, nil)
	pos, err := svc.Position(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if pos.Az != 2 {
		t.Errorf("az = %v, want 2", pos.Az)
	}
}

func TestStatusService_Position_ControllerError(t *testing.T) {
	ctrl := &mockController{
		statusFn: func(ctx context.Context) (domain.MountPosition, error) {
			return domain.MountPosition{}, errors.New("timeout")
		},
	}
	svc := usecases.NewStatusService(nil, ctrl, nil)
	if _, err := svc.Position(context.Background()); !errors.Is(err, usecases.ErrNoPosition) {
		t.Errorf("expected ErrNoPosition, got %v", err)
	}
}
