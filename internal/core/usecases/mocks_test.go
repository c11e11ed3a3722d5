package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/horizonmask/internal/core/domain"
)

var errCacheMiss = errors.New("cache miss")

// --- Mock HorizonRepository ---

type mockHorizonRepo struct {
	getFn     func(ctx context.Context) ([]domain.BoundaryPoint, error)
	replaceFn func(ctx context.Context, points []domain.BoundaryPoint) error
}

func (m *mockHorizonRepo) Get(ctx context.Context) ([]domain.BoundaryPoint, error) {
	if m.getFn != nil {
		return m.getFn(ctx)
	}
	return nil, nil
}

func (m *mockHorizonRepo) Replace(ctx context.Context, points []domain.BoundaryPoint) error {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, points)
	}
	return nil
}

// --- Mock ModelRepository ---

type mockModelRepo struct {
	listFn func(ctx context.Context) ([]domain.BoundaryPoint, error)
}

func (m *mockModelRepo) List(ctx context.Context) ([]domain.BoundaryPoint, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// --- In-memory CacheService ---

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttl: map[string]int{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttl[key] = ttl
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	horizon [][]domain.BoundaryPoint
	status  []domain.MountPosition
	err     error
}

func (m *mockPublisher) PublishHorizonUpdated(_ context.Context, points []domain.BoundaryPoint) error {
	m.horizon = append(m.horizon, points)
	return m.err
}

func (m *mockPublisher) PublishMountStatus(_ context.Context, pos domain.MountPosition) error {
	m.status = append(m.status, pos)
	return m.err
}

// --- Mock SyncScheduler ---

type mockScheduler struct {
	scheduled [][]domain.BoundaryPoint
	err       error
}

func (m *mockScheduler) ScheduleMountSync(_ context.Context, points []domain.BoundaryPoint) error {
	m.scheduled = append(m.scheduled, points)
	return m.err
}

// --- Mock MountController ---

type mockController struct {
	statusFn func(ctx context.Context) (domain.MountPosition, error)
}

func (m *mockController) Status(ctx context.Context) (domain.MountPosition, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx)
	}
	return domain.MountPosition{}, nil
}

func (m *mockController) PushHorizon(context.Context, []domain.BoundaryPoint) error { return nil }

func (m *mockController) ReadHorizon(context.Context) ([]domain.BoundaryPoint, error) {
	return nil, nil
}
