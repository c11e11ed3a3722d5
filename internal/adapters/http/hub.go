package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/editor"
	"github.com/samirrijal/horizonmask/internal/core/usecases"
)

// Editor session kinds served under /ws/mask/:kind.
const (
	KindHorizon = "horizon"
	KindModel   = "model"
)

const reloadTimeout = time.Second

// Hub tracks the open editor sessions of this instance and the latest mount
// position relayed over NATS.
type Hub struct {
	status *usecases.StatusService
	maxAge time.Duration

	mu       sync.RWMutex
	sessions map[string]map[*editor.Session]context.CancelFunc
	closed   bool
	live     domain.MountPosition
	liveAt   time.Time
}

// NewHub creates a hub. Relayed positions older than maxAge are ignored and
// Position falls back to status.
func NewHub(status *usecases.StatusService, maxAge time.Duration) *Hub {
	if maxAge <= 0 {
		maxAge = 5 * time.Second
	}
	return &Hub{
		status:   status,
		maxAge:   maxAge,
		sessions: make(map[string]map[*editor.Session]context.CancelFunc),
	}
}

// add registers a running session and the cancel func that stops it. Once
// the hub is closed, new sessions are stopped straight away.
func (h *Hub) add(kind string, s *editor.Session, cancel context.CancelFunc) (remove func()) {
	if h == nil {
		return func() {}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		cancel()
		return func() {}
	}
	if h.sessions[kind] == nil {
		h.sessions[kind] = make(map[*editor.Session]context.CancelFunc)
	}
	h.sessions[kind][s] = cancel
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.sessions[kind], s)
	}
}

// Count returns the number of open sessions.
func (h *Hub) Count() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.sessions {
		n += len(set)
	}
	return n
}

func (h *Hub) snapshot(kind string) []*editor.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*editor.Session, 0, len(h.sessions[kind]))
	for s := range h.sessions[kind] {
		out = append(out, s)
	}
	return out
}

// Close stops every registered session and waits until each has flushed its
// pending save, or ctx expires. It must run before the stores close.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	h.closed = true
	var running []*editor.Session
	for _, set := range h.sessions {
		for s, cancel := range set {
			cancel()
			running = append(running, s)
		}
	}
	h.mu.Unlock()

	for _, s := range running {
		select {
		case <-s.Done():
		case <-ctx.Done():
			return fmt.Errorf("waiting for %d editor sessions: %w", len(running), ctx.Err())
		}
	}
	return nil
}

// HorizonUpdated asks every horizon session to reload. Sessions holding
// unsaved edits skip the reload themselves.
func (h *Hub) HorizonUpdated(ctx context.Context, _ []domain.BoundaryPoint) error {
	for _, s := range h.snapshot(KindHorizon) {
		sctx, cancel := context.WithTimeout(ctx, reloadTimeout)
		err := s.Submit(sctx, editor.Event{Type: editor.Reload})
		cancel()
		if err != nil && !errors.Is(err, editor.ErrClosed) {
			slog.Warn("reload not delivered", "error", err)
		}
	}
	return nil
}

// StatusUpdated records a relayed position.
func (h *Hub) StatusUpdated(_ context.Context, pos domain.MountPosition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = pos
	h.liveAt = time.Now()
	return nil
}

// RelayAge reports how long ago a position was last relayed. ok is false
// when none has arrived yet.
func (h *Hub) RelayAge() (age time.Duration, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.liveAt.IsZero() {
		return 0, false
	}
	return time.Since(h.liveAt), true
}

// Position returns the relayed position while fresh, otherwise asks the
// status service.
func (h *Hub) Position(ctx context.Context) (domain.MountPosition, error) {
	h.mu.RLock()
	pos, at := h.live, h.liveAt
	h.mu.RUnlock()
	if !at.IsZero() && time.Since(at) < h.maxAge {
		return pos, nil
	}
	if h.status == nil {
		return domain.MountPosition{}, usecases.ErrNoPosition
	}
	return h.status.Position(ctx)
}
