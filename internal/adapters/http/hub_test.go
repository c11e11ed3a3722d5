package http

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/editor"
	"github.com/samirrijal/horizonmask/internal/core/usecases"
)

type discardSink struct{}

func (discardSink) State(editor.State) error   { return nil }
func (discardSink) Frame([]byte) error         { return nil }
func (discardSink) Notice(editor.Notice) error { return nil }

func TestHub_PositionPrefersFreshRelay(t *testing.T) {
	hub := NewHub(nil, 50*time.Millisecond)

	if _, err := hub.Position(context.Background()); !errors.Is(err, usecases.ErrNoPosition) {
		t.Fatalf("expected ErrNoPosition, got %v", err)
	}

	if _, ok := hub.RelayAge(); ok {
		t.Fatal("expected no relay age before the first update")
	}

	hub.StatusUpdated(context.Background(), domain.MountPosition{Alt: 12, Az: 200})
	if age, ok := hub.RelayAge(); !ok || age > 50*time.Millisecond {
		t.Fatalf("expected a fresh relay, got %v, %v", age, ok)
	}
	pos, err := hub.Position(context.Background())
	if err != nil || pos.Alt != 12 || pos.Az != 200 {
		t.Fatalf("expected relayed position, got %+v, %v", pos, err)
	}

	time.Sleep(80 * time.Millisecond)
	if _, err := hub.Position(context.Background()); !errors.Is(err, usecases.ErrNoPosition) {
		t.Fatalf("expected stale relay to be ignored, got %v", err)
	}
}

func TestHub_HorizonUpdatedReloadsSessions(t *testing.T) {
	var loads atomic.Int32
	gw := editor.LoadOnly(func(context.Context) ([]domain.BoundaryPoint, error) {
		loads.Add(1)
		return []domain.BoundaryPoint{{Alt: 10, Az: 0}}, nil
	})
	cfg := editor.Config{TickInterval: 5 * time.Millisecond, PollInterval: time.Hour}
	horizon := editor.New(KindHorizon, cfg, gw, discardSink{})
	model := editor.New(KindModel, cfg, gw, discardSink{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go horizon.Run(ctx)
	go model.Run(ctx)

	hub := NewHub(nil, 0)
	removeHorizon := hub.add(KindHorizon, horizon, cancel)
	defer removeHorizon()
	removeModel := hub.add(KindModel, model, cancel)
	if hub.Count() != 2 {
		t.Fatalf("expected 2 sessions, got %d", hub.Count())
	}

	waitLoads := func(want int32) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for loads.Load() < want {
			if time.Now().After(deadline) {
				t.Fatalf("expected %d loads, got %d", want, loads.Load())
			}
			time.Sleep(5 * time.Millisecond)
		}
	}
	waitLoads(2) // initial load of both sessions

	if err := hub.HorizonUpdated(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	waitLoads(3)

	// Only horizon sessions reload.
	time.Sleep(30 * time.Millisecond)
	if got := loads.Load(); got != 3 {
		t.Errorf("expected 3 loads, got %d", got)
	}

	removeModel()
	if hub.Count() != 1 {
		t.Errorf("expected 1 session after removal, got %d", hub.Count())
	}
}

func TestHub_NilIsEmpty(t *testing.T) {
	var hub *Hub
	if hub.Count() != 0 {
		t.Error("nil hub must report no sessions")
	}
	hub.add(KindHorizon, nil, nil)()
	if err := hub.Close(context.Background()); err != nil {
		t.Errorf("closing a nil hub: %v", err)
	}
}

// savingGateway records saves of a writable session.
type savingGateway struct {
	mu    sync.Mutex
	saves [][]domain.BoundaryPoint
}

func (g *savingGateway) Load(context.Context) ([]domain.BoundaryPoint, error) {
	return []domain.BoundaryPoint{{Alt: 10, Az: 0}}, nil
}

func (g *savingGateway) Save(_ context.Context, points []domain.BoundaryPoint) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saves = append(g.saves, points)
	return nil
}

func (g *savingGateway) saved() [][]domain.BoundaryPoint {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([][]domain.BoundaryPoint(nil), g.saves...)
}

func TestHub_CloseFlushesPendingEdits(t *testing.T) {
	gw := &savingGateway{}
	cfg := editor.Config{SaveDelay: time.Hour, TickInterval: 5 * time.Millisecond, PollInterval: time.Hour}
	s := editor.New(KindHorizon, cfg, gw, discardSink{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	hub := NewHub(nil, 0)
	hub.add(KindHorizon, s, cancel)

	// The edit is still inside the debounce window when the hub closes.
	if err := s.Submit(context.Background(), editor.Event{Type: editor.Add, Alt: 30, Az: 90}); err != nil {
		t.Fatal(err)
	}
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer closeCancel()
	if err := hub.Close(closeCtx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case <-s.Done():
	default:
		t.Fatal("session still running after Close")
	}
	saves := gw.saved()
	if len(saves) != 1 {
		t.Fatalf("expected the pending edit to be flushed once, got %d saves", len(saves))
	}
	if len(saves[0]) != 2 || saves[0][1] != (domain.BoundaryPoint{Alt: 30, Az: 90}) {
		t.Errorf("flushed set = %+v", saves[0])
	}
}

func TestHub_AddAfterCloseStopsSession(t *testing.T) {
	hub := NewHub(nil, 0)
	if err := hub.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	hub.add(KindHorizon, editor.New(KindHorizon, editor.Config{}, &savingGateway{}, discardSink{}), cancel)
	if ctx.Err() == nil {
		t.Error("a session added after Close must be cancelled")
	}
	if hub.Count() != 0 {
		t.Errorf("expected no registered sessions, got %d", hub.Count())
	}
}
