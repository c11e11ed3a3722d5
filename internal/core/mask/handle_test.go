package mask

import (
	"math"
	"testing"

	"github.com/samirrijal/horizonmask/internal/core/domain"
)

type commitRecorder struct {
	calls   int
	index   int
	alt, az float64
}

func (r *commitRecorder) commit(index int, alt, az float64) error {
	r.calls++
	r.index, r.alt, r.az = index, alt, az
	return nil
}

func TestHandle_DragPastRimClampsToZero(t *testing.T) {
	proj := Projector{Radius: 100, Center: 120}
	rec := &commitRecorder{}
	h := NewHandle(2, domain.BoundaryPoint{Alt: 30, Az: 90}, proj, rec.commit)

	start := h.Position()
	h.DragStart(start.X, start.Y)
	// Far east, well outside the rim.
	h.DragMove(start.X+500, start.Y)

	alt, az := h.Polar()
	if alt != 0 {
		t.Fatalf("expected altitude clamped to 0, got %v", alt)
	}
	rim := proj.ToPlot(0, az)
	if pos := h.Position(); math.Abs(pos.X-rim.X) > 1e-9 || math.Abs(pos.Y-rim.Y) > 1e-9 {
		t.Errorf("handle should snap to the rim, got %+v want %+v", pos, rim)
	}
	if r, ok := h.Readout(); !ok || r.Alt != 0 {
		t.Errorf("expected readout with alt 0, got %+v %v", r, ok)
	}

	if err := h.DragEnd(); err != nil {
		t.Fatal(err)
	}
	if rec.calls != 1 || rec.index != 2 || rec.alt != 0 {
		t.Errorf("unexpected commit %+v", rec)
	}
	if _, ok := h.Readout(); ok {
		t.Error("readout should disappear after drag end")
	}
}

func TestHandle_DragKeepsPointerOffset(t *testing.T) {
	proj := Projector{Radius: 100, Center: 100}
	rec := &commitRecorder{}
	h := NewHandle(0, domain.BoundaryPoint{Alt: 45, Az: 0}, proj, rec.commit)

	pos := h.Position()
	// Grab 3 px right of the centre of the handle.
	h.DragStart(pos.X+3, pos.Y)
	target := proj.ToPlot(60, 90)
	h.DragMove(target.X+3, target.Y)

	alt, az := h.Polar()
	if math.Abs(alt-60) > 1e-9 || math.Abs(az-90) > 1e-9 {
		t.Errorf("expected (60, 90), got (%v, %v)", alt, az)
	}
}

func TestHandle_DragEndWithoutDragIsNoop(t *testing.T) {
	rec := &commitRecorder{}
	h := NewHandle(0, domain.BoundaryPoint{Alt: 10, Az: 10}, NewProjector(200, 10), rec.commit)

	h.DragMove(5, 5)
	if err := h.DragEnd(); err != nil {
		t.Fatal(err)
	}
	if rec.calls != 0 {
		t.Errorf("expected no commit, got %d", rec.calls)
	}
}

func TestHandle_ClickWithoutMoveDoesNotCommit(t *testing.T) {
	rec := &commitRecorder{}
	proj := NewProjector(200, 10)
	h := NewHandle(0, domain.BoundaryPoint{Alt: 10, Az: 10}, proj, rec.commit)

	at := h.Position()
	h.DragStart(at.X, at.Y)
	if err := h.DragEnd(); err != nil {
		t.Fatal(err)
	}
	if rec.calls != 0 {
		t.Errorf("expected no commit for a click, got %d", rec.calls)
	}
	if h.Dragging() {
		t.Error("drag should be over")
	}
}

func TestHandle_HoverIsVisualOnly(t *testing.T) {
	rec := &commitRecorder{}
	h := NewHandle(0, domain.BoundaryPoint{Alt: 10, Az: 10}, NewProjector(200, 10), rec.commit)
	before := h.Position()

	if !h.SetHover(true) {
		t.Fatal("expected hover change")
	}
	if h.SetHover(true) {
		t.Error("second hover should be a no-op")
	}
	if h.Scale() != HoverScale {
		t.Errorf("expected hover scale, got %v", h.Scale())
	}
	alt, az := h.Polar()
	if h.Position() != before || alt != 10 || az != 10 || rec.calls != 0 {
		t.Error("hover must not change data")
	}
}
