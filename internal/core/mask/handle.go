package mask

import (
	"math"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/pkg/angle"
)

const (
	// HandleRadius is the pick radius of a handle in surface pixels.
	HandleRadius = 8.0
	// HoverScale enlarges a handle under the pointer.
	HoverScale = 1.5
	// readoutOffset places the drag readout next to the cursor.
	readoutOffset = 12.0
)

// CommitFunc applies a finished drag to the point at index.
type CommitFunc func(index int, alt, az float64) error

// Readout is the transient position label shown while dragging.
type Readout struct {
	Alt float64               `json:"alt"`
	Az  float64               `json:"az"`
	At  domain.ProjectedPoint `json:"at"`
}

// Handle is the draggable marker for one boundary point. It knows the
// point's index and how to commit a move, not the store itself.
type Handle struct {
	index  int
	proj   Projector
	commit CommitFunc

	alt, az float64
	pos     domain.ProjectedPoint

	dragging   bool
	moved      bool
	offX, offY float64
	hovered    bool
	readout    *Readout
}

// NewHandle places a handle on point p at index.
func NewHandle(index int, p domain.BoundaryPoint, proj Projector, commit CommitFunc) *Handle {
	return &Handle{
		index:  index,
		proj:   proj,
		commit: commit,
		alt:    p.Alt,
		az:     p.Az,
		pos:    proj.ToPlot(p.Alt, p.Az),
	}
}

func (h *Handle) Index() int                      { return h.index }
func (h *Handle) Position() domain.ProjectedPoint { return h.pos }
func (h *Handle) Polar() (alt, az float64)        { return h.alt, h.az }
func (h *Handle) Dragging() bool                  { return h.dragging }
func (h *Handle) Hovered() bool                   { return h.hovered }

// Scale is the visual size factor; hover never touches the data.
func (h *Handle) Scale() float64 {
	if h.hovered || h.dragging {
		return HoverScale
	}
	return 1
}

// Readout returns the drag label, if a drag is in progress.
func (h *Handle) Readout() (Readout, bool) {
	if h.readout == nil {
		return Readout{}, false
	}
	return *h.readout, true
}

// Contains reports whether the pointer at (x, y) picks this handle.
func (h *Handle) Contains(x, y float64) bool {
	return math.Hypot(x-h.pos.X, y-h.pos.Y) <= HandleRadius*h.Scale()
}

// SetHover toggles the hover state and reports whether it changed.
func (h *Handle) SetHover(on bool) bool {
	if h.hovered == on {
		return false
	}
	h.hovered = on
	return true
}

// DragStart begins a drag with the pointer at (px, py).
func (h *Handle) DragStart(px, py float64) {
	h.dragging = true
	h.moved = false
	h.offX = px - h.pos.X
	h.offY = py - h.pos.Y
}

// DragMove follows the pointer. Positions beyond the rim snap back onto it.
func (h *Handle) DragMove(px, py float64) {
	if !h.dragging {
		return
	}
	x, y := px-h.offX, py-h.offY
	alt, az := h.proj.ToPolar(x, y)

	pos := domain.ProjectedPoint{X: x, Y: y}
	if alt < 0 || alt > domain.MaxAltitude {
		alt = angle.Clamp(alt, 0, domain.MaxAltitude)
		pos = h.proj.ToPlot(alt, az)
	}

	h.alt, h.az, h.pos = alt, az, pos
	h.moved = true
	h.readout = &Readout{
		Alt: alt,
		Az:  az,
		At:  domain.ProjectedPoint{X: px + readoutOffset, Y: py - readoutOffset},
	}
}

// DragEnd finishes the drag and commits the final position. It is a no-op
// when no drag is in progress or the pointer never moved.
func (h *Handle) DragEnd() error {
	if !h.dragging {
		return nil
	}
	h.dragging = false
	h.readout = nil
	if !h.moved {
		return nil
	}
	return h.commit(h.index, h.alt, h.az)
}
