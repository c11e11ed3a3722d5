package mask

import (
	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/pkg/angle"
)

// Options configures a Canvas.
type Options struct {
	Size   int     // plotting surface edge in pixels
	Margin float64 // gap between rim and surface edge
}

// DefaultOptions matches the browser widget.
func DefaultOptions() Options {
	return Options{Size: 400, Margin: 20}
}

// HandleView is the render-side description of one handle.
type HandleView struct {
	Index    int                   `json:"index"`
	Alt      float64               `json:"alt"`
	Az       float64               `json:"az"`
	At       domain.ProjectedPoint `json:"at"`
	Scale    float64               `json:"scale"`
	Dragging bool                  `json:"dragging"`
}

// Frame is an immutable snapshot of everything a redraw needs.
type Frame struct {
	Size     int                     `json:"size"`
	Center   float64                 `json:"center"`
	Radius   float64                 `json:"radius"`
	Points   []domain.BoundaryPoint  `json:"points"`
	Curve    []domain.ProjectedPoint `json:"curve"`
	Handles  []HandleView            `json:"handles"`
	Readout  *Readout                `json:"readout,omitempty"`
	Position *domain.ProjectedPoint  `json:"position,omitempty"`
}

// Canvas is the editor's composition root. It owns the point store, the
// handles and the interpolated curve, and redraws lazily.
type Canvas struct {
	opts  Options
	proj  Projector
	store *Store

	handles []*Handle
	curve   []domain.ProjectedPoint
	active  *Handle
	live    *domain.MountPosition
	dirty   bool
}

// NewCanvas builds a canvas holding the fallback point. It starts dirty so
// the first tick draws.
func NewCanvas(opts Options) *Canvas {
	if opts.Size <= 0 {
		opts = DefaultOptions()
	}
	c := &Canvas{
		opts:  opts,
		proj:  NewProjector(opts.Size, opts.Margin),
		store: NewStore(),
	}
	c.store.Subscribe(c.pointsChanged)
	c.rebuild(c.store.Points())
	return c
}

// Projector returns the canvas projection.
func (c *Canvas) Projector() Projector { return c.proj }

// Subscribe forwards to the store so owners can react to changes.
func (c *Canvas) Subscribe(fn Observer) func() { return c.store.Subscribe(fn) }

// Points returns a copy of the current boundary set.
func (c *Canvas) Points() []domain.BoundaryPoint { return c.store.Points() }

// Curve returns the projected limit curve.
func (c *Canvas) Curve() []domain.ProjectedPoint { return c.curve }

// Dirty reports whether a redraw is pending.
func (c *Canvas) Dirty() bool { return c.dirty }

// Dragging reports whether a handle is being dragged.
func (c *Canvas) Dragging() bool { return c.active != nil }

// Invalidate forces a redraw on the next tick.
func (c *Canvas) Invalidate() { c.dirty = true }

func (c *Canvas) pointsChanged(ch Change) {
	c.rebuild(ch.Points)
}

func (c *Canvas) rebuild(points []domain.BoundaryPoint) {
	c.curve = Interpolate(points, c.proj)

	c.active = nil
	c.handles = make([]*Handle, len(points))
	for i, p := range points {
		c.handles[i] = NewHandle(i, p, c.proj, c.store.MovePoint)
	}
	c.dirty = true
}

// Load replaces the boundary set, e.g. after a gateway load.
func (c *Canvas) Load(points []domain.BoundaryPoint) error {
	return c.store.Set(points)
}

// AddPoint adds an operator-supplied point.
func (c *Canvas) AddPoint(p domain.BoundaryPoint) error {
	return c.store.AddPoint(p)
}

// AddAtPosition adds a point at the mount's position, pulled into the legal
// domain first (a parked mount may report a negative altitude).
func (c *Canvas) AddAtPosition(pos domain.MountPosition) error {
	return c.store.AddPoint(domain.BoundaryPoint{
		Alt: angle.Clamp(pos.Alt, 0, domain.MaxAltitude),
		Az:  angle.Normalize(pos.Az),
	})
}

// DeletePoint removes the point at index.
func (c *Canvas) DeletePoint(index int) error {
	return c.store.DeletePoint(index)
}

// SetLivePosition updates the mount marker.
func (c *Canvas) SetLivePosition(pos domain.MountPosition) {
	if c.live != nil && c.live.Alt == pos.Alt && c.live.Az == pos.Az {
		return
	}
	c.live = &pos
	c.dirty = true
}

// PointerDown starts dragging the topmost handle under the pointer and
// reports whether one was hit.
func (c *Canvas) PointerDown(x, y float64) bool {
	h := c.handleAt(x, y)
	if h == nil {
		return false
	}
	c.active = h
	h.DragStart(x, y)
	c.dirty = true
	return true
}

// PointerMove drags the active handle, or updates hover state.
func (c *Canvas) PointerMove(x, y float64) {
	if c.active != nil {
		c.active.DragMove(x, y)
		c.dirty = true
		return
	}
	under := c.handleAt(x, y)
	for _, h := range c.handles {
		if h.SetHover(h == under) {
			c.dirty = true
		}
	}
}

// PointerUp commits the active drag. The commit rebuilds all handles.
func (c *Canvas) PointerUp() error {
	if c.active == nil {
		return nil
	}
	h := c.active
	c.active = nil
	c.dirty = true
	if err := h.DragEnd(); err != nil {
		// Snap the handle back to what the store holds.
		c.rebuild(c.store.Points())
		return err
	}
	return nil
}

// PointerLeave behaves like PointerUp and clears hover.
func (c *Canvas) PointerLeave() error {
	for _, h := range c.handles {
		if h.SetHover(false) {
			c.dirty = true
		}
	}
	return c.PointerUp()
}

func (c *Canvas) handleAt(x, y float64) *Handle {
	for i := len(c.handles) - 1; i >= 0; i-- {
		if c.handles[i].Contains(x, y) {
			return c.handles[i]
		}
	}
	return nil
}

// Frame snapshots the current drawing state.
func (c *Canvas) Frame() Frame {
	f := Frame{
		Size:    c.opts.Size,
		Center:  c.proj.Center,
		Radius:  c.proj.Radius,
		Points:  c.store.Points(),
		Curve:   append([]domain.ProjectedPoint(nil), c.curve...),
		Handles: make([]HandleView, len(c.handles)),
	}
	for i, h := range c.handles {
		alt, az := h.Polar()
		f.Handles[i] = HandleView{
			Index:    h.Index(),
			Alt:      alt,
			Az:       az,
			At:       h.Position(),
			Scale:    h.Scale(),
			Dragging: h.Dragging(),
		}
		if r, ok := h.Readout(); ok {
			f.Readout = &r
		}
	}
	if c.live != nil {
		p := c.proj.ToPlot(angle.Clamp(c.live.Alt, 0, domain.MaxAltitude), angle.Normalize(c.live.Az))
		f.Position = &p
	}
	return f
}

// Tick redraws through draw if anything changed since the last successful
// redraw. It reports whether draw was called.
func (c *Canvas) Tick(draw func(Frame) error) (bool, error) {
	if !c.dirty {
		return false, nil
	}
	if err := draw(c.Frame()); err != nil {
		return true, err
	}
	c.dirty = false
	return true, nil
}
