// Package render rasterises mask frames to PNG with gg.
package render

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gogpu/gg"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/mask"
	"github.com/samirrijal/horizonmask/internal/pkg/metrics"
)

// Theme holds the palette.
type Theme struct {
	Background gg.RGBA
	Sky        gg.RGBA
	Grid       gg.RGBA
	Obstructed gg.RGBA
	Limit      gg.RGBA
	Handle     gg.RGBA
	Active     gg.RGBA
	Mount      gg.RGBA
}

// DefaultTheme is the dark observatory palette.
func DefaultTheme() Theme {
	return Theme{
		Background: gg.Hex("#101418"),
		Sky:        gg.Hex("#1b2633"),
		Grid:       gg.RGBA2(1, 1, 1, 0.15),
		Obstructed: gg.RGBA2(0.75, 0.2, 0.15, 0.45),
		Limit:      gg.Hex("#ff6b4a"),
		Handle:     gg.Hex("#f0a830"),
		Active:     gg.Hex("#ffe066"),
		Mount:      gg.Hex("#4cd97b"),
	}
}

// gridAltitudes are the rings drawn between horizon and zenith.
var gridAltitudes = []float64{30, 60}

// Renderer draws frames and keeps recently drawn images. Safe for concurrent
// use; each Render owns its own gg context.
type Renderer struct {
	theme Theme
	cache *expirable.LRU[uint64, []byte]
}

// New creates a renderer caching up to cacheSize images for ttl.
// cacheSize 0 disables the cache.
func New(theme Theme, cacheSize int, ttl time.Duration) *Renderer {
	r := &Renderer{theme: theme}
	if cacheSize > 0 {
		r.cache = expirable.NewLRU[uint64, []byte](cacheSize, nil, ttl)
	}
	return r
}

// Render returns the PNG encoding of f.
func (r *Renderer) Render(f mask.Frame) ([]byte, error) {
	var key uint64
	if r.cache != nil {
		k, err := frameKey(f)
		if err != nil {
			return nil, err
		}
		if png, ok := r.cache.Get(k); ok {
			return png, nil
		}
		key = k
	}

	start := time.Now()
	png, err := r.draw(f)
	if err != nil {
		return nil, err
	}
	metrics.FrameRenderDuration.Observe(time.Since(start).Seconds())

	if r.cache != nil {
		r.cache.Add(key, png)
	}
	return png, nil
}

// RenderPoints draws a static frame for a point set at the given size.
func (r *Renderer) RenderPoints(points []domain.BoundaryPoint, size int) ([]byte, error) {
	c := mask.NewCanvas(mask.Options{Size: size, Margin: math.Max(4, float64(size)/20)})
	if len(points) > 0 {
		if err := c.Load(points); err != nil {
			return nil, err
		}
	}
	return r.Render(c.Frame())
}

func frameKey(f mask.Frame) (uint64, error) {
	data, err := msgpack.Marshal(&f)
	if err != nil {
		return 0, fmt.Errorf("encode frame key: %w", err)
	}
	return xxhash.Sum64(data), nil
}

func (r *Renderer) draw(f mask.Frame) ([]byte, error) {
	dc := gg.NewContext(f.Size, f.Size)
	defer dc.Close()
	t := r.theme
	cx, cy, rad := f.Center, f.Center, f.Radius

	dc.ClearWithColor(t.Background)

	dc.SetColor(t.Sky.Color())
	dc.DrawCircle(cx, cy, rad)
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("fill sky: %w", err)
	}

	// Area between the rim and the limit curve.
	if len(f.Curve) > 2 {
		dc.SetFillRule(gg.FillRuleEvenOdd)
		dc.DrawCircle(cx, cy, rad)
		dc.NewSubPath()
		dc.MoveTo(f.Curve[0].X, f.Curve[0].Y)
		for _, p := range f.Curve[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.ClosePath()
		dc.SetColor(t.Obstructed.Color())
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("fill obstruction: %w", err)
		}
		dc.SetFillRule(gg.FillRuleNonZero)
	}

	dc.SetColor(t.Grid.Color())
	dc.SetLineWidth(1)
	for _, alt := range gridAltitudes {
		dc.DrawCircle(cx, cy, rad*(1-alt/domain.MaxAltitude))
	}
	dc.DrawCircle(cx, cy, rad)
	for az := 0.0; az < domain.FullCircle; az += 45 {
		a := (90 - az) * math.Pi / 180
		dc.MoveTo(cx, cy)
		dc.LineTo(cx+rad*math.Cos(a), cy-rad*math.Sin(a))
	}
	if err := dc.Stroke(); err != nil {
		return nil, fmt.Errorf("stroke grid: %w", err)
	}

	if len(f.Curve) > 1 {
		dc.SetColor(t.Limit.Color())
		dc.SetLineWidth(2)
		dc.MoveTo(f.Curve[0].X, f.Curve[0].Y)
		for _, p := range f.Curve[1:] {
			dc.LineTo(p.X, p.Y)
		}
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("stroke limit: %w", err)
		}
	}

	for _, h := range f.Handles {
		dc.SetColor(t.Handle.Color())
		if h.Dragging {
			dc.SetColor(t.Active.Color())
		}
		dc.DrawCircle(h.At.X, h.At.Y, mask.HandleRadius*h.Scale)
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("fill handle %d: %w", h.Index, err)
		}
	}

	if f.Position != nil {
		p := *f.Position
		dc.SetColor(t.Mount.Color())
		dc.SetLineWidth(2)
		dc.DrawCircle(p.X, p.Y, 6)
		dc.DrawLine(p.X-10, p.Y, p.X+10, p.Y)
		dc.DrawLine(p.X, p.Y-10, p.X, p.Y+10)
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("stroke mount marker: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
