// Package mask implements the horizon-mask editor core: polar projection,
// limit-curve interpolation, the point store, draggable point handles and
// the canvas that composes them.
//
// Nothing in this package is safe for concurrent use. A canvas and everything
// it owns belong to a single event loop (see package editor).
package mask

import (
	"math"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/pkg/angle"
)

// Projector maps between the polar domain and a square plotting surface.
// Azimuth 0 points up (north) and grows clockwise; the zenith sits at the
// centre and altitude 0 on the rim.
type Projector struct {
	Radius float64
	Center float64
}

// NewProjector fits a projector into a size×size surface, leaving margin
// pixels between the rim and the edge.
func NewProjector(size int, margin float64) Projector {
	c := float64(size) / 2
	return Projector{Radius: c - margin, Center: c}
}

// ToPlot projects (alt, az) onto the surface.
func (p Projector) ToPlot(alt, az float64) domain.ProjectedPoint {
	compass := angle.ToRad(90 - az)
	r := (1 - alt/domain.MaxAltitude) * p.Radius
	return domain.ProjectedPoint{
		X: p.Center + r*math.Cos(compass),
		Y: p.Center - r*math.Sin(compass),
	}
}

// ToPolar is the inverse of ToPlot. Positions outside the rim yield negative
// altitudes; clamping is left to the caller.
func (p Projector) ToPolar(x, y float64) (alt, az float64) {
	dx, dy := x-p.Center, -(y - p.Center)
	compass := math.Atan2(dy, dx)
	cos, sin := math.Cos(compass), math.Sin(compass)

	// Dividing by cos blows up at ±90°; use whichever component is larger.
	var r float64
	if math.Abs(cos) >= math.Abs(sin) {
		r = dx / cos
	} else {
		r = dy / sin
	}

	alt = domain.MaxAltitude * (1 - r/p.Radius)
	az = angle.Normalize(90 - angle.ToDeg(compass))
	return alt, az
}
