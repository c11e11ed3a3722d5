package mask

import (
	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/pkg/angle"
)

// StepDegrees is the azimuth sampling interval of the limit curve.
const StepDegrees = 1.0

// segment is one linear piece of the cyclic limit function, from a point to
// its successor. end may exceed 360 on the wrap-around piece.
type segment struct {
	start, end float64
	alt, slope float64
}

// segments splits a sorted set into its cyclic linear pieces.
func segments(points []domain.BoundaryPoint) []segment {
	n := len(points)
	out := make([]segment, 0, n)
	for i, p := range points {
		next := points[(i+1)%n]
		start, end := p.Az, next.Az
		if end < start || (i == n-1 && end <= start) {
			end += domain.FullCircle
		}
		var slope float64
		if end > start {
			slope = (next.Alt - p.Alt) / (end - start)
		}
		out = append(out, segment{start: start, end: end, alt: p.Alt, slope: slope})
	}
	return out
}

func (s segment) at(az float64) float64 {
	return s.alt + s.slope*(az-s.start)
}

// Curve samples the limit function of a sorted point set every StepDegrees.
// Each segment contributes its start vertex and the samples strictly before
// its end, so shared vertices appear once; the first point is repeated at the
// end to close the loop. An empty set means "no limit" and yields nil.
func Curve(points []domain.BoundaryPoint) []domain.BoundaryPoint {
	if len(points) == 0 {
		return nil
	}

	var out []domain.BoundaryPoint
	for _, s := range segments(points) {
		out = append(out, domain.BoundaryPoint{Alt: s.alt, Az: s.start})
		for k := 1; ; k++ {
			az := s.start + float64(k)*StepDegrees
			if az >= s.end {
				break
			}
			out = append(out, domain.BoundaryPoint{Alt: s.at(az), Az: angle.Normalize(az)})
		}
	}
	return append(out, points[0])
}

// Interpolate projects the sampled limit curve onto the plotting surface.
func Interpolate(points []domain.BoundaryPoint, proj Projector) []domain.ProjectedPoint {
	samples := Curve(points)
	if samples == nil {
		return nil
	}
	out := make([]domain.ProjectedPoint, len(samples))
	for i, s := range samples {
		out[i] = proj.ToPlot(s.Alt, s.Az)
	}
	return out
}

// AltitudeAt evaluates the limit function at az. ok is false for an empty
// set, which imposes no limit.
func AltitudeAt(points []domain.BoundaryPoint, az float64) (alt float64, ok bool) {
	if len(points) == 0 {
		return 0, false
	}
	az = angle.Normalize(az)
	for _, s := range segments(points) {
		x := az
		if x < s.start {
			x += domain.FullCircle
		}
		if x >= s.start && x < s.end {
			return s.at(x), true
		}
	}
	// Only reachable through float rounding at a segment edge.
	return points[0].Alt, true
}
