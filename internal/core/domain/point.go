package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	// MaxAltitude is the zenith.
	MaxAltitude = 90.0
	// FullCircle is the exclusive upper bound of a normalised azimuth.
	FullCircle = 360.0
)

// FallbackPoint replaces an emptied boundary set. Kept for compatibility with
// existing clients, which expect a set to never be empty.
var FallbackPoint = BoundaryPoint{Alt: 0, Az: 0}

// BoundaryPoint declares the minimum altitude the mount may point to at one
// compass bearing.
type BoundaryPoint struct {
	Alt float64 `json:"alt" msgpack:"alt"`
	Az  float64 `json:"az" msgpack:"az"`
}

// Validate reports whether p lies inside [0,90]×[0,360).
func (p BoundaryPoint) Validate() error {
	switch {
	case math.IsNaN(p.Alt) || math.IsInf(p.Alt, 0):
		return &ValidationError{Index: -1, Point: p, Reason: "altitude is not a finite number"}
	case math.IsNaN(p.Az) || math.IsInf(p.Az, 0):
		return &ValidationError{Index: -1, Point: p, Reason: "azimuth is not a finite number"}
	case p.Alt < 0 || p.Alt > MaxAltitude:
		return &ValidationError{Index: -1, Point: p, Reason: "altitude must be within [0, 90]"}
	case p.Az < 0 || p.Az >= FullCircle:
		return &ValidationError{Index: -1, Point: p, Reason: "azimuth must be within [0, 360)"}
	}
	return nil
}

// ValidatePoints validates every point and returns the first failure with
// its index filled in.
func ValidatePoints(points []BoundaryPoint) error {
	for i, p := range points {
		if err := p.Validate(); err != nil {
			verr := err.(*ValidationError)
			verr.Index = i
			return verr
		}
	}
	return nil
}

// ValidationError is returned when a point falls outside the legal domain.
// Index is -1 when the point was not part of a list.
type ValidationError struct {
	Index  int
	Point  BoundaryPoint
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid point (alt=%g, az=%g): %s", e.Point.Alt, e.Point.Az, e.Reason)
	}
	return fmt.Sprintf("invalid point #%d (alt=%g, az=%g): %s", e.Index, e.Point.Alt, e.Point.Az, e.Reason)
}

// ProjectedPoint is a plotting-surface coordinate. Always derived.
type ProjectedPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MountPosition is a polled snapshot of where the mount points.
// Alt may be negative when the mount is parked below the horizon.
type MountPosition struct {
	Alt  float64   `json:"alt" msgpack:"alt"`
	Az   float64   `json:"az" msgpack:"az"`
	Time time.Time `json:"time" msgpack:"time"`
}

// Settings is the subset of the mount settings payload owned by this service.
type Settings struct {
	HorizonLimitPoints []BoundaryPoint `json:"horizon_limit_points" msgpack:"horizon_limit_points"`
}

// LimitCheck is the result of testing a target against the horizon limit.
type LimitCheck struct {
	Alt     float64 `json:"alt"`
	Az      float64 `json:"az"`
	Limit   float64 `json:"limit"`
	Allowed bool    `json:"allowed"`
}
