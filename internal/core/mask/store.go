package mask

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/samirrijal/horizonmask/internal/core/domain"
)

// ErrIndexOutOfRange is returned when a point index does not exist.
var ErrIndexOutOfRange = errors.New("point index out of range")

// ChangeKind says which store operation produced a Change.
type ChangeKind int

const (
	ChangeSet ChangeKind = iota
	ChangeMove
	ChangeAdd
	ChangeDelete
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSet:
		return "set"
	case ChangeMove:
		return "move"
	case ChangeAdd:
		return "add"
	case ChangeDelete:
		return "delete"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Edit reports whether the change came from the operator rather than a load.
func (k ChangeKind) Edit() bool {
	return k != ChangeSet
}

// Change is delivered to observers after every successful mutation.
// Points is a copy the observer may keep.
type Change struct {
	Kind   ChangeKind
	Points []domain.BoundaryPoint
}

// Observer receives store changes.
type Observer func(Change)

// Store is the sole owner of a boundary set. Points are always sorted by
// azimuth and the set is never empty: removing the last point leaves
// domain.FallbackPoint behind. Indices are only valid until the next change.
type Store struct {
	points    []domain.BoundaryPoint
	observers map[int]Observer
	order     []int
	nextID    int
}

// NewStore returns a store holding the fallback point.
func NewStore() *Store {
	return &Store{
		points:    []domain.BoundaryPoint{domain.FallbackPoint},
		observers: make(map[int]Observer),
	}
}

// Subscribe registers fn and returns a function removing it again.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.order = append(s.order, id)
	return func() {
		delete(s.observers, id)
		s.order = slices.DeleteFunc(s.order, func(v int) bool { return v == id })
	}
}

// Points returns a copy of the current set.
func (s *Store) Points() []domain.BoundaryPoint {
	return slices.Clone(s.points)
}

// Len returns the number of points.
func (s *Store) Len() int {
	return len(s.points)
}

// At returns the point at index i.
func (s *Store) At(i int) (domain.BoundaryPoint, bool) {
	if i < 0 || i >= len(s.points) {
		return domain.BoundaryPoint{}, false
	}
	return s.points[i], true
}

// Set replaces the whole set. Nothing is applied if any point is invalid.
// An empty list stores the fallback point.
func (s *Store) Set(points []domain.BoundaryPoint) error {
	if err := domain.ValidatePoints(points); err != nil {
		return err
	}
	next := slices.Clone(points)
	if len(next) == 0 {
		next = []domain.BoundaryPoint{domain.FallbackPoint}
	}
	s.replace(next, ChangeSet)
	return nil
}

// MovePoint moves the point at index to (alt, az) and re-sorts.
func (s *Store) MovePoint(index int, alt, az float64) error {
	if index < 0 || index >= len(s.points) {
		return fmt.Errorf("move %d: %w", index, ErrIndexOutOfRange)
	}
	p := domain.BoundaryPoint{Alt: alt, Az: az}
	if err := p.Validate(); err != nil {
		err.(*domain.ValidationError).Index = index
		return err
	}
	next := slices.Clone(s.points)
	next[index] = p
	s.replace(next, ChangeMove)
	return nil
}

// AddPoint inserts p and re-sorts.
func (s *Store) AddPoint(p domain.BoundaryPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	next := append(slices.Clone(s.points), p)
	s.replace(next, ChangeAdd)
	return nil
}

// DeletePoint removes the point at index. Deleting the only point leaves
// the fallback point in its place.
func (s *Store) DeletePoint(index int) error {
	if index < 0 || index >= len(s.points) {
		return fmt.Errorf("delete %d: %w", index, ErrIndexOutOfRange)
	}
	next := slices.Delete(slices.Clone(s.points), index, index+1)
	if len(next) == 0 {
		next = append(next, domain.FallbackPoint)
	}
	s.replace(next, ChangeDelete)
	return nil
}

func (s *Store) replace(next []domain.BoundaryPoint, kind ChangeKind) {
	slices.SortStableFunc(next, func(a, b domain.BoundaryPoint) int {
		return cmp.Compare(a.Az, b.Az)
	})
	s.points = next

	for _, id := range slices.Clone(s.order) {
		if fn, ok := s.observers[id]; ok {
			fn(Change{Kind: kind, Points: slices.Clone(next)})
		}
	}
}
