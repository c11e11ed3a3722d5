// Package editor runs a mask canvas as an interactive session: a single
// event loop that serialises pointer input, redraw ticks, position polls and
// the results of asynchronous loads and saves.
package editor

import (
	"context"

	"github.com/samirrijal/horizonmask/internal/core/domain"
)

// Gateway loads and persists the point set a session edits.
type Gateway interface {
	Load(ctx context.Context) ([]domain.BoundaryPoint, error)
	Save(ctx context.Context, points []domain.BoundaryPoint) error
}

// LoaderFunc fetches a point set.
type LoaderFunc func(ctx context.Context) ([]domain.BoundaryPoint, error)

// SaverFunc persists a full point set.
type SaverFunc func(ctx context.Context, points []domain.BoundaryPoint) error

type funcGateway struct {
	load LoaderFunc
	save SaverFunc
}

func (g funcGateway) Load(ctx context.Context) ([]domain.BoundaryPoint, error) {
	return g.load(ctx)
}

func (g funcGateway) Save(ctx context.Context, points []domain.BoundaryPoint) error {
	return g.save(ctx, points)
}

// NewGateway builds a writable gateway from a load and a save function.
func NewGateway(load LoaderFunc, save SaverFunc) Gateway {
	return funcGateway{load: load, save: save}
}

// LoadOnly builds the gateway for read-only sessions: saves are dropped.
func LoadOnly(load LoaderFunc) Gateway {
	return funcGateway{
		load: load,
		save: func(context.Context, []domain.BoundaryPoint) error { return nil },
	}
}

// PositionSource reports the live mount position.
type PositionSource interface {
	Position(ctx context.Context) (domain.MountPosition, error)
}

// PositionFunc adapts a function to PositionSource.
type PositionFunc func(ctx context.Context) (domain.MountPosition, error)

func (f PositionFunc) Position(ctx context.Context) (domain.MountPosition, error) {
	return f(ctx)
}
