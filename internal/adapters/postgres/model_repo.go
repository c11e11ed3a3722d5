package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/horizonmask/internal/core/domain"
)

// ModelRepo implements ports.ModelRepository with pgx.
type ModelRepo struct {
	db *DB
}

// NewModelRepo creates a new ModelRepo.
func NewModelRepo(db *DB) *ModelRepo {
	return &ModelRepo{db: db}
}

// List returns the sync points of the active pointing model.
func (r *ModelRepo) List(ctx context.Context) ([]domain.BoundaryPoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT p.alt, p.az
		FROM pointing_model_points p
		JOIN pointing_models m ON m.id = p.model_id
		WHERE m.active
		ORDER BY p.az, p.id
	`)
	if err != nil {
		return nil, err
	}
	points, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.BoundaryPoint])
	if err != nil {
		return nil, fmt.Errorf("scan model points: %w", err)
	}
	return points, nil
}
