package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/horizonmask/internal/core/domain"
)

// HorizonRepo implements ports.HorizonRepository with pgx.
type HorizonRepo struct {
	db *DB
}

// NewHorizonRepo creates a new HorizonRepo.
func NewHorizonRepo(db *DB) *HorizonRepo {
	return &HorizonRepo{db: db}
}

// Get returns the stored set ordered by azimuth.
func (r *HorizonRepo) Get(ctx context.Context) ([]domain.BoundaryPoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT alt, az FROM horizon_limit_points ORDER BY az, seq
	`)
	if err != nil {
		return nil, err
	}
	points, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.BoundaryPoint])
	if err != nil {
		return nil, fmt.Errorf("scan horizon points: %w", err)
	}
	return points, nil
}

// Replace swaps the whole set inside one transaction.
func (r *HorizonRepo) Replace(ctx context.Context, points []domain.BoundaryPoint) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM horizon_limit_points`); err != nil {
			return fmt.Errorf("clear horizon points: %w", err)
		}
		if len(points) == 0 {
			return nil
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"horizon_limit_points"},
			[]string{"seq", "alt", "az"},
			pgx.CopyFromSlice(len(points), func(i int) ([]any, error) {
				return []any{int32(i), points[i].Alt, points[i].Az}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy horizon points: %w", err)
		}
		return nil
	})
}
