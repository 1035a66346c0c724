package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/laneboard/internal/domain"
)

type LabelRepo struct {
	pool *pgxpool.Pool
}

func NewLabelRepo(pool *pgxpool.Pool) *LabelRepo {
	return &LabelRepo{pool: pool}
}

// List returns the palette ordered by color.
func (r *LabelRepo) List(ctx context.Context) ([]*domain.Label, error) {
	labels, err := r.query(ctx, `SELECT id, color FROM labels ORDER BY color`)
	if err != nil {
		return nil, fmt.Errorf("labelRepo.List: %w", err)
	}
	return labels, nil
}

// GetByIDs returns the labels that exist among ids; unknown IDs are skipped.
func (r *LabelRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Label, error) {
	if len(ids) == 0 {
		return []*domain.Label{}, nil
	}
	labels, err := r.query(ctx, `SELECT id, color FROM labels WHERE id = ANY($1) ORDER BY color`, ids)
	if err != nil {
		return nil, fmt.Errorf("labelRepo.GetByIDs: %w", err)
	}
	return labels, nil
}

func (r *LabelRepo) query(ctx context.Context, sql string, args ...any) ([]*domain.Label, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := []*domain.Label{}
	for rows.Next() {
		var l domain.Label
		if err := rows.Scan(&l.ID, &l.Color); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		labels = append(labels, &l)
	}
	return labels, rows.Err()
}
