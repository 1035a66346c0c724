package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/laneboard/internal/domain"
	"github.com/gosuda/laneboard/internal/position"
)

type SwimlaneRepo struct {
	pool *pgxpool.Pool
}

func NewSwimlaneRepo(pool *pgxpool.Pool) *SwimlaneRepo {
	return &SwimlaneRepo{pool: pool}
}

// Create appends the swimlane after the board's last swimlane and sets
// s.Position.
func (r *SwimlaneRepo) Create(ctx context.Context, s *domain.Swimlane) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockBoard(ctx, tx, s.BoardID); err != nil {
			return err
		}

		err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(position) + 1, 0) FROM swimlanes WHERE board_id = $1`,
			s.BoardID,
		).Scan(&s.Position)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO swimlanes (id, board_id, name, position, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			s.ID, s.BoardID, s.Name, s.Position, s.CreatedAt, s.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("swimlaneRepo.Create: %w", err)
	}

	return nil
}

func (r *SwimlaneRepo) GetByID(ctx context.Context, boardID, id uuid.UUID) (*domain.Swimlane, error) {
	var s domain.Swimlane

	err := r.pool.QueryRow(ctx,
		`SELECT id, board_id, name, position, created_at, updated_at
		 FROM swimlanes WHERE board_id = $1 AND id = $2`,
		boardID, id,
	).Scan(&s.ID, &s.BoardID, &s.Name, &s.Position, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("swimlaneRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("swimlaneRepo.GetByID: %w", err)
	}

	return &s, nil
}

func (r *SwimlaneRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Swimlane, error) {
	lanes, err := listSwimlanes(ctx, r.pool, boardID)
	if err != nil {
		return nil, fmt.Errorf("swimlaneRepo.ListByBoard: %w", err)
	}
	return lanes, nil
}

func (r *SwimlaneRepo) Update(ctx context.Context, s *domain.Swimlane) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE swimlanes SET name = $1, updated_at = now()
		 WHERE board_id = $2 AND id = $3
		 RETURNING position, updated_at`,
		s.Name, s.BoardID, s.ID,
	).Scan(&s.Position, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("swimlaneRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("swimlaneRepo.Update: %w", err)
	}

	return nil
}

// Move places swimlane id at target among the board's swimlanes and returns
// the committed order. The board row and every swimlane row are locked for
// the duration of the transaction.
func (r *SwimlaneRepo) Move(ctx context.Context, boardID, id uuid.UUID, target int) ([]*domain.Swimlane, error) {
	var lanes []*domain.Swimlane

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockBoard(ctx, tx, boardID); err != nil {
			return err
		}

		items, err := snapshot(ctx, tx,
			`SELECT id, position FROM swimlanes WHERE board_id = $1 ORDER BY id FOR UPDATE`,
			boardID,
		)
		if err != nil {
			return err
		}

		var (
			moving   position.Item
			found    bool
			siblings = make([]position.Item, 0, len(items))
		)
		for _, it := range items {
			if it.ID == id {
				moving, found = it, true
				continue
			}
			siblings = append(siblings, it)
		}
		if !found {
			return domain.ErrNotFound
		}

		_, writes := position.Plan(siblings, moving, target)
		if err := applyPositions(ctx, tx, "swimlanes", writes); err != nil {
			return err
		}

		lanes, err = listSwimlanes(ctx, tx, boardID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("swimlaneRepo.Move: %w", err)
	}

	return lanes, nil
}

// Delete removes the swimlane with its cards and closes the gap it leaves.
func (r *SwimlaneRepo) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockBoard(ctx, tx, boardID); err != nil {
			return err
		}

		items, err := snapshot(ctx, tx,
			`SELECT id, position FROM swimlanes WHERE board_id = $1 ORDER BY id FOR UPDATE`,
			boardID,
		)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM swimlanes WHERE board_id = $1 AND id = $2`, boardID, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}

		remaining := make([]position.Item, 0, len(items))
		for _, it := range items {
			if it.ID != id {
				remaining = append(remaining, it)
			}
		}
		_, writes := position.Compact(remaining)
		return applyPositions(ctx, tx, "swimlanes", writes)
	})
	if err != nil {
		return fmt.Errorf("swimlaneRepo.Delete: %w", err)
	}

	return nil
}

func listSwimlanes(ctx context.Context, q querier, boardID uuid.UUID) ([]*domain.Swimlane, error) {
	rows, err := q.Query(ctx,
		`SELECT id, board_id, name, position, created_at, updated_at
		 FROM swimlanes WHERE board_id = $1
		 ORDER BY position, id`,
		boardID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lanes := []*domain.Swimlane{}
	for rows.Next() {
		var s domain.Swimlane
		if err := rows.Scan(&s.ID, &s.BoardID, &s.Name, &s.Position, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		lanes = append(lanes, &s)
	}
	return lanes, rows.Err()
}
