package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/laneboard/internal/domain"
)

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) CreateWithOwner(ctx context.Context, b *domain.Board, owner *domain.Membership) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO boards (id, name, owner_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			b.ID, b.Name, b.OwnerID, b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO memberships (id, board_id, user_id, role, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			owner.ID, owner.BoardID, owner.UserID, owner.Role, owner.CreatedAt, owner.UpdatedAt,
		)
		return err
	})
	if pgErrorCode(err) == pgForeignKeyViolation {
		return fmt.Errorf("boardRepo.CreateWithOwner: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("boardRepo.CreateWithOwner: %w", err)
	}

	return nil
}

func (r *BoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	var b domain.Board

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, created_at, updated_at
		 FROM boards WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Name, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", err)
	}

	return &b, nil
}

// ListForUser returns the boards userID is a member of, newest first.
func (r *BoardRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT b.id, b.name, b.owner_id, b.created_at, b.updated_at
		 FROM boards b
		 JOIN memberships m ON m.board_id = b.id
		 WHERE m.user_id = $1
		 ORDER BY b.created_at DESC, b.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.ListForUser: %w", err)
	}
	defer rows.Close()

	boards := []*domain.Board{}
	for rows.Next() {
		var b domain.Board

		err = rows.Scan(&b.ID, &b.Name, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("boardRepo.ListForUser: scan: %w", err)
		}
		boards = append(boards, &b)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("boardRepo.ListForUser: rows: %w", err)
	}

	return boards, nil
}

func (r *BoardRepo) Update(ctx context.Context, b *domain.Board) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE boards SET name = $1, updated_at = now()
		 WHERE id = $2
		 RETURNING updated_at`,
		b.Name, b.ID,
	).Scan(&b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("boardRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("boardRepo.Update: %w", err)
	}

	return nil
}

// Delete removes the board; swimlanes, cards, and memberships cascade.
func (r *BoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("boardRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boardRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
