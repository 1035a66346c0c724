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

type MembershipRepo struct {
	pool *pgxpool.Pool
}

func NewMembershipRepo(pool *pgxpool.Pool) *MembershipRepo {
	return &MembershipRepo{pool: pool}
}

const membershipColumns = `m.id, m.board_id, m.user_id, u.email, m.role, m.created_at, m.updated_at`

func scanMembership(row pgx.Row) (*domain.Membership, error) {
	var m domain.Membership
	err := row.Scan(&m.ID, &m.BoardID, &m.UserID, &m.Email, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MembershipRepo) Create(ctx context.Context, m *domain.Membership) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO memberships (id, board_id, user_id, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.BoardID, m.UserID, m.Role, m.CreatedAt, m.UpdatedAt,
	)
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return fmt.Errorf("membershipRepo.Create: %w", domain.ErrConflict)
	case pgForeignKeyViolation:
		return fmt.Errorf("membershipRepo.Create: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("membershipRepo.Create: %w", err)
	}

	return nil
}

func (r *MembershipRepo) Get(ctx context.Context, boardID, userID uuid.UUID) (*domain.Membership, error) {
	m, err := scanMembership(r.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+`
		 FROM memberships m JOIN users u ON u.id = m.user_id
		 WHERE m.board_id = $1 AND m.user_id = $2`,
		boardID, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("membershipRepo.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("membershipRepo.Get: %w", err)
	}

	return m, nil
}

func (r *MembershipRepo) GetByID(ctx context.Context, boardID, id uuid.UUID) (*domain.Membership, error) {
	m, err := scanMembership(r.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+`
		 FROM memberships m JOIN users u ON u.id = m.user_id
		 WHERE m.board_id = $1 AND m.id = $2`,
		boardID, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("membershipRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("membershipRepo.GetByID: %w", err)
	}

	return m, nil
}

// ListByBoard returns the owner first, then members in join order.
func (r *MembershipRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Membership, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+membershipColumns+`
		 FROM memberships m JOIN users u ON u.id = m.user_id
		 WHERE m.board_id = $1
		 ORDER BY m.role = 'owner' DESC, m.created_at, m.id`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("membershipRepo.ListByBoard: %w", err)
	}
	defer rows.Close()

	memberships := []*domain.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("membershipRepo.ListByBoard: scan: %w", err)
		}
		memberships = append(memberships, m)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("membershipRepo.ListByBoard: rows: %w", err)
	}

	return memberships, nil
}

func (r *MembershipRepo) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM memberships WHERE board_id = $1 AND id = $2`,
		boardID, id,
	)
	if err != nil {
		return fmt.Errorf("membershipRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membershipRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
