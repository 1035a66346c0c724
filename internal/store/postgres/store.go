package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/laneboard/internal/domain"
	"github.com/gosuda/laneboard/internal/position"
)

type Store struct {
	pool        *pgxpool.Pool
	users       *UserRepo
	boards      *BoardRepo
	memberships *MembershipRepo
	swimlanes   *SwimlaneRepo
	cards       *CardRepo
	labels      *LabelRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return NewWithPool(pool), nil
}

// NewWithPool wraps an existing pool. The caller keeps ownership of the pool
// unless it later calls Close.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:        pool,
		users:       NewUserRepo(pool),
		boards:      NewBoardRepo(pool),
		memberships: NewMembershipRepo(pool),
		swimlanes:   NewSwimlaneRepo(pool),
		cards:       NewCardRepo(pool),
		labels:      NewLabelRepo(pool),
	}
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres.Store.Ping: %w", err)
	}
	return nil
}

func (s *Store) Users() domain.UserRepository             { return s.users }
func (s *Store) Boards() domain.BoardRepository           { return s.boards }
func (s *Store) Memberships() domain.MembershipRepository { return s.memberships }
func (s *Store) Swimlanes() domain.SwimlaneRepository     { return s.swimlanes }
func (s *Store) Cards() domain.CardRepository             { return s.cards }
func (s *Store) Labels() domain.LabelRepository           { return s.labels }

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// snapshot reads the positioned rows returned by query as position items.
func snapshot(ctx context.Context, q querier, query string, args ...any) ([]position.Item, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []position.Item
	for rows.Next() {
		var it position.Item
		if err := rows.Scan(&it.ID, &it.Position); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// applyPositions writes the given positions in one round trip. The unique
// position constraints are deferred, so intermediate duplicates are allowed
// until commit.
func applyPositions(ctx context.Context, tx pgx.Tx, table string, writes []position.Assignment) error {
	if len(writes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, w := range writes {
		batch.Queue(`UPDATE `+table+` SET position = $1 WHERE id = $2`, w.Position, w.ID)
	}

	br := tx.SendBatch(ctx, batch)
	for range writes {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("update %s positions: %w", table, err)
		}
	}
	return br.Close()
}

// lockBoard takes the board row lock that serializes structural changes to
// its swimlane list.
func lockBoard(ctx context.Context, tx pgx.Tx, boardID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM boards WHERE id = $1 FOR UPDATE`, boardID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// lockSwimlanes locks the given swimlane rows in ID order and returns their
// board IDs. Every transaction that locks more than one swimlane goes
// through here, so lock acquisition order is consistent.
func lockSwimlanes(ctx context.Context, tx pgx.Tx, ids ...uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, board_id FROM swimlanes WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boards := make(map[uuid.UUID]uuid.UUID, len(ids))
	for rows.Next() {
		var id, boardID uuid.UUID
		if err := rows.Scan(&id, &boardID); err != nil {
			return nil, err
		}
		boards[id] = boardID
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, ok := boards[id]; !ok {
			return nil, domain.ErrNotFound
		}
	}
	return boards, nil
}
