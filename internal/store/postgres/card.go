package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/laneboard/internal/domain"
	"github.com/gosuda/laneboard/internal/position"
)

// errCardMoving is returned when a card keeps changing swimlanes underneath
// a transaction that is trying to lock it.
var errCardMoving = errors.New("card moved concurrently")

type CardRepo struct {
	pool *pgxpool.Pool
}

func NewCardRepo(pool *pgxpool.Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

const cardColumns = `c.id, c.swimlane_id, s.board_id, c.name, c.description, c.due_date, c.position, c.created_at, c.updated_at`

// Create appends the card to the end of its swimlane and sets c.Position and
// c.BoardID.
func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		boards, err := lockSwimlanes(ctx, tx, c.SwimlaneID)
		if err != nil {
			return err
		}
		c.BoardID = boards[c.SwimlaneID]

		err = tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(position) + 1, 0) FROM cards WHERE swimlane_id = $1`,
			c.SwimlaneID,
		).Scan(&c.Position)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO cards (id, swimlane_id, name, description, due_date, position, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, c.SwimlaneID, c.Name, c.Description, c.DueDate, c.Position, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return err
		}

		return setCardLabels(ctx, tx, c.ID, c.LabelIDs())
	})
	if pgErrorCode(err) == pgForeignKeyViolation {
		return fmt.Errorf("cardRepo.Create: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("cardRepo.Create: %w", err)
	}

	return nil
}

func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	cards, err := listCards(ctx, r.pool, `c.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", domain.ErrNotFound)
	}
	return cards[0], nil
}

func (r *CardRepo) ListBySwimlane(ctx context.Context, swimlaneID uuid.UUID) ([]*domain.Card, error) {
	cards, err := listCards(ctx, r.pool, `c.swimlane_id = $1`, swimlaneID)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.ListBySwimlane: %w", err)
	}
	return cards, nil
}

func (r *CardRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Card, error) {
	cards, err := listCards(ctx, r.pool, `s.board_id = $1`, boardID)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.ListByBoard: %w", err)
	}
	return cards, nil
}

// Update writes name, description, due date, and replaces the label set.
func (r *CardRepo) Update(ctx context.Context, c *domain.Card) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE cards SET name = $1, description = $2, due_date = $3, updated_at = now()
			 WHERE id = $4
			 RETURNING swimlane_id, position, updated_at`,
			c.Name, c.Description, c.DueDate, c.ID,
		).Scan(&c.SwimlaneID, &c.Position, &c.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM card_labels WHERE card_id = $1`, c.ID); err != nil {
			return err
		}
		return setCardLabels(ctx, tx, c.ID, c.LabelIDs())
	})
	if pgErrorCode(err) == pgForeignKeyViolation {
		return fmt.Errorf("cardRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("cardRepo.Update: %w", err)
	}

	return nil
}

// Move places the card at target within destSwimlaneID. When the card comes
// from another swimlane it is reparented there and its former siblings are
// compacted. Both swimlane rows are locked in ID order before the card row.
func (r *CardRepo) Move(ctx context.Context, cardID, destSwimlaneID uuid.UUID, target int) (*domain.CardMove, error) {
	var move *domain.CardMove

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		source, err := lockCard(ctx, tx, cardID, destSwimlaneID)
		if err != nil {
			return err
		}
		crossed := source.swimlaneID != destSwimlaneID

		dest, err := snapshot(ctx, tx,
			`SELECT id, position FROM cards WHERE swimlane_id = $1 AND id <> $2`,
			destSwimlaneID, cardID,
		)
		if err != nil {
			return err
		}

		moving := position.Item{ID: cardID, Position: source.position}
		if crossed {
			moving.Position = -1
			_, err = tx.Exec(ctx,
				`UPDATE cards SET swimlane_id = $1, updated_at = now() WHERE id = $2`,
				destSwimlaneID, cardID,
			)
			if err != nil {
				return err
			}
		}

		_, writes := position.Plan(dest, moving, target)
		if err := applyPositions(ctx, tx, "cards", writes); err != nil {
			return err
		}

		if crossed {
			remaining, err := snapshot(ctx, tx,
				`SELECT id, position FROM cards WHERE swimlane_id = $1`,
				source.swimlaneID,
			)
			if err != nil {
				return err
			}
			_, writes := position.Compact(remaining)
			if err := applyPositions(ctx, tx, "cards", writes); err != nil {
				return err
			}
		}

		move = &domain.CardMove{FromSwimlane: source.swimlaneID}
		move.DestOrder, err = listCards(ctx, tx, `c.swimlane_id = $1`, destSwimlaneID)
		if err != nil {
			return err
		}
		move.SourceOrder = move.DestOrder
		if crossed {
			move.SourceOrder, err = listCards(ctx, tx, `c.swimlane_id = $1`, source.swimlaneID)
			if err != nil {
				return err
			}
		}
		for _, c := range move.DestOrder {
			if c.ID == cardID {
				move.Card = c
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cardRepo.Move: %w", err)
	}

	return move, nil
}

// Delete removes the card and closes the gap in its swimlane.
func (r *CardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		source, err := lockCard(ctx, tx, id)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id); err != nil {
			return err
		}

		remaining, err := snapshot(ctx, tx,
			`SELECT id, position FROM cards WHERE swimlane_id = $1`,
			source.swimlaneID,
		)
		if err != nil {
			return err
		}
		_, writes := position.Compact(remaining)
		return applyPositions(ctx, tx, "cards", writes)
	})
	if err != nil {
		return fmt.Errorf("cardRepo.Delete: %w", err)
	}

	return nil
}

type lockedCard struct {
	swimlaneID uuid.UUID
	position   int
}

// lockCard locks the card's current swimlane together with extra swimlanes
// of the same board, then the card row itself. If the card changed swimlanes
// between the read and the lock it tries again.
func lockCard(ctx context.Context, tx pgx.Tx, cardID uuid.UUID, extra ...uuid.UUID) (lockedCard, error) {
	for attempt := 0; attempt < 3; attempt++ {
		var observed uuid.UUID
		err := tx.QueryRow(ctx, `SELECT swimlane_id FROM cards WHERE id = $1`, cardID).Scan(&observed)
		if errors.Is(err, pgx.ErrNoRows) {
			return lockedCard{}, domain.ErrNotFound
		}
		if err != nil {
			return lockedCard{}, err
		}

		ids := append([]uuid.UUID{observed}, extra...)
		boards, err := lockSwimlanes(ctx, tx, ids...)
		if err != nil {
			return lockedCard{}, err
		}
		for _, boardID := range boards {
			if boardID != boards[observed] {
				// Cards never leave their board.
				return lockedCard{}, domain.ErrNotFound
			}
		}

		var locked lockedCard
		err = tx.QueryRow(ctx,
			`SELECT swimlane_id, position FROM cards WHERE id = $1 FOR UPDATE`,
			cardID,
		).Scan(&locked.swimlaneID, &locked.position)
		if errors.Is(err, pgx.ErrNoRows) {
			return lockedCard{}, domain.ErrNotFound
		}
		if err != nil {
			return lockedCard{}, err
		}
		if locked.swimlaneID == observed {
			return locked, nil
		}
	}
	return lockedCard{}, errCardMoving
}

func setCardLabels(ctx context.Context, tx pgx.Tx, cardID uuid.UUID, labelIDs []uuid.UUID) error {
	if len(labelIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO card_labels (card_id, label_id)
		 SELECT $1, unnest($2::uuid[])
		 ON CONFLICT DO NOTHING`,
		cardID, labelIDs,
	)
	return err
}

// listCards loads cards matching where (over aliases c and s) ordered by
// swimlane position then card position, with their labels.
func listCards(ctx context.Context, q querier, where string, args ...any) ([]*domain.Card, error) {
	rows, err := q.Query(ctx,
		`SELECT `+cardColumns+`
		 FROM cards c JOIN swimlanes s ON s.id = c.swimlane_id
		 WHERE `+where+`
		 ORDER BY s.position, c.position, c.id`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []*domain.Card{}
	byID := make(map[uuid.UUID]*domain.Card)
	for rows.Next() {
		var (
			c   domain.Card
			due *time.Time
		)
		err := rows.Scan(&c.ID, &c.SwimlaneID, &c.BoardID, &c.Name, &c.Description, &due, &c.Position, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		c.DueDate = domain.TruncateDate(due)
		c.Labels = []domain.Label{}
		cards = append(cards, &c)
		byID[c.ID] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(cards) == 0 {
		return cards, nil
	}

	ids := make([]uuid.UUID, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}

	labelRows, err := q.Query(ctx,
		`SELECT cl.card_id, l.id, l.color
		 FROM card_labels cl JOIN labels l ON l.id = cl.label_id
		 WHERE cl.card_id = ANY($1)
		 ORDER BY l.color`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer labelRows.Close()

	for labelRows.Next() {
		var (
			cardID uuid.UUID
			l      domain.Label
		)
		if err := labelRows.Scan(&cardID, &l.ID, &l.Color); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		if c, ok := byID[cardID]; ok {
			c.Labels = append(c.Labels, l)
		}
	}
	return cards, labelRows.Err()
}
