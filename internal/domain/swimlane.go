package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Swimlane struct {
	ID        uuid.UUID `json:"id"`
	BoardID   uuid.UUID `json:"board_id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSwimlane validates the name. Position is assigned by the repository on
// insert (appended after the current last swimlane).
func NewSwimlane(boardID uuid.UUID, name string) (*Swimlane, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Swimlane{
		ID:        uuid.New(),
		BoardID:   boardID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SwimlaneRepository persists swimlanes. Every method that changes the set
// or order of a board's swimlanes leaves positions dense (0..n-1) on commit.
type SwimlaneRepository interface {
	Create(ctx context.Context, s *Swimlane) error
	GetByID(ctx context.Context, boardID, id uuid.UUID) (*Swimlane, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Swimlane, error)
	Update(ctx context.Context, s *Swimlane) error
	// Move places the swimlane at target (clamped) and returns the board's
	// swimlanes in their new order.
	Move(ctx context.Context, boardID, id uuid.UUID, target int) ([]*Swimlane, error)
	Delete(ctx context.Context, boardID, id uuid.UUID) error
}
