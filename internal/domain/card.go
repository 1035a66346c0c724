package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Card struct {
	ID          uuid.UUID  `json:"id"`
	SwimlaneID  uuid.UUID  `json:"swimlane_id"`
	BoardID     uuid.UUID  `json:"board_id"` // derived from the swimlane, read-only
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"` // date only
	Position    int        `json:"position"`
	Labels      []Label    `json:"labels"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewCard validates the name. Position is assigned on insert.
func NewCard(swimlane *Swimlane, name, description string, dueDate *time.Time, labels []Label) (*Card, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if labels == nil {
		labels = []Label{}
	}
	now := time.Now()
	return &Card{
		ID:          uuid.New(),
		SwimlaneID:  swimlane.ID,
		BoardID:     swimlane.BoardID,
		Name:        name,
		Description: description,
		DueDate:     TruncateDate(dueDate),
		Labels:      labels,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// LabelIDs returns the IDs of the card's labels in order.
func (c *Card) LabelIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Labels))
	for i, l := range c.Labels {
		ids[i] = l.ID
	}
	return ids
}

// TruncateDate drops the time-of-day component, keeping the calendar date in UTC.
func TruncateDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// CardMove is the outcome of moving a card: the card after the move and the
// resulting order of both affected swimlanes. Source equals Destination when
// the card stayed in the same swimlane.
type CardMove struct {
	Card         *Card
	FromSwimlane uuid.UUID
	SourceOrder  []*Card
	DestOrder    []*Card
}

// Crossed reports whether the card changed swimlanes.
func (m *CardMove) Crossed() bool {
	return m.FromSwimlane != m.Card.SwimlaneID
}

// CardRepository persists cards. Positions within each swimlane stay dense
// (0..n-1) after every committed mutation.
type CardRepository interface {
	Create(ctx context.Context, c *Card) error
	GetByID(ctx context.Context, id uuid.UUID) (*Card, error)
	ListBySwimlane(ctx context.Context, swimlaneID uuid.UUID) ([]*Card, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Card, error)
	Update(ctx context.Context, c *Card) error
	// Move reparents the card into destSwimlaneID (if different) and places
	// it at target (clamped), renumbering both swimlanes.
	Move(ctx context.Context, cardID, destSwimlaneID uuid.UUID, target int) (*CardMove, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
