package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BoardGlobalIDPrefix prefixes the stable, application-wide identifier of a
// board. Signed stream tokens bind to this string rather than the bare UUID.
const BoardGlobalIDPrefix = "gid://laneboard/Board/"

type Board struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBoard validates the name and returns a board owned by ownerID together
// with the owner membership that must be persisted in the same transaction.
func NewBoard(ownerID uuid.UUID, name string) (*Board, *Membership, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, nil, err
	}
	if ownerID == uuid.Nil {
		return nil, nil, NewValidationError("owner", "is required")
	}

	now := time.Now()
	b := &Board{
		ID:        uuid.New(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m := &Membership{
		ID:        uuid.New(),
		BoardID:   b.ID,
		UserID:    ownerID,
		Role:      RoleOwner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return b, m, nil
}

// GlobalID returns the identifier signed into stream tokens for this board.
func (b *Board) GlobalID() string {
	return BoardGlobalIDPrefix + b.ID.String()
}

// ParseBoardGlobalID is the inverse of Board.GlobalID.
func ParseBoardGlobalID(gid string) (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(gid, BoardGlobalIDPrefix)
	if !ok {
		return uuid.Nil, ErrNotFound
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return id, nil
}

// NormalizeName trims surrounding whitespace and rejects blank names.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError("name", "can't be blank")
	}
	return name, nil
}

type BoardRepository interface {
	// CreateWithOwner inserts the board and its owner membership atomically.
	CreateWithOwner(ctx context.Context, b *Board, owner *Membership) error
	GetByID(ctx context.Context, id uuid.UUID) (*Board, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Board, error)
	Update(ctx context.Context, b *Board) error
	Delete(ctx context.Context, id uuid.UUID) error
}
