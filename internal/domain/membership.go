package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleMember
}

type Membership struct {
	ID        uuid.UUID `json:"id"`
	BoardID   uuid.UUID `json:"board_id"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email,omitempty"` // joined from users on list
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Membership) IsOwner() bool {
	return m.Role == RoleOwner
}

type MembershipRepository interface {
	// Create returns ErrConflict when the user already belongs to the board.
	Create(ctx context.Context, m *Membership) error
	// Get resolves the membership of userID on boardID, or ErrNotFound.
	Get(ctx context.Context, boardID, userID uuid.UUID) (*Membership, error)
	GetByID(ctx context.Context, boardID, id uuid.UUID) (*Membership, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Membership, error)
	Delete(ctx context.Context, boardID, id uuid.UUID) error
}
