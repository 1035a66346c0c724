package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/laneboard/internal/domain"
	"github.com/gosuda/laneboard/internal/kanban"
)

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// BoardService abstracts board, membership and label operations.
// *kanban.Service satisfies this interface.
type BoardService interface {
	CreateBoard(ctx context.Context, userID uuid.UUID, name string) (*domain.Board, error)
	ListBoards(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error)
	GetBoard(ctx context.Context, userID, boardID uuid.UUID) (*kanban.BoardView, error)
	RenameBoard(ctx context.Context, userID, boardID uuid.UUID, name string) (*domain.Board, error)
	DeleteBoard(ctx context.Context, userID, boardID uuid.UUID) error

	ListMembers(ctx context.Context, userID, boardID uuid.UUID) ([]*domain.Membership, error)
	AddMember(ctx context.Context, userID, boardID uuid.UUID, email string) (*domain.Membership, error)
	RemoveMember(ctx context.Context, userID, boardID, membershipID uuid.UUID) error

	ListLabels(ctx context.Context) ([]*domain.Label, error)
}

// LaneService abstracts swimlane and card operations.
// *kanban.Service satisfies this interface.
type LaneService interface {
	CreateSwimlane(ctx context.Context, userID, boardID uuid.UUID, name string) (*domain.Swimlane, error)
	RenameSwimlane(ctx context.Context, userID, boardID, swimlaneID uuid.UUID, name string) (*domain.Swimlane, error)
	MoveSwimlane(ctx context.Context, userID, boardID, swimlaneID uuid.UUID, position int) ([]*domain.Swimlane, error)
	DeleteSwimlane(ctx context.Context, userID, boardID, swimlaneID uuid.UUID) error

	CreateCard(ctx context.Context, userID, boardID, swimlaneID uuid.UUID, in kanban.CardInput) (*domain.Card, error)
	GetCard(ctx context.Context, userID, boardID, swimlaneID, cardID uuid.UUID) (*domain.Card, error)
	UpdateCard(ctx context.Context, userID, boardID, swimlaneID, cardID uuid.UUID, in kanban.CardInput) (*domain.Card, error)
	MoveCard(ctx context.Context, userID, boardID, destSwimlaneID, cardID uuid.UUID, position int) (*domain.CardMove, error)
	DeleteCard(ctx context.Context, userID, boardID, swimlaneID, cardID uuid.UUID) error
}
