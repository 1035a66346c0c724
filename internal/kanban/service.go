// Package kanban applies board, membership, swimlane, and card mutations on
// behalf of an authenticated user and announces each committed change to the
// board's viewers.
package kanban

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/laneboard/internal/domain"
)

// Store is the repository accessor used by the service.
// *postgres.Store satisfies this interface.
type Store interface {
	Users() domain.UserRepository
	Boards() domain.BoardRepository
	Memberships() domain.MembershipRepository
	Swimlanes() domain.SwimlaneRepository
	Cards() domain.CardRepository
	Labels() domain.LabelRepository
}

// Notifier receives committed changes. Implementations must not block on or
// report delivery failures. *broadcast.Broadcaster satisfies this interface.
type Notifier interface {
	SwimlaneCreated(ctx context.Context, s *domain.Swimlane)
	SwimlaneUpdated(ctx context.Context, s *domain.Swimlane, cards []*domain.Card)
	SwimlanesReordered(ctx context.Context, boardID uuid.UUID, lanes []*domain.Swimlane, cards []*domain.Card)
	SwimlaneDeleted(ctx context.Context, boardID, swimlaneID uuid.UUID)
	CardCreated(ctx context.Context, c *domain.Card)
	CardUpdated(ctx context.Context, c *domain.Card)
	CardsReordered(ctx context.Context, boardID, swimlaneID uuid.UUID, cards []*domain.Card)
	CardDeleted(ctx context.Context, boardID, cardID uuid.UUID)
}

// StreamSigner issues signed stream tokens. *auth.StreamSigner satisfies
// this interface.
type StreamSigner interface {
	Sign(stream string) (string, error)
}

type Service struct {
	store    Store
	notifier Notifier
	signer   StreamSigner
}

func NewService(store Store, notifier Notifier, signer StreamSigner) *Service {
	return &Service{store: store, notifier: notifier, signer: signer}
}

// access resolves the board and the caller's membership on it. A missing
// board and a missing membership are indistinguishable to the caller.
func (s *Service) access(ctx context.Context, userID, boardID uuid.UUID) (*domain.Board, *domain.Membership, error) {
	if userID == uuid.Nil {
		return nil, nil, domain.ErrUnauthorized
	}

	board, err := s.store.Boards().GetByID(ctx, boardID)
	if err != nil {
		return nil, nil, err
	}

	m, err := s.store.Memberships().Get(ctx, boardID, userID)
	if err != nil {
		return nil, nil, err
	}

	return board, m, nil
}

// ownerAccess is access restricted to the board owner. Other members are
// told the board does not exist.
func (s *Service) ownerAccess(ctx context.Context, userID, boardID uuid.UUID) (*domain.Board, error) {
	board, m, err := s.access(ctx, userID, boardID)
	if err != nil {
		return nil, err
	}
	if !m.IsOwner() {
		return nil, domain.ErrNotFound
	}
	return board, nil
}

// AuthorizeViewer reports whether userID may watch boardID's stream.
func (s *Service) AuthorizeViewer(ctx context.Context, boardID, userID uuid.UUID) error {
	if _, _, err := s.access(ctx, userID, boardID); err != nil {
		return fmt.Errorf("kanban.Service.AuthorizeViewer: %w", err)
	}
	return nil
}

// --- Boards ---

func (s *Service) CreateBoard(ctx context.Context, userID uuid.UUID, name string) (*domain.Board, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("kanban.Service.CreateBoard: %w", domain.ErrUnauthorized)
	}

	board, owner, err := domain.NewBoard(userID, name)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.CreateBoard: %w", err)
	}

	if err := s.store.Boards().CreateWithOwner(ctx, board, owner); err != nil {
		return nil, fmt.Errorf("kanban.Service.CreateBoard: %w", err)
	}

	return board, nil
}

func (s *Service) ListBoards(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("kanban.Service.ListBoards: %w", domain.ErrUnauthorized)
	}

	boards, err := s.store.Boards().ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.ListBoards: %w", err)
	}
	return boards, nil
}

// SwimlaneView is a swimlane with its cards in position order.
type SwimlaneView struct {
	domain.Swimlane
	Cards []*domain.Card `json:"cards"`
}

// BoardView is everything a viewer needs to render a board and subscribe to
// its changes.
type BoardView struct {
	Board       *domain.Board   `json:"board"`
	Role        domain.Role     `json:"role"`
	Swimlanes   []*SwimlaneView `json:"swimlanes"`
	StreamName  string          `json:"stream_name"`
	StreamToken string          `json:"signed_stream_name"`
	IssuedAt    time.Time       `json:"issued_at"`
}

// GetBoard loads the ordered board contents and issues a fresh signed
// stream token bound to this board.
func (s *Service) GetBoard(ctx context.Context, userID, boardID uuid.UUID) (*BoardView, error) {
	board, m, err := s.access(ctx, userID, boardID)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.GetBoard: %w", err)
	}

	lanes, err := s.store.Swimlanes().ListByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.GetBoard: %w", err)
	}
	cards, err := s.store.Cards().ListByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.GetBoard: %w", err)
	}

	token, err := s.signer.Sign(board.GlobalID())
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.GetBoard: %w", err)
	}

	bySwimlane := make(map[uuid.UUID][]*domain.Card, len(lanes))
	for _, c := range cards {
		bySwimlane[c.SwimlaneID] = append(bySwimlane[c.SwimlaneID], c)
	}

	view := &BoardView{
		Board:       board,
		Role:        m.Role,
		Swimlanes:   make([]*SwimlaneView, 0, len(lanes)),
		StreamName:  board.GlobalID(),
		StreamToken: token,
		IssuedAt:    time.Now(),
	}
	for _, l := range lanes {
		laneCards := bySwimlane[l.ID]
		if laneCards == nil {
			laneCards = []*domain.Card{}
		}
		view.Swimlanes = append(view.Swimlanes, &SwimlaneView{Swimlane: *l, Cards: laneCards})
	}

	return view, nil
}

func (s *Service) RenameBoard(ctx context.Context, userID, boardID uuid.UUID, name string) (*domain.Board, error) {
	board, err := s.ownerAccess(ctx, userID, boardID)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.RenameBoard: %w", err)
	}

	name, err = domain.NormalizeName(name)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.RenameBoard: %w", err)
	}

	board.Name = name
	if err := s.store.Boards().Update(ctx, board); err != nil {
		return nil, fmt.Errorf("kanban.Service.RenameBoard: %w", err)
	}

	return board, nil
}

func (s *Service) DeleteBoard(ctx context.Context, userID, boardID uuid.UUID) error {
	if _, err := s.ownerAccess(ctx, userID, boardID); err != nil {
		return fmt.Errorf("kanban.Service.DeleteBoard: %w", err)
	}

	if err := s.store.Boards().Delete(ctx, boardID); err != nil {
		return fmt.Errorf("kanban.Service.DeleteBoard: %w", err)
	}

	return nil
}

// --- Memberships ---

func (s *Service) ListMembers(ctx context.Context, userID, boardID uuid.UUID) ([]*domain.Membership, error) {
	if _, err := s.ownerAccess(ctx, userID, boardID); err != nil {
		return nil, fmt.Errorf("kanban.Service.ListMembers: %w", err)
	}

	members, err := s.store.Memberships().ListByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.ListMembers: %w", err)
	}
	return members, nil
}

// AddMember grants the user registered under email member access to the
// board.
func (s *Service) AddMember(ctx context.Context, userID, boardID uuid.UUID, email string) (*domain.Membership, error) {
	if _, err := s.ownerAccess(ctx, userID, boardID); err != nil {
		return nil, fmt.Errorf("kanban.Service.AddMember: %w", err)
	}

	user, err := s.store.Users().GetByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("kanban.Service.AddMember: %w",
			domain.NewValidationError("email", "No user found with that email address"))
	}
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.AddMember: %w", err)
	}

	now := time.Now()
	m := &domain.Membership{
		ID:        uuid.New(),
		BoardID:   boardID,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      domain.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Memberships().Create(ctx, m); err != nil {
		return nil, fmt.Errorf("kanban.Service.AddMember: %w", err)
	}

	return m, nil
}

// RemoveMember revokes a membership. Open streams of the removed user are
// not closed; they stop being authorized on their next subscribe.
func (s *Service) RemoveMember(ctx context.Context, userID, boardID, membershipID uuid.UUID) error {
	if _, err := s.ownerAccess(ctx, userID, boardID); err != nil {
		return fmt.Errorf("kanban.Service.RemoveMember: %w", err)
	}

	m, err := s.store.Memberships().GetByID(ctx, boardID, membershipID)
	if err != nil {
		return fmt.Errorf("kanban.Service.RemoveMember: %w", err)
	}
	if m.IsOwner() {
		return fmt.Errorf("kanban.Service.RemoveMember: %w",
			domain.NewValidationError("membership", "Cannot remove the board owner"))
	}

	if err := s.store.Memberships().Delete(ctx, boardID, membershipID); err != nil {
		return fmt.Errorf("kanban.Service.RemoveMember: %w", err)
	}

	return nil
}

// --- Labels ---

func (s *Service) ListLabels(ctx context.Context) ([]*domain.Label, error) {
	labels, err := s.store.Labels().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.ListLabels: %w", err)
	}
	return labels, nil
}
