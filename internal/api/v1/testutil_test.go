package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/laneboard/internal/domain"
	"github.com/gosuda/laneboard/internal/kanban"
	"github.com/gosuda/laneboard/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the authenticated user for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	return middleware.WithUserID(context.Background(), userID)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc     func(ctx context.Context, email, password string) (*domain.User, error)
	loginFunc        func(ctx context.Context, email, password string) (string, string, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	return m.registerFunc(ctx, email, password)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

// ---------------------------------------------------------------------------
// Mock BoardService
// ---------------------------------------------------------------------------

type mockBoardService struct {
	createBoardFunc  func(ctx context.Context, userID uuid.UUID, name string) (*domain.Board, error)
	listBoardsFunc   func(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error)
	getBoardFunc     func(ctx context.Context, userID, boardID uuid.UUID) (*kanban.BoardView, error)
	renameBoardFunc  func(ctx context.Context, userID, boardID uuid.UUID, name string) (*domain.Board, error)
	deleteBoardFunc  func(ctx context.Context, userID, boardID uuid.UUID) error
	listMembersFunc  func(ctx context.Context, userID, boardID uuid.UUID) ([]*domain.Membership, error)
	addMemberFunc    func(ctx context.Context, userID, boardID uuid.UUID, email string) (*domain.Membership, error)
	removeMemberFunc func(ctx context.Context, userID, boardID, membershipID uuid.UUID) error
	listLabelsFunc   func(ctx context.Context) ([]*domain.Label, error)
}

func (m *mockBoardService) CreateBoard(ctx context.Context, userID uuid.UUID, name string) (*domain.Board, error) {
	return m.createBoardFunc(ctx, userID, name)
}

func (m *mockBoardService) ListBoards(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error) {
	return m.listBoardsFunc(ctx, userID)
}

func (m *mockBoardService) GetBoard(ctx context.Context, userID, boardID uuid.UUID) (*kanban.BoardView, error) {
	return m.getBoardFunc(ctx, userID, boardID)
}

func (m *mockBoardService) RenameBoard(ctx context.Context, userID, boardID uuid.UUID, name string) (*domain.Board, error) {
	return m.renameBoardFunc(ctx, userID, boardID, name)
}

func (m *mockBoardService) DeleteBoard(ctx context.Context, userID, boardID uuid.UUID) error {
	return m.deleteBoardFunc(ctx, userID, boardID)
}

func (m *mockBoardService) ListMembers(ctx context.Context, userID, boardID uuid.UUID) ([]*domain.Membership, error) {
	return m.listMembersFunc(ctx, userID, boardID)
}

func (m *mockBoardService) AddMember(ctx context.Context, userID, boardID uuid.UUID, email string) (*domain.Membership, error) {
	return m.addMemberFunc(ctx, userID, boardID, email)
}

func (m *mockBoardService) RemoveMember(ctx context.Context, userID, boardID, membershipID uuid.UUID) error {
	return m.removeMemberFunc(ctx, userID, boardID, membershipID)
}

func (m *mockBoardService) ListLabels(ctx context.Context) ([]*domain.Label, error) {
	return m.listLabelsFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock LaneService
// ---------------------------------------------------------------------------

type mockLaneService struct {
	createSwimlaneFunc func(ctx context.Context, userID, boardID uuid.UUID, name string) (*domain.Swimlane, error)
	renameSwimlaneFunc func(ctx context.Context, userID, boardID, swimlaneID uuid.UUID, name string) (*domain.Swimlane, error)
	moveSwimlaneFunc   func(ctx context.Context, userID, boardID, swimlaneID uuid.UUID, position int) ([]*domain.Swimlane, error)
	deleteSwimlaneFunc func(ctx context.Context, userID, boardID, swimlaneID uuid.UUID) error
	createCardFunc     func(ctx context.Context, userID, boardID, swimlaneID uuid.UUID, in kanban.CardInput) (*domain.Card, error)
	getCardFunc        func(ctx context.Context, userID, boardID, swimlaneID, cardID uuid.UUID) (*domain.Card, error)
	updateCardFunc     func(ctx context.Context, userID, boardID, swimlaneID, cardID uuid.UUID, in kanban.CardInput) (*domain.Card, error)
	moveCardFunc       func(ctx context.Context, userID, boardID, destSwimlaneID, cardID uuid.UUID, position int) (*domain.CardMove, error)
	deleteCardFunc     func(ctx context.Context, userID, boardID, swimlaneID, cardID uuid.UUID) error
}

func (m *mockLaneService) CreateSwimlane(ctx context.Context, userID, boardID uuid.UUID, name string) (*domain.Swimlane, error) {
	return m.createSwimlaneFunc(ctx, userID, boardID, name)
}

func (m *mockLaneService) RenameSwimlane(ctx context.Context, userID, boardID, swimlaneID uuid.UUID, name string) (*domain.Swimlane, error) {
	return m.renameSwimlaneFunc(ctx, userID, boardID, swimlaneID, name)
}

func (m *mockLaneService) MoveSwimlane(ctx context.Context, userID, boardID, swimlaneID uuid.UUID, position int) ([]*domain.Swimlane, error) {
	return m.moveSwimlaneFunc(ctx, userID, boardID, swimlaneID, position)
}

func (m *mockLaneService) DeleteSwimlane(ctx context.Context, userID, boardID, swimlaneID uuid.UUID) error {
	return m.deleteSwimlaneFunc(ctx, userID, boardID, swimlaneID)
}

func (m *mockLaneService) CreateCard(ctx context.Context, userID, boardID, swimlaneID uuid.UUID, in kanban.CardInput) (*domain.Card, error) {
	return m.createCardFunc(ctx, userID, boardID, swimlaneID, in)
}

func (m *mockLaneService) GetCard(ctx context.Context, userID, boardID, swimlaneID, cardID uuid.UUID) (*domain.Card, error) {
	return m.getCardFunc(ctx, userID, boardID, swimlaneID, cardID)
}

func (m *mockLaneService) UpdateCard(ctx context.Context, userID, boardID, swimlaneID, cardID uuid.UUID, in kanban.CardInput) (*domain.Card, error) {
	return m.updateCardFunc(ctx, userID, boardID, swimlaneID, cardID, in)
}

func (m *mockLaneService) MoveCard(ctx context.Context, userID, boardID, destSwimlaneID, cardID uuid.UUID, position int) (*domain.CardMove, error) {
	return m.moveCardFunc(ctx, userID, boardID, destSwimlaneID, cardID, position)
}

func (m *mockLaneService) DeleteCard(ctx context.Context, userID, boardID, swimlaneID, cardID uuid.UUID) error {
	return m.deleteCardFunc(ctx, userID, boardID, swimlaneID, cardID)
}
