package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/laneboard/internal/domain"
	"github.com/gosuda/laneboard/internal/kanban"
)

type CreateBoardInput struct {
	Body struct {
		Name string `json:"name" maxLength:"255" doc:"Board name"`
	}
}

type BoardOutput struct {
	Body *domain.Board
}

type ListBoardsOutput struct {
	Body []*domain.Board
}

type BoardPathInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

type GetBoardOutput struct {
	Body *kanban.BoardView
}

type RenameBoardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		Name string `json:"name" maxLength:"255" doc:"New board name"`
	}
}

func RegisterBoardRoutes(api huma.API, svc BoardService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-board",
		Method:        http.MethodPost,
		Path:          "/boards",
		Summary:       "Create a board owned by the caller",
		Tags:          []string{"Boards"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateBoardInput) (*BoardOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		board, err := svc.CreateBoard(ctx, userID, input.Body.Name)
		if err != nil {
			return nil, serviceError(err, "board not found", "failed to create board")
		}

		return &BoardOutput{Body: board}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-boards",
		Method:      http.MethodGet,
		Path:        "/boards",
		Summary:     "List boards the caller belongs to",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, _ *struct{}) (*ListBoardsOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		boards, err := svc.ListBoards(ctx, userID)
		if err != nil {
			return nil, serviceError(err, "board not found", "failed to list boards")
		}
		if boards == nil {
			boards = []*domain.Board{}
		}

		return &ListBoardsOutput{Body: boards}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}",
		Summary:     "Get a board with its swimlanes, cards and stream token",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *BoardPathInput) (*GetBoardOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		view, err := svc.GetBoard(ctx, userID, input.BoardID)
		if err != nil {
			return nil, serviceError(err, "board not found", "failed to load board")
		}

		return &GetBoardOutput{Body: view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rename-board",
		Method:      http.MethodPatch,
		Path:        "/boards/{boardID}",
		Summary:     "Rename a board (owner only)",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *RenameBoardInput) (*BoardOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		board, err := svc.RenameBoard(ctx, userID, input.BoardID, input.Body.Name)
		if err != nil {
			return nil, serviceError(err, "board not found", "failed to rename board")
		}

		return &BoardOutput{Body: board}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-board",
		Method:      http.MethodDelete,
		Path:        "/boards/{boardID}",
		Summary:     "Delete a board and everything on it (owner only)",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *BoardPathInput) (*struct{}, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		if err := svc.DeleteBoard(ctx, userID, input.BoardID); err != nil {
			return nil, serviceError(err, "board not found", "failed to delete board")
		}

		return nil, nil
	})
}
