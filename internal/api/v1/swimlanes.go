package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/laneboard/internal/domain"
)

type CreateSwimlaneInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		Name string `json:"name" maxLength:"255" doc:"Swimlane name"`
	}
}

type SwimlaneOutput struct {
	Body *domain.Swimlane
}

type SwimlanePathInput struct {
	BoardID    uuid.UUID `path:"boardID" doc:"Board ID"`
	SwimlaneID uuid.UUID `path:"swimlaneID" doc:"Swimlane ID"`
}

type RenameSwimlaneInput struct {
	BoardID    uuid.UUID `path:"boardID" doc:"Board ID"`
	SwimlaneID uuid.UUID `path:"swimlaneID" doc:"Swimlane ID"`
	Body       struct {
		Name string `json:"name" maxLength:"255" doc:"New swimlane name"`
	}
}

type MoveSwimlaneInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		SwimlaneID uuid.UUID `json:"swimlane_id" doc:"Swimlane to move"`
		Position   int       `json:"position" doc:"Target index; out-of-range values are clamped"`
	}
}

func RegisterSwimlaneRoutes(api huma.API, svc LaneService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-swimlane",
		Method:        http.MethodPost,
		Path:          "/boards/{boardID}/swimlanes",
		Summary:       "Append a swimlane to a board",
		Tags:          []string{"Swimlanes"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateSwimlaneInput) (*SwimlaneOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		s, err := svc.CreateSwimlane(ctx, userID, input.BoardID, input.Body.Name)
		if err != nil {
			return nil, serviceError(err, "board not found", "failed to create swimlane")
		}

		return &SwimlaneOutput{Body: s}, nil
	})

	// Registered ahead of /swimlanes/{swimlaneID} so routers that match in
	// order do not treat "reorder" as an ID.
	huma.Register(api, huma.Operation{
		OperationID:   "move-swimlane",
		Method:        http.MethodPatch,
		Path:          "/boards/{boardID}/swimlanes/reorder",
		Summary:       "Move a swimlane to a new position",
		Tags:          []string{"Swimlanes"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *MoveSwimlaneInput) (*struct{}, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		if _, err := svc.MoveSwimlane(ctx, userID, input.BoardID, input.Body.SwimlaneID, input.Body.Position); err != nil {
			return nil, serviceError(err, "swimlane not found", "failed to move swimlane")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rename-swimlane",
		Method:      http.MethodPatch,
		Path:        "/boards/{boardID}/swimlanes/{swimlaneID}",
		Summary:     "Rename a swimlane",
		Tags:        []string{"Swimlanes"},
	}, func(ctx context.Context, input *RenameSwimlaneInput) (*SwimlaneOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		s, err := svc.RenameSwimlane(ctx, userID, input.BoardID, input.SwimlaneID, input.Body.Name)
		if err != nil {
			return nil, serviceError(err, "swimlane not found", "failed to rename swimlane")
		}

		return &SwimlaneOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-swimlane",
		Method:      http.MethodDelete,
		Path:        "/boards/{boardID}/swimlanes/{swimlaneID}",
		Summary:     "Delete a swimlane and its cards",
		Tags:        []string{"Swimlanes"},
	}, func(ctx context.Context, input *SwimlanePathInput) (*struct{}, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		if err := svc.DeleteSwimlane(ctx, userID, input.BoardID, input.SwimlaneID); err != nil {
			return nil, serviceError(err, "swimlane not found", "failed to delete swimlane")
		}

		return nil, nil
	})
}
