package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/laneboard/internal/domain"
	"github.com/gosuda/laneboard/internal/kanban"
)

// CardBody is the editable card payload. Updates replace every field.
type CardBody struct {
	Name        string      `json:"name" maxLength:"255" doc:"Card name"`
	Description string      `json:"description,omitempty" maxLength:"10000" doc:"Free-form description"`
	DueDate     *time.Time  `json:"due_date,omitempty" doc:"Due date; the time of day is discarded"`
	LabelIDs    []uuid.UUID `json:"label_ids,omitempty" doc:"Labels from the palette"`
}

func (b CardBody) input() kanban.CardInput {
	return kanban.CardInput{
		Name:        b.Name,
		Description: b.Description,
		DueDate:     b.DueDate,
		LabelIDs:    b.LabelIDs,
	}
}

type CreateCardInput struct {
	BoardID    uuid.UUID `path:"boardID" doc:"Board ID"`
	SwimlaneID uuid.UUID `path:"swimlaneID" doc:"Swimlane ID"`
	Body       CardBody
}

type CardOutput struct {
	Body *domain.Card
}

type CardPathInput struct {
	BoardID    uuid.UUID `path:"boardID" doc:"Board ID"`
	SwimlaneID uuid.UUID `path:"swimlaneID" doc:"Swimlane ID"`
	CardID     uuid.UUID `path:"cardID" doc:"Card ID"`
}

type UpdateCardInput struct {
	BoardID    uuid.UUID `path:"boardID" doc:"Board ID"`
	SwimlaneID uuid.UUID `path:"swimlaneID" doc:"Swimlane ID"`
	CardID     uuid.UUID `path:"cardID" doc:"Card ID"`
	Body       CardBody
}

// MoveCardInput is addressed by the destination swimlane; the card may
// currently live in any swimlane of the same board.
type MoveCardInput struct {
	BoardID    uuid.UUID `path:"boardID" doc:"Board ID"`
	SwimlaneID uuid.UUID `path:"swimlaneID" doc:"Destination swimlane ID"`
	Body       struct {
		CardID   uuid.UUID `json:"card_id" doc:"Card to move"`
		Position int       `json:"position" doc:"Target index; out-of-range values are clamped"`
	}
}

func RegisterCardRoutes(api huma.API, svc LaneService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-card",
		Method:        http.MethodPost,
		Path:          "/boards/{boardID}/swimlanes/{swimlaneID}/cards",
		Summary:       "Append a card to a swimlane",
		Tags:          []string{"Cards"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateCardInput) (*CardOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		card, err := svc.CreateCard(ctx, userID, input.BoardID, input.SwimlaneID, input.Body.input())
		if err != nil {
			return nil, serviceError(err, "swimlane not found", "failed to create card")
		}

		return &CardOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "move-card",
		Method:        http.MethodPatch,
		Path:          "/boards/{boardID}/swimlanes/{swimlaneID}/cards/reorder",
		Summary:       "Move a card into this swimlane at a position",
		Tags:          []string{"Cards"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *MoveCardInput) (*struct{}, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		if _, err := svc.MoveCard(ctx, userID, input.BoardID, input.SwimlaneID, input.Body.CardID, input.Body.Position); err != nil {
			return nil, serviceError(err, "card not found", "failed to move card")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-card",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/swimlanes/{swimlaneID}/cards/{cardID}",
		Summary:     "Get a card",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *CardPathInput) (*CardOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		card, err := svc.GetCard(ctx, userID, input.BoardID, input.SwimlaneID, input.CardID)
		if err != nil {
			return nil, serviceError(err, "card not found", "failed to load card")
		}

		return &CardOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-card",
		Method:      http.MethodPatch,
		Path:        "/boards/{boardID}/swimlanes/{swimlaneID}/cards/{cardID}",
		Summary:     "Replace a card's fields and labels",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *UpdateCardInput) (*CardOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		card, err := svc.UpdateCard(ctx, userID, input.BoardID, input.SwimlaneID, input.CardID, input.Body.input())
		if err != nil {
			return nil, serviceError(err, "card not found", "failed to update card")
		}

		return &CardOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-card",
		Method:      http.MethodDelete,
		Path:        "/boards/{boardID}/swimlanes/{swimlaneID}/cards/{cardID}",
		Summary:     "Delete a card",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *CardPathInput) (*struct{}, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		if err := svc.DeleteCard(ctx, userID, input.BoardID, input.SwimlaneID, input.CardID); err != nil {
			return nil, serviceError(err, "card not found", "failed to delete card")
		}

		return nil, nil
	})
}
