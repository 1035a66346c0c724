package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/laneboard/internal/domain"
)

type ListLabelsOutput struct {
	Body []*domain.Label
}

func RegisterLabelRoutes(api huma.API, svc BoardService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-labels",
		Method:      http.MethodGet,
		Path:        "/labels",
		Summary:     "List the label palette",
		Tags:        []string{"Labels"},
	}, func(ctx context.Context, _ *struct{}) (*ListLabelsOutput, error) {
		if _, err := currentUser(ctx); err != nil {
			return nil, err
		}

		labels, err := svc.ListLabels(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list labels", err)
		}

		return &ListLabelsOutput{Body: labels}, nil
	})
}
