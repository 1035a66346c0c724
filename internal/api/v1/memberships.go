package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/laneboard/internal/domain"
)

type ListMembershipsOutput struct {
	Body []*domain.Membership
}

type AddMembershipInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		Email string `json:"email" minLength:"1" maxLength:"255" doc:"Email of an existing user"`
	}
}

type MembershipOutput struct {
	Body *domain.Membership
}

type MembershipPathInput struct {
	BoardID      uuid.UUID `path:"boardID" doc:"Board ID"`
	MembershipID uuid.UUID `path:"membershipID" doc:"Membership ID"`
}

func RegisterMembershipRoutes(api huma.API, svc BoardService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-memberships",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/memberships",
		Summary:     "List board members (owner only)",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *BoardPathInput) (*ListMembershipsOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		members, err := svc.ListMembers(ctx, userID, input.BoardID)
		if err != nil {
			return nil, serviceError(err, "board not found", "failed to list members")
		}

		return &ListMembershipsOutput{Body: members}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-membership",
		Method:        http.MethodPost,
		Path:          "/boards/{boardID}/memberships",
		Summary:       "Add a member by email (owner only)",
		Tags:          []string{"Memberships"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *AddMembershipInput) (*MembershipOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		m, err := svc.AddMember(ctx, userID, input.BoardID, input.Body.Email)
		if err != nil {
			return nil, serviceError(err, "board not found", "failed to add member")
		}

		return &MembershipOutput{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-membership",
		Method:      http.MethodDelete,
		Path:        "/boards/{boardID}/memberships/{membershipID}",
		Summary:     "Remove a member (owner only)",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *MembershipPathInput) (*struct{}, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		if err := svc.RemoveMember(ctx, userID, input.BoardID, input.MembershipID); err != nil {
			return nil, serviceError(err, "membership not found", "failed to remove member")
		}

		return nil, nil
	})
}
