package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/laneboard/internal/api/v1"
	"github.com/gosuda/laneboard/internal/domain"
	"github.com/gosuda/laneboard/internal/kanban"
)

func boardPath(boardID uuid.UUID) string {
	return "/boards/" + boardID.String()
}

// ---------------------------------------------------------------------------
// Swimlanes
// ---------------------------------------------------------------------------

func TestCreateSwimlane(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	boardID := uuid.New()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			createSwimlaneFunc: func(_ context.Context, uid, bid uuid.UUID, name string) (*domain.Swimlane, error) {
				assert.Equal(t, userID, uid)
				assert.Equal(t, boardID, bid)
				return &domain.Swimlane{ID: uuid.New(), BoardID: bid, Name: name, Position: 2}, nil
			},
		}
		v1.RegisterSwimlaneRoutes(api, svc)

		resp := api.PostCtx(userCtx(userID), boardPath(boardID)+"/swimlanes", map[string]any{"name": "Doing"})

		require.Equal(t, http.StatusCreated, resp.Code)
		var s domain.Swimlane
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
		assert.Equal(t, "Doing", s.Name)
		assert.Equal(t, 2, s.Position)
	})

	t.Run("outsider", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			createSwimlaneFunc: func(_ context.Context, _, _ uuid.UUID, _ string) (*domain.Swimlane, error) {
				return nil, fmt.Errorf("kanban.Service.CreateSwimlane: %w", domain.ErrNotFound)
			},
		}
		v1.RegisterSwimlaneRoutes(api, svc)

		resp := api.PostCtx(userCtx(userID), boardPath(boardID)+"/swimlanes", map[string]any{"name": "Doing"})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestMoveSwimlane(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	boardID := uuid.New()
	swimlaneID := uuid.New()

	t.Run("returns_no_content", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		var gotPosition int
		svc := &mockLaneService{
			moveSwimlaneFunc: func(_ context.Context, _, bid, sid uuid.UUID, position int) ([]*domain.Swimlane, error) {
				assert.Equal(t, boardID, bid)
				assert.Equal(t, swimlaneID, sid)
				gotPosition = position
				return []*domain.Swimlane{}, nil
			},
		}
		v1.RegisterSwimlaneRoutes(api, svc)

		resp := api.PatchCtx(userCtx(userID), boardPath(boardID)+"/swimlanes/reorder", map[string]any{
			"swimlane_id": swimlaneID.String(),
			"position":    0,
		})

		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.Empty(t, resp.Body.String())
		assert.Equal(t, 0, gotPosition)
	})

	t.Run("out_of_range_passes_through", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		var gotPosition int
		svc := &mockLaneService{
			moveSwimlaneFunc: func(_ context.Context, _, _, _ uuid.UUID, position int) ([]*domain.Swimlane, error) {
				gotPosition = position
				return nil, nil
			},
		}
		v1.RegisterSwimlaneRoutes(api, svc)

		resp := api.PatchCtx(userCtx(userID), boardPath(boardID)+"/swimlanes/reorder", map[string]any{
			"swimlane_id": swimlaneID.String(),
			"position":    99,
		})

		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.Equal(t, 99, gotPosition)
	})

	t.Run("unknown_swimlane", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			moveSwimlaneFunc: func(_ context.Context, _, _, _ uuid.UUID, _ int) ([]*domain.Swimlane, error) {
				return nil, domain.ErrNotFound
			},
		}
		v1.RegisterSwimlaneRoutes(api, svc)

		resp := api.PatchCtx(userCtx(userID), boardPath(boardID)+"/swimlanes/reorder", map[string]any{
			"swimlane_id": uuid.NewString(),
			"position":    1,
		})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestRenameAndDeleteSwimlane(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	boardID := uuid.New()
	swimlaneID := uuid.New()
	path := boardPath(boardID) + "/swimlanes/" + swimlaneID.String()

	t.Run("rename", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			renameSwimlaneFunc: func(_ context.Context, _, bid, sid uuid.UUID, name string) (*domain.Swimlane, error) {
				return &domain.Swimlane{ID: sid, BoardID: bid, Name: name}, nil
			},
		}
		v1.RegisterSwimlaneRoutes(api, svc)

		resp := api.PatchCtx(userCtx(userID), path, map[string]any{"name": "Done"})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"Done"`)
	})

	t.Run("rename_blank", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			renameSwimlaneFunc: func(_ context.Context, _, _, _ uuid.UUID, _ string) (*domain.Swimlane, error) {
				return nil, domain.NewValidationError("name", "can't be blank")
			},
		}
		v1.RegisterSwimlaneRoutes(api, svc)

		resp := api.PatchCtx(userCtx(userID), path, map[string]any{"name": ""})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			deleteSwimlaneFunc: func(_ context.Context, _, _, sid uuid.UUID) error {
				assert.Equal(t, swimlaneID, sid)
				return nil
			},
		}
		v1.RegisterSwimlaneRoutes(api, svc)

		resp := api.DeleteCtx(userCtx(userID), path)

		assert.Equal(t, http.StatusNoContent, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// Cards
// ---------------------------------------------------------------------------

func TestCreateCard(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	boardID := uuid.New()
	swimlaneID := uuid.New()
	labelID := uuid.New()
	path := boardPath(boardID) + "/swimlanes/" + swimlaneID.String() + "/cards"

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			createCardFunc: func(_ context.Context, _, bid, sid uuid.UUID, in kanban.CardInput) (*domain.Card, error) {
				assert.Equal(t, "Ship it", in.Name)
				assert.Equal(t, []uuid.UUID{labelID}, in.LabelIDs)
				require.NotNil(t, in.DueDate)
				assert.Equal(t, 2026, in.DueDate.Year())
				return &domain.Card{
					ID:         uuid.New(),
					SwimlaneID: sid,
					BoardID:    bid,
					Name:       in.Name,
					DueDate:    domain.TruncateDate(in.DueDate),
					Labels:     []domain.Label{{ID: labelID, Color: domain.LabelRed}},
				}, nil
			},
		}
		v1.RegisterCardRoutes(api, svc)

		resp := api.PostCtx(userCtx(userID), path, map[string]any{
			"name":      "Ship it",
			"due_date":  time.Date(2026, 11, 2, 15, 4, 0, 0, time.UTC).Format(time.RFC3339),
			"label_ids": []string{labelID.String()},
		})

		require.Equal(t, http.StatusCreated, resp.Code)
		var card domain.Card
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
		assert.Equal(t, swimlaneID, card.SwimlaneID)
		require.Len(t, card.Labels, 1)
		assert.Equal(t, domain.LabelRed, card.Labels[0].Color)
	})

	t.Run("unknown_label", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			createCardFunc: func(_ context.Context, _, _, _ uuid.UUID, _ kanban.CardInput) (*domain.Card, error) {
				return nil, domain.NewValidationError("label_ids", "contains an unknown label")
			},
		}
		v1.RegisterCardRoutes(api, svc)

		resp := api.PostCtx(userCtx(userID), path, map[string]any{
			"name":      "Ship it",
			"label_ids": []string{uuid.NewString()},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Contains(t, resp.Body.String(), "unknown label")
	})
}

func TestMoveCard(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	boardID := uuid.New()
	destID := uuid.New()
	cardID := uuid.New()
	path := boardPath(boardID) + "/swimlanes/" + destID.String() + "/cards/reorder"

	t.Run("addressed_by_destination", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			moveCardFunc: func(_ context.Context, uid, bid, dest, cid uuid.UUID, position int) (*domain.CardMove, error) {
				assert.Equal(t, userID, uid)
				assert.Equal(t, boardID, bid)
				assert.Equal(t, destID, dest)
				assert.Equal(t, cardID, cid)
				assert.Equal(t, 3, position)
				return &domain.CardMove{}, nil
			},
		}
		v1.RegisterCardRoutes(api, svc)

		resp := api.PatchCtx(userCtx(userID), path, map[string]any{
			"card_id":  cardID.String(),
			"position": 3,
		})

		assert.Equal(t, http.StatusNoContent, resp.Code)
	})

	t.Run("card_on_other_board", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			moveCardFunc: func(_ context.Context, _, _, _, _ uuid.UUID, _ int) (*domain.CardMove, error) {
				return nil, fmt.Errorf("kanban.Service.MoveCard: %w", domain.ErrNotFound)
			},
		}
		v1.RegisterCardRoutes(api, svc)

		resp := api.PatchCtx(userCtx(userID), path, map[string]any{
			"card_id":  cardID.String(),
			"position": 0,
		})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("store_failure", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			moveCardFunc: func(_ context.Context, _, _, _, _ uuid.UUID, _ int) (*domain.CardMove, error) {
				return nil, errors.New("serialization failure")
			},
		}
		v1.RegisterCardRoutes(api, svc)

		resp := api.PatchCtx(userCtx(userID), path, map[string]any{
			"card_id":  cardID.String(),
			"position": 0,
		})

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestCardCRUD(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	boardID := uuid.New()
	swimlaneID := uuid.New()
	cardID := uuid.New()
	path := boardPath(boardID) + "/swimlanes/" + swimlaneID.String() + "/cards/" + cardID.String()

	t.Run("get", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			getCardFunc: func(_ context.Context, _, _, sid, cid uuid.UUID) (*domain.Card, error) {
				return &domain.Card{ID: cid, SwimlaneID: sid, Name: "Read", Labels: []domain.Label{}}, nil
			},
		}
		v1.RegisterCardRoutes(api, svc)

		resp := api.GetCtx(userCtx(userID), path)

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"Read"`)
	})

	t.Run("get_wrong_swimlane", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			getCardFunc: func(_ context.Context, _, _, _, _ uuid.UUID) (*domain.Card, error) {
				return nil, domain.ErrNotFound
			},
		}
		v1.RegisterCardRoutes(api, svc)

		resp := api.GetCtx(userCtx(userID), path)

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("update_replaces_fields", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockLaneService{
			updateCardFunc: func(_ context.Context, _, _, sid, cid uuid.UUID, in kanban.CardInput) (*domain.Card, error) {
				assert.Equal(t, "Renamed", in.Name)
				assert.Empty(t, in.LabelIDs)
				assert.Nil(t, in.DueDate)
				return &domain.Card{ID: cid, SwimlaneID: sid, Name: in.Name, Labels: []domain.Label{}}, nil
			},
		}
		v1.RegisterCardRoutes(api, svc)

		resp := api.PatchCtx(userCtx(userID), path, map[string]any{"name": "Renamed"})

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		var called bool
		svc := &mockLaneService{
			deleteCardFunc: func(_ context.Context, _, _, _, cid uuid.UUID) error {
				called = true
				assert.Equal(t, cardID, cid)
				return nil
			},
		}
		v1.RegisterCardRoutes(api, svc)

		resp := api.DeleteCtx(userCtx(userID), path)

		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.True(t, called)
	})

	t.Run("missing_user", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCardRoutes(api, &mockLaneService{})

		resp := api.Delete(path)

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
