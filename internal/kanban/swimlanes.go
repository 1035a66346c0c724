package kanban

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/laneboard/internal/domain"
)

// CreateSwimlane appends a swimlane to the board.
func (s *Service) CreateSwimlane(ctx context.Context, userID, boardID uuid.UUID, name string) (*domain.Swimlane, error) {
	if _, _, err := s.access(ctx, userID, boardID); err != nil {
		return nil, fmt.Errorf("kanban.Service.CreateSwimlane: %w", err)
	}

	lane, err := domain.NewSwimlane(boardID, name)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.CreateSwimlane: %w", err)
	}

	if err := s.store.Swimlanes().Create(ctx, lane); err != nil {
		return nil, fmt.Errorf("kanban.Service.CreateSwimlane: %w", err)
	}

	s.notifier.SwimlaneCreated(ctx, lane)
	return lane, nil
}

func (s *Service) RenameSwimlane(ctx context.Context, userID, boardID, swimlaneID uuid.UUID, name string) (*domain.Swimlane, error) {
	if _, _, err := s.access(ctx, userID, boardID); err != nil {
		return nil, fmt.Errorf("kanban.Service.RenameSwimlane: %w", err)
	}

	lane, err := s.store.Swimlanes().GetByID(ctx, boardID, swimlaneID)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.RenameSwimlane: %w", err)
	}

	lane.Name, err = domain.NormalizeName(name)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.RenameSwimlane: %w", err)
	}

	if err := s.store.Swimlanes().Update(ctx, lane); err != nil {
		return nil, fmt.Errorf("kanban.Service.RenameSwimlane: %w", err)
	}

	// The rename is committed; a failed fragment read only costs the event.
	cards, err := s.store.Cards().ListBySwimlane(ctx, lane.ID)
	if err != nil {
		log.Warn().Err(err).Str("swimlane_id", lane.ID.String()).Msg("kanban: skip swimlane update event")
		return lane, nil
	}

	s.notifier.SwimlaneUpdated(ctx, lane, cards)
	return lane, nil
}

// MoveSwimlane places the swimlane at position (clamped to the board's
// bounds) and returns the board's swimlanes in their new order.
func (s *Service) MoveSwimlane(ctx context.Context, userID, boardID, swimlaneID uuid.UUID, position int) ([]*domain.Swimlane, error) {
	if _, _, err := s.access(ctx, userID, boardID); err != nil {
		return nil, fmt.Errorf("kanban.Service.MoveSwimlane: %w", err)
	}

	lanes, err := s.store.Swimlanes().Move(ctx, boardID, swimlaneID, position)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.MoveSwimlane: %w", err)
	}

	cards, err := s.store.Cards().ListByBoard(ctx, boardID)
	if err != nil {
		log.Warn().Err(err).Str("board_id", boardID.String()).Msg("kanban: skip swimlane reorder event")
		return lanes, nil
	}

	s.notifier.SwimlanesReordered(ctx, boardID, lanes, cards)
	return lanes, nil
}

func (s *Service) DeleteSwimlane(ctx context.Context, userID, boardID, swimlaneID uuid.UUID) error {
	if _, _, err := s.access(ctx, userID, boardID); err != nil {
		return fmt.Errorf("kanban.Service.DeleteSwimlane: %w", err)
	}

	if err := s.store.Swimlanes().Delete(ctx, boardID, swimlaneID); err != nil {
		return fmt.Errorf("kanban.Service.DeleteSwimlane: %w", err)
	}

	s.notifier.SwimlaneDeleted(ctx, boardID, swimlaneID)
	return nil
}
