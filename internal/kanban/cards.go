package kanban

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/laneboard/internal/domain"
)

// CardInput carries the editable fields of a card. Updates replace every
// field, including the label set.
type CardInput struct {
	Name        string
	Description string
	DueDate     *time.Time
	LabelIDs    []uuid.UUID
}

// swimlaneOf resolves a swimlane the caller can reach through boardID.
func (s *Service) swimlaneOf(ctx context.Context, userID, boardID, swimlaneID uuid.UUID) (*domain.Swimlane, error) {
	if _, _, err := s.access(ctx, userID, boardID); err != nil {
		return nil, err
	}
	return s.store.Swimlanes().GetByID(ctx, boardID, swimlaneID)
}

// cardOf resolves a card addressed through its board and swimlane.
func (s *Service) cardOf(ctx context.Context, userID, boardID, swimlaneID, cardID uuid.UUID) (*domain.Card, error) {
	lane, err := s.swimlaneOf(ctx, userID, boardID, swimlaneID)
	if err != nil {
		return nil, err
	}

	card, err := s.store.Cards().GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.SwimlaneID != lane.ID {
		return nil, domain.ErrNotFound
	}
	return card, nil
}

func (s *Service) resolveLabels(ctx context.Context, ids []uuid.UUID) ([]domain.Label, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	found, err := s.store.Labels().GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(found) != len(unique) {
		return nil, domain.NewValidationError("label_ids", "contains an unknown label")
	}

	labels := make([]domain.Label, len(found))
	for i, l := range found {
		labels[i] = *l
	}
	return labels, nil
}

// CreateCard appends a card to the end of the swimlane.
func (s *Service) CreateCard(ctx context.Context, userID, boardID, swimlaneID uuid.UUID, in CardInput) (*domain.Card, error) {
	lane, err := s.swimlaneOf(ctx, userID, boardID, swimlaneID)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.CreateCard: %w", err)
	}

	labels, err := s.resolveLabels(ctx, in.LabelIDs)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.CreateCard: %w", err)
	}

	card, err := domain.NewCard(lane, in.Name, in.Description, in.DueDate, labels)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.CreateCard: %w", err)
	}

	if err := s.store.Cards().Create(ctx, card); err != nil {
		return nil, fmt.Errorf("kanban.Service.CreateCard: %w", err)
	}

	s.notifier.CardCreated(ctx, card)
	return card, nil
}

func (s *Service) GetCard(ctx context.Context, userID, boardID, swimlaneID, cardID uuid.UUID) (*domain.Card, error) {
	card, err := s.cardOf(ctx, userID, boardID, swimlaneID, cardID)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.GetCard: %w", err)
	}
	return card, nil
}

func (s *Service) UpdateCard(ctx context.Context, userID, boardID, swimlaneID, cardID uuid.UUID, in CardInput) (*domain.Card, error) {
	card, err := s.cardOf(ctx, userID, boardID, swimlaneID, cardID)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.UpdateCard: %w", err)
	}

	name, err := domain.NormalizeName(in.Name)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.UpdateCard: %w", err)
	}
	labels, err := s.resolveLabels(ctx, in.LabelIDs)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.UpdateCard: %w", err)
	}

	card.Name = name
	card.Description = in.Description
	card.DueDate = domain.TruncateDate(in.DueDate)
	card.Labels = labels

	if err := s.store.Cards().Update(ctx, card); err != nil {
		return nil, fmt.Errorf("kanban.Service.UpdateCard: %w", err)
	}

	s.notifier.CardUpdated(ctx, card)
	return card, nil
}

// MoveCard places the card at position within destSwimlaneID, reparenting
// it when it comes from another swimlane of the same board. Viewers receive
// the new order of the destination and, if different, of the source.
func (s *Service) MoveCard(ctx context.Context, userID, boardID, destSwimlaneID, cardID uuid.UUID, position int) (*domain.CardMove, error) {
	dest, err := s.swimlaneOf(ctx, userID, boardID, destSwimlaneID)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.MoveCard: %w", err)
	}

	card, err := s.store.Cards().GetByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.MoveCard: %w", err)
	}
	if card.BoardID != boardID {
		return nil, fmt.Errorf("kanban.Service.MoveCard: %w", domain.ErrNotFound)
	}

	move, err := s.store.Cards().Move(ctx, cardID, dest.ID, position)
	if err != nil {
		return nil, fmt.Errorf("kanban.Service.MoveCard: %w", err)
	}

	s.notifier.CardsReordered(ctx, boardID, dest.ID, move.DestOrder)
	if move.Crossed() {
		s.notifier.CardsReordered(ctx, boardID, move.FromSwimlane, move.SourceOrder)
	}
	return move, nil
}

func (s *Service) DeleteCard(ctx context.Context, userID, boardID, swimlaneID, cardID uuid.UUID) error {
	card, err := s.cardOf(ctx, userID, boardID, swimlaneID, cardID)
	if err != nil {
		return fmt.Errorf("kanban.Service.DeleteCard: %w", err)
	}

	if err := s.store.Cards().Delete(ctx, card.ID); err != nil {
		return fmt.Errorf("kanban.Service.DeleteCard: %w", err)
	}

	s.notifier.CardDeleted(ctx, boardID, card.ID)
	return nil
}
