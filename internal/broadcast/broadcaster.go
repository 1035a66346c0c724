package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/laneboard/internal/domain"
)

const publishTimeout = 2 * time.Second

// Publisher delivers a serialized event to every subscriber of a board.
// *stream.Registry satisfies this interface.
type Publisher interface {
	Publish(ctx context.Context, boardID uuid.UUID, payload []byte) error
}

// Broadcaster turns committed mutations into change events. Publishing is
// best effort: failures are logged and never reach the caller, and nothing
// is queued for viewers that are not connected.
type Broadcaster struct {
	publisher Publisher
}

func NewBroadcaster(publisher Publisher) *Broadcaster {
	return &Broadcaster{publisher: publisher}
}

func (b *Broadcaster) SwimlaneCreated(ctx context.Context, s *domain.Swimlane) {
	f := SwimlaneFragment(s, nil)
	b.emit(ctx, Event{BoardID: s.BoardID, Action: ActionAppend, Target: SwimlanesID, Fragment: &f})
}

func (b *Broadcaster) SwimlaneUpdated(ctx context.Context, s *domain.Swimlane, cards []*domain.Card) {
	f := SwimlaneFragment(s, cards)
	b.emit(ctx, Event{BoardID: s.BoardID, Action: ActionReplace, Target: SwimlaneID(s.ID), Fragment: &f})
}

func (b *Broadcaster) SwimlanesReordered(ctx context.Context, boardID uuid.UUID, lanes []*domain.Swimlane, cards []*domain.Card) {
	f := SwimlanesFragment(lanes, GroupCards(cards))
	b.emit(ctx, Event{BoardID: boardID, Action: ActionReplace, Target: SwimlanesID, Fragment: &f})
}

func (b *Broadcaster) SwimlaneDeleted(ctx context.Context, boardID, swimlaneID uuid.UUID) {
	b.emit(ctx, Event{BoardID: boardID, Action: ActionRemove, Target: SwimlaneID(swimlaneID)})
}

func (b *Broadcaster) CardCreated(ctx context.Context, c *domain.Card) {
	f := CardFragment(c)
	b.emit(ctx, Event{BoardID: c.BoardID, Action: ActionAppend, Target: CardsInSwimlaneID(c.SwimlaneID), Fragment: &f})
}

func (b *Broadcaster) CardUpdated(ctx context.Context, c *domain.Card) {
	f := CardFragment(c)
	b.emit(ctx, Event{BoardID: c.BoardID, Action: ActionReplace, Target: CardID(c.ID), Fragment: &f})
}

func (b *Broadcaster) CardsReordered(ctx context.Context, boardID, swimlaneID uuid.UUID, cards []*domain.Card) {
	f := CardsFragment(swimlaneID, cards)
	b.emit(ctx, Event{BoardID: boardID, Action: ActionReplace, Target: f.ID, Fragment: &f})
}

func (b *Broadcaster) CardDeleted(ctx context.Context, boardID, cardID uuid.UUID) {
	b.emit(ctx, Event{BoardID: boardID, Action: ActionRemove, Target: CardID(cardID)})
}

func (b *Broadcaster) emit(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("target", ev.Target).Msg("broadcast: marshal event")
		return
	}

	// The mutation already committed; a caller that hung up must not cancel
	// delivery to everyone else.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := b.publisher.Publish(ctx, ev.BoardID, payload); err != nil {
		log.Warn().Err(err).
			Str("board_id", ev.BoardID.String()).
			Str("action", string(ev.Action)).
			Str("target", ev.Target).
			Msg("broadcast: publish failed")
	}
}
