package broadcast

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/gosuda/laneboard/internal/domain"
)

// CardFragment renders a card element.
func CardFragment(c *domain.Card) Fragment {
	return Fragment{
		ID:   CardID(c.ID),
		Kind: KindCard,
		Data: mustJSON(c),
	}
}

// CardsFragment renders the ordered card list of a swimlane.
func CardsFragment(swimlaneID uuid.UUID, cards []*domain.Card) Fragment {
	items := make([]Fragment, 0, len(cards))
	for _, c := range cards {
		items = append(items, CardFragment(c))
	}
	return Fragment{
		ID:    CardsInSwimlaneID(swimlaneID),
		Kind:  KindList,
		Items: items,
	}
}

// SwimlaneFragment renders a swimlane element together with its card list.
func SwimlaneFragment(s *domain.Swimlane, cards []*domain.Card) Fragment {
	return Fragment{
		ID:    SwimlaneID(s.ID),
		Kind:  KindSwimlane,
		Data:  mustJSON(s),
		Lists: []Fragment{CardsFragment(s.ID, cards)},
	}
}

// SwimlanesFragment renders the ordered swimlane list of a board.
// cardsBySwimlane supplies each swimlane's ordered cards.
func SwimlanesFragment(lanes []*domain.Swimlane, cardsBySwimlane map[uuid.UUID][]*domain.Card) Fragment {
	items := make([]Fragment, 0, len(lanes))
	for _, s := range lanes {
		items = append(items, SwimlaneFragment(s, cardsBySwimlane[s.ID]))
	}
	return Fragment{
		ID:    SwimlanesID,
		Kind:  KindList,
		Items: items,
	}
}

// GroupCards buckets cards by swimlane, keeping their relative order.
func GroupCards(cards []*domain.Card) map[uuid.UUID][]*domain.Card {
	out := make(map[uuid.UUID][]*domain.Card)
	for _, c := range cards {
		out[c.SwimlaneID] = append(out[c.SwimlaneID], c)
	}
	return out
}

// Domain entities only hold JSON-safe fields.
func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic("broadcast: marshal fragment data: " + err.Error())
	}
	return b
}
