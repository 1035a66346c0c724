// Package broadcast shapes change events for board viewers and publishes
// them to the board stream.
package broadcast

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Action is the patch operation a viewer applies for an event.
type Action string

const (
	// ActionAppend inserts Fragment as the last child of the Target list.
	ActionAppend Action = "append"
	// ActionReplace swaps the Target element for Fragment. When Target names
	// a list, the list's children are replaced with Fragment.Items.
	ActionReplace Action = "replace"
	// ActionRemove deletes the Target element and any lists it owns.
	ActionRemove Action = "remove"
)

// Fragment kinds.
const (
	KindCard     = "card"
	KindSwimlane = "swimlane"
	KindList     = "list"
)

// Event is an ephemeral instruction telling viewers of a board how to patch
// their rendered view. Events are never stored.
type Event struct {
	BoardID  uuid.UUID `json:"board_id"`
	Action   Action    `json:"action"`
	Target   string    `json:"target"`
	Fragment *Fragment `json:"fragment,omitempty"`
}

// Fragment is the rendered view model of one element or one list.
type Fragment struct {
	ID    string          `json:"id"`
	Kind  string          `json:"kind"`
	Data  json.RawMessage `json:"data,omitempty"`
	Items []Fragment      `json:"items,omitempty"` // ordered children of a list
	Lists []Fragment      `json:"lists,omitempty"` // lists owned by an element
}

// IsList reports whether the fragment is a list container.
func (f *Fragment) IsList() bool {
	return f.Kind == KindList
}

// Fragment identifiers shared by server and clients.

// SwimlanesID names the list of swimlanes on a board view.
const SwimlanesID = "swimlanes"

func CardID(id uuid.UUID) string {
	return "card_" + id.String()
}

func SwimlaneID(id uuid.UUID) string {
	return "swimlane_" + id.String()
}

// CardsInSwimlanePrefix starts the ID of every swimlane's card list.
const CardsInSwimlanePrefix = "cards_in_swimlane_"

func CardsInSwimlaneID(swimlaneID uuid.UUID) string {
	return CardsInSwimlanePrefix + swimlaneID.String()
}
