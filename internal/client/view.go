// Package client is the viewer side of a board: an ordered view model of
// lists and items, optimistic drag-and-drop moves against the REST API, and
// a stream listener that applies change events from other sessions.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/laneboard/internal/broadcast"
)

var (
	ErrUnknownContainer = errors.New("client: unknown container")
	ErrUnknownItem      = errors.New("client: unknown item")
)

// Endpoint is where a container's move requests are sent. ItemField names
// the request body field that carries the moved item's ID.
type Endpoint struct {
	Path      string
	ItemField string
}

// EndpointResolver returns the move endpoint for a container ID. It reports
// false for containers that do not accept moves.
type EndpointResolver func(containerID string) (Endpoint, bool)

// BoardEndpoints resolves the REST move endpoints of one board under prefix,
// e.g. "/api/v1".
func BoardEndpoints(prefix string, boardID uuid.UUID) EndpointResolver {
	board := fmt.Sprintf("%s/boards/%s", prefix, boardID)
	return func(containerID string) (Endpoint, bool) {
		if containerID == broadcast.SwimlanesID {
			return Endpoint{Path: board + "/swimlanes/reorder", ItemField: "swimlane_id"}, true
		}
		raw, ok := strings.CutPrefix(containerID, broadcast.CardsInSwimlanePrefix)
		if !ok {
			return Endpoint{}, false
		}
		swimlaneID, err := uuid.Parse(raw)
		if err != nil {
			return Endpoint{}, false
		}
		return Endpoint{Path: board + "/swimlanes/" + swimlaneID.String() + "/cards/reorder", ItemField: "card_id"}, true
	}
}

// Node is one rendered element.
type Node struct {
	ID       string
	Kind     string
	EntityID string
	Data     json.RawMessage
	Lists    []string // containers owned by this element
}

type container struct {
	endpoint Endpoint
	movable  bool
	items    []string
}

// View is the client's ordered model of a board. It is safe for concurrent
// use by a drag controller and a stream listener.
type View struct {
	mu         sync.Mutex
	resolve    EndpointResolver
	nodes      map[string]*Node
	containers map[string]*container
	parent     map[string]string // node ID -> container ID
}

// NewView returns an empty view. Containers created later, by Load or by
// change events, take their endpoints from resolve.
func NewView(resolve EndpointResolver) *View {
	if resolve == nil {
		resolve = func(string) (Endpoint, bool) { return Endpoint{}, false }
	}
	return &View{
		resolve:    resolve,
		nodes:      make(map[string]*Node),
		containers: make(map[string]*container),
		parent:     make(map[string]string),
	}
}

// Load replaces the whole view with the given top-level lists.
func (v *View) Load(lists ...broadcast.Fragment) {
	v.mu.Lock()
	defer v.mu.Unlock()

	clear(v.nodes)
	clear(v.containers)
	clear(v.parent)
	for _, l := range lists {
		v.setList(l)
	}
}

// Items returns the ordered item IDs of a container.
func (v *View) Items(containerID string) []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	c, ok := v.containers[containerID]
	if !ok {
		return nil
	}
	return slices.Clone(c.items)
}

// Node returns a copy of the element with the given fragment ID.
func (v *View) Node(id string) (Node, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	n, ok := v.nodes[id]
	if !ok {
		return Node{}, false
	}
	cp := *n
	cp.Lists = slices.Clone(n.Lists)
	return cp, true
}

// Locate returns the container holding itemID and the item's index in it.
func (v *View) Locate(itemID string) (string, int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.locate(itemID)
}

func (v *View) locate(itemID string) (string, int, bool) {
	cid, ok := v.parent[itemID]
	if !ok {
		return "", 0, false
	}
	return cid, slices.Index(v.containers[cid].items, itemID), true
}

// Apply patches the view with a change event.
func (v *View) Apply(ev broadcast.Event) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch ev.Action {
	case broadcast.ActionAppend:
		c, ok := v.containers[ev.Target]
		if !ok || ev.Fragment == nil {
			return fmt.Errorf("client.View.Apply append %q: %w", ev.Target, ErrUnknownContainer)
		}
		v.detach(ev.Fragment.ID)
		id := v.setNode(*ev.Fragment)
		c.items = append(c.items, id)
		v.parent[id] = ev.Target
		return nil

	case broadcast.ActionReplace:
		if ev.Fragment == nil {
			return fmt.Errorf("client.View.Apply replace %q: missing fragment", ev.Target)
		}
		if _, ok := v.containers[ev.Target]; ok {
			v.setList(*ev.Fragment)
			return nil
		}
		cid, idx, ok := v.locate(ev.Target)
		if !ok {
			return fmt.Errorf("client.View.Apply replace %q: %w", ev.Target, ErrUnknownItem)
		}
		v.drop(ev.Target)
		id := v.setNode(*ev.Fragment)
		c := v.containers[cid]
		c.items = slices.Insert(c.items, idx, id)
		v.parent[id] = cid
		return nil

	case broadcast.ActionRemove:
		if _, ok := v.nodes[ev.Target]; !ok {
			// Already gone, e.g. removed with its swimlane.
			return nil
		}
		v.drop(ev.Target)
		return nil

	default:
		return fmt.Errorf("client.View.Apply: unknown action %q", ev.Action)
	}
}

// move places itemID in container to at the clamped index and returns where
// it was before.
func (v *View) move(itemID, to string, index int) (string, int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	from, fromIndex, ok := v.locate(itemID)
	if !ok {
		return "", 0, fmt.Errorf("client.View.move %q: %w", itemID, ErrUnknownItem)
	}
	dest, ok := v.containers[to]
	if !ok {
		return "", 0, fmt.Errorf("client.View.move %q: %w", to, ErrUnknownContainer)
	}

	src := v.containers[from]
	src.items = slices.Delete(src.items, fromIndex, fromIndex+1)
	index = max(0, min(index, len(dest.items)))
	dest.items = slices.Insert(dest.items, index, itemID)
	v.parent[itemID] = to
	return from, fromIndex, nil
}

func (v *View) endpoint(containerID string) (Endpoint, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	c, ok := v.containers[containerID]
	if !ok || !c.movable {
		return Endpoint{}, fmt.Errorf("client.View.endpoint %q: %w", containerID, ErrUnknownContainer)
	}
	return c.endpoint, nil
}

// setList replaces a container's children with f.Items, dropping children
// that are no longer listed.
func (v *View) setList(f broadcast.Fragment) {
	c, ok := v.containers[f.ID]
	if !ok {
		ep, movable := v.resolve(f.ID)
		c = &container{endpoint: ep, movable: movable}
		v.containers[f.ID] = c
	}

	keep := make(map[string]bool, len(f.Items))
	for _, item := range f.Items {
		keep[item.ID] = true
	}
	for _, old := range slices.Clone(c.items) {
		if !keep[old] {
			v.drop(old)
		}
	}

	items := make([]string, 0, len(f.Items))
	for _, item := range f.Items {
		v.detach(item.ID)
		id := v.setNode(item)
		items = append(items, id)
		v.parent[id] = f.ID
	}
	c.items = items
}

// setNode registers an element and its owned lists. The caller places it.
func (v *View) setNode(f broadcast.Fragment) string {
	n := &Node{ID: f.ID, Kind: f.Kind, Data: f.Data, EntityID: entityID(f.Data)}
	if old, ok := v.nodes[f.ID]; ok {
		for _, l := range old.Lists {
			if !slices.ContainsFunc(f.Lists, func(nl broadcast.Fragment) bool { return nl.ID == l }) {
				v.dropList(l)
			}
		}
	}
	v.nodes[f.ID] = n
	for _, l := range f.Lists {
		v.setList(l)
		n.Lists = append(n.Lists, l.ID)
	}
	return f.ID
}

// detach unlinks an element from its container without forgetting it.
func (v *View) detach(id string) {
	cid, ok := v.parent[id]
	if !ok {
		return
	}
	c := v.containers[cid]
	if i := slices.Index(c.items, id); i >= 0 {
		c.items = slices.Delete(c.items, i, i+1)
	}
	delete(v.parent, id)
}

// drop removes an element together with the lists it owns.
func (v *View) drop(id string) {
	v.detach(id)
	n, ok := v.nodes[id]
	if !ok {
		return
	}
	delete(v.nodes, id)
	for _, l := range n.Lists {
		v.dropList(l)
	}
}

func (v *View) dropList(id string) {
	c, ok := v.containers[id]
	if !ok {
		return
	}
	for _, item := range slices.Clone(c.items) {
		v.drop(item)
	}
	delete(v.containers, id)
}

func entityID(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var d struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return ""
	}
	return d.ID
}
