package kanban_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/laneboard/internal/domain"
	"github.com/gosuda/laneboard/internal/position"
)

// memStore is an in-memory Store whose positioned writes go through the
// position package, so it upholds the same ordering contract as postgres.
type memStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*domain.User
	boards      map[uuid.UUID]*domain.Board
	memberships map[uuid.UUID]*domain.Membership
	swimlanes   map[uuid.UUID]*domain.Swimlane
	cards       map[uuid.UUID]*domain.Card
	labels      []*domain.Label
	writes      int
}

func newMemStore() *memStore {
	s := &memStore{
		users:       make(map[uuid.UUID]*domain.User),
		boards:      make(map[uuid.UUID]*domain.Board),
		memberships: make(map[uuid.UUID]*domain.Membership),
		swimlanes:   make(map[uuid.UUID]*domain.Swimlane),
		cards:       make(map[uuid.UUID]*domain.Card),
	}
	for _, c := range domain.LabelPalette {
		s.labels = append(s.labels, &domain.Label{ID: uuid.New(), Color: c})
	}
	slices.SortFunc(s.labels, func(a, b *domain.Label) int {
		switch {
		case a.Color < b.Color:
			return -1
		case a.Color > b.Color:
			return 1
		}
		return 0
	})
	return s
}

func (s *memStore) Users() domain.UserRepository             { return memUsers{s} }
func (s *memStore) Boards() domain.BoardRepository           { return memBoards{s} }
func (s *memStore) Memberships() domain.MembershipRepository { return memMemberships{s} }
func (s *memStore) Swimlanes() domain.SwimlaneRepository     { return memSwimlanes{s} }
func (s *memStore) Cards() domain.CardRepository             { return memCards{s} }
func (s *memStore) Labels() domain.LabelRepository           { return memLabels{s} }

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *memStore) addUser(email string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{ID: uuid.New(), Email: domain.NormalizeEmail(email), CreatedAt: time.Now()}
	s.users[u.ID] = u
	return u
}

// --- users ---

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.ErrConflict
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	r.s.writes++
	return nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == domain.NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// --- boards ---

type memBoards struct{ s *memStore }

func (r memBoards) CreateWithOwner(_ context.Context, b *domain.Board, owner *domain.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	bc, mc := *b, *owner
	r.s.boards[b.ID] = &bc
	r.s.memberships[owner.ID] = &mc
	r.s.writes++
	return nil
}

func (r memBoards) GetByID(_ context.Context, id uuid.UUID) (*domain.Board, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.boards[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r memBoards) ListForUser(_ context.Context, userID uuid.UUID) ([]*domain.Board, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	boards := []*domain.Board{}
	for _, m := range r.s.memberships {
		if m.UserID == userID {
			cp := *r.s.boards[m.BoardID]
			boards = append(boards, &cp)
		}
	}
	slices.SortFunc(boards, func(a, b *domain.Board) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return boards, nil
}

func (r memBoards) Update(_ context.Context, b *domain.Board) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.boards[b.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Name = b.Name
	r.s.writes++
	return nil
}

func (r memBoards) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.boards[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.boards, id)
	for mid, m := range r.s.memberships {
		if m.BoardID == id {
			delete(r.s.memberships, mid)
		}
	}
	for sid, l := range r.s.swimlanes {
		if l.BoardID == id {
			r.s.deleteSwimlaneLocked(sid)
		}
	}
	r.s.writes++
	return nil
}

// --- memberships ---

type memMemberships struct{ s *memStore }

func (r memMemberships) Create(_ context.Context, m *domain.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.memberships {
		if existing.BoardID == m.BoardID && existing.UserID == m.UserID {
			return domain.ErrConflict
		}
	}
	cp := *m
	r.s.memberships[m.ID] = &cp
	r.s.writes++
	return nil
}

func (r memMemberships) Get(_ context.Context, boardID, userID uuid.UUID) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.memberships {
		if m.BoardID == boardID && m.UserID == userID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memMemberships) GetByID(_ context.Context, boardID, id uuid.UUID) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.memberships[id]
	if !ok || m.BoardID != boardID {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r memMemberships) ListByBoard(_ context.Context, boardID uuid.UUID) ([]*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := []*domain.Membership{}
	for _, m := range r.s.memberships {
		if m.BoardID == boardID {
			cp := *m
			list = append(list, &cp)
		}
	}
	slices.SortFunc(list, func(a, b *domain.Membership) int {
		if a.IsOwner() != b.IsOwner() {
			if a.IsOwner() {
				return -1
			}
			return 1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return list, nil
}

func (r memMemberships) Delete(_ context.Context, boardID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.memberships[id]
	if !ok || m.BoardID != boardID {
		return domain.ErrNotFound
	}
	delete(r.s.memberships, id)
	r.s.writes++
	return nil
}

// --- swimlanes ---

type memSwimlanes struct{ s *memStore }

func (s *memStore) laneItemsLocked(boardID uuid.UUID) []position.Item {
	var items []position.Item
	for _, l := range s.swimlanes {
		if l.BoardID == boardID {
			items = append(items, position.Item{ID: l.ID, Position: l.Position})
		}
	}
	return items
}

func (s *memStore) lanesLocked(boardID uuid.UUID) []*domain.Swimlane {
	items := s.laneItemsLocked(boardID)
	position.Sort(items)
	lanes := make([]*domain.Swimlane, 0, len(items))
	for _, it := range items {
		cp := *s.swimlanes[it.ID]
		lanes = append(lanes, &cp)
	}
	return lanes
}

func (s *memStore) deleteSwimlaneLocked(id uuid.UUID) {
	delete(s.swimlanes, id)
	for cid, c := range s.cards {
		if c.SwimlaneID == id {
			delete(s.cards, cid)
		}
	}
}

func (r memSwimlanes) Create(_ context.Context, sl *domain.Swimlane) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.boards[sl.BoardID]; !ok {
		return domain.ErrNotFound
	}
	var positions []int
	for _, it := range r.s.laneItemsLocked(sl.BoardID) {
		positions = append(positions, it.Position)
	}
	sl.Position = position.Next(positions)
	cp := *sl
	r.s.swimlanes[sl.ID] = &cp
	r.s.writes++
	return nil
}

func (r memSwimlanes) GetByID(_ context.Context, boardID, id uuid.UUID) (*domain.Swimlane, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.swimlanes[id]
	if !ok || l.BoardID != boardID {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r memSwimlanes) ListByBoard(_ context.Context, boardID uuid.UUID) ([]*domain.Swimlane, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.lanesLocked(boardID), nil
}

func (r memSwimlanes) Update(_ context.Context, sl *domain.Swimlane) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.swimlanes[sl.ID]
	if !ok || existing.BoardID != sl.BoardID {
		return domain.ErrNotFound
	}
	existing.Name = sl.Name
	r.s.writes++
	return nil
}

func (r memSwimlanes) Move(_ context.Context, boardID, id uuid.UUID, target int) ([]*domain.Swimlane, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	moving, ok := r.s.swimlanes[id]
	if !ok || moving.BoardID != boardID {
		return nil, domain.ErrNotFound
	}
	var siblings []position.Item
	for _, it := range r.s.laneItemsLocked(boardID) {
		if it.ID != id {
			siblings = append(siblings, it)
		}
	}
	_, writes := position.Plan(siblings, position.Item{ID: id, Position: moving.Position}, target)
	for _, w := range writes {
		r.s.swimlanes[w.ID].Position = w.Position
	}
	r.s.writes++
	return r.s.lanesLocked(boardID), nil
}

func (r memSwimlanes) Delete(_ context.Context, boardID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.swimlanes[id]
	if !ok || l.BoardID != boardID {
		return domain.ErrNotFound
	}
	r.s.deleteSwimlaneLocked(id)
	_, writes := position.Compact(r.s.laneItemsLocked(boardID))
	for _, w := range writes {
		r.s.swimlanes[w.ID].Position = w.Position
	}
	r.s.writes++
	return nil
}

// --- cards ---

type memCards struct{ s *memStore }

func (s *memStore) cardItemsLocked(swimlaneID uuid.UUID) []position.Item {
	var items []position.Item
	for _, c := range s.cards {
		if c.SwimlaneID == swimlaneID {
			items = append(items, position.Item{ID: c.ID, Position: c.Position})
		}
	}
	return items
}

func (s *memStore) cardsLocked(swimlaneID uuid.UUID) []*domain.Card {
	items := s.cardItemsLocked(swimlaneID)
	position.Sort(items)
	cards := make([]*domain.Card, 0, len(items))
	for _, it := range items {
		cp := *s.cards[it.ID]
		cards = append(cards, &cp)
	}
	return cards
}

func (r memCards) Create(_ context.Context, c *domain.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lane, ok := r.s.swimlanes[c.SwimlaneID]
	if !ok {
		return domain.ErrNotFound
	}
	var positions []int
	for _, it := range r.s.cardItemsLocked(c.SwimlaneID) {
		positions = append(positions, it.Position)
	}
	c.Position = position.Next(positions)
	c.BoardID = lane.BoardID
	cp := *c
	r.s.cards[c.ID] = &cp
	r.s.writes++
	return nil
}

func (r memCards) GetByID(_ context.Context, id uuid.UUID) (*domain.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memCards) ListBySwimlane(_ context.Context, swimlaneID uuid.UUID) ([]*domain.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.cardsLocked(swimlaneID), nil
}

func (r memCards) ListByBoard(_ context.Context, boardID uuid.UUID) ([]*domain.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cards := []*domain.Card{}
	for _, l := range r.s.lanesLocked(boardID) {
		cards = append(cards, r.s.cardsLocked(l.ID)...)
	}
	return cards, nil
}

func (r memCards) Update(_ context.Context, c *domain.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.cards[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Name = c.Name
	existing.Description = c.Description
	existing.DueDate = c.DueDate
	existing.Labels = slices.Clone(c.Labels)
	r.s.writes++
	return nil
}

func (r memCards) Move(_ context.Context, cardID, destSwimlaneID uuid.UUID, target int) (*domain.CardMove, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	card, ok := r.s.cards[cardID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	dest, ok := r.s.swimlanes[destSwimlaneID]
	if !ok || dest.BoardID != card.BoardID {
		return nil, domain.ErrNotFound
	}

	from := card.SwimlaneID
	var siblings []position.Item
	for _, it := range r.s.cardItemsLocked(destSwimlaneID) {
		if it.ID != cardID {
			siblings = append(siblings, it)
		}
	}
	moving := position.Item{ID: cardID, Position: card.Position}
	if from != destSwimlaneID {
		moving.Position = -1
		card.SwimlaneID = destSwimlaneID
	}
	_, writes := position.Plan(siblings, moving, target)
	for _, w := range writes {
		r.s.cards[w.ID].Position = w.Position
	}
	if from != destSwimlaneID {
		_, writes := position.Compact(r.s.cardItemsLocked(from))
		for _, w := range writes {
			r.s.cards[w.ID].Position = w.Position
		}
	}
	r.s.writes++

	cp := *card
	return &domain.CardMove{
		Card:         &cp,
		FromSwimlane: from,
		SourceOrder:  r.s.cardsLocked(from),
		DestOrder:    r.s.cardsLocked(destSwimlaneID),
	}, nil
}

func (r memCards) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.s.cards, id)
	_, writes := position.Compact(r.s.cardItemsLocked(c.SwimlaneID))
	for _, w := range writes {
		r.s.cards[w.ID].Position = w.Position
	}
	r.s.writes++
	return nil
}

// --- labels ---

type memLabels struct{ s *memStore }

func (r memLabels) List(context.Context) ([]*domain.Label, error) {
	return slices.Clone(r.s.labels), nil
}

func (r memLabels) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Label, error) {
	found := []*domain.Label{}
	for _, l := range r.s.labels {
		if slices.Contains(ids, l.ID) {
			found = append(found, l)
		}
	}
	return found, nil
}
