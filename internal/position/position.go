// Package position keeps sibling lists densely ordered.
//
// Every positioned list (swimlanes on a board, cards in a swimlane) is stored
// as a plain integer column. After any committed mutation the positions of a
// list are exactly 0..n-1. The functions here operate on value snapshots read
// inside the caller's transaction and return the writes needed to reach the
// new order; they never touch storage themselves.
package position

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
)

// Item is a snapshot of one positioned row.
type Item struct {
	ID       uuid.UUID
	Position int
}

// Assignment is a single position write.
type Assignment struct {
	ID       uuid.UUID
	Position int
}

// Clamp bounds a requested index into [0, siblingCount].
func Clamp(target, siblingCount int) int {
	return max(0, min(target, siblingCount))
}

// Sort orders items by position, breaking ties by ID so that corrupted input
// still yields a deterministic order.
func Sort(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
}

// Reorder inserts moving into siblings at the clamped target and returns the
// resulting order. siblings must not contain moving; they are sorted by
// position first.
func Reorder(siblings []Item, moving uuid.UUID, target int) []uuid.UUID {
	sorted := slices.Clone(siblings)
	Sort(sorted)

	idx := Clamp(target, len(sorted))
	order := make([]uuid.UUID, 0, len(sorted)+1)
	for _, s := range sorted[:idx] {
		order = append(order, s.ID)
	}
	order = append(order, moving)
	for _, s := range sorted[idx:] {
		order = append(order, s.ID)
	}
	return order
}

// Plan computes the new order for moving placed at target among siblings and
// the writes required to get there. moving.Position is its current position
// in this list, or -1 when it arrives from another list. Writes whose value
// would not change are omitted.
func Plan(siblings []Item, moving Item, target int) ([]uuid.UUID, []Assignment) {
	order := Reorder(siblings, moving.ID, target)

	current := make(map[uuid.UUID]int, len(siblings)+1)
	for _, s := range siblings {
		current[s.ID] = s.Position
	}
	current[moving.ID] = moving.Position

	return order, diff(order, current)
}

// Compact renumbers items densely in their current order. It is used after a
// removal or after an item leaves the list.
func Compact(items []Item) ([]uuid.UUID, []Assignment) {
	sorted := slices.Clone(items)
	Sort(sorted)

	order := make([]uuid.UUID, len(sorted))
	current := make(map[uuid.UUID]int, len(sorted))
	for i, s := range sorted {
		order[i] = s.ID
		current[s.ID] = s.Position
	}
	return order, diff(order, current)
}

// Next returns the position for an item appended after items.
func Next(positions []int) int {
	if len(positions) == 0 {
		return 0
	}
	return slices.Max(positions) + 1
}

// Dense reports whether positions are exactly a permutation of 0..n-1.
func Dense(positions []int) bool {
	seen := make([]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(positions) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

func diff(order []uuid.UUID, current map[uuid.UUID]int) []Assignment {
	var writes []Assignment
	for i, id := range order {
		if pos, ok := current[id]; ok && pos == i {
			continue
		}
		writes = append(writes, Assignment{ID: id, Position: i})
	}
	return writes
}
