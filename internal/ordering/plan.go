// Package ordering maintains the user-visible order of lists within a
// workspace and cards within a list.
//
// The planning functions in this file are pure: they take the current
// sequence and a request and return the sequence to persist, or a domain
// error explaining why the request is rejected. Reconciler and Mover apply
// the plans to the store under a per-scope lock.
package ordering

import (
	"slices"

	"github.com/listenupapp/kanban-server/internal/domain"
	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
)

// Validate checks that desired is a permutation of current.
//
// The first desired ID that is not a member of the scope yields a
// FOREIGN_ITEM error naming it. Otherwise a length mismatch or a duplicate
// yields INCOMPLETE_ORDER with the missing and duplicated IDs.
func Validate(scope domain.Scope, current, desired []string) error {
	members := make(map[string]struct{}, len(current))
	for _, id := range current {
		members[id] = struct{}{}
	}

	for _, id := range desired {
		if _, ok := members[id]; !ok {
			return domainerrors.ForeignItem(id, string(scope.Kind), scope.ID)
		}
	}

	seen := make(map[string]struct{}, len(desired))
	var duplicates []string
	for _, id := range desired {
		if _, dup := seen[id]; dup {
			duplicates = append(duplicates, id)
			continue
		}
		seen[id] = struct{}{}
	}

	if len(desired) == len(current) && len(duplicates) == 0 {
		return nil
	}

	var missing []string
	for _, id := range current {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	return domainerrors.IncompleteOrder(domainerrors.IncompleteOrderDetails{
		Expected:   len(current),
		Got:        len(desired),
		Missing:    missing,
		Duplicates: duplicates,
	})
}

// Clamp bounds a zero-based insertion index to [0, n].
func Clamp(index, n int) int {
	return max(0, min(index, n))
}

// Remove returns ids without id. The input is not modified.
func Remove(ids []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(v string) bool { return v == id })
}

// Insert returns ids with id placed at index, clamped to the valid range.
// The input is not modified.
func Insert(ids []string, id string, index int) []string {
	return slices.Insert(slices.Clone(ids), Clamp(index, len(ids)), id)
}

// Unchanged reports whether writing desired over current would be a no-op:
// same sequence and positions already 1..N.
func Unchanged(current *domain.Order, desired []string) bool {
	return slices.Equal(current.IDs, desired) && current.Sequential()
}

// MovePlan is the outcome of planning a card move.
type MovePlan struct {
	// Source is the source list's new sequence. Nil for a same-list move.
	Source []string
	// Target is the target list's new sequence, including the card.
	Target []string
	// Index is the card's final zero-based index in Target.
	Index int
}

// PlanMove computes the sequences that result from moving cardID out of
// source and into target at index. For a same-list move pass the same
// slice as source and target, with sameList set.
func PlanMove(cardID string, source, target []string, index int, sameList bool) MovePlan {
	if sameList {
		rest := Remove(source, cardID)
		idx := Clamp(index, len(rest))
		return MovePlan{Target: slices.Insert(rest, idx, cardID), Index: idx}
	}

	rest := Remove(target, cardID)
	idx := Clamp(index, len(rest))
	return MovePlan{
		Source: Remove(source, cardID),
		Target: slices.Insert(rest, idx, cardID),
		Index:  idx,
	}
}
