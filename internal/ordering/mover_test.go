package ordering

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/kanban-server/internal/domain"
	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
)

func TestMoveCard_CrossList(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		a := h.List(h.ws, "A")
		b := h.List(h.ws, "B")
		aIDs := h.cards(a, "a1", "a2", "a3")
		h.cards(b, "b1", "b2")

		var hooked *MoveResult
		result, err := h.mover.MoveCard(context.Background(), aIDs[1], b.ID, 1,
			OnMoved(func(r *MoveResult) { hooked = r }))
		require.NoError(t, err)

		assert.Same(t, result, hooked)
		assert.True(t, result.CrossList())
		assert.Equal(t, a.ID, result.SourceListID)
		assert.Equal(t, b.ID, result.TargetListID)
		assert.Equal(t, 1, result.NewPosition)
		assert.Equal(t, b.ID, result.Card.ListID)
		assert.Equal(t, 2, result.Card.Position)

		assert.Equal(t, []string{"a1", "a3"}, h.CardTitles(a))
		assert.Equal(t, []string{"b1", "a2", "b2"}, h.CardTitles(b))
		assert.Equal(t, []int{1, 2}, h.Order(domain.ListScope(a.ID)).Positions)
		assert.Equal(t, []int{1, 2, 3}, h.Order(domain.ListScope(b.ID)).Positions)
		assert.Equal(t, result.SourceOrder, h.Order(domain.ListScope(a.ID)))
		assert.Equal(t, result.TargetOrder, h.Order(domain.ListScope(b.ID)))
	})
}

func TestMoveCard_FillsDisplayFields(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		a := h.List(h.ws, "Todo")
		b := h.List(h.ws, "Done")
		card := h.Card(a, "Ship it")
		card.AssignedTo = h.owner.ID
		require.NoError(t, h.Store.UpdateCard(context.Background(), card))

		var hooked *domain.Card
		result, err := h.mover.MoveCard(context.Background(), card.ID, b.ID, 0,
			OnMoved(func(r *MoveResult) { hooked = r.Card }))
		require.NoError(t, err)

		assert.Equal(t, "Done", result.Card.ListTitle)
		require.NotNil(t, result.Card.Assignee)
		assert.Equal(t, domain.UserSummary{ID: h.owner.ID, Name: h.owner.Name, Email: h.owner.Email}, *result.Card.Assignee)
		assert.Same(t, result.Card, hooked, "hooks see the decorated card")

		stored, err := h.Store.GetCard(context.Background(), card.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.ListTitle, "display fields are not persisted")
		assert.Nil(t, stored.Assignee)

		unassigned := h.Card(a, "Loose end")
		result, err = h.mover.MoveCard(context.Background(), unassigned.ID, a.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, "Todo", result.Card.ListTitle)
		assert.Nil(t, result.Card.Assignee)
	})
}

func TestMoveCard_SameList(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		l := h.List(h.ws, "L")
		ids := h.cards(l, "A", "B", "C", "D")

		result, err := h.mover.MoveCard(context.Background(), ids[0], l.ID, 2)
		require.NoError(t, err)

		assert.False(t, result.CrossList())
		assert.Nil(t, result.SourceOrder)
		assert.True(t, result.Changed)
		assert.Equal(t, []string{"B", "C", "A", "D"}, h.CardTitles(l))
		assert.Equal(t, 3, result.Card.Position)
	})
}

func TestMoveCard_ClampsIndex(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		expected []string
		final    int
	}{
		{name: "negative", index: -4, expected: []string{"x", "b1", "b2"}, final: 0},
		{name: "past end", index: 99, expected: []string{"b1", "b2", "x"}, final: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forEachBackend(t, func(t *testing.T, h *harness) {
				a := h.List(h.ws, "A")
				b := h.List(h.ws, "B")
				x := h.Card(a, "x")
				h.cards(b, "b1", "b2")

				result, err := h.mover.MoveCard(context.Background(), x.ID, b.ID, tt.index)
				require.NoError(t, err)
				assert.Equal(t, tt.final, result.NewPosition)
				assert.Equal(t, tt.expected, h.CardTitles(b))
				assert.Empty(t, h.CardTitles(a))
			})
		})
	}
}

func TestMoveCard_NoOp(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		l := h.List(h.ws, "L")
		ids := h.cards(l, "A", "B")
		before := h.Order(domain.ListScope(l.ID))

		result, err := h.mover.MoveCard(context.Background(), ids[1], l.ID, 1)
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Equal(t, before, h.Order(domain.ListScope(l.ID)))
	})
}

func TestMoveCard_CrossWorkspace(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		a := h.List(h.ws, "A")
		card := h.Card(a, "x")
		otherWS := h.Workspace(h.owner, "Other")
		foreign := h.List(otherWS, "F")

		_, err := h.mover.MoveCard(context.Background(), card.ID, foreign.ID, 0)
		assert.ErrorIs(t, err, domainerrors.ErrCrossWorkspace)
		assert.Equal(t, []string{"x"}, h.CardTitles(a))
		assert.Empty(t, h.CardTitles(foreign))
	})
}

func TestMoveCard_NotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		a := h.List(h.ws, "A")
		card := h.Card(a, "x")

		_, err := h.mover.MoveCard(context.Background(), "card-missing", a.ID, 0)
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)

		_, err = h.mover.MoveCard(context.Background(), card.ID, "list-missing", 0)
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})
}

func TestMoveCard_ConcurrentMovesKeepListsDense(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		a := h.List(h.ws, "A")
		b := h.List(h.ws, "B")
		ids := h.cards(a, "1", "2", "3", "4", "5", "6")

		done := make(chan struct{})
		for i, id := range ids {
			go func() {
				defer func() { done <- struct{}{} }()
				target := a.ID
				if i%2 == 0 {
					target = b.ID
				}
				_, err := h.mover.MoveCard(context.Background(), id, target, 0)
				assert.NoError(t, err)
			}()
		}
		for range ids {
			<-done
		}

		orderA := h.Order(domain.ListScope(a.ID))
		orderB := h.Order(domain.ListScope(b.ID))
		assert.True(t, orderA.Sequential())
		assert.True(t, orderB.Sequential())
		assert.Len(t, orderA.IDs, 3)
		assert.Len(t, orderB.IDs, 3)
	})
}
