package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/kanban-server/internal/domain"
	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/realtime"
)

func TestListService_CreateList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.lists.CreateList(ctx, env.ownerAs, env.ws.ID, ListRequest{Title: "Todo"})
	require.NoError(t, err)
	second, err := env.lists.CreateList(ctx, env.ownerAs, env.ws.ID, ListRequest{Title: "Done"})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, []string{first.ID, second.ID}, env.Order(domain.WorkspaceScope(env.ws.ID)).IDs)

	events := env.events.all()
	require.Len(t, events, 2)
	assert.Equal(t, realtime.EventListCreated, events[0].eventType)
	assert.Equal(t, env.ws.ID, events[0].workspaceID)
	assert.Equal(t, first.ID, events[0].payload.(realtime.ListCreatedData).List.ID)

	_, err = env.lists.CreateList(ctx, env.ownerAs, "ws-missing", ListRequest{Title: "Todo"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestListService_UpdateList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	l := env.List(env.ws, "Todo")

	updated, err := env.lists.UpdateList(ctx, env.ownerAs, l.ID, ListRequest{Title: "Doing"})
	require.NoError(t, err)
	assert.Equal(t, "Doing", updated.Title)
	assert.Equal(t, []realtime.EventType{realtime.EventListUpdated}, env.events.types())

	env.events.reset()
	_, err = env.lists.UpdateList(ctx, env.ownerAs, l.ID, ListRequest{Title: "Doing"})
	require.NoError(t, err)
	assert.Empty(t, env.events.all())

	_, err = env.lists.UpdateList(ctx, env.ownerAs, l.ID, ListRequest{Title: ""})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestListService_DeleteListCompactsWorkspace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.List(env.ws, "A")
	b := env.List(env.ws, "B")
	c := env.List(env.ws, "C")
	card := env.Card(b, "doomed")

	require.NoError(t, env.lists.DeleteList(ctx, env.ownerAs, b.ID))

	order := env.Order(domain.WorkspaceScope(env.ws.ID))
	assert.Equal(t, []string{a.ID, c.ID}, order.IDs)
	assert.True(t, order.Sequential())

	_, err := env.cards.GetCard(ctx, env.ownerAs, card.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	events := env.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.ListDeletedData{WorkspaceID: env.ws.ID, ListID: b.ID}, events[0].payload)
}

func TestListService_ReorderCards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	l := env.List(env.ws, "Todo")
	a := env.Card(l, "a")
	b := env.Card(l, "b")
	c := env.Card(l, "c")

	order, err := env.lists.ReorderCards(ctx, env.ownerAs, l.ID, ReorderCardsRequest{Order: env.ids(c, b, a)})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, env.CardTitles(l))
	assert.True(t, order.Sequential())

	events := env.events.all()
	require.Len(t, events, 1)
	data := events[0].payload.(realtime.CardsReorderedData)
	assert.Equal(t, l.ID, data.ListID)
	assert.Equal(t, order.IDs, data.CardOrder)

	t.Run("incomplete order rejected", func(t *testing.T) {
		_, err := env.lists.ReorderCards(ctx, env.ownerAs, l.ID, ReorderCardsRequest{Order: env.ids(a, b)})
		assert.ErrorIs(t, err, domainerrors.ErrIncompleteOrder)
		assert.Equal(t, []string{"c", "b", "a"}, env.CardTitles(l))
	})

	t.Run("non-member rejected", func(t *testing.T) {
		stranger := env.actor(env.User("stranger"), "")
		_, err := env.lists.ReorderCards(ctx, stranger, l.ID, ReorderCardsRequest{Order: env.ids(a, b, c)})
		assert.ErrorIs(t, err, domainerrors.ErrAccessDenied)
	})
}
