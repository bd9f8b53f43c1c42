package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/kanban-server/internal/domain"
	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/realtime"
	"github.com/listenupapp/kanban-server/internal/store"
)

func TestWorkspaceService_CreateWorkspace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ws, err := env.workspaces.CreateWorkspace(ctx, env.ownerAs, CreateWorkspaceRequest{Title: "  Roadmap  "})
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", ws.Title)
	assert.Equal(t, domain.VisibilityPrivate, ws.Visibility)
	assert.True(t, ws.IsAdminOrOwner(env.owner.ID))

	activities, err := env.activity.List(ctx, env.ownerAs, ws.ID, store.PageParams{})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, domain.ActivityWorkspaceCreated, activities[0].Type)

	_, err = env.workspaces.CreateWorkspace(ctx, env.ownerAs, CreateWorkspaceRequest{Title: "   "})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestWorkspaceService_ListWorkspacesIncludesPublic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	other := env.User("other")
	otherAs := env.actor(other, "")

	public := "public"
	_, err := env.workspaces.UpdateWorkspace(ctx, env.ownerAs, env.ws.ID, UpdateWorkspaceRequest{Visibility: &public})
	require.NoError(t, err)
	env.Workspace(env.owner, "Private")

	got, err := env.workspaces.ListWorkspaces(ctx, otherAs)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, env.ws.ID, got[0].ID)

	// Readable, but not writable.
	_, err = env.workspaces.GetBoard(ctx, otherAs, env.ws.ID)
	require.NoError(t, err)
	_, err = env.lists.CreateList(ctx, otherAs, env.ws.ID, ListRequest{Title: "Nope"})
	assert.ErrorIs(t, err, domainerrors.ErrAccessDenied)
}

func TestWorkspaceService_GetBoard(t *testing.T) {
	env := newTestEnv(t)
	todo := env.List(env.ws, "Todo")
	done := env.List(env.ws, "Done")
	a := env.Card(todo, "a")
	b := env.Card(todo, "b")
	env.Card(done, "c")

	_, err := env.lists.ReorderCards(context.Background(), env.ownerAs, todo.ID, ReorderCardsRequest{Order: env.ids(b, a)})
	require.NoError(t, err)

	board, err := env.workspaces.GetBoard(context.Background(), env.ownerAs, env.ws.ID)
	require.NoError(t, err)
	require.Len(t, board.Lists, 2)
	assert.Equal(t, "Todo", board.Lists[0].Title)
	require.Len(t, board.Lists[0].Cards, 2)
	assert.Equal(t, "b", board.Lists[0].Cards[0].Title)
	assert.Equal(t, "a", board.Lists[0].Cards[1].Title)
	require.Len(t, board.Lists[1].Cards, 1)
	assert.Equal(t, "Done", board.Lists[1].Cards[0].ListTitle)

	stranger := env.actor(env.User("stranger"), "")
	_, err = env.workspaces.GetBoard(context.Background(), stranger, env.ws.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccessDenied)
}

func TestWorkspaceService_UpdateRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.User("member")
	_, err := env.workspaces.AddMember(ctx, env.ownerAs, env.ws.ID, AddMemberRequest{Email: member.Email})
	require.NoError(t, err)

	title := "Renamed"
	_, err = env.workspaces.UpdateWorkspace(ctx, env.actor(member, ""), env.ws.ID, UpdateWorkspaceRequest{Title: &title})
	assert.ErrorIs(t, err, domainerrors.ErrAccessDenied)

	env.events.reset()
	ws, err := env.workspaces.UpdateWorkspace(ctx, env.ownerAs, env.ws.ID, UpdateWorkspaceRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", ws.Title)
	assert.Equal(t, []realtime.EventType{realtime.EventWorkspaceUpdated}, env.events.types())
}

func TestWorkspaceService_Members(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.User("member")

	ws, err := env.workspaces.AddMember(ctx, env.ownerAs, env.ws.ID, AddMemberRequest{Email: "MEMBER@example.com"})
	require.NoError(t, err)
	assert.True(t, ws.IsMember(member.ID))

	_, err = env.workspaces.AddMember(ctx, env.ownerAs, env.ws.ID, AddMemberRequest{Email: member.Email})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	_, err = env.workspaces.AddMember(ctx, env.ownerAs, env.ws.ID, AddMemberRequest{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	ws, err = env.workspaces.UpdateMember(ctx, env.ownerAs, env.ws.ID, member.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ws.IsAdminOrOwner(member.ID))

	_, err = env.workspaces.UpdateMember(ctx, env.actor(member, ""), env.ws.ID, env.owner.ID, domain.RoleMember)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	err = env.workspaces.RemoveMember(ctx, env.actor(member, ""), env.ws.ID, env.owner.ID)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	// Members may leave on their own.
	require.NoError(t, env.workspaces.RemoveMember(ctx, env.actor(member, ""), env.ws.ID, member.ID))
	ok, err := env.access.HasAccess(ctx, member.ID, env.ws.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{env.ws.ID + "/" + member.ID}, env.roster.users)
}

func TestWorkspaceService_ReorderLists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.List(env.ws, "A")
	b := env.List(env.ws, "B")
	c := env.List(env.ws, "C")

	order, err := env.workspaces.ReorderLists(ctx, env.ownerAs, env.ws.ID, ReorderListsRequest{Order: []string{c.ID, a.ID, b.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, order.IDs)

	events := env.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventListsReordered, events[0].eventType)
	assert.Equal(t, "sess-owner", events[0].origin.SessionID)
	data := events[0].payload.(realtime.ListsReorderedData)
	assert.Equal(t, order.IDs, data.ListOrder)
	assert.Equal(t, order.Version, data.Version)

	t.Run("no-op emits nothing", func(t *testing.T) {
		env.events.reset()
		_, err := env.workspaces.ReorderLists(ctx, env.ownerAs, env.ws.ID, ReorderListsRequest{Order: order.IDs})
		require.NoError(t, err)
		assert.Empty(t, env.events.all())
	})

	t.Run("foreign list rejected", func(t *testing.T) {
		other := env.Workspace(env.owner, "Other")
		x := env.List(other, "X")
		_, err := env.workspaces.ReorderLists(ctx, env.ownerAs, env.ws.ID, ReorderListsRequest{Order: []string{c.ID, a.ID, x.ID}})
		assert.ErrorIs(t, err, domainerrors.ErrForeignItem)
		assert.Equal(t, order.IDs, env.Order(domain.WorkspaceScope(env.ws.ID)).IDs)
	})

	t.Run("stale version rejected", func(t *testing.T) {
		stale := order.Version - 1
		_, err := env.workspaces.ReorderLists(ctx, env.ownerAs, env.ws.ID, ReorderListsRequest{Order: []string{a.ID, b.ID, c.ID}, ExpectedVersion: &stale})
		assert.ErrorIs(t, err, domainerrors.ErrConflict)
	})
}

func TestWorkspaceService_DeleteWorkspace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.User("admin")
	_, err := env.workspaces.AddMember(ctx, env.ownerAs, env.ws.ID, AddMemberRequest{Email: admin.Email, Role: "admin"})
	require.NoError(t, err)
	l := env.List(env.ws, "Todo")
	card := env.Card(l, "a")

	err = env.workspaces.DeleteWorkspace(ctx, env.actor(admin, ""), env.ws.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccessDenied)
	assert.Empty(t, env.roster.deleted)

	env.events.reset()
	require.NoError(t, env.workspaces.DeleteWorkspace(ctx, env.ownerAs, env.ws.ID))
	assert.Equal(t, []realtime.EventType{realtime.EventWorkspaceDeleted}, env.events.types())
	assert.Equal(t, []string{env.ws.ID}, env.roster.deleted)

	_, err = env.cards.GetCard(ctx, env.ownerAs, card.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
