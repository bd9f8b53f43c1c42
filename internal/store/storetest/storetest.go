// Package storetest is a contract test suite run against every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/store"
)

// Factory opens an empty store for one test. It should register cleanup on t.
type Factory func(t *testing.T) store.Store

// Run executes the full contract suite.
func Run(t *testing.T, open Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("Workspaces", func(t *testing.T) { testWorkspaces(t, open(t)) })
	t.Run("WorkspaceVisibility", func(t *testing.T) { testWorkspaceVisibility(t, open(t)) })
	t.Run("WorkspaceCascade", func(t *testing.T) { testWorkspaceCascade(t, open(t)) })
	t.Run("Lists", func(t *testing.T) { testLists(t, open(t)) })
	t.Run("Cards", func(t *testing.T) { testCards(t, open(t)) })
	t.Run("SetOrder", func(t *testing.T) { testSetOrder(t, open(t)) })
	t.Run("UpdateRollsBack", func(t *testing.T) { testUpdateRollsBack(t, open(t)) })
	t.Run("RelocateCard", func(t *testing.T) { testRelocateCard(t, open(t)) })
	t.Run("Activities", func(t *testing.T) { testActivities(t, open(t)) })
}

// Fixture builds users, workspaces, lists and cards with predictable IDs.
type Fixture struct {
	T     *testing.T
	Store store.Store
	seq   int
}

// NewFixture returns a fixture writing to s.
func NewFixture(t *testing.T, s store.Store) *Fixture {
	return &Fixture{T: t, Store: s}
}

func (f *Fixture) next(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%03d", prefix, f.seq)
}

// User creates a user.
func (f *Fixture) User(name string) *domain.User {
	f.T.Helper()
	u := &domain.User{Email: name + "@example.com", Name: name}
	u.ID = f.next("usr")
	u.InitTimestamps()
	require.NoError(f.T, f.Store.CreateUser(context.Background(), u))
	return u
}

// Workspace creates a private workspace owned by owner.
func (f *Fixture) Workspace(owner *domain.User, title string) *domain.Workspace {
	f.T.Helper()
	ws := &domain.Workspace{Title: title, Visibility: domain.VisibilityPrivate, OwnerID: owner.ID}
	ws.ID = f.next("ws")
	ws.InitTimestamps()
	ws.SetMember(owner.ID, domain.RoleAdmin)
	require.NoError(f.T, f.Store.CreateWorkspace(context.Background(), ws))
	return ws
}

// List appends a list to ws.
func (f *Fixture) List(ws *domain.Workspace, title string) *domain.List {
	f.T.Helper()
	l := &domain.List{WorkspaceID: ws.ID, Title: title}
	l.ID = f.next("list")
	l.InitTimestamps()
	require.NoError(f.T, f.Store.CreateList(context.Background(), l))
	return l
}

// Card appends a card to l.
func (f *Fixture) Card(l *domain.List, title string) *domain.Card {
	f.T.Helper()
	c := &domain.Card{ListID: l.ID, Title: title, Labels: []string{}}
	c.ID = f.next("card")
	c.InitTimestamps()
	require.NoError(f.T, f.Store.CreateCard(context.Background(), c))
	return c
}

// Order reads a scope's order.
func (f *Fixture) Order(scope domain.Scope) *domain.Order {
	f.T.Helper()
	o, err := f.Store.GetOrder(context.Background(), scope)
	require.NoError(f.T, err)
	return o
}

// CardTitles returns the titles of a list's cards in order.
func (f *Fixture) CardTitles(l *domain.List) []string {
	f.T.Helper()
	cards, err := f.Store.ListCards(context.Background(), l.ID)
	require.NoError(f.T, err)
	titles := make([]string, 0, len(cards))
	for _, c := range cards {
		titles = append(titles, c.Title)
	}
	return titles
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := NewFixture(t, s)
	ada := f.User("Ada")

	got, err := s.GetUser(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "Ada@example.com", got.Email)

	byEmail, err := s.GetUserByEmail(ctx, "ADA@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, byEmail.ID)

	dup := &domain.User{Email: "ada@example.com", Name: "Other"}
	dup.ID = "usr-dup"
	dup.InitTimestamps()
	assert.ErrorIs(t, s.CreateUser(ctx, dup), store.ErrAlreadyExists)

	_, err = s.GetUser(ctx, "usr-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	f.User("Grace")
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func testWorkspaces(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := NewFixture(t, s)
	owner := f.User("owner")
	member := f.User("member")
	ws := f.Workspace(owner, "Roadmap")

	got, err := s.GetWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", got.Title)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Empty(t, got.ListOrder)
	require.Len(t, got.Members, 1)
	assert.Equal(t, domain.RoleAdmin, got.Members[0].Role)

	due := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	got.Title = "Roadmap 2027"
	got.DueDate = &due
	got.SetMember(member.ID, domain.RoleMember)
	got.Touch()
	require.NoError(t, s.UpdateWorkspace(ctx, got))

	reloaded, err := s.GetWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap 2027", reloaded.Title)
	require.NotNil(t, reloaded.DueDate)
	assert.True(t, due.Equal(*reloaded.DueDate))
	assert.True(t, reloaded.IsMember(member.ID))

	mine, err := s.ListWorkspacesForUser(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, ws.ID, mine[0].ID)

	reloaded.RemoveMember(member.ID)
	require.NoError(t, s.UpdateWorkspace(ctx, reloaded))
	mine, err = s.ListWorkspacesForUser(ctx, member.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	missing := &domain.Workspace{Title: "ghost", Visibility: domain.VisibilityPrivate}
	missing.ID = "ws-missing"
	assert.ErrorIs(t, s.UpdateWorkspace(ctx, missing), store.ErrNotFound)
}

func testWorkspaceVisibility(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := NewFixture(t, s)
	owner := f.User("owner")
	stranger := f.User("stranger")
	private := f.Workspace(owner, "Private")
	public := f.Workspace(owner, "Public")

	public.Visibility = domain.VisibilityPublic
	require.NoError(t, s.UpdateWorkspace(ctx, public))

	visible, err := s.ListWorkspacesForUser(ctx, stranger.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, public.ID, visible[0].ID)

	ownerView, err := s.ListWorkspacesForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, ownerView, 2)
	assert.Equal(t, private.ID, ownerView[0].ID)
}

func testWorkspaceCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := NewFixture(t, s)
	owner := f.User("owner")
	ws := f.Workspace(owner, "Doomed")
	l := f.List(ws, "Todo")
	c := f.Card(l, "task")
	require.NoError(t, s.CreateActivity(ctx, &domain.Activity{
		ID: "act-1", WorkspaceID: ws.ID, UserID: owner.ID, Type: domain.ActivityListCreated,
		Action: "created list Todo", CreatedAt: time.Now(),
	}))

	require.NoError(t, s.DeleteWorkspace(ctx, ws.ID))

	_, err := s.GetWorkspace(ctx, ws.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetList(ctx, l.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetCard(ctx, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	acts, err := s.ListActivities(ctx, ws.ID, store.PageParams{})
	require.NoError(t, err)
	assert.Empty(t, acts)

	assert.ErrorIs(t, s.DeleteWorkspace(ctx, ws.ID), store.ErrNotFound)
}

func testLists(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := NewFixture(t, s)
	ws := f.Workspace(f.User("owner"), "Board")

	a := f.List(ws, "A")
	b := f.List(ws, "B")
	c := f.List(ws, "C")
	assert.Equal(t, 1, a.Position)
	assert.Equal(t, 2, b.Position)
	assert.Equal(t, 3, c.Position)

	order := f.Order(domain.WorkspaceScope(ws.ID))
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, order.IDs)
	assert.Equal(t, []int{1, 2, 3}, order.Positions)
	versionBefore := order.Version

	b.Title = "Doing"
	b.Touch()
	require.NoError(t, s.UpdateList(ctx, b))
	got, err := s.GetList(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Doing", got.Title)
	assert.Equal(t, 2, got.Position)

	require.NoError(t, s.DeleteList(ctx, a.ID))
	order = f.Order(domain.WorkspaceScope(ws.ID))
	assert.Equal(t, []string{b.ID, c.ID}, order.IDs)
	assert.Equal(t, []int{1, 2}, order.Positions)
	assert.Greater(t, order.Version, versionBefore)

	lists, err := s.ListLists(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, b.ID, lists[0].ID)
	assert.Equal(t, 1, lists[0].Position)

	assert.ErrorIs(t, s.DeleteList(ctx, a.ID), store.ErrNotFound)

	orphan := &domain.List{WorkspaceID: "ws-missing", Title: "x"}
	orphan.ID = "list-orphan"
	assert.ErrorIs(t, s.CreateList(ctx, orphan), store.ErrNotFound)
}

func testCards(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := NewFixture(t, s)
	owner := f.User("owner")
	ws := f.Workspace(owner, "Board")
	todo := f.List(ws, "Todo")
	done := f.List(ws, "Done")

	c1 := f.Card(todo, "one")
	c2 := f.Card(todo, "two")
	c3 := f.Card(todo, "three")
	d1 := f.Card(done, "shipped")
	assert.Equal(t, ws.ID, c1.WorkspaceID, "workspace is taken from the list")
	assert.Equal(t, 3, c3.Position)
	assert.Equal(t, 1, d1.Position)

	list, err := s.GetList(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c1.ID, c2.ID, c3.ID}, list.CardOrder)

	due := time.Date(2027, 1, 15, 9, 0, 0, 0, time.UTC)
	c2.Title = "two (edited)"
	c2.Description = "details"
	c2.Labels = []string{"bug", "ui"}
	c2.AssignedTo = owner.ID
	c2.DueDate = &due
	c2.Position = 99 // ignored
	c2.Touch()
	require.NoError(t, s.UpdateCard(ctx, c2))

	got, err := s.GetCard(ctx, c2.ID)
	require.NoError(t, err)
	assert.Equal(t, "two (edited)", got.Title)
	assert.Equal(t, []string{"bug", "ui"}, got.Labels)
	assert.Equal(t, owner.ID, got.AssignedTo)
	assert.Equal(t, 2, got.Position)
	assert.Equal(t, todo.ID, got.ListID)

	all, err := s.ListWorkspaceCards(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{c1.ID, c2.ID, c3.ID, d1.ID}, []string{all[0].ID, all[1].ID, all[2].ID, all[3].ID})

	require.NoError(t, s.DeleteCard(ctx, c1.ID))
	order := f.Order(domain.ListScope(todo.ID))
	assert.Equal(t, []string{c2.ID, c3.ID}, order.IDs)
	assert.Equal(t, []int{1, 2}, order.Positions)

	assert.ErrorIs(t, s.DeleteCard(ctx, c1.ID), store.ErrNotFound)

	stray := &domain.Card{ListID: "list-missing", Title: "x"}
	stray.ID = "card-stray"
	assert.ErrorIs(t, s.CreateCard(ctx, stray), store.ErrNotFound)
}

func testSetOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := NewFixture(t, s)
	ws := f.Workspace(f.User("owner"), "Board")
	l := f.List(ws, "Todo")
	a := f.Card(l, "A")
	b := f.Card(l, "B")
	c := f.Card(l, "C")
	scope := domain.ListScope(l.ID)
	before := f.Order(scope)

	var written *domain.Order
	err := s.Update(ctx, func(tx store.OrderTx) error {
		var err error
		written, err = tx.SetOrder(ctx, scope, []string{c.ID, a.ID, b.ID})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, before.Version+1, written.Version)

	after := f.Order(scope)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, after.IDs)
	assert.Equal(t, []int{1, 2, 3}, after.Positions)
	assert.Equal(t, written.Version, after.Version)
	assert.Equal(t, []string{"C", "A", "B"}, f.CardTitles(l))

	err = s.Update(ctx, func(tx store.OrderTx) error {
		_, err := tx.SetOrder(ctx, scope, []string{a.ID, b.ID, "card-foreign"})
		return err
	})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
	assert.Equal(t, after, f.Order(scope))

	_, err = s.GetOrder(ctx, domain.ListScope("list-missing"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUpdateRollsBack(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := NewFixture(t, s)
	ws := f.Workspace(f.User("owner"), "Board")
	l1 := f.List(ws, "One")
	l2 := f.List(ws, "Two")
	scope := domain.WorkspaceScope(ws.ID)
	before := f.Order(scope)

	boom := errors.New("boom")
	err := s.Update(ctx, func(tx store.OrderTx) error {
		if _, err := tx.SetOrder(ctx, scope, []string{l2.ID, l1.ID}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, f.Order(scope))
}

func testRelocateCard(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := NewFixture(t, s)
	ws := f.Workspace(f.User("owner"), "Board")
	src := f.List(ws, "A")
	dst := f.List(ws, "B")
	a1 := f.Card(src, "A1")
	a2 := f.Card(src, "A2")
	a3 := f.Card(src, "A3")
	b1 := f.Card(dst, "B1")
	b2 := f.Card(dst, "B2")

	err := s.Update(ctx, func(tx store.OrderTx) error {
		if err := tx.RelocateCard(ctx, a2.ID, dst.ID); err != nil {
			return err
		}
		if _, err := tx.SetOrder(ctx, domain.ListScope(dst.ID), []string{b1.ID, a2.ID, b2.ID}); err != nil {
			return err
		}
		_, err := tx.SetOrder(ctx, domain.ListScope(src.ID), []string{a1.ID, a3.ID})
		return err
	})
	require.NoError(t, err)

	srcOrder := f.Order(domain.ListScope(src.ID))
	assert.Equal(t, []string{a1.ID, a3.ID}, srcOrder.IDs)
	assert.Equal(t, []int{1, 2}, srcOrder.Positions)

	dstOrder := f.Order(domain.ListScope(dst.ID))
	assert.Equal(t, []string{b1.ID, a2.ID, b2.ID}, dstOrder.IDs)
	assert.Equal(t, []int{1, 2, 3}, dstOrder.Positions)

	moved, err := s.GetCard(ctx, a2.ID)
	require.NoError(t, err)
	assert.Equal(t, dst.ID, moved.ListID)
	assert.Equal(t, 2, moved.Position)
}

func testActivities(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := NewFixture(t, s)
	owner := f.User("owner")
	ws := f.Workspace(owner, "Board")
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		require.NoError(t, s.CreateActivity(ctx, &domain.Activity{
			ID:          fmt.Sprintf("act-%d", i),
			WorkspaceID: ws.ID,
			UserID:      owner.ID,
			UserName:    owner.Name,
			Type:        domain.ActivityCardCreated,
			Action:      fmt.Sprintf("created card %d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := s.ListActivities(ctx, ws.ID, store.PageParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "act-4", page[0].ID)
	assert.Equal(t, "act-3", page[1].ID)

	page, err = s.ListActivities(ctx, ws.ID, store.PageParams{Limit: 10, Offset: 3})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "act-1", page[0].ID)
	assert.Equal(t, owner.Name, page[0].UserName)

	err = s.CreateActivity(ctx, &domain.Activity{ID: "act-x", WorkspaceID: "ws-missing", CreatedAt: base})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
