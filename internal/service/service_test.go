package service

import (
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/ordering"
	"github.com/listenupapp/kanban-server/internal/realtime"
	"github.com/listenupapp/kanban-server/internal/store/sqlite"
	"github.com/listenupapp/kanban-server/internal/store/storetest"
)

type broadcast struct {
	workspaceID string
	eventType   realtime.EventType
	payload     any
	origin      realtime.Origin
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcast
}

func (r *recordingBroadcaster) Broadcast(workspaceID string, eventType realtime.EventType, payload any, origin realtime.Origin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, broadcast{workspaceID: workspaceID, eventType: eventType, payload: payload, origin: origin})
}

func (r *recordingBroadcaster) all() []broadcast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]broadcast(nil), r.events...)
}

func (r *recordingBroadcaster) types() []realtime.EventType {
	events := r.all()
	types := make([]realtime.EventType, len(events))
	for i, e := range events {
		types[i] = e.eventType
	}
	return types
}

func (r *recordingBroadcaster) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type recordingRoster struct {
	mu      sync.Mutex
	users   []string
	deleted []string
}

func (r *recordingRoster) LeaveUser(userID, workspaceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, workspaceID+"/"+userID)
	return 1
}

func (r *recordingRoster) LeaveWorkspace(workspaceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, workspaceID)
	return 0
}

type testEnv struct {
	*storetest.Fixture
	events     *recordingBroadcaster
	roster     *recordingRoster
	access     *AccessService
	activity   *ActivityService
	workspaces *WorkspaceService
	lists      *ListService
	cards      *CardService
	users      *UserService

	owner   *domain.User
	ownerAs Actor
	ws      *domain.Workspace
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.DiscardHandler)
	locks := ordering.NewScopeLocks()
	events := &recordingBroadcaster{}
	roster := &recordingRoster{}
	access := NewAccessService(s, logger)
	activity := NewActivityService(s, access, logger)

	env := &testEnv{
		Fixture:    storetest.NewFixture(t, s),
		events:     events,
		roster:     roster,
		access:     access,
		activity:   activity,
		workspaces: NewWorkspaceService(s, access, activity, ordering.NewReconciler(s, locks, logger), locks, events, roster, logger),
		lists:      NewListService(s, access, activity, ordering.NewReconciler(s, locks, logger), locks, events, logger),
		cards:      NewCardService(s, access, activity, ordering.NewMover(s, locks, logger), locks, events, logger),
		users:      NewUserService(s, logger),
	}
	env.owner = env.User("owner")
	env.ownerAs = env.actor(env.owner, "sess-owner")
	env.ws = env.Workspace(env.owner, "Board")
	return env
}

func (e *testEnv) actor(u *domain.User, sessionID string) Actor {
	return Actor{UserID: u.ID, UserName: u.DisplayName(), SessionID: sessionID}
}

func (e *testEnv) ids(cards ...*domain.Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}
