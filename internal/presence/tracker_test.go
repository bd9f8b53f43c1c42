package presence

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/realtime"
)

type sent struct {
	workspaceID string
	eventType   realtime.EventType
	payload     any
	origin      string
	target      string
}

type recorder struct {
	mu     sync.Mutex
	events []sent
}

func (r *recorder) Broadcast(workspaceID string, eventType realtime.EventType, payload any, origin realtime.Origin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sent{workspaceID: workspaceID, eventType: eventType, payload: payload, origin: origin.SessionID})
}

func (r *recorder) Send(sessionID string, event realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sent{workspaceID: event.WorkspaceID, eventType: event.Type, payload: event.Data, target: sessionID})
}

func (r *recorder) types() []realtime.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]realtime.EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.eventType
	}
	return types
}

func (r *recorder) last() sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func newTestTracker() (*Tracker, *recorder, *time.Time) {
	rec := &recorder{}
	tr := NewTracker(rec, 5*time.Second, slog.New(slog.DiscardHandler))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }
	return tr, rec, &now
}

func TestTracker_Join(t *testing.T) {
	tr, rec, _ := newTestTracker()

	tr.Join("sess-1", "usr-1", "Alice", "ws-1")
	snapshot := tr.Join("sess-2", "usr-2", "Bob", "ws-1")

	require.Len(t, snapshot, 2)
	assert.Equal(t, "sess-1", snapshot[0].SessionID)
	assert.Equal(t, "Bob", snapshot[1].UserName)
	assert.ElementsMatch(t, []string{"sess-1", "sess-2"}, tr.Subscribers("ws-1"))

	assert.Equal(t, []realtime.EventType{
		realtime.EventUserJoined, realtime.EventPresenceSnapshot,
		realtime.EventUserJoined, realtime.EventPresenceSnapshot,
	}, rec.types())

	joined := rec.events[2]
	assert.Equal(t, "sess-2", joined.origin)
	assert.Equal(t, realtime.PresenceData{WorkspaceID: "ws-1", SessionID: "sess-2", UserID: "usr-2", UserName: "Bob"}, joined.payload)
	assert.Equal(t, "sess-2", rec.last().target)
}

func TestTracker_JoinTwiceOnlyResendsSnapshot(t *testing.T) {
	tr, rec, _ := newTestTracker()
	tr.Join("sess-1", "usr-1", "Alice", "ws-1")
	tr.Join("sess-1", "usr-1", "Alice", "ws-1")

	assert.Equal(t, []realtime.EventType{
		realtime.EventUserJoined, realtime.EventPresenceSnapshot, realtime.EventPresenceSnapshot,
	}, rec.types())
	assert.Len(t, tr.Members("ws-1"), 1)
}

func TestTracker_Leave(t *testing.T) {
	tr, rec, _ := newTestTracker()
	tr.Join("sess-1", "usr-1", "Alice", "ws-1")
	tr.Join("sess-2", "usr-2", "Bob", "ws-1")

	tr.Leave("sess-1", "ws-1")
	assert.Equal(t, []string{"sess-2"}, tr.Subscribers("ws-1"))
	left := rec.last()
	assert.Equal(t, realtime.EventUserLeft, left.eventType)
	assert.Equal(t, "usr-1", left.payload.(realtime.PresenceData).UserID)

	before := len(rec.types())
	tr.Leave("sess-1", "ws-1")
	assert.Len(t, rec.types(), before, "leaving twice emits nothing")
}

func TestTracker_LeaveAll(t *testing.T) {
	tr, rec, _ := newTestTracker()
	tr.Join("sess-1", "usr-1", "Alice", "ws-1")
	tr.Join("sess-1", "usr-1", "Alice", "ws-2")
	tr.Join("sess-2", "usr-2", "Bob", "ws-2")

	tr.LeaveAll("sess-1")

	assert.Empty(t, tr.Subscribers("ws-1"))
	assert.Equal(t, []string{"sess-2"}, tr.Subscribers("ws-2"))

	var leftEvents int
	for _, typ := range rec.types() {
		if typ == realtime.EventUserLeft {
			leftEvents++
		}
	}
	assert.Equal(t, 2, leftEvents)
}

func (r *recorder) sentTo(sessionID string) []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sent
	for _, e := range r.events {
		if e.target == sessionID {
			out = append(out, e)
		}
	}
	return out
}

func TestTracker_LeaveUser(t *testing.T) {
	tr, rec, _ := newTestTracker()
	tr.Join("sess-1", "usr-1", "Alice", "ws-1")
	tr.Join("sess-2", "usr-2", "Bob", "ws-1")
	tr.Join("sess-3", "usr-2", "Bob", "ws-1")
	tr.Join("sess-3", "usr-2", "Bob", "ws-2")

	assert.Equal(t, 2, tr.LeaveUser("usr-2", "ws-1"))
	assert.Equal(t, []string{"sess-1"}, tr.Subscribers("ws-1"))
	assert.Equal(t, []string{"sess-3"}, tr.Subscribers("ws-2"), "other workspaces are untouched")

	for _, sessionID := range []string{"sess-2", "sess-3"} {
		notices := rec.sentTo(sessionID)
		last := notices[len(notices)-1]
		assert.Equal(t, realtime.EventAccessRevoked, last.eventType)
		assert.Equal(t, realtime.AccessRevokedData{WorkspaceID: "ws-1", Reason: realtime.RevokedMemberRemoved}, last.payload)
	}
	assert.Equal(t, realtime.EventUserLeft, rec.last().eventType)

	assert.Zero(t, tr.LeaveUser("usr-2", "ws-1"))
}

func TestTracker_LeaveWorkspace(t *testing.T) {
	tr, rec, _ := newTestTracker()
	tr.Join("sess-1", "usr-1", "Alice", "ws-1")
	tr.Join("sess-2", "usr-2", "Bob", "ws-1")
	tr.Join("sess-2", "usr-2", "Bob", "ws-2")

	assert.Equal(t, 2, tr.LeaveWorkspace("ws-1"))
	assert.Empty(t, tr.Subscribers("ws-1"))
	assert.Empty(t, tr.Members("ws-1"))
	assert.Equal(t, []string{"sess-2"}, tr.Subscribers("ws-2"))

	notices := rec.sentTo("sess-1")
	last := notices[len(notices)-1]
	assert.Equal(t, realtime.AccessRevokedData{WorkspaceID: "ws-1", Reason: realtime.RevokedWorkspaceDeleted}, last.payload)

	assert.Zero(t, tr.LeaveWorkspace("ws-1"))
}

func TestTracker_OnCursor(t *testing.T) {
	tr, rec, _ := newTestTracker()
	tr.Join("sess-1", "usr-1", "Alice", "ws-1")

	require.NoError(t, tr.OnCursor("sess-1", "ws-1", 10, 20))
	moved := rec.last()
	assert.Equal(t, realtime.EventCursorMoved, moved.eventType)
	assert.Equal(t, "sess-1", moved.origin)
	assert.Equal(t, 10.0, moved.payload.(realtime.CursorMovedData).X)

	members := tr.Members("ws-1")
	require.NotNil(t, members[0].Cursor)
	assert.Equal(t, 20.0, members[0].Cursor.Y)

	err := tr.OnCursor("sess-1", "ws-2", 1, 1)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestTracker_SweepExpiresStaleCursors(t *testing.T) {
	tr, rec, now := newTestTracker()
	tr.Join("sess-1", "usr-1", "Alice", "ws-1")
	tr.Join("sess-2", "usr-2", "Bob", "ws-1")
	require.NoError(t, tr.OnCursor("sess-1", "ws-1", 1, 1))

	*now = now.Add(3 * time.Second)
	require.NoError(t, tr.OnCursor("sess-2", "ws-1", 2, 2))
	assert.Zero(t, tr.Sweep(*now))

	*now = now.Add(3 * time.Second)
	assert.Equal(t, 1, tr.Sweep(*now))
	left := rec.last()
	assert.Equal(t, realtime.EventCursorLeft, left.eventType)
	assert.Equal(t, "sess-1", left.payload.(realtime.CursorLeftData).SessionID)

	members := tr.Members("ws-1")
	assert.Nil(t, members[0].Cursor)
	assert.NotNil(t, members[1].Cursor)
	assert.Len(t, tr.Subscribers("ws-1"), 2, "an expired cursor does not remove the member")
}

func TestTracker_WithHub(t *testing.T) {
	hub := realtime.NewHub(realtime.Options{}, slog.New(slog.DiscardHandler))
	tr := NewTracker(hub, 0, slog.New(slog.DiscardHandler))
	hub.SetDirectory(tr)
	hub.OnDisconnect(func(s *realtime.Session) { tr.LeaveAll(s.ID) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Start(ctx)

	s1, err := hub.Connect("usr-1", "Alice")
	require.NoError(t, err)
	s2, err := hub.Connect("usr-2", "Bob")
	require.NoError(t, err)

	tr.Join(s1.ID, "usr-1", "Alice", "ws-1")
	tr.Join(s2.ID, "usr-2", "Bob", "ws-1")
	hub.Disconnect(s2.ID)

	want := []realtime.EventType{
		realtime.EventConnected,
		realtime.EventPresenceSnapshot,
		realtime.EventUserJoined,
		realtime.EventUserLeft,
	}
	for _, typ := range want {
		select {
		case evt := <-s1.Events:
			assert.Equal(t, typ, evt.Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("expected %s", typ)
		}
	}
	assert.Equal(t, []string{s1.ID}, tr.Subscribers("ws-1"))
}
