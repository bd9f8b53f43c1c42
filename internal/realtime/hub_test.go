package realtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticDirectory maps workspaces to fixed session lists.
type staticDirectory struct {
	mu   sync.Mutex
	subs map[string][]string
}

func newStaticDirectory() *staticDirectory {
	return &staticDirectory{subs: make(map[string][]string)}
}

func (d *staticDirectory) join(workspaceID string, sessions ...*Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range sessions {
		d.subs[workspaceID] = append(d.subs[workspaceID], s.ID)
	}
}

func (d *staticDirectory) Subscribers(workspaceID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.subs[workspaceID]...)
}

func newTestHub(t *testing.T, opts Options) (*Hub, *staticDirectory) {
	t.Helper()
	hub := NewHub(opts, slog.New(slog.DiscardHandler))
	dir := newStaticDirectory()
	hub.SetDirectory(dir)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Start(ctx)
	t.Cleanup(cancel)
	return hub, dir
}

func connect(t *testing.T, hub *Hub, userID string) *Session {
	t.Helper()
	s, err := hub.Connect(userID, userID)
	require.NoError(t, err)
	evt := receive(t, s)
	require.Equal(t, EventConnected, evt.Type)
	return s
}

func receive(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case evt := <-s.Events:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatalf("session %s received nothing", s.ID)
		return Event{}
	}
}

func assertSilent(t *testing.T, s *Session) {
	t.Helper()
	select {
	case evt := <-s.Events:
		t.Fatalf("session %s unexpectedly received %s", s.ID, evt.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_BroadcastExcludesOriginator(t *testing.T) {
	hub, dir := newTestHub(t, Options{})
	s1 := connect(t, hub, "usr-1")
	s2 := connect(t, hub, "usr-2")
	s3 := connect(t, hub, "usr-3")
	outsider := connect(t, hub, "usr-4")
	dir.join("ws-1", s1, s2, s3)

	hub.Broadcast("ws-1", EventCardDeleted, CardDeletedData{WorkspaceID: "ws-1", ListID: "list-1", CardID: "card-1"},
		Origin{SessionID: s1.ID, UserID: "usr-1", UserName: "Alice"})

	for _, s := range []*Session{s2, s3} {
		evt := receive(t, s)
		assert.Equal(t, EventCardDeleted, evt.Type)
		assert.Equal(t, "ws-1", evt.WorkspaceID)
		assert.Equal(t, "usr-1", evt.UserID)
		assert.Equal(t, "Alice", evt.UserName)
	}
	assertSilent(t, s1)
	assertSilent(t, outsider)
}

func TestHub_PreservesEmitOrder(t *testing.T) {
	hub, dir := newTestHub(t, Options{})
	s := connect(t, hub, "usr-1")
	dir.join("ws-1", s)

	for i := range 20 {
		hub.Broadcast("ws-1", EventCardsReordered, CardsReorderedData{Version: int64(i)}, Origin{})
	}
	for i := range 20 {
		evt := receive(t, s)
		assert.Equal(t, int64(i), evt.Data.(CardsReorderedData).Version)
		assert.Equal(t, uint64(i+2), evt.Seq, "connected event is seq 1")
	}
}

func TestHub_SendTargetsOneSession(t *testing.T) {
	hub, _ := newTestHub(t, Options{})
	s1 := connect(t, hub, "usr-1")
	s2 := connect(t, hub, "usr-2")

	hub.Send(s1.ID, Event{Type: EventPresenceSnapshot})

	assert.Equal(t, EventPresenceSnapshot, receive(t, s1).Type)
	assertSilent(t, s2)
}

func TestHub_SlowSessionLeavesSeqGap(t *testing.T) {
	hub, dir := newTestHub(t, Options{SessionBuffer: 2})
	s := connect(t, hub, "usr-1")
	dir.join("ws-1", s)

	for range 4 {
		hub.Broadcast("ws-1", EventListUpdated, nil, Origin{})
	}
	// Give the broadcast goroutine time to attempt all four deliveries.
	time.Sleep(100 * time.Millisecond)

	first := receive(t, s)
	second := receive(t, s)
	assert.Equal(t, uint64(2), first.Seq)
	assert.Equal(t, uint64(3), second.Seq)

	hub.Broadcast("ws-1", EventListUpdated, nil, Origin{})
	assert.Equal(t, uint64(6), receive(t, s).Seq)
}

func TestHub_HeartbeatReachesEverySession(t *testing.T) {
	hub, _ := newTestHub(t, Options{HeartbeatInterval: 20 * time.Millisecond})
	s, err := hub.Connect("usr-1", "Alice")
	require.NoError(t, err)

	for range 3 {
		evt := receive(t, s)
		if evt.Type == EventHeartbeat {
			assert.Zero(t, evt.Seq)
			return
		}
	}
	t.Fatal("no heartbeat received")
}

func TestHub_DisconnectRunsHooks(t *testing.T) {
	hub := NewHub(Options{}, slog.New(slog.DiscardHandler))
	var gone []string
	hub.OnDisconnect(func(s *Session) { gone = append(gone, s.ID) })

	s, err := hub.Connect("usr-1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.SessionCount())

	hub.Disconnect(s.ID)
	hub.Disconnect(s.ID)

	assert.Equal(t, []string{s.ID}, gone)
	assert.Equal(t, 0, hub.SessionCount())
	select {
	case <-s.Done:
	default:
		t.Fatal("session Done not closed")
	}
}

func TestHub_ShutdownDrainsQueue(t *testing.T) {
	hub := NewHub(Options{}, slog.New(slog.DiscardHandler))
	dir := newStaticDirectory()
	hub.SetDirectory(dir)

	s, err := hub.Connect("usr-1", "Alice")
	require.NoError(t, err)
	dir.join("ws-1", s)
	hub.Broadcast("ws-1", EventListDeleted, nil, Origin{})

	go hub.Start(context.Background())
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, hub.Shutdown(ctx))

	assert.Equal(t, EventConnected, (<-s.Events).Type)
	assert.Equal(t, EventListDeleted, (<-s.Events).Type)

	// Emitting after shutdown is a silent no-op.
	hub.Broadcast("ws-1", EventListDeleted, nil, Origin{})
	require.NoError(t, hub.Shutdown(ctx))
}

func TestHub_ShutdownRightAfterStartStillDrains(t *testing.T) {
	hub := NewHub(Options{}, slog.New(slog.DiscardHandler))
	dir := newStaticDirectory()
	hub.SetDirectory(dir)

	s, err := hub.Connect("usr-1", "Alice")
	require.NoError(t, err)
	dir.join("ws-1", s)
	hub.Broadcast("ws-1", EventCardDeleted, nil, Origin{})

	// No pause: Shutdown may run before the Start goroutine is scheduled.
	go hub.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, hub.Shutdown(ctx))

	require.Len(t, s.Events, 2, "queued events are delivered before Shutdown returns")
	assert.Equal(t, EventConnected, (<-s.Events).Type)
	assert.Equal(t, EventCardDeleted, (<-s.Events).Type)
}
