// Package presence tracks which sessions are looking at which workspace and
// where their cursors are. State lives in memory and is rebuilt empty on
// restart.
package presence

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/realtime"
)

// DefaultCursorTTL is how long a cursor survives without an update.
const DefaultCursorTTL = 5 * time.Second

// Broadcaster is the part of the realtime hub the tracker emits through.
type Broadcaster interface {
	Broadcast(workspaceID string, eventType realtime.EventType, payload any, origin realtime.Origin)
	Send(sessionID string, event realtime.Event)
}

// Tracker is the per-workspace registry of joined sessions. It doubles as
// the hub's addressing directory.
type Tracker struct {
	hub    Broadcaster
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	workspaces map[string]map[string]*realtime.Member // workspace -> session -> member
	sessions   map[string]map[string]struct{}         // session -> workspaces

	cursorTTL time.Duration
}

// NewTracker creates a Tracker. A non-positive cursorTTL selects DefaultCursorTTL.
func NewTracker(hub Broadcaster, cursorTTL time.Duration, logger *slog.Logger) *Tracker {
	if cursorTTL <= 0 {
		cursorTTL = DefaultCursorTTL
	}
	return &Tracker{
		hub:        hub,
		logger:     logger,
		now:        time.Now,
		workspaces: make(map[string]map[string]*realtime.Member),
		sessions:   make(map[string]map[string]struct{}),
		cursorTTL:  cursorTTL,
	}
}

// Join adds the session to workspaceID, tells the other sessions and sends
// the joiner a presence snapshot, which is also returned. Joining twice is
// a no-op apart from the snapshot.
func (t *Tracker) Join(sessionID, userID, userName, workspaceID string) []realtime.Member {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.workspaces[workspaceID]
	if !ok {
		members = make(map[string]*realtime.Member)
		t.workspaces[workspaceID] = members
	}

	if _, joined := members[sessionID]; !joined {
		members[sessionID] = &realtime.Member{
			JoinedAt:  t.now().UTC(),
			SessionID: sessionID,
			UserID:    userID,
			UserName:  userName,
		}
		if t.sessions[sessionID] == nil {
			t.sessions[sessionID] = make(map[string]struct{})
		}
		t.sessions[sessionID][workspaceID] = struct{}{}

		t.hub.Broadcast(workspaceID, realtime.EventUserJoined, realtime.PresenceData{
			WorkspaceID: workspaceID,
			SessionID:   sessionID,
			UserID:      userID,
			UserName:    userName,
		}, realtime.Origin{SessionID: sessionID, UserID: userID, UserName: userName})

		t.logger.Debug("session joined workspace",
			"session_id", sessionID,
			"workspace_id", workspaceID,
			"present", len(members),
		)
	}

	snapshot := t.snapshotLocked(workspaceID)
	t.hub.Send(sessionID, realtime.Event{
		Timestamp:   t.now().UTC(),
		Type:        realtime.EventPresenceSnapshot,
		WorkspaceID: workspaceID,
		Data:        realtime.PresenceSnapshotData{WorkspaceID: workspaceID, Members: snapshot},
	})
	return snapshot
}

// Leave removes the session from workspaceID and tells the remaining sessions.
func (t *Tracker) Leave(sessionID, workspaceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leaveLocked(sessionID, workspaceID)
}

// LeaveAll removes the session from every workspace. Called on disconnect.
func (t *Tracker) LeaveAll(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for workspaceID := range t.sessions[sessionID] {
		t.leaveLocked(sessionID, workspaceID)
	}
}

// LeaveUser removes every session userID holds in workspaceID. Each one is
// told why before it goes. It returns the number of sessions removed.
func (t *Tracker) LeaveUser(userID, workspaceID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for sessionID, m := range t.workspaces[workspaceID] {
		if m.UserID != userID {
			continue
		}
		t.revokeLocked(sessionID, workspaceID, realtime.RevokedMemberRemoved)
		removed++
	}
	return removed
}

// LeaveWorkspace removes every session from workspaceID. It returns the
// number of sessions removed.
func (t *Tracker) LeaveWorkspace(workspaceID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for sessionID := range t.workspaces[workspaceID] {
		t.revokeLocked(sessionID, workspaceID, realtime.RevokedWorkspaceDeleted)
		removed++
	}
	if removed > 0 {
		t.logger.Info("evicted sessions from workspace", "workspace_id", workspaceID, "count", removed)
	}
	return removed
}

// revokeLocked notifies the session directly, since it is no longer a
// subscriber once it has left.
func (t *Tracker) revokeLocked(sessionID, workspaceID, reason string) {
	t.hub.Send(sessionID, realtime.Event{
		Timestamp:   t.now().UTC(),
		Type:        realtime.EventAccessRevoked,
		WorkspaceID: workspaceID,
		Data:        realtime.AccessRevokedData{WorkspaceID: workspaceID, Reason: reason},
	})
	t.leaveLocked(sessionID, workspaceID)
}

func (t *Tracker) leaveLocked(sessionID, workspaceID string) {
	members := t.workspaces[workspaceID]
	m, ok := members[sessionID]
	if !ok {
		return
	}

	delete(members, sessionID)
	if len(members) == 0 {
		delete(t.workspaces, workspaceID)
	}
	delete(t.sessions[sessionID], workspaceID)
	if len(t.sessions[sessionID]) == 0 {
		delete(t.sessions, sessionID)
	}

	t.hub.Broadcast(workspaceID, realtime.EventUserLeft, realtime.PresenceData{
		WorkspaceID: workspaceID,
		SessionID:   sessionID,
		UserID:      m.UserID,
		UserName:    m.UserName,
	}, realtime.Origin{SessionID: sessionID, UserID: m.UserID, UserName: m.UserName})

	t.logger.Debug("session left workspace",
		"session_id", sessionID,
		"workspace_id", workspaceID,
	)
}

// OnCursor records a cursor position and relays it to the other sessions
// in the workspace. There is no throttling.
func (t *Tracker) OnCursor(sessionID, workspaceID string, x, y float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.workspaces[workspaceID][sessionID]
	if !ok {
		return domainerrors.NotFoundf("session %s has not joined workspace %s", sessionID, workspaceID)
	}
	m.Cursor = &realtime.Cursor{UpdatedAt: t.now(), X: x, Y: y}

	t.hub.Broadcast(workspaceID, realtime.EventCursorMoved, realtime.CursorMovedData{
		WorkspaceID: workspaceID,
		SessionID:   sessionID,
		UserID:      m.UserID,
		UserName:    m.UserName,
		X:           x,
		Y:           y,
	}, realtime.Origin{SessionID: sessionID, UserID: m.UserID, UserName: m.UserName})
	return nil
}

// Sweep expires cursors not updated within the TTL and emits cursor-left
// for each. It returns the number expired.
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	expired := 0
	for workspaceID, members := range t.workspaces {
		for sessionID, m := range members {
			if m.Cursor == nil || now.Sub(m.Cursor.UpdatedAt) < t.cursorTTL {
				continue
			}
			m.Cursor = nil
			expired++
			t.hub.Broadcast(workspaceID, realtime.EventCursorLeft, realtime.CursorLeftData{
				WorkspaceID: workspaceID,
				SessionID:   sessionID,
				UserID:      m.UserID,
			}, realtime.Origin{SessionID: sessionID, UserID: m.UserID, UserName: m.UserName})
		}
	}
	return expired
}

// Run sweeps stale cursors until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.cursorTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.Sweep(t.now()); n > 0 {
				t.logger.Debug("expired stale cursors", "count", n)
			}
		}
	}
}

// Subscribers returns the sessions joined to workspaceID.
func (t *Tracker) Subscribers(workspaceID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.workspaces[workspaceID]))
	for sessionID := range t.workspaces[workspaceID] {
		ids = append(ids, sessionID)
	}
	return ids
}

// Members returns who is present in workspaceID, earliest joiner first.
func (t *Tracker) Members(workspaceID string) []realtime.Member {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked(workspaceID)
}

func (t *Tracker) snapshotLocked(workspaceID string) []realtime.Member {
	members := make([]realtime.Member, 0, len(t.workspaces[workspaceID]))
	for _, m := range t.workspaces[workspaceID] {
		copied := *m
		if m.Cursor != nil {
			cursor := *m.Cursor
			copied.Cursor = &cursor
		}
		members = append(members, copied)
	}
	slices.SortFunc(members, func(a, b realtime.Member) int {
		return cmp.Or(a.JoinedAt.Compare(b.JoinedAt), cmp.Compare(a.SessionID, b.SessionID))
	})
	return members
}
