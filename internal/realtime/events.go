// Package realtime delivers workspace change events to connected sessions.
//
// Services emit an event after a mutation commits. The Hub queues it and a
// single goroutine fans it out to every session joined to the workspace
// except the session that caused the change, which already holds the
// optimistic local state. Sessions reach the Hub over SSE or a websocket.
package realtime

import (
	"time"

	"github.com/listenupapp/kanban-server/internal/domain"
)

// EventType names an event on the wire.
type EventType string

const (
	EventListCreated    EventType = "list-created"
	EventListUpdated    EventType = "list-updated"
	EventListDeleted    EventType = "list-deleted"
	EventListsReordered EventType = "lists-reordered"

	EventCardCreated    EventType = "card-created"
	EventCardUpdated    EventType = "card-updated"
	EventCardMoved      EventType = "card-moved"
	EventCardDeleted    EventType = "card-deleted"
	EventCardsReordered EventType = "cards-reordered"

	// Comment events are part of the wire vocabulary for clients that share
	// the protocol; this server has no comment store and never emits them.
	EventCommentCreated EventType = "comment-created"
	EventCommentUpdated EventType = "comment-updated"
	EventCommentDeleted EventType = "comment-deleted"

	EventWorkspaceUpdated EventType = "workspace-updated"
	EventWorkspaceDeleted EventType = "workspace-deleted"
	// EventAccessRevoked is sent to a session just before it stops receiving
	// a workspace's events.
	EventAccessRevoked EventType = "access-revoked"

	EventUserJoined       EventType = "user-joined"
	EventUserLeft         EventType = "user-left"
	EventPresenceSnapshot EventType = "presence-snapshot"
	EventCursorMoved      EventType = "cursor-moved"
	EventCursorLeft       EventType = "cursor-left"

	// EventConnected is the first event on every session and carries the
	// session ID clients send back as X-Session-ID.
	EventConnected EventType = "connected"
	// EventHeartbeat keeps idle connections open through proxies.
	EventHeartbeat EventType = "heartbeat"
	// EventError reports a rejected websocket command to its sender.
	EventError EventType = "error"
)

// Event is a message delivered to sessions.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	Data        any       `json:"data"`
	Type        EventType `json:"type"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	UserName    string    `json:"user_name,omitempty"`
	// Seq increases by one for every event addressed to a session, including
	// events dropped because the session was slow. A gap tells the client to
	// re-fetch the board.
	Seq uint64 `json:"seq,omitzero"`

	// Origin is the session excluded from delivery.
	Origin string `json:"-"`
	// Target restricts delivery to one session.
	Target string `json:"-"`

	remote bool
}

// Origin identifies who caused a change.
type Origin struct {
	SessionID string
	UserID    string
	UserName  string
}

// NewEvent builds a workspace event attributed to origin.
func NewEvent(workspaceID string, eventType EventType, payload any, origin Origin) Event {
	return Event{
		Timestamp:   time.Now().UTC(),
		Type:        eventType,
		Data:        payload,
		WorkspaceID: workspaceID,
		UserID:      origin.UserID,
		UserName:    origin.UserName,
		Origin:      origin.SessionID,
	}
}

// ListCreatedData is the payload of list-created.
type ListCreatedData struct {
	WorkspaceID string       `json:"workspace_id"`
	List        *domain.List `json:"list"`
}

// ListUpdatedData is the payload of list-updated.
type ListUpdatedData struct {
	WorkspaceID string       `json:"workspace_id"`
	ListID      string       `json:"list_id"`
	List        *domain.List `json:"list"`
}

// ListDeletedData is the payload of list-deleted.
type ListDeletedData struct {
	WorkspaceID string `json:"workspace_id"`
	ListID      string `json:"list_id"`
}

// ListsReorderedData is the payload of lists-reordered.
type ListsReorderedData struct {
	WorkspaceID string   `json:"workspace_id"`
	ListOrder   []string `json:"list_order"`
	Version     int64    `json:"version"`
}

// CardCreatedData is the payload of card-created.
type CardCreatedData struct {
	WorkspaceID string       `json:"workspace_id"`
	ListID      string       `json:"list_id"`
	Card        *domain.Card `json:"card"`
}

// CardUpdatedData is the payload of card-updated.
type CardUpdatedData struct {
	WorkspaceID string       `json:"workspace_id"`
	CardID      string       `json:"card_id"`
	Card        *domain.Card `json:"card"`
}

// CardMovedData is the payload of card-moved. SourceListID is null for a
// move within one list.
type CardMovedData struct {
	WorkspaceID  string       `json:"workspace_id"`
	CardID       string       `json:"card_id"`
	Card         *domain.Card `json:"card"`
	SourceListID *string      `json:"source_list_id"`
	TargetListID string       `json:"target_list_id"`
	NewPosition  int          `json:"new_position"`
}

// CardsReorderedData is the payload of cards-reordered.
type CardsReorderedData struct {
	WorkspaceID string   `json:"workspace_id"`
	ListID      string   `json:"list_id"`
	CardOrder   []string `json:"card_order"`
	Version     int64    `json:"version"`
}

// CardDeletedData is the payload of card-deleted.
type CardDeletedData struct {
	WorkspaceID string `json:"workspace_id"`
	ListID      string `json:"list_id"`
	CardID      string `json:"card_id"`
}

// WorkspaceUpdatedData is the payload of workspace-updated.
type WorkspaceUpdatedData struct {
	WorkspaceID string            `json:"workspace_id"`
	Workspace   *domain.Workspace `json:"workspace"`
}

// WorkspaceDeletedData is the payload of workspace-deleted.
type WorkspaceDeletedData struct {
	WorkspaceID string `json:"workspace_id"`
}

// Reasons carried by access-revoked.
const (
	RevokedMemberRemoved    = "member-removed"
	RevokedWorkspaceDeleted = "workspace-deleted"
)

// AccessRevokedData is the payload of access-revoked.
type AccessRevokedData struct {
	WorkspaceID string `json:"workspace_id"`
	Reason      string `json:"reason"`
}

// Cursor is a pointer position in board coordinates.
type Cursor struct {
	UpdatedAt time.Time `json:"updated_at"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
}

// Member is one session present in a workspace.
type Member struct {
	JoinedAt  time.Time `json:"joined_at"`
	Cursor    *Cursor   `json:"cursor,omitempty"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
}

// PresenceData is the payload of user-joined and user-left.
type PresenceData struct {
	WorkspaceID string `json:"workspace_id"`
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
}

// PresenceSnapshotData is sent to a session when it joins a workspace.
type PresenceSnapshotData struct {
	WorkspaceID string   `json:"workspace_id"`
	Members     []Member `json:"members"`
}

// CursorMovedData is the payload of cursor-moved.
type CursorMovedData struct {
	WorkspaceID string  `json:"workspace_id"`
	SessionID   string  `json:"session_id"`
	UserID      string  `json:"user_id"`
	UserName    string  `json:"user_name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// CursorLeftData is the payload of cursor-left.
type CursorLeftData struct {
	WorkspaceID string `json:"workspace_id"`
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
}

// ConnectedData is the payload of connected.
type ConnectedData struct {
	SessionID string `json:"session_id"`
}

// ErrorData is the payload of error.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Command string `json:"command,omitempty"`
}

// HeartbeatData is the payload of heartbeat.
type HeartbeatData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewHeartbeatEvent creates a heartbeat.
func NewHeartbeatEvent() Event {
	now := time.Now().UTC()
	return Event{Timestamp: now, Type: EventHeartbeat, Data: HeartbeatData{ServerTime: now}}
}

// NewConnectedEvent creates the greeting for sessionID.
func NewConnectedEvent(sessionID string) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      EventConnected,
		Data:      ConnectedData{SessionID: sessionID},
		Target:    sessionID,
	}
}

// NewCardMovedData builds the card-moved payload. An empty sourceListID
// means the card stayed in its list.
func NewCardMovedData(card *domain.Card, sourceListID, targetListID string, newPosition int) CardMovedData {
	data := CardMovedData{
		WorkspaceID:  card.WorkspaceID,
		CardID:       card.ID,
		Card:         card,
		TargetListID: targetListID,
		NewPosition:  newPosition,
	}
	if sourceListID != "" {
		data.SourceListID = &sourceListID
	}
	return data
}
