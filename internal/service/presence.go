package service

import (
	"context"

	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/presence"
	"github.com/listenupapp/kanban-server/internal/realtime"
)

// PresenceService exposes the presence tracker to request handlers.
type PresenceService struct {
	tracker *presence.Tracker
	access  *AccessService
}

// NewPresenceService creates a new presence service.
func NewPresenceService(tracker *presence.Tracker, access *AccessService) *PresenceService {
	return &PresenceService{tracker: tracker, access: access}
}

// Members returns who is currently viewing a workspace.
func (s *PresenceService) Members(ctx context.Context, actor Actor, workspaceID string) ([]realtime.Member, error) {
	if _, err := s.access.RequireRead(ctx, actor.UserID, workspaceID); err != nil {
		return nil, err
	}
	return s.tracker.Members(workspaceID), nil
}

// CursorRequest is a pointer position in board coordinates.
type CursorRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MoveCursor publishes actor's cursor for clients that cannot send it over
// a websocket. The actor's session must have joined the workspace.
func (s *PresenceService) MoveCursor(ctx context.Context, actor Actor, workspaceID string, req CursorRequest) error {
	if actor.SessionID == "" {
		return domainerrors.Validation("a realtime session is required")
	}
	if _, err := s.access.RequireRead(ctx, actor.UserID, workspaceID); err != nil {
		return err
	}
	if !s.ownsSession(workspaceID, actor) {
		return domainerrors.NotFoundf("session %s has not joined workspace %s", actor.SessionID, workspaceID)
	}
	return s.tracker.OnCursor(actor.SessionID, workspaceID, req.X, req.Y)
}

func (s *PresenceService) ownsSession(workspaceID string, actor Actor) bool {
	for _, m := range s.tracker.Members(workspaceID) {
		if m.SessionID == actor.SessionID {
			return m.UserID == actor.UserID
		}
	}
	return false
}
