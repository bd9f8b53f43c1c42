package service

import (
	"context"
	"log/slog"

	"github.com/listenupapp/kanban-server/internal/domain"
	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/store"
)

// AccessService answers membership questions about workspaces. Every
// mutation asks it before touching the store.
//
// Owners and members may read and write. Anyone authenticated may read a
// public workspace. Admins and the owner manage membership and settings.
type AccessService struct {
	store  store.Store
	logger *slog.Logger
}

// NewAccessService creates a new access service.
func NewAccessService(store store.Store, logger *slog.Logger) *AccessService {
	return &AccessService{store: store, logger: logger}
}

func (s *AccessService) workspace(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	ws, err := s.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, storeError(err, "workspace %s", workspaceID)
	}
	return ws, nil
}

// HasAccess reports whether userID is the owner or a member of workspaceID.
func (s *AccessService) HasAccess(ctx context.Context, userID, workspaceID string) (bool, error) {
	ws, err := s.workspace(ctx, workspaceID)
	if err != nil {
		return false, err
	}
	return ws.IsMember(userID), nil
}

// IsAdminOrOwner reports whether userID may manage workspaceID.
func (s *AccessService) IsAdminOrOwner(ctx context.Context, userID, workspaceID string) (bool, error) {
	ws, err := s.workspace(ctx, workspaceID)
	if err != nil {
		return false, err
	}
	return ws.IsAdminOrOwner(userID), nil
}

// RequireRead returns the workspace if userID may view it.
func (s *AccessService) RequireRead(ctx context.Context, userID, workspaceID string) (*domain.Workspace, error) {
	ws, err := s.workspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if !ws.CanRead(userID) {
		return nil, s.denied(userID, workspaceID, "not a member of this workspace")
	}
	return ws, nil
}

// RequireAccess returns the workspace if userID may modify its content.
func (s *AccessService) RequireAccess(ctx context.Context, userID, workspaceID string) (*domain.Workspace, error) {
	ws, err := s.workspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if !ws.IsMember(userID) {
		return nil, s.denied(userID, workspaceID, "not a member of this workspace")
	}
	return ws, nil
}

// RequireAdmin returns the workspace if userID is its owner or an admin.
func (s *AccessService) RequireAdmin(ctx context.Context, userID, workspaceID string) (*domain.Workspace, error) {
	ws, err := s.workspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if !ws.IsAdminOrOwner(userID) {
		return nil, s.denied(userID, workspaceID, "workspace admin role required")
	}
	return ws, nil
}

// AuthorizeSubscribe lets readers open a realtime stream on a workspace.
func (s *AccessService) AuthorizeSubscribe(ctx context.Context, userID, workspaceID string) error {
	_, err := s.RequireRead(ctx, userID, workspaceID)
	return err
}

func (s *AccessService) denied(userID, workspaceID, msg string) error {
	s.logger.Warn("access denied",
		"user_id", userID,
		"workspace_id", workspaceID,
		"reason", msg,
	)
	return domainerrors.AccessDenied(msg)
}
