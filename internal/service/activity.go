package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/id"
	"github.com/listenupapp/kanban-server/internal/store"
)

// ActivityService records and serves a workspace's audit feed.
type ActivityService struct {
	store  store.Store
	access *AccessService
	logger *slog.Logger
}

// NewActivityService creates a new activity service.
func NewActivityService(store store.Store, access *AccessService, logger *slog.Logger) *ActivityService {
	return &ActivityService{store: store, access: access, logger: logger}
}

// Record appends an entry to the workspace feed. Recording is best effort:
// a failure is logged and never fails the mutation that caused it.
// listID and cardID may be empty.
func (s *ActivityService) Record(ctx context.Context, actor Actor, workspaceID string, typ domain.ActivityType, action, listID, cardID string) {
	activityID, err := id.Generate(id.PrefixActivity)
	if err != nil {
		s.logger.Error("failed to generate activity ID", "error", err)
		return
	}

	a := &domain.Activity{
		CreatedAt:   time.Now().UTC(),
		ID:          activityID,
		WorkspaceID: workspaceID,
		UserID:      actor.UserID,
		UserName:    actor.UserName,
		Type:        typ,
		Action:      action,
		ListID:      listID,
		CardID:      cardID,
	}

	// The request may already be finished; the entry should still land.
	if err := s.store.CreateActivity(context.WithoutCancel(ctx), a); err != nil {
		s.logger.Warn("failed to record activity",
			"workspace_id", workspaceID,
			"type", typ,
			"error", err,
		)
	}
}

// List returns a page of the workspace feed, newest first.
func (s *ActivityService) List(ctx context.Context, actor Actor, workspaceID string, params store.PageParams) ([]*domain.Activity, error) {
	if _, err := s.access.RequireRead(ctx, actor.UserID, workspaceID); err != nil {
		return nil, err
	}
	activities, err := s.store.ListActivities(ctx, workspaceID, params)
	if err != nil {
		return nil, storeError(err, "activities of %s", workspaceID)
	}
	return activities, nil
}

func quoted(s string) string {
	return fmt.Sprintf("%q", s)
}
