package service

import (
	"context"
	"log/slog"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/id"
	"github.com/listenupapp/kanban-server/internal/normalize"
	"github.com/listenupapp/kanban-server/internal/ordering"
	"github.com/listenupapp/kanban-server/internal/realtime"
	"github.com/listenupapp/kanban-server/internal/store"
	"github.com/listenupapp/kanban-server/internal/validation"
)

// ListService manages the lists of a workspace and the order of their cards.
type ListService struct {
	store      store.Store
	access     *AccessService
	activity   *ActivityService
	reconciler *ordering.Reconciler
	locks      *ordering.ScopeLocks
	events     Broadcaster
	logger     *slog.Logger
	validator  *validation.Validator
}

// NewListService creates a new list service.
func NewListService(
	store store.Store,
	access *AccessService,
	activity *ActivityService,
	reconciler *ordering.Reconciler,
	locks *ordering.ScopeLocks,
	events Broadcaster,
	logger *slog.Logger,
) *ListService {
	return &ListService{
		store:      store,
		access:     access,
		activity:   activity,
		reconciler: reconciler,
		locks:      locks,
		events:     events,
		logger:     logger,
		validator:  validation.New(),
	}
}

// ListRequest contains the editable fields of a list.
type ListRequest struct {
	Title string `json:"title" validate:"notblank,max=200"`
}

// CreateList appends a list to the end of the workspace.
func (s *ListService) CreateList(ctx context.Context, actor Actor, workspaceID string, req ListRequest) (*domain.List, error) {
	req.Title = normalize.Title(req.Title)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	listID, err := id.Generate(id.PrefixList)
	if err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, domain.WorkspaceScope(workspaceID))
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	if _, err := s.access.RequireAccess(ctx, actor.UserID, workspaceID); err != nil {
		return nil, err
	}

	list := &domain.List{WorkspaceID: workspaceID, Title: req.Title, CardOrder: []string{}}
	list.ID = listID
	list.InitTimestamps()
	if err := s.store.CreateList(ctx, list); err != nil {
		return nil, storeError(err, "list %s", listID)
	}

	s.events.Broadcast(workspaceID, realtime.EventListCreated,
		realtime.ListCreatedData{WorkspaceID: workspaceID, List: list}, actor.origin())
	s.activity.Record(ctx, actor, workspaceID, domain.ActivityListCreated, "created list "+quoted(list.Title), list.ID, "")

	s.logger.Info("list created", "list_id", list.ID, "workspace_id", workspaceID, "position", list.Position)
	return list, nil
}

// GetList returns a list with its card order.
func (s *ListService) GetList(ctx context.Context, actor Actor, listID string) (*domain.List, error) {
	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, storeError(err, "list %s", listID)
	}
	if _, err := s.access.RequireRead(ctx, actor.UserID, list.WorkspaceID); err != nil {
		return nil, err
	}
	return list, nil
}

// ListCards returns the cards of a list in order.
func (s *ListService) ListCards(ctx context.Context, actor Actor, listID string) ([]*domain.Card, error) {
	list, err := s.GetList(ctx, actor, listID)
	if err != nil {
		return nil, err
	}
	cards, err := s.store.ListCards(ctx, listID)
	if err != nil {
		return nil, storeError(err, "cards of %s", listID)
	}
	newCardDisplay(s.store, s.logger, list).decorate(ctx, cards...)
	return cards, nil
}

// UpdateList renames a list.
func (s *ListService) UpdateList(ctx context.Context, actor Actor, listID string, req ListRequest) (*domain.List, error) {
	req.Title = normalize.Title(req.Title)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, domain.ListScope(listID))
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, storeError(err, "list %s", listID)
	}
	if _, err := s.access.RequireAccess(ctx, actor.UserID, list.WorkspaceID); err != nil {
		return nil, err
	}
	if list.Title == req.Title {
		return list, nil
	}

	list.Title = req.Title
	list.Touch()
	if err := s.store.UpdateList(ctx, list); err != nil {
		return nil, storeError(err, "list %s", listID)
	}

	s.events.Broadcast(list.WorkspaceID, realtime.EventListUpdated,
		realtime.ListUpdatedData{WorkspaceID: list.WorkspaceID, ListID: list.ID, List: list}, actor.origin())
	s.activity.Record(ctx, actor, list.WorkspaceID, domain.ActivityListUpdated, "renamed list to "+quoted(list.Title), list.ID, "")
	return list, nil
}

// DeleteList removes a list and its cards, closing the gap in the
// workspace's list order.
func (s *ListService) DeleteList(ctx context.Context, actor Actor, listID string) error {
	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return storeError(err, "list %s", listID)
	}
	workspaceID := list.WorkspaceID

	release, err := s.locks.Acquire(ctx, domain.WorkspaceScope(workspaceID), domain.ListScope(listID))
	if err != nil {
		return err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	if _, err := s.access.RequireAccess(ctx, actor.UserID, workspaceID); err != nil {
		return err
	}
	if err := s.store.DeleteList(ctx, listID); err != nil {
		return storeError(err, "list %s", listID)
	}

	s.events.Broadcast(workspaceID, realtime.EventListDeleted,
		realtime.ListDeletedData{WorkspaceID: workspaceID, ListID: listID}, actor.origin())
	s.activity.Record(ctx, actor, workspaceID, domain.ActivityListDeleted, "deleted list "+quoted(list.Title), "", "")

	s.logger.Info("list deleted", "list_id", listID, "workspace_id", workspaceID)
	return nil
}

// ReorderCardsRequest is the complete desired card order of a list.
type ReorderCardsRequest struct {
	Order           []string `json:"order" validate:"required"`
	ExpectedVersion *int64   `json:"expected_version"`
}

// ReorderCards makes req.Order the list's card order. It must be a
// permutation of the cards currently in the list.
func (s *ListService) ReorderCards(ctx context.Context, actor Actor, listID string, req ReorderCardsRequest) (*domain.Order, error) {
	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, storeError(err, "list %s", listID)
	}
	workspaceID := list.WorkspaceID
	if _, err := s.access.RequireAccess(ctx, actor.UserID, workspaceID); err != nil {
		return nil, err
	}

	opts := []ordering.ReconcileOption{
		ordering.OnReconciled(func(r *ordering.Result) {
			if !r.Changed {
				return
			}
			s.events.Broadcast(workspaceID, realtime.EventCardsReordered, realtime.CardsReorderedData{
				WorkspaceID: workspaceID,
				ListID:      listID,
				CardOrder:   r.Order.IDs,
				Version:     r.Order.Version,
			}, actor.origin())
		}),
	}
	if req.ExpectedVersion != nil {
		opts = append(opts, ordering.WithExpectedVersion(*req.ExpectedVersion))
	}

	result, err := s.reconciler.Reconcile(ctx, domain.ListScope(listID), req.Order, opts...)
	if err != nil {
		return nil, err
	}
	if result.Changed {
		s.activity.Record(ctx, actor, workspaceID, domain.ActivityCardsReordered, "reordered cards in "+quoted(list.Title), listID, "")
	}
	return result.Order, nil
}
