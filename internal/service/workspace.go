package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/listenupapp/kanban-server/internal/domain"
	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/id"
	"github.com/listenupapp/kanban-server/internal/normalize"
	"github.com/listenupapp/kanban-server/internal/ordering"
	"github.com/listenupapp/kanban-server/internal/realtime"
	"github.com/listenupapp/kanban-server/internal/store"
	"github.com/listenupapp/kanban-server/internal/validation"
)

// WorkspaceService manages workspaces, their membership and list order.
type WorkspaceService struct {
	store      store.Store
	access     *AccessService
	activity   *ActivityService
	reconciler *ordering.Reconciler
	locks      *ordering.ScopeLocks
	events     Broadcaster
	roster     Roster
	logger     *slog.Logger
	validator  *validation.Validator
}

// NewWorkspaceService creates a new workspace service.
func NewWorkspaceService(
	store store.Store,
	access *AccessService,
	activity *ActivityService,
	reconciler *ordering.Reconciler,
	locks *ordering.ScopeLocks,
	events Broadcaster,
	roster Roster,
	logger *slog.Logger,
) *WorkspaceService {
	return &WorkspaceService{
		store:      store,
		access:     access,
		activity:   activity,
		reconciler: reconciler,
		locks:      locks,
		events:     events,
		roster:     roster,
		logger:     logger,
		validator:  validation.New(),
	}
}

// CreateWorkspaceRequest contains fields for creating a workspace.
type CreateWorkspaceRequest struct {
	Title       string     `json:"title" validate:"notblank,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Visibility  string     `json:"visibility" validate:"omitempty,visibility"`
	DueDate     *time.Time `json:"due_date"`
}

// CreateWorkspace creates a workspace owned by actor, who also becomes its
// first admin member.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, actor Actor, req CreateWorkspaceRequest) (*domain.Workspace, error) {
	req.Title = normalize.Title(req.Title)
	req.Description = normalize.Text(req.Description)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	wsID, err := id.Generate(id.PrefixWorkspace)
	if err != nil {
		return nil, err
	}

	ws := &domain.Workspace{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  domain.VisibilityPrivate,
		OwnerID:     actor.UserID,
		DueDate:     req.DueDate,
		ListOrder:   []string{},
	}
	if req.Visibility != "" {
		ws.Visibility = domain.Visibility(req.Visibility)
	}
	ws.ID = wsID
	ws.InitTimestamps()
	ws.SetMember(actor.UserID, domain.RoleAdmin)

	if err := s.store.CreateWorkspace(ctx, ws); err != nil {
		return nil, storeError(err, "workspace %s", wsID)
	}

	s.activity.Record(ctx, actor, ws.ID, domain.ActivityWorkspaceCreated, "created workspace "+quoted(ws.Title), "", "")
	s.logger.Info("workspace created", "workspace_id", ws.ID, "owner_id", actor.UserID)
	return ws, nil
}

// ListWorkspaces returns the workspaces actor owns, belongs to, or can
// read because they are public.
func (s *WorkspaceService) ListWorkspaces(ctx context.Context, actor Actor) ([]*domain.Workspace, error) {
	workspaces, err := s.store.ListWorkspacesForUser(ctx, actor.UserID)
	if err != nil {
		return nil, storeError(err, "workspaces")
	}
	return workspaces, nil
}

// GetBoard returns the workspace with its lists in order, each carrying
// its cards in order.
func (s *WorkspaceService) GetBoard(ctx context.Context, actor Actor, workspaceID string) (*domain.Board, error) {
	ws, err := s.access.RequireRead(ctx, actor.UserID, workspaceID)
	if err != nil {
		return nil, err
	}

	lists, err := s.store.ListLists(ctx, workspaceID)
	if err != nil {
		return nil, storeError(err, "lists of %s", workspaceID)
	}
	cards, err := s.store.ListWorkspaceCards(ctx, workspaceID)
	if err != nil {
		return nil, storeError(err, "cards of %s", workspaceID)
	}

	newCardDisplay(s.store, s.logger, lists...).decorate(ctx, cards...)

	byList := make(map[string][]*domain.Card, len(lists))
	for _, c := range cards {
		byList[c.ListID] = append(byList[c.ListID], c)
	}

	board := &domain.Board{Workspace: ws, Lists: make([]*domain.BoardList, 0, len(lists))}
	for _, l := range lists {
		cards := byList[l.ID]
		if cards == nil {
			cards = []*domain.Card{}
		}
		board.Lists = append(board.Lists, &domain.BoardList{List: *l, Cards: cards})
	}
	return board, nil
}

// UpdateWorkspaceRequest contains the workspace fields to change. Nil
// fields are left as they are.
type UpdateWorkspaceRequest struct {
	Title        *string    `json:"title" validate:"omitempty,notblank,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=5000"`
	Visibility   *string    `json:"visibility" validate:"omitempty,visibility"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

// UpdateWorkspace changes workspace settings. Requires admin.
func (s *WorkspaceService) UpdateWorkspace(ctx context.Context, actor Actor, workspaceID string, req UpdateWorkspaceRequest) (*domain.Workspace, error) {
	if req.Title != nil {
		*req.Title = normalize.Title(*req.Title)
	}
	if req.Description != nil {
		*req.Description = normalize.Text(*req.Description)
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	return s.mutateWorkspace(ctx, actor, workspaceID, domain.ActivityWorkspaceUpdated, func(ws *domain.Workspace) (string, error) {
		if req.Title != nil {
			ws.Title = *req.Title
		}
		if req.Description != nil {
			ws.Description = *req.Description
		}
		if req.Visibility != nil {
			ws.Visibility = domain.Visibility(*req.Visibility)
		}
		if req.DueDate != nil {
			ws.DueDate = req.DueDate
		}
		if req.ClearDueDate {
			ws.DueDate = nil
		}
		return "updated workspace " + quoted(ws.Title), nil
	})
}

// DeleteWorkspace removes a workspace with all its lists, cards and
// activity. Only the owner may delete.
func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, actor Actor, workspaceID string) error {
	release, err := s.locks.Acquire(ctx, domain.WorkspaceScope(workspaceID))
	if err != nil {
		return err
	}
	defer release()

	ws, err := s.access.RequireAdmin(ctx, actor.UserID, workspaceID)
	if err != nil {
		return err
	}
	if ws.OwnerID != actor.UserID {
		return domainerrors.AccessDenied("only the owner can delete a workspace")
	}

	if err := s.store.DeleteWorkspace(context.WithoutCancel(ctx), workspaceID); err != nil {
		return storeError(err, "workspace %s", workspaceID)
	}
	s.events.Broadcast(workspaceID, realtime.EventWorkspaceDeleted,
		realtime.WorkspaceDeletedData{WorkspaceID: workspaceID}, actor.origin())
	evicted := s.roster.LeaveWorkspace(workspaceID)

	s.logger.Info("workspace deleted", "workspace_id", workspaceID, "user_id", actor.UserID, "evicted_sessions", evicted)
	return nil
}

// AddMemberRequest identifies a user to add by email.
type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,role"`
}

// AddMember adds a user to the workspace, or changes their role if they are
// already a member. Requires admin.
func (s *WorkspaceService) AddMember(ctx context.Context, actor Actor, workspaceID string, req AddMemberRequest) (*domain.Workspace, error) {
	req.Email = normalize.Email(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	role := domain.RoleMember
	if req.Role != "" {
		role = domain.Role(req.Role)
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, storeError(err, "user %s", req.Email)
	}

	return s.mutateWorkspace(ctx, actor, workspaceID, domain.ActivityMemberAdded, func(ws *domain.Workspace) (string, error) {
		if user.ID == ws.OwnerID {
			return "", domainerrors.AlreadyExists("user owns this workspace")
		}
		if !ws.SetMember(user.ID, role) {
			return "", domainerrors.AlreadyExistsf("%s is already a member", user.Email)
		}
		return "added " + user.DisplayName() + " as " + string(role), nil
	})
}

// UpdateMember changes a member's role. The owner's role cannot change.
func (s *WorkspaceService) UpdateMember(ctx context.Context, actor Actor, workspaceID, userID string, role domain.Role) (*domain.Workspace, error) {
	if !role.Valid() {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"role": "must be one of: admin member"})
	}

	return s.mutateWorkspace(ctx, actor, workspaceID, domain.ActivityMemberUpdated, func(ws *domain.Workspace) (string, error) {
		if userID == ws.OwnerID {
			return "", domainerrors.Validation("the owner's role cannot be changed")
		}
		if _, ok := ws.Member(userID); !ok {
			return "", domainerrors.NotFoundf("user %s is not a member", userID)
		}
		ws.SetMember(userID, role)
		return "changed role of " + userID + " to " + string(role), nil
	})
}

// RemoveMember removes a member. Admins may remove anyone but the owner;
// members may remove themselves.
func (s *WorkspaceService) RemoveMember(ctx context.Context, actor Actor, workspaceID, userID string) error {
	ws, err := s.access.RequireAccess(ctx, actor.UserID, workspaceID)
	if err != nil {
		return err
	}
	if userID != actor.UserID && !ws.IsAdminOrOwner(actor.UserID) {
		return domainerrors.AccessDenied("workspace admin role required")
	}

	_, err = s.mutateWorkspaceAs(ctx, actor, workspaceID, domain.ActivityMemberRemoved, false, func(ws *domain.Workspace) (string, error) {
		if userID == ws.OwnerID {
			return "", domainerrors.Validation("the owner cannot be removed")
		}
		if !ws.RemoveMember(userID) {
			return "", domainerrors.NotFoundf("user %s is not a member", userID)
		}
		return "removed " + userID, nil
	})
	if err != nil {
		return err
	}

	if n := s.roster.LeaveUser(userID, workspaceID); n > 0 {
		s.logger.Info("evicted removed member", "workspace_id", workspaceID, "user_id", userID, "sessions", n)
	}
	return nil
}

// ReorderListsRequest is the complete desired list order of a workspace.
type ReorderListsRequest struct {
	Order           []string `json:"order" validate:"required"`
	ExpectedVersion *int64   `json:"expected_version"`
}

// ReorderLists makes req.Order the workspace's list order. It must be a
// permutation of the current lists.
func (s *WorkspaceService) ReorderLists(ctx context.Context, actor Actor, workspaceID string, req ReorderListsRequest) (*domain.Order, error) {
	if _, err := s.access.RequireAccess(ctx, actor.UserID, workspaceID); err != nil {
		return nil, err
	}

	opts := []ordering.ReconcileOption{
		ordering.OnReconciled(func(r *ordering.Result) {
			if !r.Changed {
				return
			}
			s.events.Broadcast(workspaceID, realtime.EventListsReordered, realtime.ListsReorderedData{
				WorkspaceID: workspaceID,
				ListOrder:   r.Order.IDs,
				Version:     r.Order.Version,
			}, actor.origin())
		}),
	}
	if req.ExpectedVersion != nil {
		opts = append(opts, ordering.WithExpectedVersion(*req.ExpectedVersion))
	}

	result, err := s.reconciler.Reconcile(ctx, domain.WorkspaceScope(workspaceID), req.Order, opts...)
	if err != nil {
		return nil, err
	}
	if result.Changed {
		s.activity.Record(ctx, actor, workspaceID, domain.ActivityListsReordered, "reordered lists", "", "")
	}
	return result.Order, nil
}

// mutateWorkspace applies fn to the workspace under its scope lock as an
// admin, persists it and broadcasts workspace-updated.
func (s *WorkspaceService) mutateWorkspace(ctx context.Context, actor Actor, workspaceID string, typ domain.ActivityType, fn func(*domain.Workspace) (string, error)) (*domain.Workspace, error) {
	return s.mutateWorkspaceAs(ctx, actor, workspaceID, typ, true, fn)
}

func (s *WorkspaceService) mutateWorkspaceAs(ctx context.Context, actor Actor, workspaceID string, typ domain.ActivityType, requireAdmin bool, fn func(*domain.Workspace) (string, error)) (*domain.Workspace, error) {
	release, err := s.locks.Acquire(ctx, domain.WorkspaceScope(workspaceID))
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	var ws *domain.Workspace
	if requireAdmin {
		ws, err = s.access.RequireAdmin(ctx, actor.UserID, workspaceID)
	} else {
		ws, err = s.access.RequireAccess(ctx, actor.UserID, workspaceID)
	}
	if err != nil {
		return nil, err
	}

	action, err := fn(ws)
	if err != nil {
		return nil, err
	}
	ws.Touch()
	if err := s.store.UpdateWorkspace(ctx, ws); err != nil {
		return nil, storeError(err, "workspace %s", workspaceID)
	}

	s.events.Broadcast(workspaceID, realtime.EventWorkspaceUpdated,
		realtime.WorkspaceUpdatedData{WorkspaceID: workspaceID, Workspace: ws}, actor.origin())
	s.activity.Record(ctx, actor, workspaceID, typ, action, "", "")
	return ws, nil
}
