// Package store defines the persistence interface for the kanban server.
//
// Two implementations exist: sqlite (the default) and kv (Badger). Both keep a
// single authoritative ordered sequence per scope and rewrite the per-item
// position column in the same transaction.
package store

import (
	"context"

	"github.com/listenupapp/kanban-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// Workspaces. UpdateWorkspace persists metadata and membership but never
	// the list order. DeleteWorkspace cascades to lists, cards, activities.
	CreateWorkspace(ctx context.Context, ws *domain.Workspace) error
	GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error)
	UpdateWorkspace(ctx context.Context, ws *domain.Workspace) error
	DeleteWorkspace(ctx context.Context, id string) error
	ListWorkspacesForUser(ctx context.Context, userID string) ([]*domain.Workspace, error)

	// Lists. CreateList appends at max+1. DeleteList cascades to cards and
	// re-compacts the workspace order.
	CreateList(ctx context.Context, list *domain.List) error
	GetList(ctx context.Context, id string) (*domain.List, error)
	UpdateList(ctx context.Context, list *domain.List) error
	DeleteList(ctx context.Context, id string) error
	ListLists(ctx context.Context, workspaceID string) ([]*domain.List, error)

	// Cards. CreateCard appends at max+1 and takes its workspace from the list.
	// UpdateCard never changes list or position; use Update with an OrderTx.
	CreateCard(ctx context.Context, card *domain.Card) error
	GetCard(ctx context.Context, id string) (*domain.Card, error)
	UpdateCard(ctx context.Context, card *domain.Card) error
	DeleteCard(ctx context.Context, id string) error
	ListCards(ctx context.Context, listID string) ([]*domain.Card, error)
	ListWorkspaceCards(ctx context.Context, workspaceID string) ([]*domain.Card, error)

	// Ordering
	GetOrder(ctx context.Context, scope domain.Scope) (*domain.Order, error)
	Update(ctx context.Context, fn func(tx OrderTx) error) error

	// Activities, newest first.
	CreateActivity(ctx context.Context, activity *domain.Activity) error
	ListActivities(ctx context.Context, workspaceID string, params PageParams) ([]*domain.Activity, error)
}

// OrderTx is the view of the store available inside Update. Everything done
// through it commits or rolls back together.
type OrderTx interface {
	// GetOrder returns the scope's current members in order.
	GetOrder(ctx context.Context, scope domain.Scope) (*domain.Order, error)

	// SetOrder replaces the scope's sequence with ids, assigns position i+1 to
	// the item at index i and bumps the version. ids must be exactly the
	// scope's current membership; ErrInvalidInput otherwise.
	SetOrder(ctx context.Context, scope domain.Scope, ids []string) (*domain.Order, error)

	GetList(ctx context.Context, id string) (*domain.List, error)
	GetCard(ctx context.Context, id string) (*domain.Card, error)

	// RelocateCard transfers membership of a card to another list. Both lists
	// must be re-sequenced with SetOrder before the transaction ends.
	RelocateCard(ctx context.Context, cardID, listID string) error
}

// SameMembers reports whether a and b hold the same IDs, each exactly once.
func SameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
		delete(set, id)
	}
	return len(set) == 0
}
