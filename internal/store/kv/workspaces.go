package kv

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/store"
)

// writeWorkspaceIndexes adds the member and public index entries for ws.
func writeWorkspaceIndexes(txn *badger.Txn, ws *domain.Workspace) error {
	for _, userID := range ws.MemberIDs() {
		if err := txn.Set([]byte(memberIndexKey(userID, ws.ID)), nil); err != nil {
			return fmt.Errorf("failed to set member index: %w", err)
		}
	}
	if ws.Visibility == domain.VisibilityPublic {
		if err := txn.Set([]byte(publicIndexKey(ws.ID)), nil); err != nil {
			return fmt.Errorf("failed to set public index: %w", err)
		}
	}
	return nil
}

// clearWorkspaceIndexes removes the index entries written for ws.
func clearWorkspaceIndexes(txn *badger.Txn, ws *domain.Workspace) error {
	for _, userID := range ws.MemberIDs() {
		if err := txn.Delete([]byte(memberIndexKey(userID, ws.ID))); err != nil {
			return fmt.Errorf("failed to delete member index: %w", err)
		}
	}
	if err := txn.Delete([]byte(publicIndexKey(ws.ID))); err != nil {
		return fmt.Errorf("failed to delete public index: %w", err)
	}
	return nil
}

// CreateWorkspace stores a workspace with an empty list order.
func (s *Store) CreateWorkspace(ctx context.Context, ws *domain.Workspace) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		for _, userID := range ws.MemberIDs() {
			ok, err := exists(txn, userKey(userID))
			if err != nil {
				return err
			}
			if !ok {
				return store.ErrNotFound.WithCause(fmt.Errorf("user %s", userID))
			}
		}

		ws.ListOrder = []string{}
		ws.ListOrderVersion = 0
		if err := insertRecord(txn, workspaceKey(ws.ID), ws); err != nil {
			return err
		}
		return writeWorkspaceIndexes(txn, ws)
	})
}

// GetWorkspace retrieves a workspace by ID.
func (s *Store) GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error) {
	var ws *domain.Workspace
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		ws, err = getRecord[domain.Workspace](txn, workspaceKey(id))
		return err
	})
	return ws, err
}

// UpdateWorkspace persists metadata and membership. The stored list order
// and its version always win over whatever the caller passed in.
func (s *Store) UpdateWorkspace(ctx context.Context, ws *domain.Workspace) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		existing, err := getRecord[domain.Workspace](txn, workspaceKey(ws.ID))
		if err != nil {
			return err
		}
		for _, m := range ws.Members {
			ok, err := exists(txn, userKey(m.UserID))
			if err != nil {
				return err
			}
			if !ok {
				return store.ErrNotFound.WithCause(fmt.Errorf("member %s", m.UserID))
			}
		}

		updated := *existing
		updated.Title = ws.Title
		updated.Description = ws.Description
		updated.Visibility = ws.Visibility
		updated.DueDate = ws.DueDate
		updated.Members = ws.Members
		updated.UpdatedAt = ws.UpdatedAt

		if err := clearWorkspaceIndexes(txn, existing); err != nil {
			return err
		}
		if err := putRecord(txn, workspaceKey(ws.ID), &updated); err != nil {
			return err
		}
		return writeWorkspaceIndexes(txn, &updated)
	})
}

// DeleteWorkspace removes a workspace with its lists, cards, activities and indexes.
func (s *Store) DeleteWorkspace(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		ws, err := getRecord[domain.Workspace](txn, workspaceKey(id))
		if err != nil {
			return err
		}
		for _, listID := range ws.ListOrder {
			if err := deleteListRecords(txn, listID); err != nil {
				return err
			}
		}
		if err := deleteKeys(txn, activityWorkspacePrefix(id)); err != nil {
			return err
		}
		if err := clearWorkspaceIndexes(txn, ws); err != nil {
			return err
		}
		return txn.Delete([]byte(workspaceKey(id)))
	})
}

// ListWorkspacesForUser returns workspaces the user owns, belongs to, or that are public.
func (s *Store) ListWorkspacesForUser(ctx context.Context, userID string) ([]*domain.Workspace, error) {
	var workspaces []*domain.Workspace
	err := s.view(ctx, func(txn *badger.Txn) error {
		seen := make(map[string]struct{})
		var ids []string

		prefix := memberIndexPrefix(userID)
		for _, k := range scanKeys(txn, prefix) {
			ids = append(ids, strings.TrimPrefix(k, prefix))
		}
		publicPrefix := indexKey(workspacePrefix, "public", "")
		for _, k := range scanKeys(txn, publicPrefix) {
			ids = append(ids, strings.TrimPrefix(k, publicPrefix))
		}

		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ws, err := getRecord[domain.Workspace](txn, workspaceKey(id))
			if err != nil {
				return err
			}
			workspaces = append(workspaces, ws)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(workspaces, func(a, b *domain.Workspace) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return workspaces, nil
}
