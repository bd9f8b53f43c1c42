package kv

import (
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/kanban-server/internal/domain"
)

// CreateList appends a list to its workspace order.
func (s *Store) CreateList(ctx context.Context, list *domain.List) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		ws, err := getRecord[domain.Workspace](txn, workspaceKey(list.WorkspaceID))
		if err != nil {
			return err
		}

		list.Position = len(ws.ListOrder) + 1
		list.CardOrder = []string{}
		list.CardOrderVersion = 0
		if err := insertRecord(txn, listKey(list.ID), list); err != nil {
			return err
		}

		ws.ListOrder = append(ws.ListOrder, list.ID)
		ws.ListOrderVersion++
		return putRecord(txn, workspaceKey(ws.ID), ws)
	})
}

// GetList retrieves a list by ID.
func (s *Store) GetList(ctx context.Context, id string) (*domain.List, error) {
	var l *domain.List
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		l, err = getRecord[domain.List](txn, listKey(id))
		return err
	})
	return l, err
}

// UpdateList persists the list title.
func (s *Store) UpdateList(ctx context.Context, list *domain.List) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		existing, err := getRecord[domain.List](txn, listKey(list.ID))
		if err != nil {
			return err
		}
		existing.Title = list.Title
		existing.UpdatedAt = list.UpdatedAt
		return putRecord(txn, listKey(list.ID), existing)
	})
}

// deleteListRecords removes a list and all of its cards.
func deleteListRecords(txn *badger.Txn, listID string) error {
	l, err := getRecord[domain.List](txn, listKey(listID))
	if err != nil {
		return err
	}
	for _, cardID := range l.CardOrder {
		if err := txn.Delete([]byte(cardKey(cardID))); err != nil {
			return fmt.Errorf("failed to delete card %s: %w", cardID, err)
		}
	}
	return txn.Delete([]byte(listKey(listID)))
}

// DeleteList removes a list and its cards, then re-sequences the workspace.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		l, err := getRecord[domain.List](txn, listKey(id))
		if err != nil {
			return err
		}
		if err := deleteListRecords(txn, id); err != nil {
			return err
		}

		ws, err := getRecord[domain.Workspace](txn, workspaceKey(l.WorkspaceID))
		if err != nil {
			return err
		}
		remaining := slices.DeleteFunc(slices.Clone(ws.ListOrder), func(lid string) bool { return lid == id })

		// Drop the deleted list from the stored order first so writeOrder
		// only touches surviving lists.
		ws.ListOrder = remaining
		if err := putRecord(txn, workspaceKey(ws.ID), ws); err != nil {
			return err
		}
		_, err = writeOrder(txn, domain.WorkspaceScope(ws.ID), remaining)
		return err
	})
}

// ListLists returns a workspace's lists in order.
func (s *Store) ListLists(ctx context.Context, workspaceID string) ([]*domain.List, error) {
	lists := []*domain.List{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		ws, err := getRecord[domain.Workspace](txn, workspaceKey(workspaceID))
		if err != nil {
			return err
		}
		for _, id := range ws.ListOrder {
			l, err := getRecord[domain.List](txn, listKey(id))
			if err != nil {
				return err
			}
			lists = append(lists, l)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lists, nil
}
