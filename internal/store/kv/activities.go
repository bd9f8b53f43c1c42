package kv

import (
	"context"
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/store"
)

// CreateActivity stores an activity under its workspace, keyed newest first.
func (s *Store) CreateActivity(ctx context.Context, activity *domain.Activity) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		ok, err := exists(txn, workspaceKey(activity.WorkspaceID))
		if err != nil {
			return err
		}
		if !ok {
			return store.ErrNotFound.WithCause(fmt.Errorf("workspace %s", activity.WorkspaceID))
		}
		return insertRecord(txn, activityKey(activity.WorkspaceID, activity.CreatedAt, activity.ID), activity)
	})
}

// ListActivities returns a workspace's activities, newest first.
func (s *Store) ListActivities(ctx context.Context, workspaceID string, params store.PageParams) ([]*domain.Activity, error) {
	params.Validate()

	activities := []*domain.Activity{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(activityWorkspacePrefix(workspaceID))
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Rewind(); it.Valid() && len(activities) < params.Limit; it.Next() {
			if skipped < params.Offset {
				skipped++
				continue
			}
			var a domain.Activity
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &a) }); err != nil {
				return fmt.Errorf("failed to unmarshal activity: %w", err)
			}
			activities = append(activities, &a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activities, nil
}
