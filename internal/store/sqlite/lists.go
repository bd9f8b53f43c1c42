package sqlite

import (
	"context"
	"fmt"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/store"
)

// listColumns is the ordered list of columns selected in list queries.
// Must match the scan order in scanList.
const listColumns = `id, workspace_id, title, position, card_order_version, created_at, updated_at`

// scanList scans a list row without its card order.
func scanList(scanner interface{ Scan(dest ...any) error }) (*domain.List, error) {
	var (
		l         domain.List
		createdAt string
		updatedAt string
	)
	err := scanner.Scan(&l.ID, &l.WorkspaceID, &l.Title, &l.Position, &l.CardOrderVersion, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func getList(ctx context.Context, q querier, id string) (*domain.List, error) {
	row := q.QueryRowContext(ctx, `SELECT `+listColumns+` FROM lists WHERE id = ?`, id)
	l, err := scanList(row)
	if err != nil {
		return nil, notFound(err)
	}
	order, err := scopeOrder(ctx, q, domain.ListScope(id))
	if err != nil {
		return nil, err
	}
	l.CardOrder = order.IDs
	return l, nil
}

// CreateList appends a list to its workspace at max(position)+1.
func (s *Store) CreateList(ctx context.Context, list *domain.List) error {
	return s.inTx(ctx, func(q querier) error {
		scope := domain.WorkspaceScope(list.WorkspaceID)
		pos, err := nextPosition(ctx, q, scope)
		if err != nil {
			return err
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO lists (id, workspace_id, title, position, card_order_version, created_at, updated_at)
			VALUES (?, ?, ?, ?, 0, ?, ?)`,
			list.ID, list.WorkspaceID, list.Title, pos, formatTime(list.CreatedAt), formatTime(list.UpdatedAt),
		)
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrNotFound.WithCause(fmt.Errorf("workspace %s", list.WorkspaceID))
		}
		if err != nil {
			return mapErr(fmt.Errorf("insert list: %w", err))
		}
		if err := bumpVersion(ctx, q, scope); err != nil {
			return err
		}

		list.Position = pos
		list.CardOrder = []string{}
		list.CardOrderVersion = 0
		return nil
	})
}

// GetList retrieves a list with its card order.
func (s *Store) GetList(ctx context.Context, id string) (*domain.List, error) {
	return getList(ctx, s.db, id)
}

// UpdateList persists the list title. Position and membership are owned by
// the ordering transaction.
func (s *Store) UpdateList(ctx context.Context, list *domain.List) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE lists SET title = ?, updated_at = ? WHERE id = ?`,
		list.Title, formatTime(list.UpdatedAt), list.ID)
	if err != nil {
		return mapErr(fmt.Errorf("update list: %w", err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteList removes a list and its cards, then closes the gap it left in
// the workspace order.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	return s.inTx(ctx, func(q querier) error {
		var workspaceID string
		row := q.QueryRowContext(ctx, `SELECT workspace_id FROM lists WHERE id = ?`, id)
		if err := row.Scan(&workspaceID); err != nil {
			return notFound(err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id); err != nil {
			return mapErr(fmt.Errorf("delete list: %w", err))
		}
		return compact(ctx, q, domain.WorkspaceScope(workspaceID))
	})
}

// ListLists returns a workspace's lists in order, each with its card order.
func (s *Store) ListLists(ctx context.Context, workspaceID string) ([]*domain.List, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listColumns+` FROM lists WHERE workspace_id = ? ORDER BY position, created_at, id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	lists := []*domain.List{}
	byID := make(map[string]*domain.List)
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		l.CardOrder = []string{}
		lists = append(lists, l)
		byID[l.ID] = l
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	cardRows, err := s.db.QueryContext(ctx,
		`SELECT id, list_id FROM cards WHERE workspace_id = ? ORDER BY position, created_at, id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list card order: %w", err)
	}
	defer cardRows.Close()

	for cardRows.Next() {
		var cardID, listID string
		if err := cardRows.Scan(&cardID, &listID); err != nil {
			return nil, err
		}
		if l, ok := byID[listID]; ok {
			l.CardOrder = append(l.CardOrder, cardID)
		}
	}
	return lists, cardRows.Err()
}
