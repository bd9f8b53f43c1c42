package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/store"
)

// workspaceColumns is the ordered list of columns selected in workspace queries.
// Must match the scan order in scanWorkspace.
const workspaceColumns = `id, title, description, visibility, owner_id, due_date,
	list_order_version, created_at, updated_at`

// scanWorkspace scans a workspace row without its members or list order.
func scanWorkspace(scanner interface{ Scan(dest ...any) error }) (*domain.Workspace, error) {
	var (
		ws         domain.Workspace
		visibility string
		dueDate    sql.NullString
		createdAt  string
		updatedAt  string
	)
	err := scanner.Scan(
		&ws.ID,
		&ws.Title,
		&ws.Description,
		&visibility,
		&ws.OwnerID,
		&dueDate,
		&ws.ListOrderVersion,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	ws.Visibility = domain.Visibility(visibility)
	if ws.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if ws.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if ws.DueDate, err = parseNullableTime(dueDate); err != nil {
		return nil, err
	}
	return &ws, nil
}

// CreateWorkspace inserts a workspace and its initial members.
func (s *Store) CreateWorkspace(ctx context.Context, ws *domain.Workspace) error {
	return s.inTx(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO workspaces (id, title, description, visibility, owner_id, due_date,
				list_order_version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			ws.ID,
			ws.Title,
			ws.Description,
			string(ws.Visibility),
			ws.OwnerID,
			nullTimeString(ws.DueDate),
			formatTime(ws.CreatedAt),
			formatTime(ws.UpdatedAt),
		)
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrNotFound.WithCause(fmt.Errorf("owner %s", ws.OwnerID))
		}
		if err != nil {
			return fmt.Errorf("insert workspace: %w", err)
		}
		ws.ListOrder = []string{}
		ws.ListOrderVersion = 0
		return insertMembers(ctx, q, ws)
	})
}

// GetWorkspace retrieves a workspace with members and list order.
func (s *Store) GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error) {
	return getWorkspace(ctx, s.db, id)
}

func getWorkspace(ctx context.Context, q querier, id string) (*domain.Workspace, error) {
	row := q.QueryRowContext(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = ?`, id)
	ws, err := scanWorkspace(row)
	if err != nil {
		return nil, notFound(err)
	}
	if err := loadWorkspaceRelations(ctx, q, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// loadWorkspaceRelations fills in members and the list order.
func loadWorkspaceRelations(ctx context.Context, q querier, ws *domain.Workspace) error {
	rows, err := q.QueryContext(ctx, `
		SELECT user_id, role, joined_at, updated_at
		FROM workspace_members WHERE workspace_id = ?
		ORDER BY joined_at, user_id`, ws.ID)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	ws.Members = []domain.Member{}
	for rows.Next() {
		var (
			m         domain.Member
			role      string
			joinedAt  string
			updatedAt string
		)
		if err := rows.Scan(&m.UserID, &role, &joinedAt, &updatedAt); err != nil {
			return err
		}
		m.Role = domain.Role(role)
		if m.JoinedAt, err = parseTime(joinedAt); err != nil {
			return err
		}
		if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return err
		}
		ws.Members = append(ws.Members, m)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	order, err := scopeOrder(ctx, q, domain.WorkspaceScope(ws.ID))
	if err != nil {
		return err
	}
	ws.ListOrder = order.IDs
	return nil
}

// insertMembers writes every member row for ws.
func insertMembers(ctx context.Context, q querier, ws *domain.Workspace) error {
	for _, m := range ws.Members {
		_, err := q.ExecContext(ctx, `
			INSERT INTO workspace_members (workspace_id, user_id, role, joined_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			ws.ID, m.UserID, string(m.Role), formatTime(m.JoinedAt), formatTime(m.UpdatedAt),
		)
		if isForeignKeyViolation(err) {
			return store.ErrNotFound.WithCause(fmt.Errorf("member %s", m.UserID))
		}
		if err != nil {
			return fmt.Errorf("insert member %s: %w", m.UserID, err)
		}
	}
	return nil
}

// UpdateWorkspace updates metadata and replaces the member set.
// The list order and its version are left untouched.
func (s *Store) UpdateWorkspace(ctx context.Context, ws *domain.Workspace) error {
	return s.inTx(ctx, func(q querier) error {
		result, err := q.ExecContext(ctx, `
			UPDATE workspaces SET title = ?, description = ?, visibility = ?, due_date = ?, updated_at = ?
			WHERE id = ?`,
			ws.Title,
			ws.Description,
			string(ws.Visibility),
			nullTimeString(ws.DueDate),
			formatTime(ws.UpdatedAt),
			ws.ID,
		)
		if err != nil {
			return fmt.Errorf("update workspace: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM workspace_members WHERE workspace_id = ?`, ws.ID); err != nil {
			return fmt.Errorf("clear members: %w", err)
		}
		return insertMembers(ctx, q, ws)
	})
}

// DeleteWorkspace removes a workspace. Foreign keys cascade to members,
// lists, cards and activities.
func (s *Store) DeleteWorkspace(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id)
	if err != nil {
		return mapErr(fmt.Errorf("delete workspace: %w", err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListWorkspacesForUser returns workspaces the user owns, belongs to, or that are public.
func (s *Store) ListWorkspacesForUser(ctx context.Context, userID string) ([]*domain.Workspace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+workspaceColumns+` FROM workspaces
		WHERE owner_id = ?
		   OR visibility = 'public'
		   OR id IN (SELECT workspace_id FROM workspace_members WHERE user_id = ?)
		ORDER BY created_at, id`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}

	var workspaces []*domain.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, ws := range workspaces {
		if err := loadWorkspaceRelations(ctx, s.db, ws); err != nil {
			return nil, err
		}
	}
	return workspaces, nil
}
