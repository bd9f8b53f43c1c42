package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/store"
)

// activityColumns is the ordered list of columns selected in activity queries.
// Must match the scan order in scanActivity.
const activityColumns = `id, workspace_id, user_id, user_name, type, action, list_id, card_id, created_at`

// scanActivity scans a sql.Row (or sql.Rows via its Scan method) into a domain.Activity.
func scanActivity(scanner interface{ Scan(dest ...any) error }) (*domain.Activity, error) {
	var (
		a            domain.Activity
		activityType string
		listID       sql.NullString
		cardID       sql.NullString
		createdAt    string
	)
	err := scanner.Scan(
		&a.ID,
		&a.WorkspaceID,
		&a.UserID,
		&a.UserName,
		&activityType,
		&a.Action,
		&listID,
		&cardID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	a.Type = domain.ActivityType(activityType)
	a.ListID = listID.String
	a.CardID = cardID.String
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateActivity inserts a new activity.
// Returns store.ErrAlreadyExists if the activity ID already exists.
func (s *Store) CreateActivity(ctx context.Context, activity *domain.Activity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, workspace_id, user_id, user_name, type, action, list_id, card_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.ID,
		activity.WorkspaceID,
		activity.UserID,
		activity.UserName,
		string(activity.Type),
		activity.Action,
		nullString(activity.ListID),
		nullString(activity.CardID),
		formatTime(activity.CreatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if isForeignKeyViolation(err) {
		return store.ErrNotFound.WithCause(fmt.Errorf("workspace %s", activity.WorkspaceID))
	}
	if err != nil {
		return mapErr(fmt.Errorf("insert activity: %w", err))
	}
	return nil
}

// ListActivities returns a workspace's activities, newest first.
func (s *Store) ListActivities(ctx context.Context, workspaceID string, params store.PageParams) ([]*domain.Activity, error) {
	params.Validate()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+activityColumns+` FROM activities
		WHERE workspace_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, workspaceID, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := []*domain.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
