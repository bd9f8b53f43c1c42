package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/store"
)

// cardColumns is the ordered list of columns selected in card queries.
// Must match the scan order in scanCard.
const cardColumns = `c.id, c.list_id, c.workspace_id, c.title, c.description, c.assigned_to,
	c.labels, c.due_date, c.position, c.created_at, c.updated_at`

// scanCard scans a sql.Row (or sql.Rows via its Scan method) into a domain.Card.
func scanCard(scanner interface{ Scan(dest ...any) error }) (*domain.Card, error) {
	var (
		c          domain.Card
		assignedTo sql.NullString
		labels     string
		dueDate    sql.NullString
		createdAt  string
		updatedAt  string
	)
	err := scanner.Scan(
		&c.ID,
		&c.ListID,
		&c.WorkspaceID,
		&c.Title,
		&c.Description,
		&assignedTo,
		&labels,
		&dueDate,
		&c.Position,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.AssignedTo = assignedTo.String
	if err := json.Unmarshal([]byte(labels), &c.Labels); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	if c.Labels == nil {
		c.Labels = []string{}
	}
	if c.DueDate, err = parseNullableTime(dueDate); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func encodeLabels(labels []string) (string, error) {
	if labels == nil {
		labels = []string{}
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("encode labels: %w", err)
	}
	return string(data), nil
}

func getCard(ctx context.Context, q querier, id string) (*domain.Card, error) {
	row := q.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards c WHERE c.id = ?`, id)
	c, err := scanCard(row)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// CreateCard appends a card to its list at max(position)+1. The card's
// workspace is taken from the list.
func (s *Store) CreateCard(ctx context.Context, card *domain.Card) error {
	labels, err := encodeLabels(card.Labels)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(q querier) error {
		row := q.QueryRowContext(ctx, `SELECT workspace_id FROM lists WHERE id = ?`, card.ListID)
		if err := row.Scan(&card.WorkspaceID); err != nil {
			return notFound(err)
		}

		scope := domain.ListScope(card.ListID)
		pos, err := nextPosition(ctx, q, scope)
		if err != nil {
			return err
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO cards (id, list_id, workspace_id, title, description, assigned_to,
				labels, due_date, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			card.ID,
			card.ListID,
			card.WorkspaceID,
			card.Title,
			card.Description,
			nullString(card.AssignedTo),
			labels,
			nullTimeString(card.DueDate),
			pos,
			formatTime(card.CreatedAt),
			formatTime(card.UpdatedAt),
		)
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrNotFound.WithCause(fmt.Errorf("assignee %s", card.AssignedTo))
		}
		if err != nil {
			return mapErr(fmt.Errorf("insert card: %w", err))
		}
		if err := bumpVersion(ctx, q, scope); err != nil {
			return err
		}

		card.Position = pos
		return nil
	})
}

// GetCard retrieves a card by ID.
func (s *Store) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	return getCard(ctx, s.db, id)
}

// UpdateCard persists the card's content fields. List and position are owned
// by the ordering transaction.
func (s *Store) UpdateCard(ctx context.Context, card *domain.Card) error {
	labels, err := encodeLabels(card.Labels)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE cards SET title = ?, description = ?, assigned_to = ?, labels = ?, due_date = ?, updated_at = ?
		WHERE id = ?`,
		card.Title,
		card.Description,
		nullString(card.AssignedTo),
		labels,
		nullTimeString(card.DueDate),
		formatTime(card.UpdatedAt),
		card.ID,
	)
	if isForeignKeyViolation(err) {
		return store.ErrNotFound.WithCause(fmt.Errorf("assignee %s", card.AssignedTo))
	}
	if err != nil {
		return mapErr(fmt.Errorf("update card: %w", err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteCard removes a card and closes the gap it left in its list.
func (s *Store) DeleteCard(ctx context.Context, id string) error {
	return s.inTx(ctx, func(q querier) error {
		var listID string
		row := q.QueryRowContext(ctx, `SELECT list_id FROM cards WHERE id = ?`, id)
		if err := row.Scan(&listID); err != nil {
			return notFound(err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id); err != nil {
			return mapErr(fmt.Errorf("delete card: %w", err))
		}
		return compact(ctx, q, domain.ListScope(listID))
	})
}

// ListCards returns a list's cards in order.
func (s *Store) ListCards(ctx context.Context, listID string) ([]*domain.Card, error) {
	return queryCards(ctx, s.db,
		`SELECT `+cardColumns+` FROM cards c WHERE c.list_id = ? ORDER BY c.position, c.created_at, c.id`, listID)
}

// ListWorkspaceCards returns every card in a workspace, ordered by list
// position and then card position.
func (s *Store) ListWorkspaceCards(ctx context.Context, workspaceID string) ([]*domain.Card, error) {
	return queryCards(ctx, s.db, `
		SELECT `+cardColumns+` FROM cards c
		JOIN lists l ON l.id = c.list_id
		WHERE c.workspace_id = ?
		ORDER BY l.position, l.id, c.position, c.created_at, c.id`, workspaceID)
}

func queryCards(ctx context.Context, q querier, query string, args ...any) ([]*domain.Card, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	cards := []*domain.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
