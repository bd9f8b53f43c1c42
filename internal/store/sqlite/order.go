package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/store"
)

// scopeTables describes where a scope's members and version counter live.
type scopeTables struct {
	parent     string // table holding the version counter
	versionCol string
	child      string // table holding members and their positions
	fkCol      string
}

func tablesFor(scope domain.Scope) (scopeTables, error) {
	switch scope.Kind {
	case domain.ScopeWorkspaceLists:
		return scopeTables{parent: "workspaces", versionCol: "list_order_version", child: "lists", fkCol: "workspace_id"}, nil
	case domain.ScopeListCards:
		return scopeTables{parent: "lists", versionCol: "card_order_version", child: "cards", fkCol: "list_id"}, nil
	default:
		return scopeTables{}, store.ErrInvalidInput.WithCause(fmt.Errorf("unknown scope kind %q", scope.Kind))
	}
}

// GetOrder returns the current ordered membership of a scope.
func (s *Store) GetOrder(ctx context.Context, scope domain.Scope) (*domain.Order, error) {
	return scopeOrder(ctx, s.db, scope)
}

func scopeOrder(ctx context.Context, q querier, scope domain.Scope) (*domain.Order, error) {
	t, err := tablesFor(scope)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{Scope: scope, IDs: []string{}, Positions: []int{}}
	row := q.QueryRowContext(ctx, `SELECT `+t.versionCol+` FROM `+t.parent+` WHERE id = ?`, scope.ID)
	if err := row.Scan(&order.Version); err != nil {
		return nil, notFound(err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, position FROM `+t.child+` WHERE `+t.fkCol+` = ? ORDER BY position, created_at, id`, scope.ID)
	if err != nil {
		return nil, fmt.Errorf("load %s order: %w", scope.Kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			pos int
		)
		if err := rows.Scan(&id, &pos); err != nil {
			return nil, err
		}
		order.IDs = append(order.IDs, id)
		order.Positions = append(order.Positions, pos)
	}
	return order, rows.Err()
}

// writeOrder assigns position i+1 to ids[i] and bumps the scope version.
// The caller guarantees ids is the scope's exact membership.
func writeOrder(ctx context.Context, q querier, scope domain.Scope, ids []string) (int64, error) {
	t, err := tablesFor(scope)
	if err != nil {
		return 0, err
	}

	for i, id := range ids {
		result, err := q.ExecContext(ctx,
			`UPDATE `+t.child+` SET position = ? WHERE id = ? AND `+t.fkCol+` = ?`, i+1, id, scope.ID)
		if err != nil {
			return 0, mapErr(fmt.Errorf("set position of %s: %w", id, err))
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return 0, store.ErrNotFound.WithCause(fmt.Errorf("%s not in %s", id, scope))
		}
	}

	var version int64
	row := q.QueryRowContext(ctx,
		`UPDATE `+t.parent+` SET `+t.versionCol+` = `+t.versionCol+` + 1 WHERE id = ? RETURNING `+t.versionCol, scope.ID)
	if err := row.Scan(&version); err != nil {
		return 0, mapErr(notFound(err))
	}
	return version, nil
}

// compact re-sequences a scope's remaining members to 1..N in their current
// order. Used after a member is removed.
func compact(ctx context.Context, q querier, scope domain.Scope) error {
	order, err := scopeOrder(ctx, q, scope)
	if err != nil {
		return err
	}
	_, err = writeOrder(ctx, q, scope, order.IDs)
	return err
}

// nextPosition returns max(position)+1 within a scope.
func nextPosition(ctx context.Context, q querier, scope domain.Scope) (int, error) {
	t, err := tablesFor(scope)
	if err != nil {
		return 0, err
	}
	var pos int
	row := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM `+t.child+` WHERE `+t.fkCol+` = ?`, scope.ID)
	if err := row.Scan(&pos); err != nil {
		return 0, err
	}
	return pos, nil
}

// bumpVersion increments a scope's version without touching positions.
func bumpVersion(ctx context.Context, q querier, scope domain.Scope) error {
	t, err := tablesFor(scope)
	if err != nil {
		return err
	}
	result, err := q.ExecContext(ctx,
		`UPDATE `+t.parent+` SET `+t.versionCol+` = `+t.versionCol+` + 1 WHERE id = ?`, scope.ID)
	if err != nil {
		return mapErr(fmt.Errorf("bump %s version: %w", scope, err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// orderTx implements store.OrderTx on top of a *sql.Tx.
type orderTx struct {
	q querier
}

func (t *orderTx) GetOrder(ctx context.Context, scope domain.Scope) (*domain.Order, error) {
	return scopeOrder(ctx, t.q, scope)
}

func (t *orderTx) SetOrder(ctx context.Context, scope domain.Scope, ids []string) (*domain.Order, error) {
	current, err := scopeOrder(ctx, t.q, scope)
	if err != nil {
		return nil, err
	}
	if !store.SameMembers(current.IDs, ids) {
		return nil, store.ErrInvalidInput.WithCause(fmt.Errorf("order for %s does not match its membership", scope))
	}

	version, err := writeOrder(ctx, t.q, scope, ids)
	if err != nil {
		return nil, err
	}

	positions := make([]int, len(ids))
	for i := range positions {
		positions[i] = i + 1
	}
	return &domain.Order{
		Scope:     scope,
		IDs:       append([]string(nil), ids...),
		Positions: positions,
		Version:   version,
	}, nil
}

func (t *orderTx) GetList(ctx context.Context, id string) (*domain.List, error) {
	return getList(ctx, t.q, id)
}

func (t *orderTx) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	return getCard(ctx, t.q, id)
}

// RelocateCard points the card at listID and parks it at the end of that list.
func (t *orderTx) RelocateCard(ctx context.Context, cardID, listID string) error {
	pos, err := nextPosition(ctx, t.q, domain.ListScope(listID))
	if err != nil {
		return err
	}
	result, err := t.q.ExecContext(ctx,
		`UPDATE cards SET list_id = ?, position = ?, updated_at = ? WHERE id = ?`,
		listID, pos, formatTime(time.Now()), cardID)
	if isForeignKeyViolation(err) {
		return store.ErrNotFound.WithCause(fmt.Errorf("list %s", listID))
	}
	if err != nil {
		return mapErr(fmt.Errorf("relocate card: %w", err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
