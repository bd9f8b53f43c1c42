package kv

import (
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/store"
)

// GetOrder returns the current ordered membership of a scope.
func (s *Store) GetOrder(ctx context.Context, scope domain.Scope) (*domain.Order, error) {
	var order *domain.Order
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		order, err = readOrder(txn, scope)
		return err
	})
	return order, err
}

// readOrder loads the scope's sequence and the stored position of each member.
func readOrder(txn *badger.Txn, scope domain.Scope) (*domain.Order, error) {
	order := &domain.Order{Scope: scope}

	switch scope.Kind {
	case domain.ScopeWorkspaceLists:
		ws, err := getRecord[domain.Workspace](txn, workspaceKey(scope.ID))
		if err != nil {
			return nil, err
		}
		order.IDs = slices.Clone(ws.ListOrder)
		order.Version = ws.ListOrderVersion
		for _, id := range order.IDs {
			l, err := getRecord[domain.List](txn, listKey(id))
			if err != nil {
				return nil, fmt.Errorf("list %s in order of %s: %w", id, scope, err)
			}
			order.Positions = append(order.Positions, l.Position)
		}

	case domain.ScopeListCards:
		l, err := getRecord[domain.List](txn, listKey(scope.ID))
		if err != nil {
			return nil, err
		}
		order.IDs = slices.Clone(l.CardOrder)
		order.Version = l.CardOrderVersion
		for _, id := range order.IDs {
			c, err := getRecord[domain.Card](txn, cardKey(id))
			if err != nil {
				return nil, fmt.Errorf("card %s in order of %s: %w", id, scope, err)
			}
			order.Positions = append(order.Positions, c.Position)
		}

	default:
		return nil, store.ErrInvalidInput.WithCause(fmt.Errorf("unknown scope kind %q", scope.Kind))
	}

	if order.IDs == nil {
		order.IDs = []string{}
	}
	if order.Positions == nil {
		order.Positions = []int{}
	}
	return order, nil
}

// writeOrder replaces the scope's sequence with ids, rewrites each member's
// position and bumps the version. Returns the new version.
func writeOrder(txn *badger.Txn, scope domain.Scope, ids []string) (int64, error) {
	ids = slices.Clone(ids)

	switch scope.Kind {
	case domain.ScopeWorkspaceLists:
		ws, err := getRecord[domain.Workspace](txn, workspaceKey(scope.ID))
		if err != nil {
			return 0, err
		}
		for i, id := range ids {
			l, err := getRecord[domain.List](txn, listKey(id))
			if err != nil {
				return 0, err
			}
			if l.Position != i+1 {
				l.Position = i + 1
				if err := putRecord(txn, listKey(id), l); err != nil {
					return 0, err
				}
			}
		}
		ws.ListOrder = ids
		ws.ListOrderVersion++
		return ws.ListOrderVersion, putRecord(txn, workspaceKey(ws.ID), ws)

	case domain.ScopeListCards:
		for i, id := range ids {
			c, err := getRecord[domain.Card](txn, cardKey(id))
			if err != nil {
				return 0, err
			}
			if c.Position != i+1 {
				c.Position = i + 1
				if err := putRecord(txn, cardKey(id), c); err != nil {
					return 0, err
				}
			}
		}
		l, err := getRecord[domain.List](txn, listKey(scope.ID))
		if err != nil {
			return 0, err
		}
		l.CardOrder = ids
		l.CardOrderVersion++
		return l.CardOrderVersion, putRecord(txn, listKey(l.ID), l)

	default:
		return 0, store.ErrInvalidInput.WithCause(fmt.Errorf("unknown scope kind %q", scope.Kind))
	}
}

// orderTx implements store.OrderTx on top of a Badger transaction.
type orderTx struct {
	txn *badger.Txn
}

func (t *orderTx) GetOrder(_ context.Context, scope domain.Scope) (*domain.Order, error) {
	return readOrder(t.txn, scope)
}

func (t *orderTx) SetOrder(_ context.Context, scope domain.Scope, ids []string) (*domain.Order, error) {
	current, err := readOrder(t.txn, scope)
	if err != nil {
		return nil, err
	}
	if !store.SameMembers(current.IDs, ids) {
		return nil, store.ErrInvalidInput.WithCause(fmt.Errorf("order for %s does not match its membership", scope))
	}

	version, err := writeOrder(t.txn, scope, ids)
	if err != nil {
		return nil, err
	}

	positions := make([]int, len(ids))
	for i := range positions {
		positions[i] = i + 1
	}
	return &domain.Order{Scope: scope, IDs: slices.Clone(ids), Positions: positions, Version: version}, nil
}

func (t *orderTx) GetList(_ context.Context, id string) (*domain.List, error) {
	return getRecord[domain.List](t.txn, listKey(id))
}

func (t *orderTx) GetCard(_ context.Context, id string) (*domain.Card, error) {
	return getRecord[domain.Card](t.txn, cardKey(id))
}

// RelocateCard moves card membership from its current list to the end of listID.
func (t *orderTx) RelocateCard(_ context.Context, cardID, listID string) error {
	card, err := getRecord[domain.Card](t.txn, cardKey(cardID))
	if err != nil {
		return err
	}
	if card.ListID == listID {
		return nil
	}

	source, err := getRecord[domain.List](t.txn, listKey(card.ListID))
	if err != nil {
		return err
	}
	target, err := getRecord[domain.List](t.txn, listKey(listID))
	if err != nil {
		return err
	}

	source.CardOrder = slices.DeleteFunc(source.CardOrder, func(id string) bool { return id == cardID })
	target.CardOrder = append(target.CardOrder, cardID)

	card.ListID = listID
	card.Position = len(target.CardOrder)
	card.Touch()

	if err := putRecord(t.txn, listKey(source.ID), source); err != nil {
		return err
	}
	if err := putRecord(t.txn, listKey(target.ID), target); err != nil {
		return err
	}
	return putRecord(t.txn, cardKey(cardID), card)
}
