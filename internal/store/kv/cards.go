package kv

import (
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/store"
)

// CreateCard appends a card to its list. The card's workspace comes from the list.
func (s *Store) CreateCard(ctx context.Context, card *domain.Card) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		l, err := getRecord[domain.List](txn, listKey(card.ListID))
		if err != nil {
			return err
		}
		if card.AssignedTo != "" {
			ok, err := exists(txn, userKey(card.AssignedTo))
			if err != nil {
				return err
			}
			if !ok {
				return store.ErrNotFound.WithCause(fmt.Errorf("assignee %s", card.AssignedTo))
			}
		}

		card.WorkspaceID = l.WorkspaceID
		card.Position = len(l.CardOrder) + 1
		if card.Labels == nil {
			card.Labels = []string{}
		}
		if err := insertRecord(txn, cardKey(card.ID), card.Bare()); err != nil {
			return err
		}

		l.CardOrder = append(l.CardOrder, card.ID)
		l.CardOrderVersion++
		return putRecord(txn, listKey(l.ID), l)
	})
}

// GetCard retrieves a card by ID.
func (s *Store) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	var c *domain.Card
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		c, err = getRecord[domain.Card](txn, cardKey(id))
		return err
	})
	return c, err
}

// UpdateCard persists content fields, keeping list, workspace and position.
func (s *Store) UpdateCard(ctx context.Context, card *domain.Card) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		existing, err := getRecord[domain.Card](txn, cardKey(card.ID))
		if err != nil {
			return err
		}
		if card.AssignedTo != "" {
			ok, err := exists(txn, userKey(card.AssignedTo))
			if err != nil {
				return err
			}
			if !ok {
				return store.ErrNotFound.WithCause(fmt.Errorf("assignee %s", card.AssignedTo))
			}
		}

		existing.Title = card.Title
		existing.Description = card.Description
		existing.AssignedTo = card.AssignedTo
		existing.Labels = card.Labels
		if existing.Labels == nil {
			existing.Labels = []string{}
		}
		existing.DueDate = card.DueDate
		existing.UpdatedAt = card.UpdatedAt
		return putRecord(txn, cardKey(card.ID), existing)
	})
}

// DeleteCard removes a card and re-sequences its list.
func (s *Store) DeleteCard(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		c, err := getRecord[domain.Card](txn, cardKey(id))
		if err != nil {
			return err
		}
		if err := txn.Delete([]byte(cardKey(id))); err != nil {
			return fmt.Errorf("failed to delete card: %w", err)
		}

		l, err := getRecord[domain.List](txn, listKey(c.ListID))
		if err != nil {
			return err
		}
		l.CardOrder = slices.DeleteFunc(l.CardOrder, func(cid string) bool { return cid == id })
		if err := putRecord(txn, listKey(l.ID), l); err != nil {
			return err
		}
		_, err = writeOrder(txn, domain.ListScope(l.ID), l.CardOrder)
		return err
	})
}

// ListCards returns a list's cards in order.
func (s *Store) ListCards(ctx context.Context, listID string) ([]*domain.Card, error) {
	cards := []*domain.Card{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		l, err := getRecord[domain.List](txn, listKey(listID))
		if err != nil {
			return err
		}
		cards, err = loadCards(txn, l.CardOrder, cards)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// ListWorkspaceCards returns every card in a workspace, ordered by list then position.
func (s *Store) ListWorkspaceCards(ctx context.Context, workspaceID string) ([]*domain.Card, error) {
	cards := []*domain.Card{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		ws, err := getRecord[domain.Workspace](txn, workspaceKey(workspaceID))
		if err != nil {
			return err
		}
		for _, listID := range ws.ListOrder {
			l, err := getRecord[domain.List](txn, listKey(listID))
			if err != nil {
				return err
			}
			if cards, err = loadCards(txn, l.CardOrder, cards); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func loadCards(txn *badger.Txn, ids []string, into []*domain.Card) ([]*domain.Card, error) {
	for _, id := range ids {
		c, err := getRecord[domain.Card](txn, cardKey(id))
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", id, err)
		}
		into = append(into, c)
	}
	return into, nil
}
