package kv

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/normalize"
	"github.com/listenupapp/kanban-server/internal/store"
)

// CreateUser stores a user and its case-insensitive email index.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	emailKey := indexKey(userPrefix, "email", normalize.Email(user.Email))
	return s.update(ctx, func(txn *badger.Txn) error {
		taken, err := exists(txn, emailKey)
		if err != nil {
			return fmt.Errorf("failed to check index key: %w", err)
		}
		if taken {
			return fmt.Errorf("index email conflict on key %s: %w", user.Email, store.ErrAlreadyExists)
		}
		if err := insertRecord(txn, userKey(user.ID), user); err != nil {
			return err
		}
		return txn.Set([]byte(emailKey), []byte(user.ID))
	})
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u *domain.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		u, err = getRecord[domain.User](txn, userKey(id))
		return err
	})
	return u, err
}

// GetUserByEmail resolves the email index, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u *domain.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(indexKey(userPrefix, "email", normalize.Email(email))))
		if err != nil {
			return notFound(err)
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		u, err = getRecord[domain.User](txn, userKey(string(id)))
		return err
	})
	return u, err
}

// ListUsers returns every user ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		users, err = scanRecords[domain.User](txn, userPrefix)
		return err
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(users, func(a, b *domain.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return users, nil
}
