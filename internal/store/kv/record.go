package kv

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/kanban-server/internal/store"
)

// getRecord loads and decodes the value at key.
// Returns store.ErrNotFound if the key does not exist.
func getRecord[T any](txn *badger.Txn, key string) (*T, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var v T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return &v, nil
}

// notFound maps badger.ErrKeyNotFound to store.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	return err
}

// putRecord encodes v and stores it at key.
func putRecord(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := txn.Set([]byte(key), data); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// exists checks if a key exists.
func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// insertRecord stores v at key, failing with store.ErrAlreadyExists if the
// key is taken.
func insertRecord(txn *badger.Txn, key string, v any) error {
	taken, err := exists(txn, key)
	if err != nil {
		return fmt.Errorf("failed to check existing key: %w", err)
	}
	if taken {
		return store.ErrAlreadyExists
	}
	return putRecord(txn, key, v)
}

// scanRecords decodes every primary record under prefix, skipping the
// prefix's secondary index keys.
func scanRecords[T any](txn *badger.Txn, prefix string) ([]*T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	idx := prefix + idxSegment
	var out []*T
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		if strings.HasPrefix(string(item.Key()), idx) {
			continue
		}
		var v T
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &v) }); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", item.Key(), err)
		}
		out = append(out, &v)
	}
	return out, nil
}

// scanKeys returns every key under prefix.
func scanKeys(txn *badger.Txn, prefix string) []string {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys []string
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Item().KeyCopy(nil)))
	}
	return keys
}

// deleteKeys removes every key under prefix.
func deleteKeys(txn *badger.Txn, prefix string) error {
	for _, k := range scanKeys(txn, prefix) {
		if err := txn.Delete([]byte(k)); err != nil {
			return fmt.Errorf("failed to delete %s: %w", k, err)
		}
	}
	return nil
}
