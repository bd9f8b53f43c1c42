package kv

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/kanban-server/internal/store"
	"github.com/listenupapp/kanban-server/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestActivityKey_SortsNewestFirst(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Second)

	assert.Less(t, activityKey("ws-1", newer, "b"), activityKey("ws-1", older, "a"))
}

func TestIndexKey(t *testing.T) {
	assert.Equal(t, "user:idx:email:ada@example.com", indexKey(userPrefix, "email", "ada@example.com"))
	assert.Equal(t, "workspace:idx:member:usr-1:ws-1", memberIndexKey("usr-1", "ws-1"))
}
