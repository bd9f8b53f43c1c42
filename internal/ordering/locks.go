package ordering

import (
	"context"
	"slices"
	"sync"

	"github.com/listenupapp/kanban-server/internal/domain"
)

// ScopeLocks serializes mutations per scope within this process.
//
// Each scope key maps to a one-slot semaphore so acquisition can honor
// context cancellation. Entries are reference counted and dropped once no
// goroutine holds or waits for them.
type ScopeLocks struct {
	mu    sync.Mutex
	locks map[string]*scopeLock
}

type scopeLock struct {
	sem  chan struct{}
	refs int
}

// NewScopeLocks creates an empty lock table.
func NewScopeLocks() *ScopeLocks {
	return &ScopeLocks{locks: make(map[string]*scopeLock)}
}

// Acquire locks every given scope and returns a function that releases them.
// Keys are taken in sorted order so two callers locking overlapping sets
// cannot deadlock. Duplicate scopes are locked once.
func (l *ScopeLocks) Acquire(ctx context.Context, scopes ...domain.Scope) (release func(), err error) {
	keys := make([]string, 0, len(scopes))
	for _, s := range scopes {
		keys = append(keys, s.Key())
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	held := make([]string, 0, len(keys))
	for _, key := range keys {
		lk := l.ref(key)
		select {
		case lk.sem <- struct{}{}:
			held = append(held, key)
		case <-ctx.Done():
			l.unref(key)
			l.releaseAll(held)
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(func() { l.releaseAll(held) }) }, nil
}

// Len returns the number of scopes currently held or waited on.
func (l *ScopeLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *ScopeLocks) ref(key string) *scopeLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &scopeLock{sem: make(chan struct{}, 1)}
		l.locks[key] = lk
	}
	lk.refs++
	return lk
}

func (l *ScopeLocks) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dropLocked(key)
}

func (l *ScopeLocks) releaseAll(keys []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// Release in reverse acquisition order.
	for i := len(keys) - 1; i >= 0; i-- {
		<-l.locks[keys[i]].sem
		l.dropLocked(keys[i])
	}
}

func (l *ScopeLocks) dropLocked(key string) {
	lk := l.locks[key]
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, key)
	}
}
