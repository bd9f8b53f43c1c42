package service

import (
	"context"
	"log/slog"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/store"
)

// cardDisplay fills card display fields, loading each list and assignee at
// most once. A failed lookup leaves the field empty.
type cardDisplay struct {
	store  store.Store
	logger *slog.Logger
	lists  map[string]*domain.List
	users  map[string]*domain.User
}

func newCardDisplay(s store.Store, logger *slog.Logger, known ...*domain.List) *cardDisplay {
	d := &cardDisplay{
		store:  s,
		logger: logger,
		lists:  make(map[string]*domain.List, len(known)),
		users:  make(map[string]*domain.User),
	}
	for _, l := range known {
		d.lists[l.ID] = l
	}
	return d
}

func (d *cardDisplay) decorate(ctx context.Context, cards ...*domain.Card) {
	for _, c := range cards {
		c.Decorate(d.list(ctx, c.ListID), d.user(ctx, c.AssignedTo))
	}
}

func (d *cardDisplay) list(ctx context.Context, listID string) *domain.List {
	if l, ok := d.lists[listID]; ok {
		return l
	}
	l, err := d.store.GetList(ctx, listID)
	if err != nil {
		d.logger.Warn("failed to load list for card display", "list_id", listID, "error", err)
		l = nil
	}
	d.lists[listID] = l
	return l
}

func (d *cardDisplay) user(ctx context.Context, userID string) *domain.User {
	if userID == "" {
		return nil
	}
	if u, ok := d.users[userID]; ok {
		return u
	}
	u, err := d.store.GetUser(ctx, userID)
	if err != nil {
		d.logger.Warn("failed to load assignee for card display", "user_id", userID, "error", err)
		u = nil
	}
	d.users[userID] = u
	return u
}
