package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/listenupapp/kanban-server/internal/domain"
	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/id"
	"github.com/listenupapp/kanban-server/internal/normalize"
	"github.com/listenupapp/kanban-server/internal/ordering"
	"github.com/listenupapp/kanban-server/internal/realtime"
	"github.com/listenupapp/kanban-server/internal/store"
	"github.com/listenupapp/kanban-server/internal/validation"
)

// maxCardLockAttempts bounds retries when a card moves to another list
// between looking it up and locking that list.
const maxCardLockAttempts = 3

// CardService manages cards and their movement between lists.
type CardService struct {
	store     store.Store
	access    *AccessService
	activity  *ActivityService
	mover     *ordering.Mover
	locks     *ordering.ScopeLocks
	events    Broadcaster
	logger    *slog.Logger
	validator *validation.Validator
}

// NewCardService creates a new card service.
func NewCardService(
	store store.Store,
	access *AccessService,
	activity *ActivityService,
	mover *ordering.Mover,
	locks *ordering.ScopeLocks,
	events Broadcaster,
	logger *slog.Logger,
) *CardService {
	return &CardService{
		store:     store,
		access:    access,
		activity:  activity,
		mover:     mover,
		locks:     locks,
		events:    events,
		logger:    logger,
		validator: validation.New(),
	}
}

// CreateCardRequest contains fields for creating a card.
type CreateCardRequest struct {
	Title       string     `json:"title" validate:"notblank,max=200"`
	Description string     `json:"description" validate:"max=10000"`
	AssignedTo  string     `json:"assigned_to"`
	Labels      []string   `json:"labels" validate:"max=20,dive,max=50"`
	DueDate     *time.Time `json:"due_date"`
}

// CreateCard appends a card to the end of a list.
func (s *CardService) CreateCard(ctx context.Context, actor Actor, listID string, req CreateCardRequest) (*domain.Card, error) {
	req.Title = normalize.Title(req.Title)
	req.Description = normalize.Text(req.Description)
	req.Labels = normalize.Labels(req.Labels)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	cardID, err := id.Generate(id.PrefixCard)
	if err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, domain.ListScope(listID))
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, storeError(err, "list %s", listID)
	}
	ws, err := s.access.RequireAccess(ctx, actor.UserID, list.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if err := checkAssignee(ws, req.AssignedTo); err != nil {
		return nil, err
	}

	card := &domain.Card{
		ListID:      listID,
		WorkspaceID: list.WorkspaceID,
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Labels:      req.Labels,
		DueDate:     req.DueDate,
	}
	card.ID = cardID
	card.InitTimestamps()
	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, storeError(err, "card %s", cardID)
	}
	newCardDisplay(s.store, s.logger, list).decorate(ctx, card)

	s.events.Broadcast(card.WorkspaceID, realtime.EventCardCreated,
		realtime.CardCreatedData{WorkspaceID: card.WorkspaceID, ListID: listID, Card: card}, actor.origin())
	s.activity.Record(ctx, actor, card.WorkspaceID, domain.ActivityCardCreated,
		"created card "+quoted(card.Title)+" in "+quoted(list.Title), listID, card.ID)

	s.logger.Info("card created", "card_id", card.ID, "list_id", listID, "position", card.Position)
	return card, nil
}

// GetCard returns a card.
func (s *CardService) GetCard(ctx context.Context, actor Actor, cardID string) (*domain.Card, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, storeError(err, "card %s", cardID)
	}
	if _, err := s.access.RequireRead(ctx, actor.UserID, card.WorkspaceID); err != nil {
		return nil, err
	}
	newCardDisplay(s.store, s.logger).decorate(ctx, card)
	return card, nil
}

// UpdateCardRequest contains the card fields to change. Nil fields are left
// as they are. An empty AssignedTo unassigns the card.
type UpdateCardRequest struct {
	Title        *string    `json:"title" validate:"omitempty,notblank,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=10000"`
	AssignedTo   *string    `json:"assigned_to"`
	Labels       []string   `json:"labels" validate:"omitempty,max=20,dive,max=50"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

// UpdateCard edits a card's content. List membership and position only
// change through MoveCard.
func (s *CardService) UpdateCard(ctx context.Context, actor Actor, cardID string, req UpdateCardRequest) (*domain.Card, error) {
	if req.Title != nil {
		*req.Title = normalize.Title(*req.Title)
	}
	if req.Description != nil {
		*req.Description = normalize.Text(*req.Description)
	}
	if req.Labels != nil {
		req.Labels = normalize.Labels(req.Labels)
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var updated *domain.Card
	err := s.withCardLock(ctx, cardID, func(ctx context.Context, card *domain.Card) error {
		ws, err := s.access.RequireAccess(ctx, actor.UserID, card.WorkspaceID)
		if err != nil {
			return err
		}
		if req.AssignedTo != nil {
			if err := checkAssignee(ws, *req.AssignedTo); err != nil {
				return err
			}
			card.AssignedTo = *req.AssignedTo
		}
		if req.Title != nil {
			card.Title = *req.Title
		}
		if req.Description != nil {
			card.Description = *req.Description
		}
		if req.Labels != nil {
			card.Labels = req.Labels
		}
		if req.DueDate != nil {
			card.DueDate = req.DueDate
		}
		if req.ClearDueDate {
			card.DueDate = nil
		}
		card.Touch()

		if err := s.store.UpdateCard(ctx, card); err != nil {
			return storeError(err, "card %s", cardID)
		}
		newCardDisplay(s.store, s.logger).decorate(ctx, card)
		s.events.Broadcast(card.WorkspaceID, realtime.EventCardUpdated,
			realtime.CardUpdatedData{WorkspaceID: card.WorkspaceID, CardID: card.ID, Card: card}, actor.origin())
		updated = card
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, updated.WorkspaceID, domain.ActivityCardUpdated, "updated card "+quoted(updated.Title), updated.ListID, updated.ID)
	return updated, nil
}

// DeleteCard removes a card and closes the gap it leaves in its list.
func (s *CardService) DeleteCard(ctx context.Context, actor Actor, cardID string) error {
	var deleted *domain.Card
	err := s.withCardLock(ctx, cardID, func(ctx context.Context, card *domain.Card) error {
		if _, err := s.access.RequireAccess(ctx, actor.UserID, card.WorkspaceID); err != nil {
			return err
		}
		if err := s.store.DeleteCard(ctx, cardID); err != nil {
			return storeError(err, "card %s", cardID)
		}
		s.events.Broadcast(card.WorkspaceID, realtime.EventCardDeleted,
			realtime.CardDeletedData{WorkspaceID: card.WorkspaceID, ListID: card.ListID, CardID: cardID}, actor.origin())
		deleted = card
		return nil
	})
	if err != nil {
		return err
	}

	s.activity.Record(ctx, actor, deleted.WorkspaceID, domain.ActivityCardDeleted, "deleted card "+quoted(deleted.Title), deleted.ListID, "")
	s.logger.Info("card deleted", "card_id", cardID, "list_id", deleted.ListID)
	return nil
}

// MoveCardRequest names the destination of a card. Position is a zero-based
// index into the target list and is clamped to its bounds.
type MoveCardRequest struct {
	ListID   string `json:"list_id" validate:"required"`
	Position int    `json:"position"`
}

// MoveCard relocates a card within its list or into another list of the
// same workspace.
func (s *CardService) MoveCard(ctx context.Context, actor Actor, cardID string, req MoveCardRequest) (*ordering.MoveResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, storeError(err, "card %s", cardID)
	}
	if _, err := s.access.RequireAccess(ctx, actor.UserID, card.WorkspaceID); err != nil {
		return nil, err
	}

	result, err := s.mover.MoveCard(ctx, cardID, req.ListID, req.Position,
		ordering.OnMoved(func(r *ordering.MoveResult) {
			if !r.Changed {
				return
			}
			s.events.Broadcast(r.Card.WorkspaceID, realtime.EventCardMoved,
				realtime.NewCardMovedData(r.Card, r.SourceListID, r.TargetListID, r.NewPosition), actor.origin())
		}),
	)
	if err != nil {
		return nil, err
	}

	if result.Changed {
		action := "moved card " + quoted(result.Card.Title)
		if result.CrossList() {
			action += " to another list"
		}
		s.activity.Record(ctx, actor, result.Card.WorkspaceID, domain.ActivityCardMoved, action, result.TargetListID, cardID)
	}
	return result, nil
}

// withCardLock runs fn with the card's current list locked. The card is
// re-read under the lock; if it moved in the meantime the lookup repeats.
func (s *CardService) withCardLock(ctx context.Context, cardID string, fn func(context.Context, *domain.Card) error) error {
	for range maxCardLockAttempts {
		card, err := s.store.GetCard(ctx, cardID)
		if err != nil {
			return storeError(err, "card %s", cardID)
		}

		release, err := s.locks.Acquire(ctx, domain.ListScope(card.ListID))
		if err != nil {
			return err
		}

		done, err := func() (bool, error) {
			defer release()
			lctx := context.WithoutCancel(ctx)

			current, err := s.store.GetCard(lctx, cardID)
			if err != nil {
				return true, storeError(err, "card %s", cardID)
			}
			if current.ListID != card.ListID {
				return false, nil
			}
			return true, fn(lctx, current)
		}()
		if done {
			return err
		}
	}
	return domainerrors.Conflictf("card %s kept moving, retry", cardID)
}

func checkAssignee(ws *domain.Workspace, userID string) error {
	if userID == "" || ws.IsMember(userID) {
		return nil
	}
	return domainerrors.ValidationWithDetails("validation failed",
		map[string]string{"assigned_to": "must be a member of the workspace"})
}
