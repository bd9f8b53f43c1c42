package ordering

import (
	"context"
	"errors"
	"log/slog"

	"github.com/listenupapp/kanban-server/internal/domain"
	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/store"
)

// maxMoveAttempts bounds how often a move is retried when the card changes
// lists between the unlocked lookup and the locked transaction.
const maxMoveAttempts = 3

// MoveResult describes a completed card move.
type MoveResult struct {
	Card *domain.Card
	// SourceListID is empty for a move within one list.
	SourceListID string
	TargetListID string
	// NewPosition is the card's final zero-based index in the target list.
	NewPosition int
	// SourceOrder is nil for a move within one list.
	SourceOrder *domain.Order
	TargetOrder *domain.Order
	// Changed is false when the card was already at the requested index.
	Changed bool
}

// CrossList reports whether the card changed lists.
func (r *MoveResult) CrossList() bool {
	return r.SourceListID != ""
}

// MoveOption customizes a single MoveCard call.
type MoveOption func(*moveOptions)

type moveOptions struct {
	hooks []func(*MoveResult)
}

// OnMoved registers fn to run after commit while both list locks are held.
func OnMoved(fn func(*MoveResult)) MoveOption {
	return func(o *moveOptions) { o.hooks = append(o.hooks, fn) }
}

// Mover relocates single cards within or between lists.
type Mover struct {
	store  store.Store
	locks  *ScopeLocks
	logger *slog.Logger
}

// NewMover creates a Mover sharing locks with the Reconciler.
func NewMover(s store.Store, locks *ScopeLocks, logger *slog.Logger) *Mover {
	return &Mover{store: s, locks: locks, logger: logger}
}

// MoveCard moves cardID into targetListID at the zero-based index
// newPosition. Out-of-range indexes are clamped to the ends of the list.
// Both lists are re-sequenced 1..N in the same transaction.
func (m *Mover) MoveCard(ctx context.Context, cardID, targetListID string, newPosition int, opts ...MoveOption) (*MoveResult, error) {
	var o moveOptions
	for _, opt := range opts {
		opt(&o)
	}

	for attempt := 1; ; attempt++ {
		result, err := m.tryMove(ctx, cardID, targetListID, newPosition, &o)
		if errors.Is(err, errCardMoved) && attempt < maxMoveAttempts {
			m.logger.Debug("card moved during lock acquisition, retrying",
				"card_id", cardID,
				"attempt", attempt,
			)
			continue
		}
		if errors.Is(err, errCardMoved) {
			err = domainerrors.Conflictf("card %s is being moved concurrently, retry", cardID)
		}
		if err != nil {
			m.logger.Warn("move rejected",
				"card_id", cardID,
				"target_list_id", targetListID,
				"error", err,
			)
			return nil, err
		}
		return result, nil
	}
}

func (m *Mover) tryMove(ctx context.Context, cardID, targetListID string, index int, o *moveOptions) (*MoveResult, error) {
	card, err := m.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, translate(err, "card "+cardID)
	}
	sourceListID := card.ListID

	target, err := m.store.GetList(ctx, targetListID)
	if err != nil {
		return nil, translate(err, "list "+targetListID)
	}
	if target.WorkspaceID != card.WorkspaceID {
		return nil, domainerrors.CrossWorkspace("target list belongs to a different workspace").
			WithDetails(map[string]any{
				"card_id":        cardID,
				"target_list_id": targetListID,
			})
	}

	sourceScope := domain.ListScope(sourceListID)
	targetScope := domain.ListScope(targetListID)
	release, err := m.locks.Acquire(ctx, sourceScope, targetScope)
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	sameList := sourceListID == targetListID
	var result *MoveResult
	err = m.store.Update(ctx, func(tx store.OrderTx) error {
		current, err := tx.GetCard(ctx, cardID)
		if err != nil {
			return err
		}
		if current.ListID != sourceListID {
			return errCardMoved
		}

		targetOrder, err := tx.GetOrder(ctx, targetScope)
		if err != nil {
			return err
		}

		if sameList {
			plan := PlanMove(cardID, targetOrder.IDs, targetOrder.IDs, index, true)
			result = &MoveResult{TargetListID: targetListID, NewPosition: plan.Index}
			if Unchanged(targetOrder, plan.Target) {
				result.TargetOrder = targetOrder
				result.Card = current
				return nil
			}
			if result.TargetOrder, err = tx.SetOrder(ctx, targetScope, plan.Target); err != nil {
				return err
			}
			result.Changed = true
			result.Card, err = tx.GetCard(ctx, cardID)
			return err
		}

		sourceOrder, err := tx.GetOrder(ctx, sourceScope)
		if err != nil {
			return err
		}
		plan := PlanMove(cardID, sourceOrder.IDs, targetOrder.IDs, index, false)

		if err := tx.RelocateCard(ctx, cardID, targetListID); err != nil {
			return err
		}
		result = &MoveResult{
			SourceListID: sourceListID,
			TargetListID: targetListID,
			NewPosition:  plan.Index,
			Changed:      true,
		}
		if result.TargetOrder, err = tx.SetOrder(ctx, targetScope, plan.Target); err != nil {
			return err
		}
		if result.SourceOrder, err = tx.SetOrder(ctx, sourceScope, plan.Source); err != nil {
			return err
		}
		result.Card, err = tx.GetCard(ctx, cardID)
		return err
	})
	if errors.Is(err, errCardMoved) {
		return nil, err
	}
	if err != nil {
		return nil, translate(err, "card "+cardID)
	}
	m.decorate(ctx, result.Card)

	m.logger.Debug("moved card",
		"card_id", cardID,
		"source_list_id", sourceListID,
		"target_list_id", targetListID,
		"index", result.NewPosition,
		"changed", result.Changed,
	)

	for _, hook := range o.hooks {
		hook(result)
	}
	return result, nil
}

// decorate fills the card's display fields from its new list and its
// assignee. Lookup failures leave the fields empty; the move has committed.
func (m *Mover) decorate(ctx context.Context, card *domain.Card) {
	list, err := m.store.GetList(ctx, card.ListID)
	if err != nil {
		m.logger.Warn("failed to load list title for moved card", "card_id", card.ID, "error", err)
		list = nil
	}

	var assignee *domain.User
	if card.AssignedTo != "" {
		if assignee, err = m.store.GetUser(ctx, card.AssignedTo); err != nil {
			m.logger.Warn("failed to load assignee for moved card", "card_id", card.ID, "error", err)
			assignee = nil
		}
	}
	card.Decorate(list, assignee)
}
