package ordering

import (
	"context"
	"log/slog"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/store"
)

// Result is the outcome of a reconcile.
type Result struct {
	// Order is the scope's sequence after the call.
	Order *domain.Order
	// Changed is false when the request matched the stored order and
	// nothing was written.
	Changed bool
}

// ReconcileOption customizes a single Reconcile call.
type ReconcileOption func(*reconcileOptions)

type reconcileOptions struct {
	expectedVersion *int64
	hooks           []func(*Result)
}

// WithExpectedVersion rejects the request with CONFLICT unless the scope is
// still at version v.
func WithExpectedVersion(v int64) ReconcileOption {
	return func(o *reconcileOptions) { o.expectedVersion = &v }
}

// OnReconciled registers fn to run after commit while the scope lock is
// still held. Broadcasts emitted from here reach the hub in commit order.
func OnReconciled(fn func(*Result)) ReconcileOption {
	return func(o *reconcileOptions) { o.hooks = append(o.hooks, fn) }
}

// Reconciler replaces the order of a scope with a client-supplied permutation.
type Reconciler struct {
	store  store.Store
	locks  *ScopeLocks
	logger *slog.Logger
}

// NewReconciler creates a Reconciler. locks must be shared with every other
// component that mutates ordering in this process.
func NewReconciler(s store.Store, locks *ScopeLocks, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: s, locks: locks, logger: logger}
}

// Reconcile makes desired the scope's authoritative order.
//
// desired must be a permutation of the scope's current members: a foreign
// ID fails with FOREIGN_ITEM, a missing or duplicated ID with
// INCOMPLETE_ORDER. On success item i gets position i+1. Nothing is written
// when desired equals the stored order and positions are already dense.
func (r *Reconciler) Reconcile(ctx context.Context, scope domain.Scope, desired []string, opts ...ReconcileOption) (*Result, error) {
	var o reconcileOptions
	for _, opt := range opts {
		opt(&o)
	}

	release, err := r.locks.Acquire(ctx, scope)
	if err != nil {
		return nil, err
	}
	defer release()

	// Once the lock is held the mutation runs to completion even if the
	// client goes away.
	ctx = context.WithoutCancel(ctx)

	var result *Result
	err = r.store.Update(ctx, func(tx store.OrderTx) error {
		current, err := tx.GetOrder(ctx, scope)
		if err != nil {
			return err
		}
		if err := checkVersion(o.expectedVersion, current); err != nil {
			return err
		}
		if err := Validate(scope, current.IDs, desired); err != nil {
			return err
		}
		if Unchanged(current, desired) {
			result = &Result{Order: current}
			return nil
		}

		order, err := tx.SetOrder(ctx, scope, desired)
		if err != nil {
			return err
		}
		result = &Result{Order: order, Changed: true}
		return nil
	})
	if err != nil {
		err = translate(err, scope.Key())
		r.logger.Warn("reconcile rejected",
			"scope", scope.Key(),
			"error", err,
		)
		return nil, err
	}

	r.logger.Debug("reconciled order",
		"scope", scope.Key(),
		"changed", result.Changed,
		"version", result.Order.Version,
		"count", len(result.Order.IDs),
	)

	for _, hook := range o.hooks {
		hook(result)
	}
	return result, nil
}
