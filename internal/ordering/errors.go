package ordering

import (
	"errors"
	"fmt"

	"github.com/listenupapp/kanban-server/internal/domain"
	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/store"
)

// errCardMoved signals that the card left its expected list between the
// unlocked read and the locked transaction.
var errCardMoved = errors.New("card moved concurrently")

// translate converts store errors into domain errors. Domain errors pass
// through unchanged; anything else is a storage fault and is wrapped.
func translate(err error, what string) error {
	var domainErr *domainerrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s not found", what)
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Conflictf("%s was modified concurrently, retry", what).WithCause(err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// checkVersion enforces an optimistic expected version, if one was supplied.
func checkVersion(expected *int64, current *domain.Order) error {
	if expected == nil || *expected == current.Version {
		return nil
	}
	return domainerrors.Conflictf("%s %s is at version %d, expected %d",
		current.Scope.Kind, current.Scope.ID, current.Version, *expected).
		WithDetails(map[string]any{"current_version": current.Version, "expected_version": *expected})
}
