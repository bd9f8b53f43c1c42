package service

import (
	"errors"
	"fmt"

	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/realtime"
	"github.com/listenupapp/kanban-server/internal/store"
)

// Actor is the authenticated caller of a service method. SessionID is the
// realtime session to exclude from the resulting broadcast and may be empty.
type Actor struct {
	UserID    string
	UserName  string
	SessionID string
}

func (a Actor) origin() realtime.Origin {
	return realtime.Origin{SessionID: a.SessionID, UserID: a.UserID, UserName: a.UserName}
}

// Broadcaster is the part of the realtime hub services emit through.
type Broadcaster interface {
	Broadcast(workspaceID string, eventType realtime.EventType, payload any, origin realtime.Origin)
}

// Roster holds the realtime subscriptions of a workspace. The workspace
// service drops them when access ends.
type Roster interface {
	LeaveUser(userID, workspaceID string) int
	LeaveWorkspace(workspaceID string) int
}

// storeError maps store sentinels to domain errors. Anything unrecognized is
// a storage fault: the cause is kept for logs and the client sees a generic
// message.
func storeError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	what := fmt.Sprintf(format, args...)

	var domainErr *domainerrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s not found", what)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExistsf("%s already exists", what)
	case errors.Is(err, store.ErrConflict):
		return domainerrors.Conflictf("%s was modified concurrently, retry", what).WithCause(err)
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validationf("invalid %s", what).WithCause(err)
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "operation failed")
	}
}
