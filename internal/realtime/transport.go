package realtime

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/http/response"
)

// Identity is the authenticated user behind a connection.
type Identity struct {
	UserID   string
	UserName string
}

// IdentifyFunc authenticates an incoming connection request.
type IdentifyFunc func(r *http.Request) (Identity, error)

// AuthorizeFunc decides whether userID may subscribe to workspaceID.
// It returns a domain error when access is refused.
type AuthorizeFunc func(ctx context.Context, userID, workspaceID string) error

// Presence is the subscription registry the transports update as sessions
// join and leave workspaces.
type Presence interface {
	Join(sessionID, userID, userName, workspaceID string) []Member
	Leave(sessionID, workspaceID string)
	OnCursor(sessionID, workspaceID string, x, y float64) error
}

// writeTimeout bounds a single write to a client.
const writeTimeout = 10 * time.Second

// rejectIdentity answers a connection whose caller could not be identified.
// Errors without a domain code are reported as failed authentication.
func rejectIdentity(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		err = domainerrors.Unauthorized("authentication required")
	}
	response.HandleError(w, err, logger)
}

// errorEvent builds the error event sent back for a rejected command.
func errorEvent(command string, err error) Event {
	data := ErrorData{Code: string(domainerrors.CodeInternal), Message: "operation failed", Command: command}
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		data.Code = string(domainErr.Code)
		data.Message = domainErr.Message
	}
	return Event{Timestamp: time.Now().UTC(), Type: EventError, Data: data}
}
