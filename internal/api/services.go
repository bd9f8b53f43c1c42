package api

import (
	"github.com/listenupapp/kanban-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Access    *service.AccessService
	Activity  *service.ActivityService
	User      *service.UserService
	Workspace *service.WorkspaceService
	List      *service.ListService
	Card      *service.CardService
	Presence  *service.PresenceService
}
