package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/kanban-server/internal/realtime"
	"github.com/listenupapp/kanban-server/internal/service"
)

func (s *Server) registerPresenceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPresence",
		Method:      http.MethodGet,
		Path:        "/api/v1/workspaces/{id}/presence",
		Summary:     "Who is online",
		Description: "Returns the sessions currently joined to the workspace with their last cursor",
		Tags:        []string{"Presence"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetPresence)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveCursor",
		Method:      http.MethodPost,
		Path:        "/api/v1/workspaces/{id}/presence/cursor",
		Summary:     "Move cursor",
		Description: "Publishes the caller's cursor to the workspace. For SSE clients; " +
			"requires the X-Session-ID of a session joined to the workspace.",
		Tags:     []string{"Presence"},
		Security: []map[string][]string{{"bearer": {}}},
	}, s.handleMoveCursor)
}

// PresenceResponse lists the sessions joined to a workspace.
type PresenceResponse struct {
	Members []realtime.Member `json:"members" doc:"Joined sessions"`
}

// PresenceOutput wraps the presence response for Huma.
type PresenceOutput struct {
	Body PresenceResponse
}

// CursorRequest is a pointer position in board coordinates.
type CursorRequest struct {
	X float64 `json:"x" doc:"Horizontal position"`
	Y float64 `json:"y" doc:"Vertical position"`
}

// MoveCursorInput wraps the cursor request for Huma.
type MoveCursorInput struct {
	ID   string `path:"id" doc:"Workspace ID"`
	Body CursorRequest
}

func (s *Server) handleGetPresence(ctx context.Context, input *WorkspaceIDInput) (*PresenceOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	members, err := s.services.Presence.Members(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}
	return &PresenceOutput{Body: PresenceResponse{Members: members}}, nil
}

func (s *Server) handleMoveCursor(ctx context.Context, input *MoveCursorInput) (*MessageOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	err = s.services.Presence.MoveCursor(ctx, actor, input.ID, service.CursorRequest{X: input.Body.X, Y: input.Body.Y})
	if err != nil {
		return nil, err
	}
	return message("Cursor updated"), nil
}
