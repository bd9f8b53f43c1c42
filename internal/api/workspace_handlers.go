package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/service"
)

func (s *Server) registerWorkspaceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createWorkspace",
		Method:        http.MethodPost,
		Path:          "/api/v1/workspaces",
		Summary:       "Create workspace",
		Description:   "Creates a workspace owned by the caller, who becomes its first admin",
		Tags:          []string{"Workspaces"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateWorkspace)

	huma.Register(s.api, huma.Operation{
		OperationID: "listWorkspaces",
		Method:      http.MethodGet,
		Path:        "/api/v1/workspaces",
		Summary:     "List workspaces",
		Description: "Returns the workspaces the caller owns or belongs to, plus public ones",
		Tags:        []string{"Workspaces"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListWorkspaces)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBoard",
		Method:      http.MethodGet,
		Path:        "/api/v1/workspaces/{id}",
		Summary:     "Get board",
		Description: "Returns the workspace with its lists in order, each with its cards in order",
		Tags:        []string{"Workspaces"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateWorkspace",
		Method:      http.MethodPatch,
		Path:        "/api/v1/workspaces/{id}",
		Summary:     "Update workspace",
		Description: "Changes workspace settings. Requires admin.",
		Tags:        []string{"Workspaces"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateWorkspace)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteWorkspace",
		Method:      http.MethodDelete,
		Path:        "/api/v1/workspaces/{id}",
		Summary:     "Delete workspace",
		Description: "Deletes the workspace with its lists, cards and activity. Owner only.",
		Tags:        []string{"Workspaces"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteWorkspace)

	huma.Register(s.api, huma.Operation{
		OperationID: "reorderLists",
		Method:      http.MethodPut,
		Path:        "/api/v1/workspaces/{id}/lists/order",
		Summary:     "Reorder lists",
		Description: "Replaces the workspace's list order. The order must name every list exactly once.",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReorderLists)
}

// === DTOs ===

// CreateWorkspaceRequest is the request body for creating a workspace.
type CreateWorkspaceRequest struct {
	Title       string     `json:"title" minLength:"1" maxLength:"200" doc:"Workspace title"`
	Description string     `json:"description,omitempty" maxLength:"5000" doc:"Workspace description"`
	Visibility  string     `json:"visibility,omitempty" enum:"private,public" doc:"Who can read the board (default private)"`
	DueDate     *time.Time `json:"due_date,omitempty" doc:"Optional due date"`
}

// CreateWorkspaceInput wraps the create workspace request for Huma.
type CreateWorkspaceInput struct {
	Body CreateWorkspaceRequest
}

// WorkspaceOutput wraps a workspace for Huma.
type WorkspaceOutput struct {
	Body *domain.Workspace
}

// ListWorkspacesResponse contains the caller's workspaces.
type ListWorkspacesResponse struct {
	Workspaces []*domain.Workspace `json:"workspaces" doc:"Workspaces visible to the caller"`
}

// ListWorkspacesOutput wraps the list workspaces response for Huma.
type ListWorkspacesOutput struct {
	Body ListWorkspacesResponse
}

// WorkspaceIDInput identifies a workspace.
type WorkspaceIDInput struct {
	ID string `path:"id" doc:"Workspace ID"`
}

// BoardOutput wraps a board for Huma.
type BoardOutput struct {
	Body *domain.Board
}

// UpdateWorkspaceRequest is the request body for updating a workspace.
type UpdateWorkspaceRequest struct {
	Title        *string    `json:"title,omitempty" minLength:"1" maxLength:"200" doc:"Workspace title"`
	Description  *string    `json:"description,omitempty" maxLength:"5000" doc:"Workspace description"`
	Visibility   *string    `json:"visibility,omitempty" enum:"private,public" doc:"Who can read the board"`
	DueDate      *time.Time `json:"due_date,omitempty" doc:"New due date"`
	ClearDueDate bool       `json:"clear_due_date,omitempty" doc:"Remove the due date"`
}

// UpdateWorkspaceInput wraps the update workspace request for Huma.
type UpdateWorkspaceInput struct {
	ID   string `path:"id" doc:"Workspace ID"`
	Body UpdateWorkspaceRequest
}

// ReorderRequest is a complete desired order for a scope.
type ReorderRequest struct {
	Order           []string `json:"order" doc:"Every item ID of the scope, in the desired order"`
	ExpectedVersion *int64   `json:"expected_version,omitempty" doc:"Reject with 409 unless the scope is at this version"`
}

// ReorderListsInput wraps the reorder lists request for Huma.
type ReorderListsInput struct {
	ID   string `path:"id" doc:"Workspace ID"`
	Body ReorderRequest
}

// OrderOutput wraps the resulting order for Huma.
type OrderOutput struct {
	Body *domain.Order
}

// === Handlers ===

func (s *Server) handleCreateWorkspace(ctx context.Context, input *CreateWorkspaceInput) (*WorkspaceOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	ws, err := s.services.Workspace.CreateWorkspace(ctx, actor, service.CreateWorkspaceRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Visibility:  input.Body.Visibility,
		DueDate:     input.Body.DueDate,
	})
	if err != nil {
		return nil, err
	}
	return &WorkspaceOutput{Body: ws}, nil
}

func (s *Server) handleListWorkspaces(ctx context.Context, _ *struct{}) (*ListWorkspacesOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	workspaces, err := s.services.Workspace.ListWorkspaces(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &ListWorkspacesOutput{Body: ListWorkspacesResponse{Workspaces: workspaces}}, nil
}

func (s *Server) handleGetBoard(ctx context.Context, input *WorkspaceIDInput) (*BoardOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	board, err := s.services.Workspace.GetBoard(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}
	return &BoardOutput{Body: board}, nil
}

func (s *Server) handleUpdateWorkspace(ctx context.Context, input *UpdateWorkspaceInput) (*WorkspaceOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	ws, err := s.services.Workspace.UpdateWorkspace(ctx, actor, input.ID, service.UpdateWorkspaceRequest{
		Title:        input.Body.Title,
		Description:  input.Body.Description,
		Visibility:   input.Body.Visibility,
		DueDate:      input.Body.DueDate,
		ClearDueDate: input.Body.ClearDueDate,
	})
	if err != nil {
		return nil, err
	}
	return &WorkspaceOutput{Body: ws}, nil
}

func (s *Server) handleDeleteWorkspace(ctx context.Context, input *WorkspaceIDInput) (*MessageOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Workspace.DeleteWorkspace(ctx, actor, input.ID); err != nil {
		return nil, err
	}
	return message("Workspace deleted"), nil
}

func (s *Server) handleReorderLists(ctx context.Context, input *ReorderListsInput) (*OrderOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.services.Workspace.ReorderLists(ctx, actor, input.ID, service.ReorderListsRequest{
		Order:           input.Body.Order,
		ExpectedVersion: input.Body.ExpectedVersion,
	})
	if err != nil {
		return nil, err
	}
	return &OrderOutput{Body: order}, nil
}
