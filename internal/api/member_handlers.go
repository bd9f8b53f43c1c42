package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/service"
)

func (s *Server) registerMemberRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "addMember",
		Method:      http.MethodPost,
		Path:        "/api/v1/workspaces/{id}/members",
		Summary:     "Add member",
		Description: "Adds a user to the workspace by email. Requires admin.",
		Tags:        []string{"Members"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateMember",
		Method:      http.MethodPatch,
		Path:        "/api/v1/workspaces/{id}/members/{userId}",
		Summary:     "Change member role",
		Description: "Changes a member's role. The owner's role cannot change. Requires admin.",
		Tags:        []string{"Members"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/workspaces/{id}/members/{userId}",
		Summary:     "Remove member",
		Description: "Removes a member. Admins may remove anyone but the owner; members may leave.",
		Tags:        []string{"Members"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveMember)
}

// AddMemberRequest is the request body for adding a member.
type AddMemberRequest struct {
	Email string `json:"email" format:"email" doc:"Email of an existing user"`
	Role  string `json:"role,omitempty" enum:"admin,member" doc:"Role to grant (default member)"`
}

// AddMemberInput wraps the add member request for Huma.
type AddMemberInput struct {
	ID   string `path:"id" doc:"Workspace ID"`
	Body AddMemberRequest
}

// UpdateMemberRequest is the request body for changing a role.
type UpdateMemberRequest struct {
	Role string `json:"role" enum:"admin,member" doc:"New role"`
}

// UpdateMemberInput wraps the update member request for Huma.
type UpdateMemberInput struct {
	ID     string `path:"id" doc:"Workspace ID"`
	UserID string `path:"userId" doc:"Member user ID"`
	Body   UpdateMemberRequest
}

// RemoveMemberInput identifies a membership.
type RemoveMemberInput struct {
	ID     string `path:"id" doc:"Workspace ID"`
	UserID string `path:"userId" doc:"Member user ID"`
}

func (s *Server) handleAddMember(ctx context.Context, input *AddMemberInput) (*WorkspaceOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	ws, err := s.services.Workspace.AddMember(ctx, actor, input.ID, service.AddMemberRequest{
		Email: input.Body.Email,
		Role:  input.Body.Role,
	})
	if err != nil {
		return nil, err
	}
	return &WorkspaceOutput{Body: ws}, nil
}

func (s *Server) handleUpdateMember(ctx context.Context, input *UpdateMemberInput) (*WorkspaceOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	ws, err := s.services.Workspace.UpdateMember(ctx, actor, input.ID, input.UserID, domain.Role(input.Body.Role))
	if err != nil {
		return nil, err
	}
	return &WorkspaceOutput{Body: ws}, nil
}

func (s *Server) handleRemoveMember(ctx context.Context, input *RemoveMemberInput) (*MessageOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Workspace.RemoveMember(ctx, actor, input.ID, input.UserID); err != nil {
		return nil, err
	}
	return message("Member removed"), nil
}
