package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/service"
)

func (s *Server) registerListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createList",
		Method:        http.MethodPost,
		Path:          "/api/v1/workspaces/{id}/lists",
		Summary:       "Create list",
		Description:   "Appends a list to the end of the workspace",
		Tags:          []string{"Lists"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateList)

	huma.Register(s.api, huma.Operation{
		OperationID: "getList",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/{id}",
		Summary:     "Get list",
		Description: "Returns a list with its cards in order",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetList)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateList",
		Method:      http.MethodPatch,
		Path:        "/api/v1/lists/{id}",
		Summary:     "Rename list",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateList)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteList",
		Method:      http.MethodDelete,
		Path:        "/api/v1/lists/{id}",
		Summary:     "Delete list",
		Description: "Deletes the list and its cards, then closes the gap in the workspace order",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteList)

	huma.Register(s.api, huma.Operation{
		OperationID: "reorderCards",
		Method:      http.MethodPut,
		Path:        "/api/v1/lists/{id}/cards/order",
		Summary:     "Reorder cards",
		Description: "Replaces the list's card order. The order must name every card exactly once.",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReorderCards)
}

// ListRequest is the request body for creating or renaming a list.
type ListRequest struct {
	Title string `json:"title" minLength:"1" maxLength:"200" doc:"List title"`
}

// CreateListInput wraps the create list request for Huma.
type CreateListInput struct {
	ID   string `path:"id" doc:"Workspace ID"`
	Body ListRequest
}

// ListIDInput identifies a list.
type ListIDInput struct {
	ID string `path:"id" doc:"List ID"`
}

// UpdateListInput wraps the rename request for Huma.
type UpdateListInput struct {
	ID   string `path:"id" doc:"List ID"`
	Body ListRequest
}

// ListOutput wraps a list for Huma.
type ListOutput struct {
	Body *domain.List
}

// ListWithCardsOutput wraps a list and its cards for Huma.
type ListWithCardsOutput struct {
	Body *domain.BoardList
}

// ReorderCardsInput wraps the reorder cards request for Huma.
type ReorderCardsInput struct {
	ID   string `path:"id" doc:"List ID"`
	Body ReorderRequest
}

func (s *Server) handleCreateList(ctx context.Context, input *CreateListInput) (*ListOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.services.List.CreateList(ctx, actor, input.ID, service.ListRequest{Title: input.Body.Title})
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: list}, nil
}

func (s *Server) handleGetList(ctx context.Context, input *ListIDInput) (*ListWithCardsOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.services.List.GetList(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}
	cards, err := s.services.List.ListCards(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}
	return &ListWithCardsOutput{Body: &domain.BoardList{List: *list, Cards: cards}}, nil
}

func (s *Server) handleUpdateList(ctx context.Context, input *UpdateListInput) (*ListOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.services.List.UpdateList(ctx, actor, input.ID, service.ListRequest{Title: input.Body.Title})
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: list}, nil
}

func (s *Server) handleDeleteList(ctx context.Context, input *ListIDInput) (*MessageOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.List.DeleteList(ctx, actor, input.ID); err != nil {
		return nil, err
	}
	return message("List deleted"), nil
}

func (s *Server) handleReorderCards(ctx context.Context, input *ReorderCardsInput) (*OrderOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.services.List.ReorderCards(ctx, actor, input.ID, service.ReorderCardsRequest{
		Order:           input.Body.Order,
		ExpectedVersion: input.Body.ExpectedVersion,
	})
	if err != nil {
		return nil, err
	}
	return &OrderOutput{Body: order}, nil
}
