package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/service"
)

func (s *Server) registerCardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createCard",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists/{id}/cards",
		Summary:       "Create card",
		Description:   "Appends a card to the end of the list",
		Tags:          []string{"Cards"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCard",
		Method:      http.MethodGet,
		Path:        "/api/v1/cards/{id}",
		Summary:     "Get card",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCard",
		Method:      http.MethodPatch,
		Path:        "/api/v1/cards/{id}",
		Summary:     "Update card",
		Description: "Edits a card's content. Use the move operation to change its list or position.",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCard",
		Method:      http.MethodDelete,
		Path:        "/api/v1/cards/{id}",
		Summary:     "Delete card",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveCard",
		Method:      http.MethodPost,
		Path:        "/api/v1/cards/{id}/move",
		Summary:     "Move card",
		Description: "Moves a card to a zero-based index in the same or another list of the workspace. " +
			"Out-of-range positions are clamped.",
		Tags:     []string{"Cards"},
		Security: []map[string][]string{{"bearer": {}}},
	}, s.handleMoveCard)
}

// === DTOs ===

// CreateCardRequest is the request body for creating a card.
type CreateCardRequest struct {
	Title       string     `json:"title" minLength:"1" maxLength:"200" doc:"Card title"`
	Description string     `json:"description,omitempty" maxLength:"10000" doc:"Card description"`
	AssignedTo  string     `json:"assigned_to,omitempty" doc:"User ID of a workspace member"`
	Labels      []string   `json:"labels,omitempty" maxItems:"20" doc:"Labels; duplicates are merged"`
	DueDate     *time.Time `json:"due_date,omitempty" doc:"Optional due date"`
}

// CreateCardInput wraps the create card request for Huma.
type CreateCardInput struct {
	ID   string `path:"id" doc:"List ID"`
	Body CreateCardRequest
}

// CardIDInput identifies a card.
type CardIDInput struct {
	ID string `path:"id" doc:"Card ID"`
}

// CardOutput wraps a card for Huma.
type CardOutput struct {
	Body *domain.Card
}

// UpdateCardRequest is the request body for updating a card.
type UpdateCardRequest struct {
	Title        *string    `json:"title,omitempty" minLength:"1" maxLength:"200" doc:"Card title"`
	Description  *string    `json:"description,omitempty" maxLength:"10000" doc:"Card description"`
	AssignedTo   *string    `json:"assigned_to,omitempty" doc:"Assignee user ID; empty string unassigns"`
	Labels       []string   `json:"labels,omitempty" maxItems:"20" doc:"Replacement label set"`
	DueDate      *time.Time `json:"due_date,omitempty" doc:"New due date"`
	ClearDueDate bool       `json:"clear_due_date,omitempty" doc:"Remove the due date"`
}

// UpdateCardInput wraps the update card request for Huma.
type UpdateCardInput struct {
	ID   string `path:"id" doc:"Card ID"`
	Body UpdateCardRequest
}

// MoveCardRequest is the request body for moving a card.
type MoveCardRequest struct {
	ListID   string `json:"list_id" minLength:"1" doc:"Target list ID"`
	Position int    `json:"position" doc:"Zero-based index in the target list"`
}

// MoveCardInput wraps the move card request for Huma.
type MoveCardInput struct {
	ID   string `path:"id" doc:"Card ID"`
	Body MoveCardRequest
}

// MoveCardResponse describes the outcome of a move.
type MoveCardResponse struct {
	Card         *domain.Card  `json:"card" doc:"The moved card"`
	SourceListID *string       `json:"source_list_id" doc:"List the card left; null for a move within one list"`
	TargetListID string        `json:"target_list_id" doc:"List the card is now in"`
	NewPosition  int           `json:"new_position" doc:"Final zero-based index in the target list"`
	SourceOrder  *domain.Order `json:"source_order,omitempty" doc:"Source list order after the move"`
	TargetOrder  *domain.Order `json:"target_order" doc:"Target list order after the move"`
	Changed      bool          `json:"changed" doc:"False when the card was already there"`
}

// MoveCardOutput wraps the move response for Huma.
type MoveCardOutput struct {
	Body MoveCardResponse
}

// === Handlers ===

func (s *Server) handleCreateCard(ctx context.Context, input *CreateCardInput) (*CardOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	card, err := s.services.Card.CreateCard(ctx, actor, input.ID, service.CreateCardRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		AssignedTo:  input.Body.AssignedTo,
		Labels:      input.Body.Labels,
		DueDate:     input.Body.DueDate,
	})
	if err != nil {
		return nil, err
	}
	return &CardOutput{Body: card}, nil
}

func (s *Server) handleGetCard(ctx context.Context, input *CardIDInput) (*CardOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	card, err := s.services.Card.GetCard(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}
	return &CardOutput{Body: card}, nil
}

func (s *Server) handleUpdateCard(ctx context.Context, input *UpdateCardInput) (*CardOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	card, err := s.services.Card.UpdateCard(ctx, actor, input.ID, service.UpdateCardRequest{
		Title:        input.Body.Title,
		Description:  input.Body.Description,
		AssignedTo:   input.Body.AssignedTo,
		Labels:       input.Body.Labels,
		DueDate:      input.Body.DueDate,
		ClearDueDate: input.Body.ClearDueDate,
	})
	if err != nil {
		return nil, err
	}
	return &CardOutput{Body: card}, nil
}

func (s *Server) handleDeleteCard(ctx context.Context, input *CardIDInput) (*MessageOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Card.DeleteCard(ctx, actor, input.ID); err != nil {
		return nil, err
	}
	return message("Card deleted"), nil
}

func (s *Server) handleMoveCard(ctx context.Context, input *MoveCardInput) (*MoveCardOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Card.MoveCard(ctx, actor, input.ID, service.MoveCardRequest{
		ListID:   input.Body.ListID,
		Position: input.Body.Position,
	})
	if err != nil {
		return nil, err
	}

	resp := MoveCardResponse{
		Card:         result.Card,
		TargetListID: result.TargetListID,
		NewPosition:  result.NewPosition,
		SourceOrder:  result.SourceOrder,
		TargetOrder:  result.TargetOrder,
		Changed:      result.Changed,
	}
	if result.CrossList() {
		resp.SourceListID = &result.SourceListID
	}
	return &MoveCardOutput{Body: resp}, nil
}
