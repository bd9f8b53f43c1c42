package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/store"
)

func (s *Server) registerActivityRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listActivities",
		Method:      http.MethodGet,
		Path:        "/api/v1/workspaces/{id}/activities",
		Summary:     "List activity",
		Description: "Returns the workspace's activity feed, newest first",
		Tags:        []string{"Activity"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListActivities)
}

// ListActivitiesInput contains parameters for the activity feed.
type ListActivitiesInput struct {
	ID     string `path:"id" doc:"Workspace ID"`
	Limit  int    `query:"limit" minimum:"0" maximum:"200" doc:"Page size (default 50)"`
	Offset int    `query:"offset" minimum:"0" doc:"Entries to skip"`
}

// ActivitiesResponse is one page of the activity feed.
type ActivitiesResponse struct {
	Activities []*domain.Activity `json:"activities" doc:"Activities, newest first"`
	Limit      int                `json:"limit" doc:"Page size used"`
	Offset     int                `json:"offset" doc:"Entries skipped"`
	HasMore    bool               `json:"has_more" doc:"Whether the page was full"`
}

// ActivitiesOutput wraps the activity feed for Huma.
type ActivitiesOutput struct {
	Body ActivitiesResponse
}

func (s *Server) handleListActivities(ctx context.Context, input *ListActivitiesInput) (*ActivitiesOutput, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	params := store.PageParams{Limit: input.Limit, Offset: input.Offset}
	params.Validate()

	activities, err := s.services.Activity.List(ctx, actor, input.ID, params)
	if err != nil {
		return nil, err
	}

	return &ActivitiesOutput{Body: ActivitiesResponse{
		Activities: activities,
		Limit:      params.Limit,
		Offset:     params.Offset,
		HasMore:    len(activities) == params.Limit,
	}}, nil
}
