package api

import (
	"net/url"

	"github.com/listenupapp/kanban-server/internal/realtime"
)

// registerRealtimeRoutes mounts the streaming transports. They bypass huma:
// both hold the connection open and write their own frames.
func (s *Server) registerRealtimeRoutes() {
	if s.hub == nil || s.tracker == nil {
		return
	}

	sse := realtime.NewSSEHandler(s.hub, s.tracker, s.identifyRealtime, s.services.Access.AuthorizeSubscribe, s.logger)
	ws := realtime.NewWebSocketHandler(s.hub, s.tracker, s.identifyRealtime, s.services.Access.AuthorizeSubscribe,
		originPatterns(s.opts.AllowedOrigins), s.logger)

	s.router.Get("/api/v1/workspaces/{id}/events", sse.ServeHTTP)
	s.router.Get("/api/v1/ws", ws.ServeHTTP)
}

// originPatterns converts CORS origins ("https://app.example.com") to the
// host patterns the websocket handshake checks.
func originPatterns(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, origin)
	}
	return patterns
}
