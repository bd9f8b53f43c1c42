package realtime

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/listenupapp/kanban-server/internal/http/response"
)

// SSEHandler streams a workspace's events at GET /api/v1/workspaces/{id}/events.
// Opening the stream joins the workspace; closing it leaves.
type SSEHandler struct {
	hub       *Hub
	presence  Presence
	identify  IdentifyFunc
	authorize AuthorizeFunc
	logger    *slog.Logger
}

// NewSSEHandler creates an SSEHandler.
func NewSSEHandler(hub *Hub, presence Presence, identify IdentifyFunc, authorize AuthorizeFunc, logger *slog.Logger) *SSEHandler {
	return &SSEHandler{
		hub:       hub,
		presence:  presence,
		identify:  identify,
		authorize: authorize,
		logger:    logger,
	}
}

// ServeHTTP handles the SSE connection.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.MethodNotAllowed(w, h.logger)
		return
	}
	if r.Context().Err() != nil {
		return
	}

	who, err := h.identify(r)
	if err != nil {
		rejectIdentity(w, err, h.logger)
		return
	}
	workspaceID := chi.URLParam(r, "id")
	if err := h.authorize(r.Context(), who.UserID, workspaceID); err != nil {
		response.HandleError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("failed to flush headers", "error", err)
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	session, err := h.hub.Connect(who.UserID, who.UserName)
	if err != nil {
		h.logger.Error("failed to register SSE session", "error", err)
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.hub.Disconnect(session.ID)

	h.presence.Join(session.ID, who.UserID, who.UserName, workspaceID)

	sessionLogger := h.logger.With("session_id", session.ID, "workspace_id", workspaceID)
	ctx := r.Context()
	for {
		select {
		case event := <-session.Events:
			if err := h.send(w, rc, event); err != nil {
				sessionLogger.Info("client disconnected during send")
				return
			}

		case <-session.Done:
			sessionLogger.Info("session closed by hub")
			return

		case <-ctx.Done():
			sessionLogger.Debug("client context canceled")
			return
		}
	}
}

// send writes one event in SSE framing and flushes it.
func (h *SSEHandler) send(w http.ResponseWriter, rc *http.ResponseController, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if event.Seq > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", event.Seq); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}

	// Not every ResponseWriter supports deadlines.
	if err := rc.SetWriteDeadline(time.Now().Add(writeTimeout * 6)); err != nil {
		h.logger.Debug("failed to set write deadline", "error", err)
	}
	return nil
}
