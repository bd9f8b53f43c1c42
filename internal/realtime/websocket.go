package realtime

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
)

// Commands a websocket client may send.
const (
	CommandJoinWorkspace  = "join-workspace"
	CommandLeaveWorkspace = "leave-workspace"
	CommandCursorMove     = "cursor-move"
)

// Command is a message received from a websocket client.
type Command struct {
	Type        string  `json:"type"`
	WorkspaceID string  `json:"workspace_id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// WebSocketHandler serves the bidirectional transport at GET /api/v1/ws.
// One connection can join several workspaces and stream cursor moves.
type WebSocketHandler struct {
	hub            *Hub
	presence       Presence
	identify       IdentifyFunc
	authorize      AuthorizeFunc
	logger         *slog.Logger
	originPatterns []string
}

// NewWebSocketHandler creates a WebSocketHandler. originPatterns lists the
// host patterns allowed for cross-origin browser connections.
func NewWebSocketHandler(hub *Hub, presence Presence, identify IdentifyFunc, authorize AuthorizeFunc, originPatterns []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		presence:       presence,
		identify:       identify,
		authorize:      authorize,
		logger:         logger,
		originPatterns: originPatterns,
	}
}

// ServeHTTP upgrades the connection and runs the session until either side
// closes it.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	who, err := h.identify(r)
	if err != nil {
		rejectIdentity(w, err, h.logger)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.CloseNow()

	session, err := h.hub.Connect(who.UserID, who.UserName)
	if err != nil {
		h.logger.Error("failed to register websocket session", "error", err)
		conn.Close(websocket.StatusInternalError, "failed to establish session")
		return
	}
	defer h.hub.Disconnect(session.ID)

	logger := h.logger.With("session_id", session.ID, "user_id", who.UserID)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return h.writeLoop(ctx, conn, session) })
	g.Go(func() error { return h.readLoop(ctx, conn, session, who, logger) })

	err = g.Wait()
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		conn.Close(websocket.StatusNormalClosure, "")
	case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway:
		logger.Debug("websocket closed by client")
	default:
		logger.Info("websocket session ended", "error", err)
	}
}

func (h *WebSocketHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *Session) error {
	for {
		select {
		case event := <-session.Events:
			data, err := json.Marshal(event)
			if err != nil {
				return fmt.Errorf("marshal event: %w", err)
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return err
			}

		case <-session.Done:
			return context.Canceled

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WebSocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *Session, who Identity, logger *slog.Logger) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			h.hub.Send(session.ID, errorEvent("", domainerrors.Validation("malformed message")))
			continue
		}
		if err := h.handle(ctx, session, who, cmd); err != nil {
			logger.Debug("websocket command rejected", "command", cmd.Type, "workspace_id", cmd.WorkspaceID, "error", err)
			h.hub.Send(session.ID, errorEvent(cmd.Type, err))
		}
	}
}

func (h *WebSocketHandler) handle(ctx context.Context, session *Session, who Identity, cmd Command) error {
	if cmd.WorkspaceID == "" {
		return domainerrors.Validation("workspace_id is required")
	}

	switch cmd.Type {
	case CommandJoinWorkspace:
		if err := h.authorize(ctx, who.UserID, cmd.WorkspaceID); err != nil {
			return err
		}
		h.presence.Join(session.ID, who.UserID, who.UserName, cmd.WorkspaceID)
		return nil

	case CommandLeaveWorkspace:
		h.presence.Leave(session.ID, cmd.WorkspaceID)
		return nil

	case CommandCursorMove:
		return h.presence.OnCursor(session.ID, cmd.WorkspaceID, cmd.X, cmd.Y)

	default:
		return domainerrors.Validationf("unknown command %q", cmd.Type)
	}
}
