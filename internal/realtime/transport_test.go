package realtime

import (
	"bufio"
	"context"
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
)

// fakePresence joins sessions into a staticDirectory.
type fakePresence struct {
	dir     *staticDirectory
	hub     *Hub
	mu      sync.Mutex
	joined  []string
	left    []string
	cursors int
}

func (p *fakePresence) Join(sessionID, userID, userName, workspaceID string) []Member {
	p.mu.Lock()
	p.joined = append(p.joined, workspaceID)
	p.mu.Unlock()
	s, _ := p.hub.Session(sessionID)
	p.dir.join(workspaceID, s)
	return nil
}

func (p *fakePresence) Leave(sessionID, workspaceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.left = append(p.left, workspaceID)
}

func (p *fakePresence) OnCursor(sessionID, workspaceID string, x, y float64) error {
	if workspaceID != "ws-1" {
		return domainerrors.NotFound("not joined")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursors++
	return nil
}

func (p *fakePresence) joins() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.joined...)
}

func identifyHeader(r *http.Request) (Identity, error) {
	user := r.Header.Get("X-User")
	if user == "" {
		user = r.URL.Query().Get("user")
	}
	if user == "" {
		return Identity{}, domainerrors.Unauthorized("missing user")
	}
	return Identity{UserID: user, UserName: strings.ToUpper(user)}, nil
}

func allowWorkspace(_ context.Context, _, workspaceID string) error {
	if workspaceID == "ws-forbidden" {
		return domainerrors.AccessDenied("not a member")
	}
	return nil
}

func newTransportServer(t *testing.T) (*httptest.Server, *Hub, *fakePresence) {
	t.Helper()
	hub, dir := newTestHub(t, Options{})
	presence := &fakePresence{dir: dir, hub: hub}
	logger := slog.New(slog.DiscardHandler)

	r := chi.NewRouter()
	r.Method(http.MethodGet, "/workspaces/{id}/events", NewSSEHandler(hub, presence, identifyHeader, allowWorkspace, logger))
	r.Method(http.MethodGet, "/ws", NewWebSocketHandler(hub, presence, identifyHeader, allowWorkspace, nil, logger))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, presence
}

// readSSE returns the next event's data line.
func readSSE(t *testing.T, sc *bufio.Scanner) Event {
	t.Helper()
	for sc.Scan() {
		line := sc.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var evt Event
			require.NoError(t, json.Unmarshal([]byte(data), &evt))
			return evt
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return Event{}
}

func TestSSEHandler_StreamsWorkspaceEvents(t *testing.T) {
	srv, hub, presence := newTransportServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/workspaces/ws-1/events", nil)
	require.NoError(t, err)
	req.Header.Set("X-User", "usr-1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	connected := readSSE(t, sc)
	require.Equal(t, EventConnected, connected.Type)

	require.Eventually(t, func() bool { return len(presence.joins()) == 1 }, time.Second, 10*time.Millisecond)
	hub.Broadcast("ws-1", EventListCreated, ListCreatedData{WorkspaceID: "ws-1"}, Origin{UserID: "usr-2"})

	evt := readSSE(t, sc)
	assert.Equal(t, EventListCreated, evt.Type)
	assert.Equal(t, "usr-2", evt.UserID)
	assert.Equal(t, uint64(2), evt.Seq)
}

func TestSSEHandler_Rejects(t *testing.T) {
	srv, _, _ := newTransportServer(t)

	tests := []struct {
		name   string
		path   string
		user   string
		status int
	}{
		{name: "anonymous", path: "/workspaces/ws-1/events", status: http.StatusUnauthorized},
		{name: "forbidden", path: "/workspaces/ws-forbidden/events", user: "usr-1", status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+tt.path, nil)
			require.NoError(t, err)
			if tt.user != "" {
				req.Header.Set("X-User", tt.user)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func readWS(t *testing.T, ctx context.Context, conn *websocket.Conn) Event {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var evt Event
	require.NoError(t, json.Unmarshal(data, &evt))
	return evt
}

func writeWS(t *testing.T, ctx context.Context, conn *websocket.Conn, cmd Command) {
	t.Helper()
	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func TestWebSocketHandler_Commands(t *testing.T) {
	srv, hub, presence := newTransportServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?user=usr-1", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	connected := readWS(t, ctx, conn)
	require.Equal(t, EventConnected, connected.Type)

	writeWS(t, ctx, conn, Command{Type: CommandJoinWorkspace, WorkspaceID: "ws-1"})
	require.Eventually(t, func() bool { return len(presence.joins()) == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("ws-1", EventCardCreated, CardCreatedData{WorkspaceID: "ws-1", ListID: "list-1"}, Origin{})
	assert.Equal(t, EventCardCreated, readWS(t, ctx, conn).Type)

	writeWS(t, ctx, conn, Command{Type: CommandJoinWorkspace, WorkspaceID: "ws-forbidden"})
	evt := readWS(t, ctx, conn)
	assert.Equal(t, EventError, evt.Type)
	data, ok := evt.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(domainerrors.CodeAccessDenied), data["code"])
	assert.Equal(t, CommandJoinWorkspace, data["command"])

	writeWS(t, ctx, conn, Command{Type: CommandCursorMove, WorkspaceID: "ws-2", X: 1, Y: 2})
	assert.Equal(t, EventError, readWS(t, ctx, conn).Type)

	writeWS(t, ctx, conn, Command{Type: "bogus", WorkspaceID: "ws-1"})
	assert.Equal(t, EventError, readWS(t, ctx, conn).Type)

	writeWS(t, ctx, conn, Command{Type: CommandLeaveWorkspace, WorkspaceID: "ws-1"})
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	require.Eventually(t, func() bool { return hub.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_RequiresIdentity(t *testing.T) {
	srv, _, _ := newTransportServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
