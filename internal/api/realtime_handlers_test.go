package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/realtime"
)

// sseFrame is one decoded server-sent event.
type sseFrame struct {
	Type  string
	Event struct {
		Data     jsontext.Value `json:"data"`
		Type     string         `json:"type"`
		UserID   string         `json:"user_id"`
		UserName string         `json:"user_name"`
		Seq      uint64         `json:"seq"`
	}
}

// openStream connects to a workspace's event stream and returns a channel
// of frames, heartbeats excluded.
func openStream(t *testing.T, baseURL, workspaceID, token string) <-chan sseFrame {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+"/api/v1/workspaces/"+workspaceID+"/events?access_token="+token, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := make(chan sseFrame, 32)
	go func() {
		defer resp.Body.Close()
		defer close(frames)

		reader := bufio.NewReader(resp.Body)
		var frame sseFrame
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				frame.Type = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				_ = json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame.Event)
			case line == "":
				if frame.Type != "" && frame.Type != string(realtime.EventHeartbeat) {
					frames <- frame
				}
				frame = sseFrame{}
			}
		}
	}()
	return frames
}

func nextFrame(t *testing.T, frames <-chan sseFrame) sseFrame {
	t.Helper()
	select {
	case f, ok := <-frames:
		require.True(t, ok, "stream closed")
		return f
	case <-time.After(3 * time.Second):
		require.FailNow(t, "timed out waiting for event")
		return sseFrame{}
	}
}

// postJSON sends an authenticated JSON request to the running server.
func postJSON(t *testing.T, url, token, sessionID string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestEventStream_DeliversToOthersOnly(t *testing.T) {
	ts := setupTestServer(t)
	srv := httptest.NewServer(ts.Server)
	t.Cleanup(srv.Close)

	alice, _ := ts.user(t, "alice")
	bob, _ := ts.user(t, "bob")
	ws := ts.fixture.Workspace(alice, "Board")
	ws.SetMember(bob.ID, domain.RoleMember)
	require.NoError(t, ts.store.UpdateWorkspace(t.Context(), ws))
	list := ts.fixture.List(ws, "Todo")

	aliceToken, err := ts.tokens.GenerateAccessToken(alice)
	require.NoError(t, err)
	bobToken, err := ts.tokens.GenerateAccessToken(bob)
	require.NoError(t, err)

	frames := openStream(t, srv.URL, ws.ID, bobToken)

	connected := nextFrame(t, frames)
	require.Equal(t, string(realtime.EventConnected), connected.Type)
	var hello realtime.ConnectedData
	require.NoError(t, json.Unmarshal(connected.Event.Data, &hello))
	require.NotEmpty(t, hello.SessionID)

	snapshot := nextFrame(t, frames)
	require.Equal(t, string(realtime.EventPresenceSnapshot), snapshot.Type)

	// Bob's own change is not echoed to his session.
	resp := postJSON(t, srv.URL+"/api/v1/lists/"+list.ID+"/cards", bobToken, hello.SessionID, map[string]any{"title": "mine"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/v1/lists/"+list.ID+"/cards", aliceToken, "", map[string]any{"title": "theirs"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := nextFrame(t, frames)
	require.Equal(t, string(realtime.EventCardCreated), created.Type)
	assert.Equal(t, alice.ID, created.Event.UserID)
	assert.Equal(t, "alice", created.Event.UserName)

	var payload struct {
		Card domain.Card `json:"card"`
	}
	require.NoError(t, json.Unmarshal(created.Event.Data, &payload))
	assert.Equal(t, "theirs", payload.Card.Title)
	assert.Equal(t, 2, payload.Card.Position)
	assert.Greater(t, created.Event.Seq, snapshot.Event.Seq)
}

func TestEventStream_Rejections(t *testing.T) {
	ts := setupTestServer(t)
	srv := httptest.NewServer(ts.Server)
	t.Cleanup(srv.Close)

	alice, _ := ts.user(t, "alice")
	mallory, _ := ts.user(t, "mallory")
	ws := ts.fixture.Workspace(alice, "Board")

	malloryToken, err := ts.tokens.GenerateAccessToken(mallory)
	require.NoError(t, err)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"bad token", "?access_token=garbage", http.StatusUnauthorized},
		{"not a member", "?access_token=" + malloryToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/v1/workspaces/" + ws.ID + "/events" + tt.query)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestOriginPatterns(t *testing.T) {
	assert.Equal(t, []string{"*"}, originPatterns(nil))
	assert.Equal(t, []string{"*"}, originPatterns([]string{"https://a.example.com", "*"}))
	assert.Equal(t, []string{"a.example.com", "localhost:3000"},
		originPatterns([]string{"https://a.example.com", "http://localhost:3000"}))
}
