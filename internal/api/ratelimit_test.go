package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/kanban-server/internal/ratelimit"
)

func TestRateLimitMiddleware(t *testing.T) {
	ts := setupTestServerWith(t, testServerOptions{limiter: ratelimit.New(0.001, 2)})
	_, auth := ts.user(t, "alice")

	for range 2 {
		resp := ts.api.Post("/api/v1/workspaces", auth, map[string]any{"title": "Board"})
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}

	resp := ts.api.Post("/api/v1/workspaces", auth, map[string]any{"title": "Board"})
	require.Equal(t, http.StatusTooManyRequests, resp.Code, resp.Body.String())
	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)

	// Reads are never limited.
	resp = ts.api.Get("/api/v1/workspaces", auth)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"10.0.0.1:5555", "10.0.0.1"},
		{"[::1]:80", "::1"},
		{"10.0.0.2", "10.0.0.2"},
	}
	for _, tt := range tests {
		r := &http.Request{RemoteAddr: tt.remote}
		assert.Equal(t, tt.want, getClientIP(r))
	}
}
