package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/kanban-server/internal/domain"
)

func TestGetCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	alice, auth := ts.user(t, "alice")

	resp := ts.api.Get("/api/v1/users/me", auth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[domain.User](t, resp.Body.Bytes())
	assert.Equal(t, alice.ID, env.Data.ID)
	assert.Equal(t, "alice@example.com", env.Data.Email)
}

func TestGetCurrentUser_Unauthenticated(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.fixture.User("alice")

	expired, err := ts.tokens.GenerateAccessTokenFor(alice, -time.Minute)
	require.NoError(t, err)

	gone := &domain.User{Email: "ghost@example.com", Name: "ghost"}
	gone.ID = "usr-ghost"
	orphan, err := ts.tokens.GenerateAccessToken(gone)
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers []any
		code    string
	}{
		{"no token", nil, "UNAUTHORIZED"},
		{"malformed header", []any{"Authorization: Token abc"}, "UNAUTHORIZED"},
		{"expired token", []any{"Authorization: Bearer " + expired}, "TOKEN_EXPIRED"},
		{"deleted user", []any{"Authorization: Bearer " + orphan}, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/users/me", tt.headers...)
			require.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())

			env := decode[any](t, resp.Body.Bytes())
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}
