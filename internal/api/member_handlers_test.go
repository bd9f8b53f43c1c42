package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/kanban-server/internal/domain"
)

func TestMembers(t *testing.T) {
	ts := setupTestServer(t)
	alice, aliceAuth := ts.user(t, "alice")
	bob, bobAuth := ts.user(t, "bob")
	ws := ts.fixture.Workspace(alice, "Board")
	membersPath := "/api/v1/workspaces/" + ws.ID + "/members"

	// Bob cannot see the private board yet.
	resp := ts.api.Get("/api/v1/workspaces/"+ws.ID, bobAuth)
	require.Equal(t, http.StatusForbidden, resp.Code, resp.Body.String())

	resp = ts.api.Post(membersPath, aliceAuth, map[string]any{"email": "BOB@example.com"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	got := decode[domain.Workspace](t, resp.Body.Bytes()).Data
	m, ok := got.Member(bob.ID)
	require.True(t, ok)
	assert.Equal(t, domain.RoleMember, m.Role)

	resp = ts.api.Post(membersPath, aliceAuth, map[string]any{"email": "bob@example.com"})
	require.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())

	resp = ts.api.Post(membersPath, aliceAuth, map[string]any{"email": "nobody@example.com"})
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())

	// Members cannot manage members.
	resp = ts.api.Patch(membersPath+"/"+bob.ID, bobAuth, map[string]any{"role": "admin"})
	require.Equal(t, http.StatusForbidden, resp.Code, resp.Body.String())

	resp = ts.api.Patch(membersPath+"/"+bob.ID, aliceAuth, map[string]any{"role": "admin"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	got = decode[domain.Workspace](t, resp.Body.Bytes()).Data
	assert.True(t, got.IsAdminOrOwner(bob.ID))

	resp = ts.api.Get("/api/v1/workspaces/"+ws.ID, bobAuth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Members may leave on their own.
	resp = ts.api.Delete(membersPath+"/"+bob.ID, bobAuth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/workspaces/"+ws.ID, bobAuth)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}
