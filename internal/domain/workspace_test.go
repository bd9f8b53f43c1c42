package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkspace_OwnerIsImplicitAdmin(t *testing.T) {
	ws := &Workspace{OwnerID: "user-1"}

	assert.True(t, ws.IsMember("user-1"))
	assert.True(t, ws.IsAdminOrOwner("user-1"))
	assert.False(t, ws.IsMember("user-2"))
}

func TestWorkspace_SetMember(t *testing.T) {
	ws := &Workspace{OwnerID: "user-1"}

	added := ws.SetMember("user-2", RoleMember)
	assert.True(t, added)
	assert.True(t, ws.IsMember("user-2"))
	assert.False(t, ws.IsAdminOrOwner("user-2"))

	added = ws.SetMember("user-2", RoleAdmin)
	assert.False(t, added, "existing member is updated in place")
	assert.Len(t, ws.Members, 1)
	assert.True(t, ws.IsAdminOrOwner("user-2"))
}

func TestWorkspace_RemoveMember(t *testing.T) {
	ws := &Workspace{OwnerID: "user-1"}
	ws.SetMember("user-2", RoleMember)

	assert.True(t, ws.RemoveMember("user-2"))
	assert.False(t, ws.RemoveMember("user-2"))
	assert.False(t, ws.IsMember("user-2"))
}

func TestWorkspace_CanRead(t *testing.T) {
	tests := []struct {
		name       string
		visibility Visibility
		userID     string
		want       bool
	}{
		{"owner of private", VisibilityPrivate, "owner", true},
		{"stranger on private", VisibilityPrivate, "stranger", false},
		{"stranger on public", VisibilityPublic, "stranger", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := &Workspace{OwnerID: "owner", Visibility: tt.visibility}
			assert.Equal(t, tt.want, ws.CanRead(tt.userID))
		})
	}
}

func TestWorkspace_MemberIDs(t *testing.T) {
	ws := &Workspace{OwnerID: "user-1"}
	ws.SetMember("user-1", RoleAdmin)
	ws.SetMember("user-2", RoleMember)

	assert.Equal(t, []string{"user-1", "user-2"}, ws.MemberIDs())
}
