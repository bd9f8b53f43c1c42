package domain

import (
	"slices"
	"time"
)

// Visibility controls who can read a workspace.
type Visibility string

const (
	// VisibilityPrivate restricts the workspace to its owner and members.
	VisibilityPrivate Visibility = "private"
	// VisibilityPublic lets any authenticated user read the board.
	// Mutations still require membership.
	VisibilityPublic Visibility = "public"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

// Role is a member's permission level within a single workspace.
type Role string

const (
	// RoleAdmin can manage members, settings and delete the workspace's content.
	RoleAdmin Role = "admin"
	// RoleMember can read and edit lists and cards.
	RoleMember Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Member is a user's membership in a workspace.
type Member struct {
	JoinedAt  time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
}

// Workspace is a board: the top-level container of ordered lists.
//
// ListOrder is the authoritative ordering of the workspace's lists. List.Position
// is a denormalized copy rewritten alongside it.
type Workspace struct {
	Record
	DueDate          *time.Time `json:"due_date,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Visibility       Visibility `json:"visibility"`
	OwnerID          string     `json:"owner_id"`
	Members          []Member   `json:"members"`
	ListOrder        []string   `json:"list_order"`
	ListOrderVersion int64      `json:"list_order_version"`
}

// Member returns the membership entry for userID, if any.
func (w *Workspace) Member(userID string) (Member, bool) {
	i := slices.IndexFunc(w.Members, func(m Member) bool { return m.UserID == userID })
	if i < 0 {
		return Member{}, false
	}
	return w.Members[i], true
}

// IsMember reports whether userID is the owner or a listed member.
func (w *Workspace) IsMember(userID string) bool {
	if w.OwnerID == userID {
		return true
	}
	_, ok := w.Member(userID)
	return ok
}

// IsAdminOrOwner reports whether userID may manage the workspace.
// The owner is implicitly an admin even if the member entry was edited.
func (w *Workspace) IsAdminOrOwner(userID string) bool {
	if w.OwnerID == userID {
		return true
	}
	m, ok := w.Member(userID)
	return ok && m.Role == RoleAdmin
}

// CanRead reports whether userID may view the board.
func (w *Workspace) CanRead(userID string) bool {
	return w.Visibility == VisibilityPublic || w.IsMember(userID)
}

// SetMember adds or updates a membership. Returns true if the member was new.
func (w *Workspace) SetMember(userID string, role Role) bool {
	now := time.Now().UTC()
	for i := range w.Members {
		if w.Members[i].UserID == userID {
			w.Members[i].Role = role
			w.Members[i].UpdatedAt = now
			return false
		}
	}
	w.Members = append(w.Members, Member{UserID: userID, Role: role, JoinedAt: now, UpdatedAt: now})
	return true
}

// RemoveMember drops userID from the member list. Returns false if absent.
func (w *Workspace) RemoveMember(userID string) bool {
	before := len(w.Members)
	w.Members = slices.DeleteFunc(w.Members, func(m Member) bool { return m.UserID == userID })
	return len(w.Members) != before
}

// MemberIDs returns the IDs of every user with access, owner first.
func (w *Workspace) MemberIDs() []string {
	ids := make([]string, 0, len(w.Members)+1)
	ids = append(ids, w.OwnerID)
	for _, m := range w.Members {
		if m.UserID != w.OwnerID {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}
