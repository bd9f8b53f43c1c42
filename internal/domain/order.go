package domain

import "slices"

// ScopeKind names the two kinds of ordered containers.
type ScopeKind string

const (
	// ScopeWorkspaceLists orders the lists of a workspace.
	ScopeWorkspaceLists ScopeKind = "workspace"
	// ScopeListCards orders the cards of a list.
	ScopeListCards ScopeKind = "list"
)

// Scope identifies one ordered container.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   string    `json:"id"`
}

// WorkspaceScope returns the scope ordering the lists of workspaceID.
func WorkspaceScope(workspaceID string) Scope {
	return Scope{Kind: ScopeWorkspaceLists, ID: workspaceID}
}

// ListScope returns the scope ordering the cards of listID.
func ListScope(listID string) Scope {
	return Scope{Kind: ScopeListCards, ID: listID}
}

// Key returns a stable string form used for locking and logging.
func (s Scope) Key() string {
	return string(s.Kind) + ":" + s.ID
}

func (s Scope) String() string {
	return s.Key()
}

// Order is the authoritative sequence of a scope's members.
// Version increases by one on every membership or order change.
// Positions holds the stored position of each member, index-aligned with IDs.
type Order struct {
	Scope     Scope    `json:"scope"`
	IDs       []string `json:"ids"`
	Positions []int    `json:"positions"`
	Version   int64    `json:"version"`
}

// Sequential reports whether the stored positions are exactly 1..N.
func (o *Order) Sequential() bool {
	if len(o.Positions) != len(o.IDs) {
		return false
	}
	for i, p := range o.Positions {
		if p != i+1 {
			return false
		}
	}
	return true
}

// Len returns the number of members.
func (o *Order) Len() int {
	return len(o.IDs)
}

// Contains reports whether id is a member.
func (o *Order) Contains(id string) bool {
	return slices.Contains(o.IDs, id)
}

// IndexOf returns the zero-based index of id, or -1.
func (o *Order) IndexOf(id string) int {
	return slices.Index(o.IDs, id)
}
