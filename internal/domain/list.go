package domain

// List is an ordered column of cards within a workspace.
//
// CardOrder is the authoritative card sequence. Position is the list's 1-based
// slot in its workspace's ListOrder.
type List struct {
	Record
	WorkspaceID      string   `json:"workspace_id"`
	Title            string   `json:"title"`
	Position         int      `json:"position"`
	CardOrder        []string `json:"card_order"`
	CardOrderVersion int64    `json:"card_order_version"`
}

// CardIDs returns the membership of the list as a set, derived from CardOrder.
func (l *List) CardIDs() map[string]struct{} {
	set := make(map[string]struct{}, len(l.CardOrder))
	for _, id := range l.CardOrder {
		set[id] = struct{}{}
	}
	return set
}

// HasCard reports whether cardID is a member of the list.
func (l *List) HasCard(cardID string) bool {
	_, ok := l.CardIDs()[cardID]
	return ok
}
