package domain

import "time"

// ActivityType identifies what happened in a workspace.
type ActivityType string

const (
	ActivityWorkspaceCreated ActivityType = "workspace_created"
	ActivityWorkspaceUpdated ActivityType = "workspace_updated"
	ActivityMemberAdded      ActivityType = "member_added"
	ActivityMemberUpdated    ActivityType = "member_updated"
	ActivityMemberRemoved    ActivityType = "member_removed"
	ActivityListCreated      ActivityType = "list_created"
	ActivityListUpdated      ActivityType = "list_updated"
	ActivityListDeleted      ActivityType = "list_deleted"
	ActivityListsReordered   ActivityType = "lists_reordered"
	ActivityCardCreated      ActivityType = "card_created"
	ActivityCardUpdated      ActivityType = "card_updated"
	ActivityCardMoved        ActivityType = "card_moved"
	ActivityCardDeleted      ActivityType = "card_deleted"
	ActivityCardsReordered   ActivityType = "cards_reordered"
)

// Activity is an immutable entry in a workspace's audit feed.
// The user's display name is denormalized so the feed renders without joins.
type Activity struct {
	CreatedAt   time.Time    `json:"created_at"`
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspace_id"`
	UserID      string       `json:"user_id"`
	UserName    string       `json:"user_name"`
	Type        ActivityType `json:"type"`
	Action      string       `json:"action"`
	ListID      string       `json:"list_id,omitempty"`
	CardID      string       `json:"card_id,omitempty"`
}
