package domain

import (
	"slices"
	"time"
)

// Card is a unit of work positioned within a list.
type Card struct {
	Record
	DueDate     *time.Time `json:"due_date,omitempty"`
	ListID      string     `json:"list_id"`
	WorkspaceID string     `json:"workspace_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	Labels      []string   `json:"labels"`
	Position    int        `json:"position"`

	// Display fields, filled on read from the card's list and assignee.
	// Stores never persist them.
	Assignee  *UserSummary `json:"assignee,omitempty"`
	ListTitle string       `json:"list_title,omitempty"`
}

// Decorate sets the display fields. A nil list leaves ListTitle alone; a
// nil assignee clears Assignee.
func (c *Card) Decorate(list *List, assignee *User) {
	if list != nil {
		c.ListTitle = list.Title
	}
	c.Assignee = nil
	if assignee != nil && assignee.ID == c.AssignedTo {
		c.Assignee = assignee.Summary()
	}
}

// Bare returns a copy of the card without display fields.
func (c *Card) Bare() *Card {
	bare := *c
	bare.Assignee = nil
	bare.ListTitle = ""
	return &bare
}

// HasLabel reports whether the card carries label.
func (c *Card) HasLabel(label string) bool {
	return slices.Contains(c.Labels, label)
}

// BoardList is a list together with its cards in order.
type BoardList struct {
	List
	Cards []*Card `json:"cards"`
}

// Board is the read model of a workspace: lists in order, each with its cards in order.
type Board struct {
	Workspace *Workspace   `json:"workspace"`
	Lists     []*BoardList `json:"lists"`
}
