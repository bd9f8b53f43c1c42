package domain

// User is an account that can own workspaces, join them as a member and be
// attributed on activity and realtime events.
type User struct {
	Record
	Email string `json:"email"`
	Name  string `json:"name"`
}

// DisplayName returns the name shown next to a user's changes, falling back to the email.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// UserSummary is the part of a user shown on the cards assigned to them.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary returns the user's card summary.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
