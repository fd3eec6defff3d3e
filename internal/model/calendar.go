package model

import "time"

// Calendar is a named collection of events. A calendar belongs to its owner;
// calendars owned by other users are visible only when public or firm-wide.
type Calendar struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	OwnerID   string    `json:"owner_id,omitempty"`
	IsFirm    bool      `json:"is_firm"`
	IsStatute bool      `json:"is_statute"`
	IsPublic  bool      `json:"is_public"`

	// Checked is the visibility toggle. Session state only, never persisted.
	Checked bool `json:"checked"`

	// SharedWith is populated client-side and not stored remotely.
	SharedWith []string `json:"shared_with,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBy reports whether the calendar belongs to the given user.
func (c Calendar) OwnedBy(userID string) bool {
	return c.OwnerID != "" && c.OwnerID == userID
}

// SharedVisible reports whether a calendar owned by someone else should
// appear in the other-calendars set.
func (c Calendar) SharedVisible() bool {
	return c.IsPublic || c.IsFirm
}
