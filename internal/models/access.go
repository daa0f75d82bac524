package models

import (
	"fmt"
	"time"
)

// AccessGrant is an allowlist entry controlling who may generate playlists.
//
// A user without a grant, or with an unallowlisted one, is treated as not
// registered with the app.
type AccessGrant struct {
	id          string
	sequence    int
	userID      string
	allowlisted bool
	note        string
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewAccessGrant creates an AccessGrant with timestamps set to now.
// The ID is assigned by the repository on Create.
func NewAccessGrant(sequence int, userID string, allowlisted bool, note string) *AccessGrant {
	now := time.Now()
	return &AccessGrant{
		sequence:    sequence,
		userID:      userID,
		allowlisted: allowlisted,
		note:        note,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (g *AccessGrant) ID() string            { return g.id }
func (g *AccessGrant) Sequence() int         { return g.sequence }
func (g *AccessGrant) UserID() string        { return g.userID }
func (g *AccessGrant) Allowlisted() bool     { return g.allowlisted }
func (g *AccessGrant) Note() string          { return g.note }
func (g *AccessGrant) CreatedAt() time.Time  { return g.createdAt }
func (g *AccessGrant) UpdatedAt() time.Time  { return g.updatedAt }
func (g *AccessGrant) DeletedAt() *time.Time { return g.deletedAt }

func (g *AccessGrant) SetID(id string)           { g.id = id }
func (g *AccessGrant) SetAllowlisted(v bool)     { g.allowlisted = v }
func (g *AccessGrant) SetNote(note string)       { g.note = note }
func (g *AccessGrant) SetUpdatedAt(t time.Time)  { g.updatedAt = t }
func (g *AccessGrant) SetDeletedAt(t *time.Time) { g.deletedAt = t }

// Validate checks that the grant is attached to a user.
func (g *AccessGrant) Validate() error {
	if g.userID == "" {
		return fmt.Errorf("access grant user_id is required")
	}
	return nil
}
